package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/maauso/videonote-bot/internal/note"
)

func newFileServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/file/bottoken/videos/file_1.mp4", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func expectFile(client *mockClient, link string) {
	file := &models.File{FileID: "file-1", FilePath: "videos/file_1.mp4"}
	client.On("GetFile", mock.Anything, &bot.GetFileParams{FileID: "file-1"}).Return(file, nil).Once()
	client.On("FileDownloadLink", file).Return(link).Once()
}

func TestNewFileDownloader_Defaults(t *testing.T) {
	d := NewFileDownloader(&mockClient{})
	require.NotNil(t, d.httpClient)
	assert.Equal(t, 2*time.Minute, d.httpClient.Timeout)

	custom := &http.Client{}
	d = NewFileDownloader(&mockClient{}, WithHTTPClient(custom))
	assert.Same(t, custom, d.httpClient)
}

func TestFileDownloader_Download(t *testing.T) {
	srv := newFileServer(t, http.StatusOK, "video bytes")
	client := &mockClient{}
	expectFile(client, srv.URL+"/file/bottoken/videos/file_1.mp4")

	body, err := NewFileDownloader(client).Download(context.Background(), "file-1")
	require.NoError(t, err)
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
	client.AssertExpectations(t)
}

func TestFileDownloader_GetFileFails(t *testing.T) {
	client := &mockClient{}
	apiErr := errors.New("Bad Request: file is too big")
	client.On("GetFile", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	_, err := NewFileDownloader(client).Download(context.Background(), "file-1")

	assert.ErrorIs(t, err, apiErr)
	client.AssertNotCalled(t, "FileDownloadLink", mock.Anything)
}

func TestFileDownloader_UnexpectedStatus(t *testing.T) {
	srv := newFileServer(t, http.StatusNotFound, "not found")
	client := &mockClient{}
	expectFile(client, srv.URL+"/file/bottoken/videos/file_1.mp4")

	_, err := NewFileDownloader(client).Download(context.Background(), "file-1")

	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Contains(t, err.Error(), "404")
}

func TestFileDownloader_CancelledContext(t *testing.T) {
	srv := newFileServer(t, http.StatusOK, "video bytes")
	client := &mockClient{}
	file := &models.File{FileID: "file-1", FilePath: "videos/file_1.mp4"}
	client.On("GetFile", mock.Anything, mock.Anything).Return(file, nil).Once()
	client.On("FileDownloadLink", file).Return(srv.URL + "/file/bottoken/videos/file_1.mp4").Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileDownloader(client).Download(ctx, "file-1")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNoteSender_SendVideoNote(t *testing.T) {
	client := &mockClient{}
	var uploaded string
	client.On("SendVideoNote", mock.Anything, mock.MatchedBy(func(p *bot.SendVideoNoteParams) bool {
		upload, ok := p.VideoNote.(*models.InputFileUpload)
		if !ok || upload.Filename != "video_note.mp4" {
			return false
		}
		return p.ChatID == int64(42) &&
			p.Duration == 12 &&
			p.Length == 360 &&
			p.ReplyParameters != nil &&
			p.ReplyParameters.MessageID == 7
	})).
		Run(func(args mock.Arguments) {
			p := args.Get(1).(*bot.SendVideoNoteParams)
			data, _ := io.ReadAll(p.VideoNote.(*models.InputFileUpload).Data)
			uploaded = string(data)
		}).
		Return(&models.Message{ID: 9}, nil).Once()

	err := NewNoteSender(client).SendVideoNote(context.Background(),
		note.Request{FileID: "file-1", ChatID: 42, MessageID: 7},
		note.VideoNote{Filename: "video_note.mp4", DurationSec: 12, Length: 360},
		strings.NewReader("note bytes"),
	)

	require.NoError(t, err)
	assert.Equal(t, "note bytes", uploaded)
	client.AssertExpectations(t)
}

func TestNoteSender_SendVideoNoteError(t *testing.T) {
	client := &mockClient{}
	apiErr := errors.New("Bad Request: VOICE_MESSAGES_FORBIDDEN")
	client.On("SendVideoNote", mock.Anything, mock.Anything).Return(nil, apiErr).Once()

	err := NewNoteSender(client).SendVideoNote(context.Background(),
		note.Request{ChatID: 42, MessageID: 7},
		note.VideoNote{Filename: "video_note.mp4"},
		strings.NewReader(""),
	)

	assert.ErrorIs(t, err, apiErr)
}
