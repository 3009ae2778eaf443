package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/maauso/videonote-bot/internal/note"
)

// ErrUnexpectedStatus is returned when the file server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected status from file server")

// Compile-time checks for the note service ports.
var (
	_ note.Downloader = (*FileDownloader)(nil)
	_ note.Sender     = (*NoteSender)(nil)
)

// FileDownloader fetches attachments through getFile and the file download link.
type FileDownloader struct {
	api        API
	httpClient *http.Client
}

// DownloaderOption is a function that configures a FileDownloader.
type DownloaderOption func(*FileDownloader)

// WithHTTPClient sets the HTTP client used for file downloads.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *FileDownloader) {
		d.httpClient = c
	}
}

// NewFileDownloader creates a new FileDownloader.
func NewFileDownloader(api API, opts ...DownloaderOption) *FileDownloader {
	d := &FileDownloader{
		api:        api,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download implements note.Downloader.
func (d *FileDownloader) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	file, err := d.api.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.api.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	return resp.Body, nil
}

// NoteSender uploads finished video notes as replies.
type NoteSender struct {
	api API
}

// NewNoteSender creates a new NoteSender.
func NewNoteSender(api API) *NoteSender {
	return &NoteSender{api: api}
}

// SendVideoNote implements note.Sender.
func (s *NoteSender) SendVideoNote(ctx context.Context, req note.Request, vn note.VideoNote, data io.Reader) error {
	_, err := s.api.SendVideoNote(ctx, &bot.SendVideoNoteParams{
		ChatID: req.ChatID,
		VideoNote: &models.InputFileUpload{
			Filename: vn.Filename,
			Data:     data,
		},
		Duration:        vn.DurationSec,
		Length:          vn.Length,
		ReplyParameters: &models.ReplyParameters{MessageID: req.MessageID},
	})
	return err
}
