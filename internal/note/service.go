// Package note provides the Service that turns one inbound video into one
// video note reply: download, transcode, send, and always clean up.
package note

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/maauso/videonote-bot/internal/media"
	"github.com/maauso/videonote-bot/internal/metrics"
	"github.com/maauso/videonote-bot/internal/note/id"
	"github.com/maauso/videonote-bot/internal/storage"
)

// Static errors for the transport steps around the transcoder.
var (
	// ErrDownload is returned when the inbound attachment cannot be fetched.
	ErrDownload = errors.New("download video")
	// ErrUpload is returned when the video note cannot be delivered.
	ErrUpload = errors.New("send video note")
)

// Request identifies one inbound video and where the reply goes.
type Request struct {
	// FileID is the messenger's handle for the attachment.
	FileID string
	// ChatID is the chat to reply in.
	ChatID int64
	// MessageID is the message carrying the video; the note replies to it.
	MessageID int
}

// VideoNote is a finished note ready for upload.
type VideoNote struct {
	// Filename is a display name for the upload.
	Filename string
	// DurationSec is the truncated video duration.
	DurationSec int
	// Length is the side of the square frame.
	Length int
}

// Downloader fetches an inbound attachment.
type Downloader interface {
	// Download opens the attachment. The caller closes the returned reader.
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Sender delivers a finished video note.
type Sender interface {
	// SendVideoNote uploads data as a video note replying to req.
	SendVideoNote(ctx context.Context, req Request, note VideoNote, data io.Reader) error
}

// Service runs the video note pipeline for a single request at a time per
// call; independent calls may run concurrently.
type Service struct {
	transcoder media.Transcoder
	store      storage.Storage
	downloader Downloader
	sender     Sender
	logger     *slog.Logger
	metrics    *metrics.Metrics

	params  media.Params
	timeout time.Duration
	slots   *semaphore.Weighted
}

// ServiceOption is a function that configures a Service.
type ServiceOption func(*Service)

// WithParams sets the maximum duration and frame size.
func WithParams(p media.Params) ServiceOption {
	return func(s *Service) {
		s.params = p
	}
}

// WithMaxConcurrent limits how many transcodes run at once.
// Values below one are ignored.
func WithMaxConcurrent(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.slots = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithTimeout bounds a single transcode. Zero disables the watchdog.
func WithTimeout(d time.Duration) ServiceOption {
	return func(s *Service) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// WithMetrics records request outcomes and transcode timings.
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new Service.
func NewService(
	transcoder media.Transcoder,
	store storage.Storage,
	downloader Downloader,
	sender Sender,
	logger *slog.Logger,
	opts ...ServiceOption,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		transcoder: transcoder,
		store:      store,
		downloader: downloader,
		sender:     sender,
		logger:     logger,
		params:     media.DefaultParams(),
		timeout:    5 * time.Minute,
		slots:      semaphore.NewWeighted(2),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Params returns the video note parameters in use.
func (s *Service) Params() media.Params {
	return s.params
}

// Process converts the video referenced by req into a video note and sends it.
//
// Both temporary files are removed before Process returns, on success and on
// every error path. Errors wrap ErrDownload, ErrUpload or *media.TranscodeError.
func (s *Service) Process(ctx context.Context, req Request) error {
	reqID := id.Generate()
	logger := s.logger.With(
		slog.String("request_id", reqID),
		slog.Int64("chat_id", req.ChatID),
		slog.Int("message_id", req.MessageID),
	)

	var inputPath string
	outputPath := s.store.TempPath("output.mp4")
	defer func() {
		// Cleanup must outlive a cancelled request.
		if err := s.store.CleanupTemp(context.WithoutCancel(ctx), []string{inputPath, outputPath}); err != nil {
			logger.Warn("failed to remove temporary files",
				slog.String("error", err.Error()),
			)
			return
		}
		logger.Debug("temporary files removed")
	}()

	inputPath, err := s.download(ctx, req.FileID)
	if err != nil {
		s.observe(ctx, metrics.OutcomeDownloadFailed)
		return err
	}

	logger.Info("starting conversion",
		slog.String("input", inputPath),
		slog.Int("max_duration_sec", s.params.MaxDurationSec),
		slog.Int("frame_size", s.params.FrameSize),
	)

	result, err := s.transcode(ctx, inputPath, outputPath)
	if err != nil {
		s.observe(ctx, metrics.OutcomeTranscodeFailed)
		return err
	}

	logger.Info("conversion finished",
		slog.String("output", result.Path),
		slog.Int("duration_sec", result.DurationSec),
	)

	if err := s.send(ctx, req, result); err != nil {
		s.observe(ctx, metrics.OutcomeUploadFailed)
		return err
	}

	s.observe(ctx, metrics.OutcomeSuccess)
	return nil
}

// download stores the attachment in a fresh temporary file.
func (s *Service) download(ctx context.Context, fileID string) (string, error) {
	body, err := s.downloader.Download(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	defer func() { _ = body.Close() }()

	path, err := s.store.SaveTemp(ctx, "input.mp4", body)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownload, err)
	}
	return path, nil
}

// transcode waits for a free slot and runs the transcoder under the watchdog.
func (s *Service) transcode(ctx context.Context, src, dst string) (media.Result, error) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return media.Result{}, &media.TranscodeError{Op: media.OpWait, Err: err}
	}
	defer s.slots.Release(1)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := s.metrics.TrackTranscode()
	defer done()

	return s.transcoder.Transcode(ctx, src, dst, s.params)
}

// send uploads the finished note.
func (s *Service) send(ctx context.Context, req Request, result media.Result) error {
	data, err := s.store.LoadTemp(ctx, result.Path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpload, err)
	}
	defer func() { _ = data.Close() }()

	note := VideoNote{
		Filename:    "video_note.mp4",
		DurationSec: result.DurationSec,
		Length:      result.FrameSize,
	}
	if err := s.sender.SendVideoNote(ctx, req, note, data); err != nil {
		return fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return nil
}

// observe records the outcome, folding failures caused by cancellation into one label.
func (s *Service) observe(ctx context.Context, outcome string) {
	if outcome != metrics.OutcomeSuccess && ctx.Err() != nil {
		outcome = metrics.OutcomeCancelled
	}
	s.metrics.ObserveRequest(outcome)
}
