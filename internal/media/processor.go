// Package media turns arbitrary videos into Telegram video notes.
package media

import (
	"context"
	"errors"
	"fmt"
)

// Encoding targets for video notes.
const (
	VideoCodec   = "libx264"
	VideoBitrate = "1M"
	AudioCodec   = "aac"
	AudioBitrate = "128k"
)

// Static errors for parameter validation.
var (
	// ErrInvalidParams is returned when the duration or frame size is not positive.
	ErrInvalidParams = errors.New("invalid params: max duration and frame size must be positive")
	// ErrOddFrameSize is returned for odd frame sizes, which yuv420p cannot encode.
	ErrOddFrameSize = errors.New("invalid params: frame size must be even")
)

// Params controls the shape of the produced video note.
type Params struct {
	// MaxDurationSec is where the input is cut. Shorter inputs are kept whole.
	MaxDurationSec int
	// FrameSize is the side of the square output frame in pixels.
	FrameSize int
}

// DefaultParams returns the Telegram-friendly defaults: 59 seconds, 360px.
func DefaultParams() Params {
	return Params{
		MaxDurationSec: 59,
		FrameSize:      360,
	}
}

// Validate checks that both fields are positive and the frame size is even.
func (p Params) Validate() error {
	if p.MaxDurationSec <= 0 || p.FrameSize <= 0 {
		return fmt.Errorf("%w: max_duration=%d, frame_size=%d", ErrInvalidParams, p.MaxDurationSec, p.FrameSize)
	}
	if p.FrameSize%2 != 0 {
		return fmt.Errorf("%w: frame_size=%d", ErrOddFrameSize, p.FrameSize)
	}
	return nil
}

// Result describes a finished video note.
type Result struct {
	// Path is the output file.
	Path string
	// DurationSec is the video stream duration truncated to whole seconds.
	DurationSec int
	// FrameSize is the side of the square frame.
	FrameSize int
}

// Transcoder converts a video file into a video note.
type Transcoder interface {
	// Transcode trims src to p.MaxDurationSec, scales the shorter side to
	// p.FrameSize, center-crops to a square and re-encodes into dst.
	// An existing dst is overwritten. src is never removed.
	//
	// Any encode or probe failure is reported as *TranscodeError and leaves
	// no file at dst.
	Transcode(ctx context.Context, src, dst string, p Params) (Result, error)
}
