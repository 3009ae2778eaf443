package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Static errors for probe results.
var (
	// ErrNoVideoStream is returned when the probed file has no video stream.
	ErrNoVideoStream = errors.New("no video stream found")
	// ErrNoDuration is returned when the video stream carries no usable duration.
	ErrNoDuration = errors.New("video stream has no duration")
)

// Transcode stages reported in TranscodeError.Op. OpWait is used by callers
// that gave up waiting for a free transcode slot.
const (
	OpInput  = "input"
	OpEncode = "encode"
	OpProbe  = "probe"
	OpWait   = "wait"
)

// Compile-time check that FFmpegTranscoder implements Transcoder.
var _ Transcoder = (*FFmpegTranscoder)(nil)

// FFmpegTranscoder implements Transcoder using the ffmpeg and ffprobe CLIs.
type FFmpegTranscoder struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpegTranscoder creates a new FFmpegTranscoder.
// Empty paths default to the binaries found via PATH.
func NewFFmpegTranscoder(ffmpegPath, ffprobePath string) *FFmpegTranscoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpegTranscoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// Transcode implements Transcoder.
func (t *FFmpegTranscoder) Transcode(ctx context.Context, src, dst string, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}

	if _, err := os.Stat(src); err != nil {
		return Result{}, &TranscodeError{Op: OpInput, Err: err}
	}

	if err := t.run(ctx, OpEncode, t.ffmpegPath, EncodeArgs(src, dst, p), nil); err != nil {
		removePartial(dst)
		return Result{}, err
	}

	duration, err := t.probeDuration(ctx, dst)
	if err != nil {
		removePartial(dst)
		return Result{}, err
	}

	return Result{
		Path:        dst,
		DurationSec: TruncateSeconds(duration),
		FrameSize:   p.FrameSize,
	}, nil
}

// EncodeArgs builds the ffmpeg argument list for a video note.
// The cut is applied as an output duration so audio and video end together.
func EncodeArgs(src, dst string, p Params) []string {
	return ffmpeg.Input(src).
		Output(dst, ffmpeg.KwArgs{
			"t":        p.MaxDurationSec,
			"vf":       VideoNoteFilter(p.FrameSize),
			"c:v":      VideoCodec,
			"b:v":      VideoBitrate,
			"c:a":      AudioCodec,
			"b:a":      AudioBitrate,
			"pix_fmt":  "yuv420p",
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		GetArgs()
}

// VideoNoteFilter returns the filter chain that scales the shorter side to
// size and crops the centre square. -2 keeps the long side even for libx264.
func VideoNoteFilter(size int) string {
	return fmt.Sprintf(
		"scale='if(gte(iw,ih),-2,%[1]d)':'if(gte(iw,ih),%[1]d,-2)',crop=%[1]d:%[1]d,setsar=1",
		size,
	)
}

// TruncateSeconds drops the fractional part of a duration.
func TruncateSeconds(seconds float64) int {
	return int(math.Trunc(seconds))
}

// probeOutput is the subset of ffprobe's JSON output we read.
type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// ParseVideoDuration extracts the first video stream's duration in seconds
// from ffprobe JSON output.
func ParseVideoDuration(data []byte) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("decode ffprobe output: %w", err)
	}

	for _, s := range out.Streams {
		if s.CodecType != "video" {
			continue
		}
		raw := strings.TrimSpace(s.Duration)
		if raw == "" || raw == "N/A" {
			return 0, ErrNoDuration
		}
		d, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrNoDuration, raw, err)
		}
		return d, nil
	}

	return 0, ErrNoVideoStream
}

// probeDuration returns the video stream duration of path in seconds.
func (t *FFmpegTranscoder) probeDuration(ctx context.Context, path string) (float64, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "stream=codec_type,duration",
		"-of", "json",
		path,
	}

	var stdout bytes.Buffer
	if err := t.run(ctx, OpProbe, t.ffprobePath, args, &stdout); err != nil {
		return 0, err
	}

	duration, err := ParseVideoDuration(stdout.Bytes())
	if err != nil {
		return 0, &TranscodeError{Op: OpProbe, Args: args, Err: err}
	}
	return duration, nil
}

// run executes a binary and turns any failure into a TranscodeError
// carrying stderr.
func (t *FFmpegTranscoder) run(ctx context.Context, op, bin string, args []string, stdout *bytes.Buffer) error {
	// #nosec G204 - binary paths come from configuration, not user input
	cmd := exec.CommandContext(ctx, bin, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if stdout != nil {
		cmd.Stdout = stdout
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return &TranscodeError{
			Op:     op,
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// removePartial deletes a half-written output.
func removePartial(path string) {
	_ = os.Remove(path)
}

// TranscodeError represents a failed transcode step, including the tool's stderr output.
type TranscodeError struct {
	Op     string
	Args   []string
	Stderr string
	Err    error
}

func (e *TranscodeError) Error() string {
	msg := fmt.Sprintf("transcode %s: %v", e.Op, e.Err)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\nstderr: " + stderr
	}
	return msg
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}
