package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrToolMissing reports that the ffprobe executable could not be started.
	ErrToolMissing = errors.New("ffprobe executable not found")
	// ErrNotFound reports that the media file vanished before it was probed.
	ErrNotFound = errors.New("media file not found")
	// ErrProbeFailed reports that ffprobe ran but the file could not be read.
	ErrProbeFailed = errors.New("ffprobe failed")
)

// Error carries the probed path and the failure class.
type Error struct {
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("probe %s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("probe %s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index     int    `json:"index"`
	CodecName string `json:"codec_name"`
	CodecType string `json:"codec_type"`
	Duration  string `json:"duration"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, &Error{Path: path, Kind: ErrProbeFailed, Err: errors.New("empty path")}
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		if isToolMissing(err) {
			return Result{}, &Error{Path: path, Kind: ErrToolMissing, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			err = fmt.Errorf("%w: %s", err, detail)
		}
		return Result{}, &Error{Path: path, Kind: ErrProbeFailed, Err: err}
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, &Error{Path: path, Kind: ErrProbeFailed, Err: fmt.Errorf("parse output: %w", err)}
	}
	return result, nil
}

func isToolMissing(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		// exec reports a missing absolute binary as a PathError from fork/exec.
		return errors.Is(pathErr.Err, fs.ErrNotExist) || errors.Is(pathErr.Err, fs.ErrPermission)
	}
	return false
}

// VideoStream returns the first video stream, if any.
func (r Result) VideoStream() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationSeconds returns the container duration in seconds, falling back to
// the video stream. It returns NaN when nothing parses.
func (r Result) DurationSeconds() float64 {
	if d := parseFloat(r.Format.Duration); d > 0 {
		return d
	}
	if video, ok := r.VideoStream(); ok {
		return parseFloat(video.Duration)
	}
	return parseFloat(r.Format.Duration)
}

// SizeBytes returns the reported container size in bytes, or 0 when unavailable.
func (r Result) SizeBytes() int64 {
	size := parseFloat(r.Format.Size)
	if math.IsNaN(size) || size < 0 {
		return 0
	}
	return int64(size)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

// Metadata is the subset of probe output stored per clip. Fields are nil
// when ffprobe did not report them.
type Metadata struct {
	Duration *float64
	Width    *int
	Height   *int
	Codec    *string
	Size     *int64
}

// Prober probes media files with a configured ffprobe binary.
type Prober struct {
	Binary string
}

// NewProber returns a Prober for binary, defaulting to "ffprobe" on PATH.
func NewProber(binary string) *Prober {
	return &Prober{Binary: binary}
}

// Probe inspects path and returns its metadata.
func (p *Prober) Probe(ctx context.Context, path string) (Metadata, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Metadata{}, &Error{Path: path, Kind: ErrNotFound, Err: err}
		}
		return Metadata{}, &Error{Path: path, Kind: ErrProbeFailed, Err: err}
	}
	if info.IsDir() {
		return Metadata{}, &Error{Path: path, Kind: ErrProbeFailed, Err: errors.New("path is a directory")}
	}

	result, err := Inspect(ctx, p.Binary, path)
	if err != nil {
		return Metadata{}, err
	}
	meta := result.Metadata()
	// The on-disk size is authoritative; ffprobe omits it for some containers.
	size := info.Size()
	meta.Size = &size
	return meta, nil
}

// Metadata extracts clip metadata from the inspection result.
func (r Result) Metadata() Metadata {
	var meta Metadata
	if d := r.DurationSeconds(); d > 0 && !math.IsNaN(d) && !math.IsInf(d, 0) {
		meta.Duration = &d
	}
	if video, ok := r.VideoStream(); ok {
		if video.Width > 0 {
			w := video.Width
			meta.Width = &w
		}
		if video.Height > 0 {
			h := video.Height
			meta.Height = &h
		}
		if codec := strings.TrimSpace(video.CodecName); codec != "" {
			meta.Codec = &codec
		}
	}
	if size := r.SizeBytes(); size > 0 {
		meta.Size = &size
	}
	return meta
}
