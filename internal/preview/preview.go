// Package preview renders still and animated preview images for clips by
// grabbing frames with ffmpeg.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"

	"loopsleuth/internal/config"
	"loopsleuth/internal/logging"
)

// ErrPreviewFailed reports that a preview could not be produced. The clip
// keeps its metadata and can be retried by a forced rescan.
var ErrPreviewFailed = errors.New("preview generation failed")

// Error carries the source path alongside the failure.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("preview %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrPreviewFailed, e.Err}
}

// Generator writes clip_<id>.jpg and clip_<id>.gif files into OutputDir.
type Generator struct {
	FFmpegBinary    string
	OutputDir       string
	Width           int
	JPEGQuality     int
	TimePercent     float64
	AnimatedSeconds float64
	AnimatedFPS     int
	AnimatedWidth   int

	logger *slog.Logger
}

// New builds a Generator from the preview section of cfg.
func New(cfg *config.Config, logger *slog.Logger) *Generator {
	return &Generator{
		FFmpegBinary:    cfg.Preview.FFmpegBinary,
		OutputDir:       cfg.Paths.PreviewDir,
		Width:           cfg.Preview.Width,
		JPEGQuality:     cfg.Preview.JPEGQuality,
		TimePercent:     cfg.Preview.TimePercent,
		AnimatedSeconds: cfg.Preview.AnimatedSeconds,
		AnimatedFPS:     cfg.Preview.AnimatedFPS,
		AnimatedWidth:   cfg.Preview.AnimatedWidth,
		logger:          logging.NewComponentLogger(logger, "preview"),
	}
}

// StaticPath returns where the still preview for clipID lives.
func StaticPath(dir string, clipID int64) string {
	return filepath.Join(dir, fmt.Sprintf("clip_%d.jpg", clipID))
}

// AnimatedPath returns where the animated preview for clipID lives.
func AnimatedPath(dir string, clipID int64) string {
	return filepath.Join(dir, fmt.Sprintf("clip_%d.gif", clipID))
}

// Offset returns the timestamp frames are taken from. Without a known
// duration the first frame is used.
func (g *Generator) Offset(duration *float64) float64 {
	if duration == nil || *duration <= 0 {
		return 0
	}
	return max(0.01, *duration*g.TimePercent)
}

// Static extracts one frame, scales it to Width, and stores it as JPEG.
func (g *Generator) Static(ctx context.Context, path string, duration *float64, clipID int64) (string, error) {
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return "", &Error{Path: path, Err: fmt.Errorf("create preview dir: %w", err)}
	}
	offset := g.Offset(duration)
	args := []string{
		"-ss", formatSeconds(offset),
		"-i", path,
		"-vframes", "1",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-loglevel", "error",
		"-",
	}
	cmd := exec.CommandContext(ctx, g.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	frame, err := cmd.Output()
	if err != nil {
		return "", &Error{Path: path, Err: commandError(err, stderr.String())}
	}
	if len(frame) == 0 {
		return "", &Error{Path: path, Err: errors.New("ffmpeg produced no frame")}
	}

	img, err := imaging.Decode(bytes.NewReader(frame))
	if err != nil {
		return "", &Error{Path: path, Err: fmt.Errorf("decode frame: %w", err)}
	}
	if g.Width > 0 && img.Bounds().Dx() != g.Width {
		img = imaging.Resize(img, g.Width, 0, imaging.Lanczos)
	}

	target := StaticPath(g.OutputDir, clipID)
	tmp := strings.TrimSuffix(target, ".jpg") + ".tmp.jpg"
	if err := imaging.Save(img, tmp, imaging.JPEGQuality(g.JPEGQuality)); err != nil {
		_ = os.Remove(tmp)
		return "", &Error{Path: path, Err: fmt.Errorf("write preview: %w", err)}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", &Error{Path: path, Err: fmt.Errorf("commit preview: %w", err)}
	}
	g.log().Debug("static preview written",
		logging.Int64(logging.FieldClipID, clipID),
		logging.String(logging.FieldPath, path),
		logging.String("preview", target),
		logging.Float64("offset_seconds", offset),
	)
	return target, nil
}

// Animated renders a short looping GIF starting at the same offset as the
// still preview.
func (g *Generator) Animated(ctx context.Context, path string, duration *float64, clipID int64) (string, error) {
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return "", &Error{Path: path, Err: fmt.Errorf("create preview dir: %w", err)}
	}
	offset := g.Offset(duration)
	length := g.AnimatedSeconds
	if duration != nil && *duration > 0 && offset+length > *duration {
		length = max(*duration-offset, 0.1)
	}
	target := AnimatedPath(g.OutputDir, clipID)
	tmp := strings.TrimSuffix(target, ".gif") + ".tmp.gif"
	filter := fmt.Sprintf("fps=%d,scale=%d:-1:flags=lanczos", g.AnimatedFPS, g.AnimatedWidth)
	args := []string{
		"-ss", formatSeconds(offset),
		"-t", formatSeconds(length),
		"-i", path,
		"-vf", filter,
		"-loop", "0",
		"-loglevel", "error",
		"-y",
		tmp,
	}
	cmd := exec.CommandContext(ctx, g.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		_ = os.Remove(tmp)
		return "", &Error{Path: path, Err: commandError(err, stderr.String())}
	}
	if info, err := os.Stat(tmp); err != nil || info.Size() == 0 {
		_ = os.Remove(tmp)
		return "", &Error{Path: path, Err: errors.New("ffmpeg produced no animation")}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return "", &Error{Path: path, Err: fmt.Errorf("commit animated preview: %w", err)}
	}
	return target, nil
}

func (g *Generator) log() *slog.Logger {
	if g.logger == nil {
		return logging.NewNop()
	}
	return g.logger
}

func (g *Generator) binary() string {
	if b := strings.TrimSpace(g.FFmpegBinary); b != "" {
		return b
	}
	return "ffmpeg"
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}

func commandError(err error, stderr string) error {
	if detail := strings.TrimSpace(stderr); detail != "" {
		return fmt.Errorf("ffmpeg: %w: %s", err, detail)
	}
	return fmt.Errorf("ffmpeg: %w", err)
}

// Remove deletes the preview files of a clip that left the catalog. Its
// signature matches catalog.DeleteHook.
func (g *Generator) Remove(_ context.Context, clipID int64) {
	for _, path := range []string{StaticPath(g.OutputDir, clipID), AnimatedPath(g.OutputDir, clipID)} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			g.log().Warn("failed to remove preview", logging.String(logging.FieldPath, path), logging.Error(err))
		}
	}
}
