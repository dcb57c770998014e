package ffprobe

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", CodecName: "aac"},
			{CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	meta := result.Metadata()
	if meta.Duration == nil || *meta.Duration != 123.45 {
		t.Fatalf("unexpected metadata duration: %v", meta.Duration)
	}
	if meta.Width == nil || *meta.Width != 1920 || meta.Height == nil || *meta.Height != 1080 {
		t.Fatalf("unexpected metadata dimensions: %+v", meta)
	}
	if meta.Codec == nil || *meta.Codec != "h264" {
		t.Fatalf("expected video codec, got %v", meta.Codec)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	meta := result.Metadata()
	if meta.Duration != nil || meta.Width != nil || meta.Codec != nil || meta.Size != nil {
		t.Fatalf("expected empty metadata, got %+v", meta)
	}
}

func TestDurationFallsBackToVideoStream(t *testing.T) {
	result := Result{Streams: []Stream{{CodecType: "video", Duration: "4.5"}}}
	if result.DurationSeconds() != 4.5 {
		t.Fatalf("expected stream duration fallback, got %v", result.DurationSeconds())
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffprobe")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func writeMedia(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("not really a video"), 0o644); err != nil {
		t.Fatalf("write media: %v", err)
	}
	return path
}

func TestProbeParsesOutput(t *testing.T) {
	binary := writeScript(t, `cat <<'JSON'
{"streams":[{"index":0,"codec_type":"video","codec_name":"vp9","width":640,"height":360}],
 "format":{"duration":"2.000000","size":"999"}}
JSON
`)
	media := writeMedia(t)

	meta, err := NewProber(binary).Probe(context.Background(), media)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if meta.Duration == nil || *meta.Duration != 2 {
		t.Fatalf("unexpected duration: %v", meta.Duration)
	}
	if meta.Codec == nil || *meta.Codec != "vp9" {
		t.Fatalf("unexpected codec: %v", meta.Codec)
	}
	if meta.Size == nil || *meta.Size != int64(len("not really a video")) {
		t.Fatalf("expected on-disk size, got %v", meta.Size)
	}
}

func TestProbeClassifiesFailures(t *testing.T) {
	media := writeMedia(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		binary string
		path   string
		want   error
	}{
		{
			name:   "missing tool on PATH",
			binary: "loopsleuth-ffprobe-does-not-exist",
			path:   media,
			want:   ErrToolMissing,
		},
		{
			name:   "missing tool absolute",
			binary: filepath.Join(t.TempDir(), "ffprobe"),
			path:   media,
			want:   ErrToolMissing,
		},
		{
			name:   "missing file",
			binary: writeScript(t, "exit 0\n"),
			path:   filepath.Join(t.TempDir(), "gone.mp4"),
			want:   ErrNotFound,
		},
		{
			name:   "tool exits non-zero",
			binary: writeScript(t, "echo 'Invalid data found' >&2\nexit 1\n"),
			path:   media,
			want:   ErrProbeFailed,
		},
		{
			name:   "garbage output",
			binary: writeScript(t, "echo nope\n"),
			path:   media,
			want:   ErrProbeFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewProber(tc.binary).Probe(ctx, tc.path)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			var probeErr *Error
			if !errors.As(err, &probeErr) || probeErr.Path != tc.path {
				t.Fatalf("expected *Error carrying path %q, got %#v", tc.path, err)
			}
		})
	}
}
