package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"loopsleuth/internal/config"
)

func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("LOOPSLEUTH_DB_PATH", "")
	t.Setenv("LOOPSLEUTH_DUPLICATE_POLICY", "")
	return home
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	home := isolateEnv(t)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(home, ".local", "share", "loopsleuth")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.Paths.CatalogPath != filepath.Join(wantData, "loopsleuth.db") {
		t.Fatalf("unexpected catalog path: %q", cfg.Paths.CatalogPath)
	}
	if cfg.Paths.PreviewDir != filepath.Join(wantData, "thumbnails") {
		t.Fatalf("unexpected preview dir: %q", cfg.Paths.PreviewDir)
	}
	if cfg.Dedupe.Policy != "mark-for-review" {
		t.Fatalf("expected default policy mark-for-review, got %q", cfg.Dedupe.Policy)
	}
	if cfg.Dedupe.Threshold != 5 {
		t.Fatalf("expected default threshold 5, got %d", cfg.Dedupe.Threshold)
	}
	if got := strings.Join(cfg.Scan.Extensions, ","); got != ".mov,.mp4,.avi,.mkv" {
		t.Fatalf("unexpected default extensions: %s", got)
	}
	if cfg.LockStaleAfter().Minutes() != 60 {
		t.Fatalf("expected one hour staleness window, got %s", cfg.LockStaleAfter())
	}
}

func TestLoadCustomConfigFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	custom := config.Default()
	custom.Paths.DataDir = filepath.Join(dir, "data")
	custom.Scan.Extensions = []string{"MP4", ".Mov", "mp4", " "}
	custom.Dedupe.Policy = "SKIP"
	custom.Dedupe.Threshold = 9
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config %q to be loaded, got %q (exists=%v)", path, resolved, exists)
	}
	if got := strings.Join(cfg.Scan.Extensions, ","); got != ".mp4,.mov" {
		t.Fatalf("unexpected normalized extensions: %s", got)
	}
	if cfg.Dedupe.Policy != "skip" || cfg.Dedupe.Threshold != 9 {
		t.Fatalf("unexpected dedupe settings: %+v", cfg.Dedupe)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	if cfg.Paths.PreviewDir != filepath.Join(dir, "data", "thumbnails") {
		t.Fatalf("unexpected preview dir: %q", cfg.Paths.PreviewDir)
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("LOOPSLEUTH_DB_PATH", dbPath)
	t.Setenv("LOOPSLEUTH_DUPLICATE_POLICY", "auto_merge")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Paths.CatalogPath != dbPath {
		t.Fatalf("expected catalog path from env, got %q", cfg.Paths.CatalogPath)
	}
	if cfg.Dedupe.Policy != "auto-merge" {
		t.Fatalf("expected policy from env, got %q", cfg.Dedupe.Policy)
	}
}

func TestValidateRejectsUnknownPolicy(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOOPSLEUTH_DUPLICATE_POLICY", "shred")

	if _, _, _, err := config.Load(""); err == nil {
		t.Fatal("expected unknown policy to fail validation")
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	isolateEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.API.Bind != "127.0.0.1:8765" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
}

func TestNormalizeExtension(t *testing.T) {
	cases := map[string]string{
		"mp4":   ".mp4",
		".MKV":  ".mkv",
		" mov ": ".mov",
		"":      "",
		".":     "",
	}
	for input, want := range cases {
		if got := config.NormalizeExtension(input); got != want {
			t.Fatalf("NormalizeExtension(%q) = %q, want %q", input, got, want)
		}
	}
}
