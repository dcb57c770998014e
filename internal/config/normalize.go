package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envCatalogPath     = "LOOPSLEUTH_DB_PATH"
	envDuplicatePolicy = "LOOPSLEUTH_DUPLICATE_POLICY"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeScan()
	c.normalizeDedupe()
	c.normalizePreview()
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.DataDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PreviewDir) == "" {
		c.Paths.PreviewDir = filepath.Join(c.Paths.DataDir, defaultPreviewDirName)
	}
	if c.Paths.PreviewDir, err = expandPath(c.Paths.PreviewDir); err != nil {
		return fmt.Errorf("paths.preview_dir: %w", err)
	}
	if value, ok := os.LookupEnv(envCatalogPath); ok && strings.TrimSpace(value) != "" {
		c.Paths.CatalogPath = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.CatalogPath) == "" {
		c.Paths.CatalogPath = filepath.Join(c.Paths.DataDir, defaultCatalogFileName)
	}
	if c.Paths.CatalogPath, err = expandPath(c.Paths.CatalogPath); err != nil {
		return fmt.Errorf("paths.catalog_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeScan() {
	exts := make([]string, 0, len(c.Scan.Extensions))
	seen := make(map[string]struct{}, len(c.Scan.Extensions))
	for _, ext := range c.Scan.Extensions {
		normalized := NormalizeExtension(ext)
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultExtensions...)
	}
	c.Scan.Extensions = exts
	if c.Scan.LockStaleMinutes <= 0 {
		c.Scan.LockStaleMinutes = defaultLockStaleMinutes
	}
}

func (c *Config) normalizeDedupe() {
	if value, ok := os.LookupEnv(envDuplicatePolicy); ok && strings.TrimSpace(value) != "" {
		c.Dedupe.Policy = value
	}
	c.Dedupe.Policy = strings.ToLower(strings.TrimSpace(c.Dedupe.Policy))
	c.Dedupe.Policy = strings.ReplaceAll(c.Dedupe.Policy, "_", "-")
	if c.Dedupe.Policy == "" {
		c.Dedupe.Policy = defaultDuplicatePolicy
	}
}

func (c *Config) normalizePreview() {
	c.Preview.FFmpegBinary = strings.TrimSpace(c.Preview.FFmpegBinary)
	if c.Preview.FFmpegBinary == "" {
		c.Preview.FFmpegBinary = defaultFFmpegBinary
	}
	c.Preview.FFprobeBinary = strings.TrimSpace(c.Preview.FFprobeBinary)
	if c.Preview.FFprobeBinary == "" {
		c.Preview.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = defaultPreviewWidth
	}
	if c.Preview.JPEGQuality <= 0 {
		c.Preview.JPEGQuality = defaultPreviewQuality
	}
	if c.Preview.TimePercent <= 0 {
		c.Preview.TimePercent = defaultPreviewTimePercent
	}
	if c.Preview.AnimatedSeconds <= 0 {
		c.Preview.AnimatedSeconds = defaultAnimatedSeconds
	}
	if c.Preview.AnimatedFPS <= 0 {
		c.Preview.AnimatedFPS = defaultAnimatedFPS
	}
	if c.Preview.AnimatedWidth <= 0 {
		c.Preview.AnimatedWidth = defaultAnimatedWidth
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// NormalizeExtension lower-cases an extension and ensures the leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" || ext == "." {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
