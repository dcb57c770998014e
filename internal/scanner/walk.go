package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"loopsleuth/internal/config"
	"loopsleuth/internal/logging"
)

// Enumerate returns the absolute paths of regular files under root whose
// lower-cased extension is in extensions, sorted lexically. Unreadable
// subdirectories are logged and skipped.
func Enumerate(root string, extensions []string, logger *slog.Logger) ([]string, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve scan root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %q is not a directory", abs)
	}

	wanted := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		if normalized := config.NormalizeExtension(ext); normalized != "" {
			wanted[normalized] = struct{}{}
		}
	}

	var files []string
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			logging.WarnWithContext(logger, "skipping unreadable path", "walk_error",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
				logging.String(logging.FieldImpact, "files below this path are not cataloged"),
			)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := wanted[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}
		if !d.Type().IsRegular() {
			target, statErr := os.Stat(path)
			if statErr != nil || !target.Mode().IsRegular() {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, fs.SkipDir) {
		return nil, fmt.Errorf("walk %s: %w", abs, walkErr)
	}
	sort.Strings(files)
	return files, nil
}
