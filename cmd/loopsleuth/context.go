package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"loopsleuth/internal/catalog"
	"loopsleuth/internal/config"
	"loopsleuth/internal/dedupe"
	"loopsleuth/internal/fingerprint"
	"loopsleuth/internal/logging"
	"loopsleuth/internal/media/ffprobe"
	"loopsleuth/internal/preview"
	"loopsleuth/internal/review"
	"loopsleuth/internal/scanner"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger

	store *catalog.Store
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		logger, err := logging.NewFromConfig(c.config)
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// ensureStore opens the catalog once per command and removes preview files
// whenever a clip row is deleted.
func (c *commandContext) ensureStore() (*catalog.Store, error) {
	if c.store != nil {
		return c.store, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	store.OnDelete(c.previews().Remove)
	c.store = store
	return store, nil
}

func (c *commandContext) previews() *preview.Generator {
	return preview.New(c.config, c.ensureLogger())
}

func (c *commandContext) newScanner() (*scanner.Scanner, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	policy, err := dedupe.ParsePolicy(c.config.Dedupe.Policy)
	if err != nil {
		return nil, err
	}
	logger := c.ensureLogger()
	return scanner.New(c.config, scanner.Dependencies{
		Store:     store,
		Prober:    ffprobe.NewProber(c.config.Preview.FFprobeBinary),
		Previews:  c.previews(),
		Hasher:    fingerprint.Hasher{},
		Clusterer: dedupe.New(policy, c.config.Dedupe.Threshold, logger),
		Logger:    logger,
	}), nil
}

func (c *commandContext) newResolver() (*review.Resolver, error) {
	store, err := c.ensureStore()
	if err != nil {
		return nil, err
	}
	return review.NewResolver(store, c.ensureLogger()), nil
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
		c.store = nil
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
