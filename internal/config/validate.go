package config

import (
	"errors"
	"fmt"
)

var validPolicies = map[string]struct{}{
	"skip":            {},
	"mark-for-review": {},
	"log":             {},
	"auto-merge":      {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validatePreview(); err != nil {
		return err
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	if _, ok := validPolicies[c.Dedupe.Policy]; !ok {
		return fmt.Errorf("dedupe.policy: unsupported value %q (expected skip, mark-for-review, log, or auto-merge)", c.Dedupe.Policy)
	}
	if c.Dedupe.Threshold < 0 {
		return errors.New("dedupe.threshold must be zero or greater")
	}
	return nil
}

func (c *Config) validatePreview() error {
	if c.Preview.TimePercent >= 1 {
		return errors.New("preview.time_percent must be below 1")
	}
	if c.Preview.JPEGQuality > 100 {
		return errors.New("preview.jpeg_quality must be between 1 and 100")
	}
	return nil
}
