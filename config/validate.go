package config

import (
	"errors"
	"fmt"
)

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Segment.Name == "" && cfg.Segment.Path == "" {
		return errors.New("segment.name or segment.path is required")
	}
	if cfg.Segment.Records < 0 {
		return fmt.Errorf("segment.records must be >= 0, got %d", cfg.Segment.Records)
	}
	if cfg.Reader.PollIntervalMs < 0 {
		return fmt.Errorf("reader.pollIntervalMs must be >= 0, got %d", cfg.Reader.PollIntervalMs)
	}
	if cfg.Reader.Workers < 0 {
		return fmt.Errorf("reader.workers must be >= 0, got %d", cfg.Reader.Workers)
	}
	if cfg.Reader.PriceScale < 0 || cfg.Reader.PriceScale > 18 {
		return fmt.Errorf("reader.priceScale must be within [0,18], got %d", cfg.Reader.PriceScale)
	}
	return nil
}
