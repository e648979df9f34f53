// File path: internal/config/config.go

// Package config loads service-level settings: an optional YAML file named
// by SPECVIEW_CONFIG_FILE, with environment variables layered on top and
// flags applied last by main.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config carries the service settings.
type Config struct {
	Addr        string `yaml:"addr"`
	CatalogPath string `yaml:"catalog"`
}

// Merge overlays non-blank override values onto the receiver.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.Addr) != "" {
		result.Addr = strings.TrimSpace(override.Addr)
	}
	if strings.TrimSpace(override.CatalogPath) != "" {
		result.CatalogPath = strings.TrimSpace(override.CatalogPath)
	}
	return result
}

// Load assembles the configuration from defaults, file, and environment.
func Load() (Config, error) {
	cfg := Config{
		Addr:        ":8084",
		CatalogPath: filepath.Join("data", "specs.db"),
	}
	if path := strings.TrimSpace(os.Getenv("SPECVIEW_CONFIG_FILE")); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	cfg = cfg.Merge(Config{
		Addr:        os.Getenv("SPECVIEW_ADDR"),
		CatalogPath: os.Getenv("SPECVIEW_CATALOG"),
	})
	return cfg, nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
