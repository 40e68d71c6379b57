// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rcf

package main

import (
	"bytes"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/woozymasta/rcf"
)

// fileConfig is the optional YAML configuration; command-line flags override it.
type fileConfig struct {
	LogLevel string        `yaml:"log_level,omitempty"`
	Pack     packConfig    `yaml:"pack,omitempty"`
	Extract  extractConfig `yaml:"extract,omitempty"`
}

// packConfig mirrors the pack-related subset of rcf.PackOptions.
type packConfig struct {
	Separator        string   `yaml:"separator,omitempty"`
	Include          []string `yaml:"include,omitempty"`
	Exclude          []string `yaml:"exclude,omitempty"`
	Workers          int      `yaml:"workers,omitempty"`
	LeadingSlash     bool     `yaml:"leading_slash,omitempty"`
	UseModTime       bool     `yaml:"use_mod_time,omitempty"`
	RejectCollisions bool     `yaml:"reject_collisions,omitempty"`
}

// extractConfig mirrors the extract-related subset of rcf.ExtractOptions.
type extractConfig struct {
	Dir         string   `yaml:"dir,omitempty"`
	FileMode    string   `yaml:"file_mode,omitempty"`
	Include     []string `yaml:"include,omitempty"`
	Exclude     []string `yaml:"exclude,omitempty"`
	Workers     int      `yaml:"workers,omitempty"`
	StopOnError bool     `yaml:"stop_on_error,omitempty"`
}

// loadConfig reads path; an empty path yields the zero config.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "read config %s", path)
	}

	return parseConfig(data)
}

// parseConfig decodes YAML strictly; unknown keys are rejected.
func parseConfig(data []byte) (fileConfig, error) {
	var cfg fileConfig
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrap(err, "decode config")
	}

	switch rcf.ExtractFileMode(cfg.Extract.FileMode) {
	case "", rcf.ExtractFileModeAuto, rcf.ExtractFileModeTruncate, rcf.ExtractFileModeCreateOnly:
	default:
		return cfg, errors.Errorf("unknown extract file_mode %q", cfg.Extract.FileMode)
	}

	return cfg, nil
}

// packOptions converts pack config to library options.
func (c packConfig) packOptions() rcf.PackOptions {
	return rcf.PackOptions{
		Separator:        c.Separator,
		Include:          append(rcf.IncludeRules(c.Include...), rcf.ExcludeRules(c.Exclude...)...),
		MaxWorkers:       c.Workers,
		LeadingSlash:     c.LeadingSlash,
		UseModTime:       c.UseModTime,
		RejectCollisions: c.RejectCollisions,
	}
}

// extractOptions converts extract config to library options.
func (c extractConfig) extractOptions() rcf.ExtractOptions {
	return rcf.ExtractOptions{
		FileMode:    rcf.ExtractFileMode(c.FileMode),
		Rules:       append(rcf.IncludeRules(c.Include...), rcf.ExcludeRules(c.Exclude...)...),
		MaxWorkers:  c.Workers,
		StopOnError: c.StopOnError,
	}
}
