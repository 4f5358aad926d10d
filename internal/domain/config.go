// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Config represents the application configuration
type Config struct {
	Version string

	BotToken  string  `toml:"botToken" mapstructure:"botToken"`
	OwnerID   int64   `toml:"ownerId" mapstructure:"ownerId"`
	Admins    []int64 `toml:"admins" mapstructure:"admins"`
	AdminMode bool    `toml:"adminMode" mapstructure:"adminMode"`
	BotDebug  bool    `toml:"botDebug" mapstructure:"botDebug"`

	DataDir     string `toml:"dataDir" mapstructure:"dataDir"`
	DownloadDir string `toml:"downloadDir" mapstructure:"downloadDir"`

	LogLevel      string `toml:"logLevel" mapstructure:"logLevel"`
	LogPath       string `toml:"logPath" mapstructure:"logPath"`
	LogMaxSize    int    `toml:"logMaxSize" mapstructure:"logMaxSize"`
	LogMaxBackups int    `toml:"logMaxBackups" mapstructure:"logMaxBackups"`

	FFmpegPath string `toml:"ffmpegPath" mapstructure:"ffmpegPath"`

	DuplicateWindowSeconds int `toml:"duplicateWindowSeconds" mapstructure:"duplicateWindowSeconds"`
	SessionTTLMinutes      int `toml:"sessionTTLMinutes" mapstructure:"sessionTTLMinutes"`
	SendIntervalMillis     int `toml:"sendIntervalMillis" mapstructure:"sendIntervalMillis"`
	RetryAttempts          int `toml:"retryAttempts" mapstructure:"retryAttempts"`

	DefaultSticker string `toml:"defaultSticker" mapstructure:"defaultSticker"`
	DumpEnabled    bool   `toml:"dumpEnabled" mapstructure:"dumpEnabled"`
	DumpChannel    int64  `toml:"dumpChannel" mapstructure:"dumpChannel"`

	HTTPHost              string `toml:"httpHost" mapstructure:"httpHost"`
	HTTPPort              int    `toml:"httpPort" mapstructure:"httpPort"`
	MetricsEnabled        bool   `toml:"metricsEnabled" mapstructure:"metricsEnabled"`
	MetricsHost           string `toml:"metricsHost" mapstructure:"metricsHost"`
	MetricsPort           int    `toml:"metricsPort" mapstructure:"metricsPort"`
	MetricsBasicAuthUsers string `toml:"metricsBasicAuthUsers" mapstructure:"metricsBasicAuthUsers"`
}

// Validate rejects configurations the bot cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.BotToken == "" {
		errs = append(errs, errors.New("botToken is required"))
	}
	if c.DuplicateWindowSeconds <= 0 {
		errs = append(errs, fmt.Errorf("duplicateWindowSeconds must be positive, got %d", c.DuplicateWindowSeconds))
	}
	if c.SendIntervalMillis <= 0 {
		errs = append(errs, fmt.Errorf("sendIntervalMillis must be positive, got %d", c.SendIntervalMillis))
	}
	if c.SessionTTLMinutes < 0 {
		errs = append(errs, fmt.Errorf("sessionTTLMinutes must not be negative, got %d", c.SessionTTLMinutes))
	}
	if c.RetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("retryAttempts must be at least 1, got %d", c.RetryAttempts))
	}

	return errors.Join(errs...)
}

// IsConfiguredAdmin reports whether id is the owner or listed in admins.
func (c *Config) IsConfiguredAdmin(id int64) bool {
	return id == c.OwnerID || slices.Contains(c.Admins, id)
}

func (c *Config) DuplicateWindow() time.Duration {
	return time.Duration(c.DuplicateWindowSeconds) * time.Second
}

// SessionTTL is zero when idle sequences never expire.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

func (c *Config) SendInterval() time.Duration {
	return time.Duration(c.SendIntervalMillis) * time.Millisecond
}
