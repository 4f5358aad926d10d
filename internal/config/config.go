// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package config loads the bot configuration from config.toml and
// RENAMARR__ environment variables, and sets up logging.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autobrr/renamarr/internal/domain"
)

const (
	EnvPrefix      = "RENAMARR__"
	configFileName = "config.toml"
	databaseName   = "renamarr.db"
)

const defaultConfigTemplate = `# config.toml - Auto-generated on first run

# Telegram bot token from @BotFather
# Can also be set with RENAMARR__BOT_TOKEN
botToken = ""

# Telegram user id of the bot owner
ownerId = 0

# Additional admin user ids
#admins = [123456789]

# Only admins may use the bot
adminMode = false

# Log level
# Default: "INFO"
# Options: "ERROR", "DEBUG", "INFO", "WARN", "TRACE"
logLevel = "INFO"

# Log file path
# If not defined, logs to stdout
#logPath = "log/renamarr.log"

# Seconds within which the same file is ignored when sent twice
duplicateWindowSeconds = 10

# Minutes an idle sequence is kept before it is discarded (0 keeps forever)
sessionTTLMinutes = 360

# Pause between sequence deliveries in milliseconds
sendIntervalMillis = 500

# Prometheus metrics
metricsEnabled = false
#metricsHost = "127.0.0.1"
#metricsPort = 9074
#metricsBasicAuthUsers = "user:password"
`

// AppConfig holds the resolved configuration and where it came from.
type AppConfig struct {
	Config *domain.Config

	configDir string
	viper     *viper.Viper
}

// New loads configuration from configDir, creating a commented default
// config.toml when none exists. Environment variables override the file.
func New(configDir string) (*AppConfig, error) {
	if configDir == "" {
		dir, err := defaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	c := &AppConfig{
		Config:    &domain.Config{},
		configDir: configDir,
		viper:     viper.New(),
	}

	c.defaults()

	if err := c.load(); err != nil {
		return nil, err
	}

	return c, nil
}

func defaultConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "renamarr"), nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config directory: %w", err)
	}
	return filepath.Join(dir, "renamarr"), nil
}

func (c *AppConfig) defaults() {
	v := c.viper

	v.SetDefault("ownerId", 0)
	v.SetDefault("admins", []int64{})
	v.SetDefault("adminMode", false)
	v.SetDefault("botDebug", false)
	v.SetDefault("dataDir", "")
	v.SetDefault("downloadDir", "")
	v.SetDefault("logLevel", "INFO")
	v.SetDefault("logPath", "")
	v.SetDefault("logMaxSize", 50)
	v.SetDefault("logMaxBackups", 3)
	v.SetDefault("ffmpegPath", "ffmpeg")
	v.SetDefault("duplicateWindowSeconds", 10)
	v.SetDefault("sessionTTLMinutes", 360)
	v.SetDefault("sendIntervalMillis", 500)
	v.SetDefault("retryAttempts", 3)
	v.SetDefault("defaultSticker", "")
	v.SetDefault("dumpEnabled", false)
	v.SetDefault("dumpChannel", 0)
	v.SetDefault("httpHost", "127.0.0.1")
	v.SetDefault("httpPort", 7476)
	v.SetDefault("metricsEnabled", false)
	v.SetDefault("metricsHost", "127.0.0.1")
	v.SetDefault("metricsPort", 9074)
	v.SetDefault("metricsBasicAuthUsers", "")
	v.SetDefault("botToken", "")
}

func (c *AppConfig) load() error {
	if err := os.MkdirAll(c.configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(c.configDir, configFileName)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0o600); err != nil {
			return fmt.Errorf("failed to write default config: %w", err)
		}
		log.Info().Str("path", path).Msg("Created default config file")
	}

	c.viper.SetConfigFile(path)
	c.viper.SetConfigType("toml")
	if err := c.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	for _, key := range c.viper.AllKeys() {
		if err := c.viper.BindEnv(key, EnvKey(key)); err != nil {
			return fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if err := c.viper.Unmarshal(c.Config); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	if c.Config.DataDir == "" {
		c.Config.DataDir = c.configDir
	}
	if c.Config.DownloadDir == "" {
		c.Config.DownloadDir = filepath.Join(c.Config.DataDir, "downloads")
	}

	return nil
}

// EnvKey maps a camelCase config key to its environment variable, e.g.
// botToken -> RENAMARR__BOT_TOKEN. viper lower-cases keys, so the original
// casing is recovered from the Config struct tags.
func EnvKey(key string) string {
	if original, ok := keyCasing[strings.ToLower(key)]; ok {
		key = original
	}

	var b strings.Builder
	b.WriteString(EnvPrefix)
	for i, r := range key {
		if i > 0 && unicode.IsUpper(r) {
			prev := rune(key[i-1])
			if !unicode.IsUpper(prev) || (i+1 < len(key) && unicode.IsLower(rune(key[i+1]))) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

var keyCasing = map[string]string{}

func init() {
	for _, k := range []string{
		"botToken", "ownerId", "admins", "adminMode", "botDebug", "dataDir", "downloadDir",
		"logLevel", "logPath", "logMaxSize", "logMaxBackups", "ffmpegPath",
		"duplicateWindowSeconds", "sessionTTLMinutes", "sendIntervalMillis", "retryAttempts",
		"defaultSticker", "dumpEnabled", "dumpChannel", "httpHost", "httpPort",
		"metricsEnabled", "metricsHost", "metricsPort", "metricsBasicAuthUsers",
	} {
		keyCasing[strings.ToLower(k)] = k
	}
}

// GetDatabasePath returns where the sqlite database lives.
func (c *AppConfig) GetDatabasePath() string {
	return filepath.Join(c.Config.DataDir, databaseName)
}

func (c *AppConfig) ConfigDir() string {
	return c.configDir
}

// ApplyLogConfig configures the global zerolog logger from the loaded
// settings. Output goes to the console and, when logPath is set, to a
// rotated file.
func (c *AppConfig) ApplyLogConfig() {
	SetupLogging(c.Config.LogLevel, c.logPath(), c.Config.LogMaxSize, c.Config.LogMaxBackups)
}

// Watch follows config.toml and applies logLevel changes without a restart.
// Other settings need a restart.
func (c *AppConfig) Watch() {
	c.viper.OnConfigChange(c.reload)
	c.viper.WatchConfig()
}

func (c *AppConfig) reload(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	if err := c.viper.ReadInConfig(); err != nil {
		log.Error().Err(err).Str("path", e.Name).Msg("config: failed to reload")
		return
	}

	level := c.viper.GetString("logLevel")
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		log.Warn().Str("logLevel", level).Msg("config: ignoring invalid log level")
		return
	}
	if lvl == zerolog.GlobalLevel() {
		return
	}

	zerolog.SetGlobalLevel(lvl)
	log.Info().Str("logLevel", lvl.String()).Msg("config: log level changed")
}

func (c *AppConfig) logPath() string {
	path := c.Config.LogPath
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.configDir, path)
}

func SetupLogging(level, path string, maxSize, maxBackups int) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	var writers []io.Writer
	writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime})

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to create log directory")
		} else {
			writers = append(writers, &lumberjack.Logger{
				Filename:   path,
				MaxSize:    maxSize,
				MaxBackups: maxBackups,
			})
		}
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
}
