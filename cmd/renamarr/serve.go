// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/renamarr/internal/bot"
	"github.com/autobrr/renamarr/internal/buildinfo"
	"github.com/autobrr/renamarr/internal/config"
	"github.com/autobrr/renamarr/internal/database"
	"github.com/autobrr/renamarr/internal/domain"
	"github.com/autobrr/renamarr/internal/ffmpeg"
	"github.com/autobrr/renamarr/internal/metrics"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/services/delivery"
	"github.com/autobrr/renamarr/internal/services/rename"
	"github.com/autobrr/renamarr/internal/session"
	"github.com/autobrr/renamarr/internal/telegram"
	"github.com/autobrr/renamarr/pkg/releases"
)

const shutdownTimeout = 10 * time.Second

func RunServeCommand() *cobra.Command {
	var (
		configDir string
		logLevel  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.New(configDir)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if logLevel != "" {
				cfg.Config.LogLevel = logLevel
			}
			cfg.Config.Version = buildinfo.Version
			cfg.ApplyLogConfig()

			if err := cfg.Config.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			if logLevel == "" {
				cfg.Watch()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory (default: OS config dir)/renamarr")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
	return cmd
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	c := cfg.Config

	log.Info().
		Str("version", c.Version).
		Str("configDir", cfg.ConfigDir()).
		Str("token", domain.RedactToken(c.BotToken)).
		Msg("starting renamarr")

	db, err := database.New(cfg.GetDatabasePath())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close database")
		}
	}()

	users := models.NewUserSettingsStore(db, c.DefaultSticker)
	settings := models.NewBotSettingsStore(db)

	tg, err := telegram.New(c.BotToken, c.BotDebug)
	if err != nil {
		return err
	}

	// the store is built before the bot, so expiry resolves it lazily
	var current atomic.Pointer[bot.Bot]
	store := session.NewMemoryStore(c.SessionTTL(), func(owner int64, s session.BatchSession) {
		if b := current.Load(); b != nil {
			b.SessionExpired(owner, s)
		}
	})
	defer store.Close()
	sessions := session.NewManager(store)

	manager := metrics.NewManager(bot.Stats{Sessions: sessions, Users: users})
	recorder := manager.Recorder()

	tool := ffmpeg.NewRunner(c.FFmpegPath)
	if !tool.Available() {
		log.Warn().Str("ffmpegPath", c.FFmpegPath).Msg("ffmpeg not found, metadata rewriting will fail")
	}

	renamer := rename.NewService(rename.Config{
		WorkDir:         c.DownloadDir,
		DuplicateWindow: c.DuplicateWindow(),
		Attempts:        uint(c.RetryAttempts),
	}, tg, tool, releases.NewDefaultParser(), recorder)
	defer renamer.Close()

	var ownerDump int64
	if c.DumpEnabled {
		ownerDump = c.DumpChannel
	}
	deliverer := delivery.NewService(delivery.Config{
		SendInterval:     c.SendInterval(),
		OwnerDumpChannel: ownerDump,
	}, tg, users, recorder)

	b := bot.New(bot.Deps{
		Config:    c,
		Messenger: tg,
		Users:     users,
		Settings:  settings,
		Sessions:  sessions,
		Renamer:   renamer,
		Delivery:  deliverer,
		Metrics:   recorder,
	})
	current.Store(b)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return b.Run(gctx, tg.Updates())
	})
	g.Go(func() error {
		<-gctx.Done()
		tg.StopUpdates()
		return nil
	})

	if c.HTTPPort > 0 {
		runServer(gctx, g, "health", metrics.NewHealthServer(c.HTTPHost, c.HTTPPort, db.Ping))
	}
	if c.MetricsEnabled {
		runServer(gctx, g, "metrics", metrics.NewMetricsServer(manager, c.MetricsHost, c.MetricsPort, c.MetricsBasicAuthUsers))
	}

	err = g.Wait()
	current.Store(nil)
	log.Info().Msg("renamarr stopped")
	return err
}

func runServer(ctx context.Context, g *errgroup.Group, name string, srv *metrics.Server) {
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil {
			return fmt.Errorf("%s server: %w", name, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}
