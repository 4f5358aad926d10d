// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/renamarr/internal/config"
	"github.com/autobrr/renamarr/internal/database"
	"github.com/autobrr/renamarr/internal/models"
)

func RunDBCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database operations",
	}

	cmd.AddCommand(runDBInitCommand(), runDBStatsCommand())
	return cmd
}

// dbPath resolves --path, falling back to the database in the config dir.
func dbPath(path, configDir string) (string, error) {
	if path != "" {
		return path, nil
	}
	cfg, err := config.New(configDir)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.GetDatabasePath(), nil
}

func runDBInitCommand() *cobra.Command {
	var path, configDir string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and apply migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := dbPath(path, configDir)
			if err != nil {
				return err
			}

			db, err := database.New(p)
			if err != nil {
				return err
			}
			defer db.Close()

			cmd.Printf("Database ready at %s\n", p)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Path to the SQLite database file")
	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory used when --path is not set")
	return cmd
}

func runDBStatsCommand() *cobra.Command {
	var path, configDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print user statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := dbPath(path, configDir)
			if err != nil {
				return err
			}

			db, err := database.New(p)
			if err != nil {
				return err
			}
			defer db.Close()

			users := models.NewUserSettingsStore(db, "")
			total, err := users.Count(cmd.Context())
			if err != nil {
				return err
			}
			banned, err := users.Banned(cmd.Context())
			if err != nil {
				return err
			}

			cmd.Printf("Users: %d\n", total)
			cmd.Printf("Banned: %d\n", len(banned))
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "Path to the SQLite database file")
	cmd.Flags().StringVar(&configDir, "config-dir", "", "Config directory used when --path is not set")
	return cmd
}
