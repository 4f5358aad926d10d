// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/sequence"
	"github.com/autobrr/renamarr/internal/services/rename"
)

// RunExtractCommand previews extraction and ordering for file names without
// contacting Telegram.
func RunExtractCommand() *cobra.Command {
	var (
		template string
		sortMode string
	)

	cmd := &cobra.Command{
		Use:   "extract <filename>...",
		Short: "Show what would be extracted from file names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]metadata.FileRecord, 0, len(args))
			for _, name := range args {
				files = append(files, metadata.FileRecord{Name: name, Kind: metadata.MediaDocument})
			}

			for _, f := range files {
				newName, r := rename.Plan(f, template, metadata.ModeFilename)

				season := "-"
				if r.HasSeason() {
					season = fmt.Sprintf("%02d", *r.Season)
				}
				value := r.Value
				if value == "" {
					value = "-"
				}

				cmd.Printf("%s\n", f.Name)
				cmd.Printf("  season=%s %s=%s quality=%s\n", season, r.Kind, value, r.Quality)
				if template != "" {
					cmd.Printf("  -> %s\n", newName)
				}
			}

			if sortMode == "" {
				return nil
			}

			mode := sequence.ParseMode(sortMode)
			if string(mode) != sortMode {
				return errors.New("unknown sort mode: " + sortMode)
			}

			cmd.Printf("\nOrder (%s):\n", mode)
			for i, f := range sequence.Order(files, mode) {
				cmd.Printf("  %d. %s\n", i+1, f.Name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Rename template to render, e.g. \"Show S{season}E{episode} [{quality}]\"")
	cmd.Flags().StringVar(&sortMode, "sort", "", "Also print the delivery order: quality, title, both or episode")
	return cmd
}
