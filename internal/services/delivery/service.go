// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package delivery sends a closed sequence back to the user in sorted order.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/metrics"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/sequence"
	"github.com/autobrr/renamarr/internal/telegram"
)

// floodWaitPadding is added to every flood wait before resending.
const floodWaitPadding = time.Second

// Sender is the subset of the transport used for delivery.
type Sender interface {
	SendStored(ctx context.Context, chatID int64, kind metadata.MediaKind, ref string, opts telegram.UploadOptions) (int, error)
	SendSticker(ctx context.Context, chatID int64, ref string) error
	Delete(ctx context.Context, chatID int64, messageIDs ...int) error
}

// StatsStore records how many files a user received.
type StatsStore interface {
	RecordDelivery(ctx context.Context, id int64, n int, at time.Time) error
}

type Config struct {
	SendInterval time.Duration
	// OwnerDumpChannel receives a copy of every file when non-zero.
	OwnerDumpChannel int64
}

type Service struct {
	cfg     Config
	sender  Sender
	stats   StatsStore
	metrics *metrics.Recorder

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func NewService(cfg Config, sender Sender, stats StatsStore, recorder *metrics.Recorder) *Service {
	return &Service{
		cfg:     cfg,
		sender:  sender,
		stats:   stats,
		metrics: recorder,
		sleep:   sleepCtx,
		now:     time.Now,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Batch is one closed sequence ready to send.
type Batch struct {
	ChatID            int64
	User              *models.UserSettings
	Files             []metadata.FileRecord
	CompletionSticker string
	// StatusMessages are deleted once delivery finishes.
	StatusMessages []int
}

// Failure is a file that could not be sent.
type Failure struct {
	File metadata.FileRecord
	Err  error
}

type Report struct {
	Sent       int
	Failed     []Failure
	FloodWaits int
}

// Order sorts files with the user's sort mode.
func Order(files []metadata.FileRecord, u *models.UserSettings) []metadata.FileRecord {
	return sequence.Order(files, sequence.ParseMode(u.SortMode))
}

// Deliver sends b.Files in sorted order, one at a time. A flood wait pauses
// delivery and resends the same file; any other error skips just that file.
// The returned error is non-nil only when ctx ends delivery early.
func (s *Service) Deliver(ctx context.Context, b Batch) (Report, error) {
	var report Report
	cur := NewCursor(Order(b.Files, b.User))
	quality := b.User.StickerMode == models.StickerModeQuality

	log.Info().
		Int64("user", b.User.ID).
		Int("files", len(b.Files)).
		Str("sortMode", b.User.SortMode).
		Msg("delivery: starting")

	for !cur.Done() {
		if err := ctx.Err(); err != nil {
			return s.finishEarly(ctx, b, report, cur, err)
		}

		f := cur.Current()

		if quality && cur.NeedsMarker() && b.User.StickerRef != "" {
			if err := s.sender.SendSticker(ctx, b.ChatID, b.User.StickerRef); err != nil {
				log.Warn().Err(err).Int64("user", b.User.ID).Msg("delivery: failed to send quality marker")
			}
		}
		cur.MarkerSent()

		_, err := s.sender.SendStored(ctx, b.ChatID, f.Kind, f.Ref, telegram.UploadOptions{
			Caption:   html.EscapeString(f.Name),
			ParseMode: "HTML",
		})

		var fw *telegram.FloodWaitError
		switch {
		case errors.As(err, &fw):
			report.FloodWaits++
			s.metrics.FloodWait()
			wait := fw.RetryAfter + floodWaitPadding
			log.Warn().Dur("wait", wait).Int("position", cur.Position()).Str("file", f.Name).Msg("delivery: flood wait, resuming at same file")
			if err := s.sleep(ctx, wait); err != nil {
				return s.finishEarly(ctx, b, report, cur, err)
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return s.finishEarly(ctx, b, report, cur, ctx.Err())
			}
			log.Error().Err(err).Str("file", f.Name).Msg("delivery: failed to send file, skipping")
			report.Failed = append(report.Failed, Failure{File: f, Err: err})
		default:
			report.Sent++
			s.metrics.FileDelivered()
			s.copyToDumps(ctx, b, f)
		}

		cur.Advance()
		if !cur.Done() {
			if err := s.sleep(ctx, s.cfg.SendInterval); err != nil {
				return s.finishEarly(ctx, b, report, cur, err)
			}
		}
	}

	s.complete(ctx, b, report)
	return report, nil
}

func (s *Service) finishEarly(ctx context.Context, b Batch, report Report, cur *Cursor, err error) (Report, error) {
	log.Warn().Err(err).Int("remaining", len(cur.Remaining())).Msg("delivery: stopped early")
	s.recordStats(context.WithoutCancel(ctx), b, report)
	return report, err
}

func (s *Service) copyToDumps(ctx context.Context, b Batch, f metadata.FileRecord) {
	if b.User.DumpChannel != 0 {
		if _, err := s.sender.SendStored(ctx, b.User.DumpChannel, f.Kind, f.Ref, telegram.UploadOptions{
			Caption:   html.EscapeString(f.Name),
			ParseMode: "HTML",
		}); err != nil {
			log.Warn().Err(err).Int64("channel", b.User.DumpChannel).Msg("delivery: failed to copy to user dump channel")
		}
	}

	if s.cfg.OwnerDumpChannel != 0 {
		if _, err := s.sender.SendStored(ctx, s.cfg.OwnerDumpChannel, f.Kind, f.Ref, telegram.UploadOptions{
			Caption:   DumpCaption(b.User, f.Name, s.now()),
			ParseMode: "HTML",
		}); err != nil {
			log.Warn().Err(err).Msg("delivery: failed to copy to owner dump channel")
		}
	}
}

// DumpCaption describes who sent a file, for the owner's dump channel.
func DumpCaption(u *models.UserSettings, fileName string, at time.Time) string {
	username := "N/A"
	if u.Username != "" {
		username = "@" + u.Username
	}

	var b strings.Builder
	b.WriteString("» User Details «\n")
	fmt.Fprintf(&b, "ID: <code>%d</code>\n", u.ID)
	fmt.Fprintf(&b, "Name: %s\n", html.EscapeString(u.FirstName))
	fmt.Fprintf(&b, "Username: %s\n", html.EscapeString(username))
	fmt.Fprintf(&b, "Time: %s\n", at.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Filename: %s", html.EscapeString(fileName))
	return b.String()
}

func (s *Service) complete(ctx context.Context, b Batch, report Report) {
	s.recordStats(ctx, b, report)

	if b.CompletionSticker != "" {
		if err := s.sender.SendSticker(ctx, b.ChatID, b.CompletionSticker); err != nil {
			log.Warn().Err(err).Msg("delivery: failed to send completion sticker")
		}
	}

	if b.User.StickerMode != models.StickerModeQuality && b.User.StickerRef != "" {
		if err := s.sender.SendSticker(ctx, b.ChatID, b.User.StickerRef); err != nil {
			log.Warn().Err(err).Msg("delivery: failed to send user sticker")
		}
	}

	if len(b.StatusMessages) > 0 {
		if err := s.sender.Delete(ctx, b.ChatID, b.StatusMessages...); err != nil {
			log.Debug().Err(err).Msg("delivery: failed to delete status messages")
		}
	}

	log.Info().
		Int64("user", b.User.ID).
		Int("sent", report.Sent).
		Int("failed", len(report.Failed)).
		Int("floodWaits", report.FloodWaits).
		Msg("delivery: finished")
}

func (s *Service) recordStats(ctx context.Context, b Batch, report Report) {
	if s.stats == nil || report.Sent == 0 {
		return
	}
	if err := s.stats.RecordDelivery(ctx, b.User.ID, report.Sent, s.now()); err != nil {
		log.Error().Err(err).Int64("user", b.User.ID).Msg("delivery: failed to record stats")
	}
}
