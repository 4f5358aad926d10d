// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/autobrr/renamarr/internal/dbinterface"
)

var ErrUserNotFound = errors.New("user not found")

// Defaults applied when a user first talks to the bot.
const (
	DefaultExtractionMode = "filename"
	DefaultSortMode       = "episode"
	DefaultStickerMode    = "default"

	StickerModeDefault = "default"
	StickerModeQuality = "quality"
)

// MetadataField names one of the container metadata overrides.
type MetadataField string

const (
	MetaTitle    MetadataField = "title"
	MetaArtist   MetadataField = "artist"
	MetaAuthor   MetadataField = "author"
	MetaVideo    MetadataField = "video"
	MetaAudio    MetadataField = "audio"
	MetaSubtitle MetadataField = "subtitle"
)

var metadataColumns = map[MetadataField]string{
	MetaTitle:    "meta_title",
	MetaArtist:   "meta_artist",
	MetaAuthor:   "meta_author",
	MetaVideo:    "meta_video",
	MetaAudio:    "meta_audio",
	MetaSubtitle: "meta_subtitle",
}

// MetadataFields holds the per-user container metadata overrides.
type MetadataFields struct {
	Title    string
	Artist   string
	Author   string
	Video    string
	Audio    string
	Subtitle string
}

type UserSettings struct {
	ID              int64
	FirstName       string
	Username        string
	Banned          bool
	JoinedAt        time.Time
	ExtractionMode  string
	RenameTemplate  string
	CaptionTemplate string
	ThumbnailRef    string
	MetadataEnabled bool
	Metadata        MetadataFields
	SortMode        string
	StickerMode     string
	StickerRef      string
	DumpChannel     int64
	FileCount       int64
	LastActivity    time.Time
}

// DisplayName prefers the first name, then the username.
func (u *UserSettings) DisplayName() string {
	switch {
	case u.FirstName != "":
		return u.FirstName
	case u.Username != "":
		return "@" + u.Username
	default:
		return fmt.Sprintf("User %d", u.ID)
	}
}

type UserSettingsStore struct {
	db             dbinterface.Querier
	defaultSticker string
}

func NewUserSettingsStore(db dbinterface.Querier, defaultSticker string) *UserSettingsStore {
	return &UserSettingsStore{db: db, defaultSticker: defaultSticker}
}

const userColumns = `id, first_name, username, banned, joined_at, extraction_mode, rename_template,
	caption_template, thumbnail_ref, meta_enabled, meta_title, meta_artist, meta_author,
	meta_video, meta_audio, meta_subtitle, sort_mode, sticker_mode, sticker_ref,
	dump_channel, file_count, last_activity`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*UserSettings, error) {
	var (
		u            UserSettings
		joined, last int64
	)

	err := row.Scan(
		&u.ID, &u.FirstName, &u.Username, &u.Banned, &joined, &u.ExtractionMode, &u.RenameTemplate,
		&u.CaptionTemplate, &u.ThumbnailRef, &u.MetadataEnabled, &u.Metadata.Title, &u.Metadata.Artist,
		&u.Metadata.Author, &u.Metadata.Video, &u.Metadata.Audio, &u.Metadata.Subtitle, &u.SortMode,
		&u.StickerMode, &u.StickerRef, &u.DumpChannel, &u.FileCount, &last,
	)
	if err != nil {
		return nil, err
	}

	u.JoinedAt = unixTime(joined)
	u.LastActivity = unixTime(last)
	return &u, nil
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

// Ensure registers the user with default settings if unknown and refreshes
// the display names otherwise. created reports whether the row is new.
func (s *UserSettingsStore) Ensure(ctx context.Context, id int64, firstName, username string) (created bool, err error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, first_name, username, joined_at, extraction_mode, sort_mode, sticker_mode, sticker_ref)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`, id, firstName, username, time.Now().Unix(), DefaultExtractionMode, DefaultSortMode, DefaultStickerMode, s.defaultSticker)
	if err != nil {
		return false, fmt.Errorf("failed to register user %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to register user %d: %w", id, err)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE users SET first_name = ?, username = ? WHERE id = ?`, firstName, username, id); err != nil {
		return false, fmt.Errorf("failed to refresh user %d: %w", id, err)
	}
	return false, nil
}

func (s *UserSettingsStore) Get(ctx context.Context, id int64) (*UserSettings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return u, nil
}

// set updates one column. column is never user input.
func (s *UserSettingsStore) set(ctx context.Context, id int64, column string, value any) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET `+column+` = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("failed to update %s for user %d: %w", column, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s for user %d: %w", column, id, err)
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserSettingsStore) SetExtractionMode(ctx context.Context, id int64, mode string) error {
	return s.set(ctx, id, "extraction_mode", mode)
}

func (s *UserSettingsStore) SetRenameTemplate(ctx context.Context, id int64, template string) error {
	return s.set(ctx, id, "rename_template", template)
}

func (s *UserSettingsStore) SetCaptionTemplate(ctx context.Context, id int64, template string) error {
	return s.set(ctx, id, "caption_template", template)
}

func (s *UserSettingsStore) SetThumbnail(ctx context.Context, id int64, ref string) error {
	return s.set(ctx, id, "thumbnail_ref", ref)
}

func (s *UserSettingsStore) SetMetadataEnabled(ctx context.Context, id int64, enabled bool) error {
	return s.set(ctx, id, "meta_enabled", enabled)
}

func (s *UserSettingsStore) SetMetadataField(ctx context.Context, id int64, field MetadataField, value string) error {
	column, ok := metadataColumns[field]
	if !ok {
		return fmt.Errorf("unknown metadata field %q", field)
	}
	return s.set(ctx, id, column, value)
}

func (s *UserSettingsStore) SetSortMode(ctx context.Context, id int64, mode string) error {
	return s.set(ctx, id, "sort_mode", mode)
}

func (s *UserSettingsStore) SetStickerMode(ctx context.Context, id int64, mode string) error {
	return s.set(ctx, id, "sticker_mode", mode)
}

func (s *UserSettingsStore) SetSticker(ctx context.Context, id int64, ref string) error {
	return s.set(ctx, id, "sticker_ref", ref)
}

func (s *UserSettingsStore) SetDumpChannel(ctx context.Context, id int64, channel int64) error {
	return s.set(ctx, id, "dump_channel", channel)
}

func (s *UserSettingsStore) SetBanned(ctx context.Context, id int64, banned bool) error {
	return s.set(ctx, id, "banned", banned)
}

// RecordDelivery adds n to the user's delivered file count and stamps the
// activity time used by the leaderboard.
func (s *UserSettingsStore) RecordDelivery(ctx context.Context, id int64, n int, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET file_count = file_count + ?, last_activity = ? WHERE id = ?
	`, n, at.Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to record delivery for user %d: %w", id, err)
	}
	return nil
}

func (s *UserSettingsStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *UserSettingsStore) list(ctx context.Context, query string, args ...any) ([]*UserSettings, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*UserSettings
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *UserSettingsStore) Banned(ctx context.Context) ([]*UserSettings, error) {
	users, err := s.list(ctx, `SELECT `+userColumns+` FROM users WHERE banned = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list banned users: %w", err)
	}
	return users, nil
}

// Leaderboard returns the top users by delivered files whose last activity
// is at or after since. A zero since covers all time.
func (s *UserSettingsStore) Leaderboard(ctx context.Context, since time.Time, limit int) ([]*UserSettings, error) {
	var cutoff int64
	if !since.IsZero() {
		cutoff = since.Unix()
	}

	users, err := s.list(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE file_count > 0 AND last_activity >= ?
		ORDER BY file_count DESC, id ASC
		LIMIT ?
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return users, nil
}
