// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/autobrr/renamarr/internal/dbinterface"
)

const (
	settingCompletionSticker = "completion_sticker"
	settingAdminMode         = "admin_mode"
	settingAdmins            = "admins"
)

// BotSettingsStore persists bot-wide key/value settings.
type BotSettingsStore struct {
	db dbinterface.Querier
}

func NewBotSettingsStore(db dbinterface.Querier) *BotSettingsStore {
	return &BotSettingsStore{db: db}
}

// Get returns "" for unset keys.
func (s *BotSettingsStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM bot_settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get setting %s: %w", key, err)
	}
	return value, nil
}

func (s *BotSettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bot_settings (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set setting %s: %w", key, err)
	}
	return nil
}

func (s *BotSettingsStore) CompletionSticker(ctx context.Context) (string, error) {
	return s.Get(ctx, settingCompletionSticker)
}

func (s *BotSettingsStore) SetCompletionSticker(ctx context.Context, ref string) error {
	return s.Set(ctx, settingCompletionSticker, ref)
}

// AdminMode reports whether the bot only serves admins. fallback applies
// while the setting has never been toggled.
func (s *BotSettingsStore) AdminMode(ctx context.Context, fallback bool) (bool, error) {
	v, err := s.Get(ctx, settingAdminMode)
	if err != nil || v == "" {
		return fallback, err
	}
	return strconv.ParseBool(v)
}

func (s *BotSettingsStore) SetAdminMode(ctx context.Context, enabled bool) error {
	return s.Set(ctx, settingAdminMode, strconv.FormatBool(enabled))
}

// Admins returns the ids added at runtime, excluding the configured ones.
func (s *BotSettingsStore) Admins(ctx context.Context) ([]int64, error) {
	v, err := s.Get(ctx, settingAdmins)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for field := range strings.SplitSeq(v, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", field, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// AddAdmin reports false when id was already an admin.
func (s *BotSettingsStore) AddAdmin(ctx context.Context, id int64) (bool, error) {
	ids, err := s.Admins(ctx)
	if err != nil {
		return false, err
	}
	if slices.Contains(ids, id) {
		return false, nil
	}
	return true, s.saveAdmins(ctx, append(ids, id))
}

// RemoveAdmin reports false when id was not an admin.
func (s *BotSettingsStore) RemoveAdmin(ctx context.Context, id int64) (bool, error) {
	ids, err := s.Admins(ctx)
	if err != nil {
		return false, err
	}
	idx := slices.Index(ids, id)
	if idx < 0 {
		return false, nil
	}
	return true, s.saveAdmins(ctx, slices.Delete(ids, idx, idx+1))
}

func (s *BotSettingsStore) saveAdmins(ctx context.Context, ids []int64) error {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return s.Set(ctx, settingAdmins, strings.Join(parts, ","))
}
