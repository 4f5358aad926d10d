// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/sequence"
)

const leaderboardSize = 10

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		return
	}

	log.Debug().Str("data", q.Data).Int64("user", q.From.ID).Msg("bot: callback")

	u, err := b.users.Get(ctx, q.From.ID)
	if err == nil && u.Banned {
		b.answer(q, msgBanned, true)
		return
	}

	data := q.Data
	switch {
	case data == "close":
		b.answer(q, "", false)
		ids := []int{q.Message.MessageID}
		if q.Message.ReplyToMessage != nil {
			ids = append(ids, q.Message.ReplyToMessage.MessageID)
		}
		b.deleteStatus(ctx, q.Message.Chat.ID, ids)

	case data == "help":
		b.answer(q, "", false)
		b.edit(q, helpText, closeKeyboard())

	case strings.HasPrefix(data, "extract_"):
		b.onExtract(ctx, q, strings.TrimPrefix(data, "extract_"))

	case strings.HasPrefix(data, "sort_"):
		raw := strings.TrimPrefix(data, "sort_")
		mode := sequence.ParseMode(raw)
		if string(mode) != raw {
			b.answer(q, "Unknown mode", false)
			return
		}
		b.saveChoice(q, b.users.SetSortMode(ctx, q.From.ID, string(mode)), "Sorting mode set to: "+b.title.String(raw))

	case strings.HasPrefix(data, "sticker_"):
		mode := strings.TrimPrefix(data, "sticker_")
		if mode != models.StickerModeQuality && mode != models.StickerModeDefault {
			b.answer(q, "Unknown mode", false)
			return
		}
		b.saveChoice(q, b.users.SetStickerMode(ctx, q.From.ID, mode), "Sticker mode set to: "+b.title.String(mode))

	case data == "meta_on", data == "meta_off":
		enabled := data == "meta_on"
		if err := b.users.SetMetadataEnabled(ctx, q.From.ID, enabled); err != nil {
			log.Error().Err(err).Int64("user", q.From.ID).Msg("bot: failed to toggle metadata")
			b.answer(q, msgInternalError, true)
			return
		}
		b.answer(q, "", false)
		if u, err := b.users.Get(ctx, q.From.ID); err == nil {
			b.edit(q, metadataSummary(u), metadataKeyboard(u.MetadataEnabled))
		}

	case strings.HasPrefix(data, "leaderboard_"):
		b.answer(q, "", false)
		b.onLeaderboard(ctx, q, models.ParseLeaderboardRange(strings.TrimPrefix(data, "leaderboard_")))

	default:
		b.answer(q, "", false)
	}
}

func (b *Bot) answer(q *tgbotapi.CallbackQuery, text string, alert bool) {
	if err := b.tg.AnswerCallback(q.ID, text, alert); err != nil {
		log.Debug().Err(err).Msg("bot: failed to answer callback")
	}
}

func (b *Bot) edit(q *tgbotapi.CallbackQuery, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	if err := b.tg.Edit(q.Message.Chat.ID, q.Message.MessageID, text, markup); err != nil {
		log.Debug().Err(err).Msg("bot: failed to edit message")
	}
}

func (b *Bot) saveChoice(q *tgbotapi.CallbackQuery, err error, text string) {
	if err != nil {
		log.Error().Err(err).Int64("user", q.From.ID).Str("data", q.Data).Msg("bot: failed to save choice")
		b.answer(q, msgInternalError, true)
		return
	}
	b.answer(q, "", false)
	b.edit(q, text, closeKeyboard())
}

// onExtract handles extract_<mode>_<uid>. Only the user the keyboard was
// made for may press it.
func (b *Bot) onExtract(ctx context.Context, q *tgbotapi.CallbackQuery, rest string) {
	raw, uidText, ok := strings.Cut(rest, "_")
	uid, err := strconv.ParseInt(uidText, 10, 64)
	if !ok || err != nil {
		b.answer(q, "", false)
		return
	}
	if q.From.ID != uid {
		b.answer(q, msgNotForYou, true)
		return
	}

	mode := metadata.ParseExtractionMode(raw)
	if string(mode) != raw {
		b.answer(q, "Unknown mode", false)
		return
	}

	if err := b.users.SetExtractionMode(ctx, uid, string(mode)); err != nil {
		log.Error().Err(err).Int64("user", uid).Msg("bot: failed to set extraction mode")
		b.answer(q, msgInternalError, true)
		return
	}

	b.answer(q, fmt.Sprintf("Set to %s mode", mode), false)
	b.edit(q, fmt.Sprintf("Extraction mode set to: <b>%s</b>\nMetadata (season, episode, quality, etc.) will now be extracted from the %s.",
		b.title.String(string(mode)), mode), nil)
}

func (b *Bot) onLeaderboard(ctx context.Context, q *tgbotapi.CallbackQuery, r models.LeaderboardRange) {
	users, err := b.users.Leaderboard(ctx, r.Since(b.now()), leaderboardSize)
	if err != nil {
		log.Error().Err(err).Str("range", string(r)).Msg("bot: failed to load leaderboard")
		b.edit(q, msgInternalError, closeKeyboard())
		return
	}

	label := b.title.String(string(r))
	if r == models.RangeAll {
		label = "All Time"
	}

	if len(users) == 0 {
		b.edit(q, fmt.Sprintf("<b>Leaderboard (%s)</b>\n\n%s", label, msgNoLeaderboard), closeKeyboard())
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Leaderboard (%s)</b>\n\n", label)
	for i, u := range users {
		fmt.Fprintf(&sb, "%d. %s - Files Sorted: %d\n", i+1, html.EscapeString(u.DisplayName()), u.FileCount)
	}
	b.edit(q, sb.String(), closeKeyboard())
}
