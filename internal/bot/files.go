// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"errors"
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/services/delivery"
	"github.com/autobrr/renamarr/internal/services/rename"
	"github.com/autobrr/renamarr/internal/session"
)

var stageText = map[rename.Stage]string{
	rename.StageDownload:  "<b>Downloading...</b>",
	rename.StageMetadata:  "<b>Processing metadata...</b>",
	rename.StageThumbnail: "<b>Preparing upload...</b>",
	rename.StageUpload:    "<b>Uploading...</b>",
}

// handleFile routes a document, video or audio arrival. Documents and videos
// join the open sequence when there is one; everything else is renamed.
func (b *Bot) handleFile(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings, f metadata.FileRecord) {
	if f.Kind != metadata.MediaAudio && b.sessions.Active(u.ID) {
		b.queueFile(m, u, f)
		return
	}
	b.renameFile(ctx, m, u, f)
}

func (b *Bot) queueFile(m *tgbotapi.Message, u *models.UserSettings, f metadata.FileRecord) {
	count, opened := b.sessions.Append(u.ID, f)
	if opened {
		// expired between the check and the append
		if id := b.reply(m, msgSequenceStart); id != 0 {
			b.sessions.TrackMessage(u.ID, id)
		}
	}

	log.Debug().Int64("user", u.ID).Str("file", f.Name).Int("count", count).Msg("bot: file queued")

	chatID, replyTo := m.Chat.ID, m.MessageID
	b.acks.Do(u.ID, func() {
		n := b.sessions.Len(u.ID)
		if n == 0 {
			return
		}
		id, err := b.tg.Reply(chatID, replyTo, msgQueued(n), nil)
		if err != nil {
			log.Warn().Err(err).Int64("user", u.ID).Msg("bot: failed to acknowledge queued file")
			return
		}
		b.sessions.TrackMessage(u.ID, id)
	})
}

func (b *Bot) renameFile(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings, f metadata.FileRecord) {
	if u.RenameTemplate == "" {
		b.reply(m, msgNoTemplate)
		return
	}

	var status int
	req := rename.Request{
		ChatID:   m.Chat.ID,
		File:     f,
		Settings: u,
		OnStage: func(st rename.Stage) {
			text := stageText[st]
			if status == 0 {
				status = b.reply(m, text)
				return
			}
			if err := b.tg.Edit(m.Chat.ID, status, text, nil); err != nil {
				log.Debug().Err(err).Msg("bot: failed to update status message")
			}
		},
	}

	out, err := b.renamer.Process(ctx, req)
	switch {
	case err == nil:
		log.Info().Int64("user", u.ID).Str("file", f.Name).Str("newName", out.NewName).Msg("bot: file renamed")
		if status != 0 {
			if err := b.tg.Delete(ctx, m.Chat.ID, status); err != nil {
				log.Debug().Err(err).Msg("bot: failed to delete status message")
			}
		}
	case errors.Is(err, rename.ErrDuplicate):
		// already in flight
	case errors.Is(err, rename.ErrNoTemplate):
		b.reply(m, msgNoTemplate)
	default:
		text := "Error: " + html.EscapeString(err.Error())
		var se *rename.StageError
		if errors.As(err, &se) {
			text = fmt.Sprintf("%s failed: %s", b.title.String(string(se.Stage)), html.EscapeString(se.Err.Error()))
		}
		if status != 0 && b.tg.Edit(m.Chat.ID, status, text, nil) == nil {
			return
		}
		b.reply(m, text)
	}
}

func (b *Bot) setThumbnail(ctx context.Context, m *tgbotapi.Message, ref string) {
	b.update(m, b.users.SetThumbnail(ctx, m.From.ID, ref), "Thumbnail saved successfully!")
}

func (b *Bot) cmdStartSequence(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings) {
	if b.adminMode(ctx) && !b.isAdmin(ctx, u.ID) {
		b.reply(m, msgAdminModeOn)
		return
	}

	if err := b.sessions.Open(u.ID); errors.Is(err, session.ErrAlreadyActive) {
		b.reply(m, msgSequenceActive)
		return
	}

	if id := b.reply(m, msgSequenceStart); id != 0 {
		b.sessions.TrackMessage(u.ID, id)
	}
	log.Info().Int64("user", u.ID).Msg("bot: sequence started")
}

func (b *Bot) cmdEndSequence(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings) {
	if b.adminMode(ctx) && !b.isAdmin(ctx, u.ID) {
		b.reply(m, msgAdminModeOn)
		return
	}

	// send any pending queue acknowledgement so it is tracked for cleanup
	b.acks.Flush(u.ID)

	drained, err := b.sessions.Close(u.ID)
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		b.reply(m, msgNoSequence)
		return
	case errors.Is(err, session.ErrEmptySequence):
		b.deleteStatus(ctx, m.Chat.ID, drained.StatusMessages)
		b.reply(m, msgEmptySequence)
		return
	}

	b.reply(m, fmt.Sprintf("Sequence completed!\nSending %d files in order...", len(drained.Files)))

	report, err := b.delivery.Deliver(ctx, delivery.Batch{
		ChatID:            m.Chat.ID,
		User:              u,
		Files:             drained.Files,
		CompletionSticker: b.completionSticker(ctx),
		StatusMessages:    drained.StatusMessages,
	})
	if err != nil {
		log.Warn().Err(err).Int64("user", u.ID).Int("sent", report.Sent).Msg("bot: delivery interrupted")
		return
	}

	if len(report.Failed) > 0 {
		b.reply(m, fmt.Sprintf("%d of %d files could not be sent.", len(report.Failed), len(drained.Files)))
	}
}

func (b *Bot) deleteStatus(ctx context.Context, chatID int64, ids []int) {
	if len(ids) == 0 {
		return
	}
	if err := b.tg.Delete(ctx, chatID, ids...); err != nil {
		log.Debug().Err(err).Msg("bot: failed to delete status messages")
	}
}
