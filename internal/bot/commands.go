// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/services/rename"
)

// metadataCommands maps the per-field setters to the field they change.
var metadataCommands = map[string]models.MetadataField{
	"settitle":    models.MetaTitle,
	"setartist":   models.MetaArtist,
	"setauthor":   models.MetaAuthor,
	"setvideo":    models.MetaVideo,
	"setaudio":    models.MetaAudio,
	"setsubtitle": models.MetaSubtitle,
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings) {
	cmd := m.Command()
	args := strings.TrimSpace(m.CommandArguments())

	log.Debug().Str("command", cmd).Int64("user", u.ID).Msg("bot: command")

	switch cmd {
	case "start":
		b.replyMarkup(m, fmt.Sprintf("Hi %s! Send me a file and I will rename it.\nSet a format first with /autorename.", html.EscapeString(u.DisplayName())), startKeyboard())
		if b.cfg.DefaultSticker != "" {
			if err := b.tg.SendSticker(ctx, m.Chat.ID, b.cfg.DefaultSticker); err != nil {
				log.Debug().Err(err).Msg("bot: failed to send start sticker")
			}
		}
	case "help":
		b.reply(m, helpText)

	case "autorename":
		b.cmdAutoRename(ctx, m, u, args)
	case "setextract":
		b.replyMarkup(m, fmt.Sprintf("Current extraction mode: <b>%s</b>\nChoose the source for metadata extraction (season, episode, quality, etc.):",
			b.title.String(string(metadata.ParseExtractionMode(u.ExtractionMode)))), extractKeyboard(u.ID))
	case "preview":
		b.cmdPreview(m, u, args)
	case "setcaption":
		if args == "" {
			b.reply(m, "Give the caption after the command, e.g. <code>/setcaption {filename} | {filesize}</code>")
			return
		}
		b.update(m, b.users.SetCaptionTemplate(ctx, u.ID, args), "Caption saved.")
	case "delcaption":
		b.update(m, b.users.SetCaptionTemplate(ctx, u.ID, ""), "Caption removed.")
	case "viewthumb":
		if u.ThumbnailRef == "" {
			b.reply(m, "You don't have a thumbnail. Send a photo to set one.")
			return
		}
		if err := b.tg.SendPhoto(ctx, m.Chat.ID, u.ThumbnailRef, "Your thumbnail"); err != nil {
			log.Warn().Err(err).Msg("bot: failed to send thumbnail")
		}
	case "delthumb":
		b.update(m, b.users.SetThumbnail(ctx, u.ID, ""), "Thumbnail deleted.")

	case "metadata":
		b.replyMarkup(m, metadataSummary(u), metadataKeyboard(u.MetadataEnabled))
	case "settitle", "setartist", "setauthor", "setvideo", "setaudio", "setsubtitle":
		field := metadataCommands[cmd]
		if args == "" {
			b.reply(m, fmt.Sprintf("Give the %s after the command, e.g. <code>/%s My Value</code>", field, cmd))
			return
		}
		b.update(m, b.users.SetMetadataField(ctx, u.ID, field, args), fmt.Sprintf("Metadata %s saved.", field))

	case "ssequence":
		b.cmdStartSequence(ctx, m, u)
	case "esequence":
		b.cmdEndSequence(ctx, m, u)
	case "mode":
		b.replyMarkup(m, fmt.Sprintf("<b>Select Sorting Mode</b> (Current: %s)\n\n"+
			"• Quality: Sort by quality then episode\n"+
			"• Title: Sort by title then episode\n"+
			"• Both: Sort by title, quality, then episode\n"+
			"• Episode: Default sorting by episode only", b.title.String(u.SortMode)), sortKeyboard())
	case "smode":
		b.replyMarkup(m, fmt.Sprintf("<b>Sticker Display Settings</b> (Current: %s)\n\n"+
			"• Quality: Send stickers between quality groups\n"+
			"• Default: Send sticker at end of processing", b.title.String(u.StickerMode)), stickerKeyboard())
	case "setsticker":
		ref, ok := repliedSticker(m)
		if !ok {
			b.reply(m, "Please reply to a sticker with /setsticker to set it as your custom sticker.")
			return
		}
		b.update(m, b.users.SetSticker(ctx, u.ID, ref), "Custom sticker set successfully!")
	case "getsticker":
		ref := u.StickerRef
		if ref == "" {
			ref = b.cfg.DefaultSticker
		}
		if ref == "" {
			b.reply(m, "No sticker is set.")
			return
		}
		if err := b.tg.SendSticker(ctx, m.Chat.ID, ref); err != nil {
			log.Warn().Err(err).Msg("bot: failed to send sticker")
		}
		b.reply(m, "This is your currently set sticker.")
	case "delsticker":
		b.update(m, b.users.SetSticker(ctx, u.ID, b.cfg.DefaultSticker), "Custom sticker reset to default!")
	case "setdump":
		b.cmdSetDump(ctx, m, u, args)
	case "getdump":
		if u.DumpChannel == 0 {
			b.reply(m, "No dump channel is set.")
			return
		}
		title, err := b.tg.ChatTitle(u.DumpChannel)
		if err != nil {
			b.reply(m, "Failed to retrieve dump channel: "+html.EscapeString(err.Error()))
			return
		}
		b.reply(m, fmt.Sprintf("Your dump channel: %s (<code>%d</code>)", html.EscapeString(title), u.DumpChannel))
	case "deldump":
		b.update(m, b.users.SetDumpChannel(ctx, u.ID, 0), "Dump channel has been removed.")
	case "leaderboard":
		b.replyMarkup(m, "Select a leaderboard timeframe:", leaderboardKeyboard())

	case "setcompletesticker":
		if m.From.ID != b.cfg.OwnerID {
			b.reply(m, msgOwnerOnly)
			return
		}
		ref, ok := repliedSticker(m)
		if !ok {
			b.reply(m, "Please reply to a sticker with /setcompletesticker to set it as the completion sticker.")
			return
		}
		b.update(m, b.settings.SetCompletionSticker(ctx, ref), "Completion sticker set successfully!")

	case "users", "ban", "unban", "banlist", "addadmin", "deladmin", "adminlist", "adminmode":
		if !b.isAdmin(ctx, m.From.ID) {
			b.reply(m, msgAdminOnly)
			return
		}
		b.handleAdminCommand(ctx, m, cmd)

	default:
		log.Trace().Str("command", cmd).Msg("bot: unknown command")
	}
}

// update replies with ok on success and logs err otherwise.
func (b *Bot) update(m *tgbotapi.Message, err error, ok string) {
	if err != nil {
		log.Error().Err(err).Int64("user", m.From.ID).Str("command", m.Command()).Msg("bot: failed to save setting")
		b.reply(m, msgInternalError)
		return
	}
	b.reply(m, ok)
}

func repliedSticker(m *tgbotapi.Message) (string, bool) {
	if m.ReplyToMessage == nil || m.ReplyToMessage.Sticker == nil {
		return "", false
	}
	return m.ReplyToMessage.Sticker.FileID, true
}

func (b *Bot) cmdAutoRename(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings, args string) {
	if args == "" {
		b.reply(m, "<b>Usage:</b> <code>/autorename Show S{season}E{episode} [{quality}]</code>\n\n"+
			"Placeholders: {season} {episode} {chapter} {volume} {quality}")
		return
	}
	b.update(m, b.users.SetRenameTemplate(ctx, u.ID, args),
		"Your auto rename format has been set to:\n<code>"+html.EscapeString(args)+"</code>")
}

func (b *Bot) cmdPreview(m *tgbotapi.Message, u *models.UserSettings, args string) {
	if u.RenameTemplate == "" {
		b.reply(m, msgNoTemplate)
		return
	}
	if args == "" {
		b.reply(m, "Give a file name after the command, e.g. <code>/preview Show.S01E05.1080p.mkv</code>")
		return
	}

	f := metadata.FileRecord{Name: args, Caption: args, Kind: metadata.MediaDocument}
	name, r := rename.Plan(f, u.RenameTemplate, metadata.ParseExtractionMode(u.ExtractionMode))

	season := metadata.Missing
	if r.HasSeason() {
		season = strconv.Itoa(*r.Season)
	}
	value := r.Value
	if value == "" {
		value = metadata.Missing
	}

	b.reply(m, fmt.Sprintf("<code>%s</code>\n\nseason: %s\n%s: %s\nquality: %s",
		html.EscapeString(name), season, r.Kind, value, html.EscapeString(r.Quality)))
}

func metadataSummary(u *models.UserSettings) string {
	state := "OFF"
	if u.MetadataEnabled {
		state = "ON"
	}
	show := func(v string) string {
		if v == "" {
			return "<i>not set</i>"
		}
		return "<code>" + html.EscapeString(v) + "</code>"
	}
	return fmt.Sprintf("<b>Metadata is %s</b>\n\nTitle: %s\nArtist: %s\nAuthor: %s\nVideo: %s\nAudio: %s\nSubtitle: %s",
		state,
		show(u.Metadata.Title), show(u.Metadata.Artist), show(u.Metadata.Author),
		show(u.Metadata.Video), show(u.Metadata.Audio), show(u.Metadata.Subtitle))
}

func (b *Bot) cmdSetDump(ctx context.Context, m *tgbotapi.Message, u *models.UserSettings, args string) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		b.reply(m, "Please provide a valid channel ID (e.g., /setdump -1001234567890).")
		return
	}
	channel, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || channel == 0 {
		b.reply(m, "Please provide a valid channel ID (e.g., /setdump -1001234567890).")
		return
	}

	title, err := b.tg.ChatTitle(channel)
	if err != nil {
		b.reply(m, "Failed to set dump channel: "+html.EscapeString(err.Error()))
		return
	}

	b.update(m, b.users.SetDumpChannel(ctx, u.ID, channel),
		fmt.Sprintf("Dump channel set to %s (<code>%d</code>).", html.EscapeString(title), channel))
}

// targetUser reads the user an admin command acts on: the author of the
// replied-to message, else the first argument.
func targetUser(m *tgbotapi.Message) (int64, bool) {
	if m.ReplyToMessage != nil && m.ReplyToMessage.From != nil {
		return m.ReplyToMessage.From.ID, true
	}
	fields := strings.Fields(m.CommandArguments())
	if len(fields) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (b *Bot) handleAdminCommand(ctx context.Context, m *tgbotapi.Message, cmd string) {
	switch cmd {
	case "users":
		n, err := b.users.Count(ctx)
		if err != nil {
			log.Error().Err(err).Msg("bot: failed to count users")
			b.reply(m, msgInternalError)
			return
		}
		b.reply(m, fmt.Sprintf("Total Users: %d", n))

	case "adminmode":
		on := !b.adminMode(ctx)
		if err := b.settings.SetAdminMode(ctx, on); err != nil {
			log.Error().Err(err).Msg("bot: failed to toggle admin mode")
			b.reply(m, msgInternalError)
			return
		}
		state := "OFF"
		if on {
			state = "ON"
		}
		log.Info().Bool("adminMode", on).Int64("by", m.From.ID).Msg("bot: admin mode toggled")
		b.reply(m, "Admin mode is now "+state+".")

	case "banlist":
		users, err := b.users.Banned(ctx)
		if err != nil {
			log.Error().Err(err).Msg("bot: failed to list banned users")
			b.reply(m, msgInternalError)
			return
		}
		if len(users) == 0 {
			b.reply(m, "No users are currently banned.")
			return
		}
		var sb strings.Builder
		sb.WriteString("<b>Banned Users:</b>\n\n")
		for i, u := range users {
			sb.WriteString(userLine(i+1, u.ID, u))
		}
		b.reply(m, sb.String())

	case "adminlist":
		ids, err := b.settings.Admins(ctx)
		if err != nil {
			log.Error().Err(err).Msg("bot: failed to list admins")
			b.reply(m, msgInternalError)
			return
		}
		all := append(append([]int64{}, b.cfg.Admins...), ids...)
		if len(all) == 0 {
			b.reply(m, "No admins are currently set.")
			return
		}
		var sb strings.Builder
		sb.WriteString("<b>Admin List:</b>\n\n")
		for i, id := range all {
			u, err := b.users.Get(ctx, id)
			if err != nil {
				u = nil
			}
			sb.WriteString(userLine(i+1, id, u))
		}
		b.reply(m, sb.String())

	case "ban", "unban", "addadmin", "deladmin":
		id, ok := targetUser(m)
		if !ok {
			b.reply(m, msgNeedUserID)
			return
		}
		b.changeUser(ctx, m, cmd, id)
	}
}

func userLine(idx int, id int64, u *models.UserSettings) string {
	name, username := "Unknown", "N/A"
	if u != nil {
		if u.FirstName != "" {
			name = u.FirstName
		}
		if u.Username != "" {
			username = u.Username
		}
	}
	return fmt.Sprintf("%d. User ID: <code>%d</code> - Name: %s (@%s)\n", idx, id, html.EscapeString(name), html.EscapeString(username))
}

func (b *Bot) changeUser(ctx context.Context, m *tgbotapi.Message, cmd string, id int64) {
	var (
		err  error
		text string
	)

	switch cmd {
	case "ban":
		if b.isAdmin(ctx, id) {
			b.reply(m, "Cannot ban an admin!")
			return
		}
		err = b.users.SetBanned(ctx, id, true)
		text = fmt.Sprintf("User %d has been banned.", id)
	case "unban":
		err = b.users.SetBanned(ctx, id, false)
		text = fmt.Sprintf("User %d has been unbanned.", id)
	case "addadmin":
		if b.cfg.IsConfiguredAdmin(id) {
			b.reply(m, "This user is already an admin!")
			return
		}
		var changed bool
		changed, err = b.settings.AddAdmin(ctx, id)
		text = fmt.Sprintf("User %d has been added as an admin.", id)
		if err == nil && !changed {
			text = "This user is already an admin!"
		}
	case "deladmin":
		if b.cfg.IsConfiguredAdmin(id) {
			b.reply(m, "Configured admins can only be removed from the config file.")
			return
		}
		var changed bool
		changed, err = b.settings.RemoveAdmin(ctx, id)
		text = fmt.Sprintf("User %d has been removed from admins.", id)
		if err == nil && !changed {
			text = "This user is not an admin!"
		}
	}

	switch {
	case errors.Is(err, models.ErrUserNotFound):
		b.reply(m, fmt.Sprintf("User %d has never used the bot.", id))
	case err != nil:
		log.Error().Err(err).Str("command", cmd).Int64("target", id).Msg("bot: admin command failed")
		b.reply(m, msgInternalError)
	default:
		log.Info().Str("command", cmd).Int64("target", id).Int64("by", m.From.ID).Msg("bot: admin command")
		b.reply(m, text)
	}
}
