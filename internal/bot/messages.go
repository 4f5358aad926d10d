// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/sequence"
)

const (
	msgInternalError  = "Something went wrong, please try again later."
	msgBanned         = "You are banned from using this bot!"
	msgAdminOnly      = "This command is for admins only!"
	msgOwnerOnly      = "This command is for the bot owner only!"
	msgAdminModeOn    = "Admin mode is active - only admins can use sequences!"
	msgNoTemplate     = "Please set a rename format using /autorename"
	msgNeedUserID     = "Please provide a valid user ID or reply to a user's message."
	msgSequenceStart  = "Sequence has been started! Send your files..."
	msgSequenceActive = "A sequence is already active! Use /esequence to end it."
	msgNoSequence     = "No active sequence found!\nUse /ssequence to start one."
	msgEmptySequence  = "No files received in this sequence!"
	msgNotForYou      = "This button is not for you!"
	msgNoLeaderboard  = "No data available for this timeframe."
)

const helpText = `<b>Renaming</b>
/autorename &lt;format&gt; - set the rename format, e.g. <code>/autorename Show S{season}E{episode} [{quality}]</code>
/setextract - read tokens from the file name or the caption
/preview &lt;file name&gt; - show what a file would be renamed to
/setcaption &lt;text&gt; - caption template with {filename}, {filesize} and {title}
/delcaption - use the default caption
/viewthumb, /delthumb - send a photo to set a thumbnail

<b>Metadata</b>
/metadata - toggle container metadata rewriting
/settitle, /setartist, /setauthor, /setvideo, /setaudio, /setsubtitle

<b>Sequences</b>
/ssequence - start collecting files
/esequence - send the collected files back in order
/mode - sort order, /smode - sticker placement
/setsticker, /getsticker, /delsticker
/setdump &lt;channel id&gt;, /getdump, /deldump
/leaderboard`

func msgQueued(n int) string {
	return fmt.Sprintf("File Added In Queue %d", n)
}

func msgSequenceExpired(files int) string {
	return fmt.Sprintf("Your sequence was closed after a period of inactivity. %d queued file(s) were discarded.", files)
}

func closeRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Close", "close"))
}

func closeKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(closeRow())
	return &kb
}

func startKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("My commands", "help")),
		closeRow(),
	)
	return &kb
}

func extractKeyboard(uid int64) *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Filename", fmt.Sprintf("extract_filename_%d", uid)),
		tgbotapi.NewInlineKeyboardButtonData("Caption", fmt.Sprintf("extract_caption_%d", uid)),
	))
	return &kb
}

func sortKeyboard() *tgbotapi.InlineKeyboardMarkup {
	btn := func(m sequence.Mode, label string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, "sort_"+string(m))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn(sequence.ModeQuality, "Quality"), btn(sequence.ModeTitle, "Title")),
		tgbotapi.NewInlineKeyboardRow(btn(sequence.ModeBoth, "Both"), btn(sequence.ModeEpisode, "Episode")),
		closeRow(),
	)
	return &kb
}

func stickerKeyboard() *tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Quality", "sticker_"+models.StickerModeQuality),
			tgbotapi.NewInlineKeyboardButtonData("Default", "sticker_"+models.StickerModeDefault),
		),
		closeRow(),
	)
	return &kb
}

func metadataKeyboard(enabled bool) *tgbotapi.InlineKeyboardMarkup {
	on, off := "On", "Off"
	if enabled {
		on = "✓ On"
	} else {
		off = "✓ Off"
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(on, "meta_on"),
			tgbotapi.NewInlineKeyboardButtonData(off, "meta_off"),
		),
		closeRow(),
	)
	return &kb
}

func leaderboardKeyboard() *tgbotapi.InlineKeyboardMarkup {
	btn := func(r models.LeaderboardRange, label string) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(label, "leaderboard_"+string(r))
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(btn(models.RangeDay, "Day"), btn(models.RangeWeek, "Week")),
		tgbotapi.NewInlineKeyboardRow(btn(models.RangeMonth, "Month"), btn(models.RangeAll, "All Time")),
	)
	return &kb
}
