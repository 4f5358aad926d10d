// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package telegram is the media transport: it downloads attachments by
// reference and uploads local files or stored references back to chats.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/buildinfo"
	"github.com/autobrr/renamarr/internal/metadata"
)

// FloodWaitError is returned when Telegram asks the caller to back off.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("flood wait: retry after %s", e.RetryAfter)
}

// translate maps API errors onto FloodWaitError where applicable.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return &FloodWaitError{RetryAfter: time.Duration(apiErr.RetryAfter) * time.Second}
	}
	return err
}

// UploadOptions configures an upload.
type UploadOptions struct {
	Caption   string
	ParseMode string
	// ThumbPath is a local JPEG used as the upload thumbnail, if set.
	ThumbPath string
}

// Client wraps the bot API.
type Client struct {
	api  *tgbotapi.BotAPI
	http *http.Client
}

// New authenticates with token.
func New(token string, debug bool) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	api.Debug = debug

	log.Info().Str("username", api.Self.UserName).Msg("telegram: authorised")

	return &Client{
		api:  api,
		http: &http.Client{Timeout: 30 * time.Minute},
	}, nil
}

// Username returns the bot's username.
func (c *Client) Username() string {
	return c.api.Self.UserName
}

// Updates starts long polling. The channel is closed by StopUpdates.
func (c *Client) Updates() tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	return c.api.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.api.StopReceivingUpdates()
}

// Download fetches the file identified by ref into dst.
func (c *Client) Download(ctx context.Context, ref, dst string) error {
	file, err := c.api.GetFile(tgbotapi.FileConfig{FileID: ref})
	if err != nil {
		return fmt.Errorf("failed to resolve file: %w", translate(err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.api.Token), nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: unexpected status %s", resp.Status)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}

	return out.Close()
}

// Upload sends a local file as the given kind.
func (c *Client) Upload(ctx context.Context, chatID int64, kind metadata.MediaKind, path string, opts UploadOptions) (int, error) {
	return c.sendMedia(ctx, chatID, kind, tgbotapi.FilePath(path), opts)
}

// SendStored re-sends an already uploaded file by reference.
func (c *Client) SendStored(ctx context.Context, chatID int64, kind metadata.MediaKind, ref string, opts UploadOptions) (int, error) {
	return c.sendMedia(ctx, chatID, kind, tgbotapi.FileID(ref), opts)
}

func (c *Client) sendMedia(ctx context.Context, chatID int64, kind metadata.MediaKind, file tgbotapi.RequestFileData, opts UploadOptions) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var thumb tgbotapi.RequestFileData
	if opts.ThumbPath != "" {
		thumb = tgbotapi.FilePath(opts.ThumbPath)
	}

	var msg tgbotapi.Chattable
	switch kind {
	case metadata.MediaVideo:
		v := tgbotapi.NewVideo(chatID, file)
		v.Caption, v.ParseMode, v.Thumb = opts.Caption, opts.ParseMode, thumb
		v.SupportsStreaming = true
		msg = v
	case metadata.MediaAudio:
		a := tgbotapi.NewAudio(chatID, file)
		a.Caption, a.ParseMode, a.Thumb = opts.Caption, opts.ParseMode, thumb
		msg = a
	default:
		d := tgbotapi.NewDocument(chatID, file)
		d.Caption, d.ParseMode, d.Thumb = opts.Caption, opts.ParseMode, thumb
		msg = d
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, translate(err)
	}
	return sent.MessageID, nil
}

// SendSticker sends a sticker by reference.
func (c *Client) SendSticker(ctx context.Context, chatID int64, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := c.api.Send(tgbotapi.NewSticker(chatID, tgbotapi.FileID(ref)))
	return translate(err)
}

// SendPhoto sends a stored photo by reference.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, ref, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(ref))
	p.Caption = caption
	p.ParseMode = tgbotapi.ModeHTML
	_, err := c.api.Send(p)
	return translate(err)
}

// Reply sends text, optionally as a reply and with an inline keyboard.
func (c *Client) Reply(chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyToMessageID = replyTo
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	sent, err := c.api.Send(msg)
	if err != nil {
		return 0, translate(err)
	}
	return sent.MessageID, nil
}

// Edit replaces the text of a message the bot sent.
func (c *Client) Edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.ReplyMarkup = markup
	_, err := c.api.Send(edit)
	return translate(err)
}

// Delete removes messages, ignoring ones that are already gone.
func (c *Client) Delete(ctx context.Context, chatID int64, messageIDs ...int) error {
	var errs []error
	for _, id := range messageIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, id)); err != nil {
			errs = append(errs, fmt.Errorf("message %d: %w", id, translate(err)))
		}
	}
	return errors.Join(errs...)
}

// AnswerCallback acknowledges a button press.
func (c *Client) AnswerCallback(id, text string, alert bool) error {
	cb := tgbotapi.NewCallback(id, text)
	cb.ShowAlert = alert
	_, err := c.api.Request(cb)
	return translate(err)
}

// ChatTitle looks up a chat, confirming the bot can see it.
func (c *Client) ChatTitle(chatID int64) (string, error) {
	chat, err := c.api.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return "", translate(err)
	}
	if chat.Title != "" {
		return chat.Title, nil
	}
	return chat.UserName, nil
}
