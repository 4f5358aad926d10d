// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package bot turns Telegram updates into calls on the stores, the session
// manager and the rename and delivery services.
package bot

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/autobrr/renamarr/internal/domain"
	"github.com/autobrr/renamarr/internal/metrics"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/services/delivery"
	"github.com/autobrr/renamarr/internal/services/rename"
	"github.com/autobrr/renamarr/internal/session"
	"github.com/autobrr/renamarr/internal/telegram"
	"github.com/autobrr/renamarr/pkg/debounce"
)

// Messenger is the chat surface the bot talks through.
type Messenger interface {
	Reply(chatID int64, replyTo int, text string, markup *tgbotapi.InlineKeyboardMarkup) (int, error)
	Edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) error
	Delete(ctx context.Context, chatID int64, messageIDs ...int) error
	AnswerCallback(id, text string, alert bool) error
	SendSticker(ctx context.Context, chatID int64, ref string) error
	SendPhoto(ctx context.Context, chatID int64, ref, caption string) error
	ChatTitle(chatID int64) (string, error)
}

type Renamer interface {
	Process(ctx context.Context, req rename.Request) (rename.Outcome, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, b delivery.Batch) (delivery.Report, error)
}

var (
	_ Messenger = (*telegram.Client)(nil)
	_ Renamer   = (*rename.Service)(nil)
	_ Deliverer = (*delivery.Service)(nil)
)

const defaultAckDelay = 750 * time.Millisecond

type Deps struct {
	Config    *domain.Config
	Messenger Messenger
	Users     *models.UserSettingsStore
	Settings  *models.BotSettingsStore
	Sessions  *session.Manager
	Renamer   Renamer
	Delivery  Deliverer
	Metrics   *metrics.Recorder
	// AckDelay coalesces "added to queue" replies per user.
	AckDelay time.Duration
}

type Bot struct {
	cfg      *domain.Config
	tg       Messenger
	users    *models.UserSettingsStore
	settings *models.BotSettingsStore
	sessions *session.Manager
	renamer  Renamer
	delivery Deliverer
	metrics  *metrics.Recorder

	acks  *debounce.Keyed[int64]
	title cases.Caser
	now   func() time.Time

	pendingMu sync.Mutex
	pending   map[int64][]tgbotapi.Update

	wg sync.WaitGroup
}

func New(d Deps) *Bot {
	delay := d.AckDelay
	if delay <= 0 {
		delay = defaultAckDelay
	}

	return &Bot{
		cfg:      d.Config,
		tg:       d.Messenger,
		users:    d.Users,
		settings: d.Settings,
		sessions: d.Sessions,
		renamer:  d.Renamer,
		delivery: d.Delivery,
		metrics:  d.Metrics,
		acks:     debounce.NewKeyed[int64](delay),
		title:    cases.Title(language.English),
		now:      time.Now,
		pending:  make(map[int64][]tgbotapi.Update),
	}
}

// Run handles updates until ctx is done or the channel closes. Updates from one
// chat are handled one at a time in arrival order; different chats run
// concurrently. It waits for queued and in-flight handlers before returning.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	defer func() {
		b.wg.Wait()
		b.acks.Stop()
	}()

	log.Info().Msg("bot: handling updates")

	for {
		select {
		case <-ctx.Done():
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, u)
		}
	}
}

// HandleUpdate dispatches a single update.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("update", u.UpdateID).Msg("bot: recovered from panic in handler")
		}
	}()

	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil || !m.Chat.IsPrivate() {
		return
	}

	uid := m.From.ID
	created, err := b.users.Ensure(ctx, uid, m.From.FirstName, m.From.UserName)
	if err != nil {
		log.Error().Err(err).Int64("user", uid).Msg("bot: failed to register user")
		b.reply(m, msgInternalError)
		return
	}
	if created {
		log.Info().Int64("user", uid).Str("username", m.From.UserName).Msg("bot: new user")
	}

	u, err := b.users.Get(ctx, uid)
	if err != nil {
		log.Error().Err(err).Int64("user", uid).Msg("bot: failed to load user settings")
		b.reply(m, msgInternalError)
		return
	}

	if m.IsCommand() {
		if u.Banned && m.Command() != "start" {
			b.reply(m, msgBanned)
			return
		}
		b.handleCommand(ctx, m, u)
		return
	}

	if u.Banned {
		b.reply(m, msgBanned)
		return
	}

	if ref, ok := telegram.LargestPhoto(m); ok {
		b.setThumbnail(ctx, m, ref)
		return
	}

	if f, ok := telegram.FileFromMessage(m); ok {
		b.handleFile(ctx, m, u, f)
	}
}

// isAdmin covers the owner, configured admins and admins added at runtime.
func (b *Bot) isAdmin(ctx context.Context, id int64) bool {
	if b.cfg.IsConfiguredAdmin(id) {
		return true
	}
	ids, err := b.settings.Admins(ctx)
	if err != nil {
		log.Error().Err(err).Msg("bot: failed to load admins")
		return false
	}
	return slices.Contains(ids, id)
}

func (b *Bot) adminMode(ctx context.Context) bool {
	on, err := b.settings.AdminMode(ctx, b.cfg.AdminMode)
	if err != nil {
		log.Error().Err(err).Msg("bot: failed to read admin mode")
		return b.cfg.AdminMode
	}
	return on
}

func (b *Bot) completionSticker(ctx context.Context) string {
	ref, err := b.settings.CompletionSticker(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("bot: failed to read completion sticker")
	}
	if ref == "" {
		return b.cfg.DefaultSticker
	}
	return ref
}

func (b *Bot) reply(m *tgbotapi.Message, text string) int {
	return b.replyMarkup(m, text, nil)
}

func (b *Bot) replyMarkup(m *tgbotapi.Message, text string, markup *tgbotapi.InlineKeyboardMarkup) int {
	id, err := b.tg.Reply(m.Chat.ID, m.MessageID, text, markup)
	if err != nil {
		var fw *telegram.FloodWaitError
		if errors.As(err, &fw) {
			b.metrics.FloodWait()
		}
		log.Warn().Err(err).Int64("chat", m.Chat.ID).Msg("bot: failed to reply")
	}
	return id
}

// SessionExpired tells the owner their idle sequence was dropped. It is used
// as the session store's expiry hook, so the chat calls run in the background.
func (b *Bot) SessionExpired(owner int64, s session.BatchSession) {
	b.metrics.SessionExpired()

	b.wg.Go(func() {
		ctx := context.Background()
		if len(s.StatusMessages) > 0 {
			if err := b.tg.Delete(ctx, owner, s.StatusMessages...); err != nil {
				log.Debug().Err(err).Int64("owner", owner).Msg("bot: failed to delete status messages of expired sequence")
			}
		}
		if _, err := b.tg.Reply(owner, 0, msgSequenceExpired(len(s.Files)), nil); err != nil {
			log.Warn().Err(err).Int64("owner", owner).Msg("bot: failed to notify about expired sequence")
		}
	})
}
