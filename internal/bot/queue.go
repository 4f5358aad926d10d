// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// dispatch queues u behind earlier updates from the same chat. Each chat with
// pending updates has exactly one worker draining its queue in order, so a
// file and the /esequence sent after it are handled in that order while other
// chats proceed in parallel.
func (b *Bot) dispatch(ctx context.Context, u tgbotapi.Update) {
	key := updateChat(u)

	b.pendingMu.Lock()
	q, running := b.pending[key]
	b.pending[key] = append(q, u)
	b.pendingMu.Unlock()

	if running {
		return
	}

	b.wg.Go(func() { b.drain(ctx, key) })
}

// drain handles queued updates for key until the queue is empty. The key stays
// in pending while the worker runs, which is how dispatch knows not to start
// a second one.
func (b *Bot) drain(ctx context.Context, key int64) {
	for {
		b.pendingMu.Lock()
		q := b.pending[key]
		if len(q) == 0 {
			delete(b.pending, key)
			b.pendingMu.Unlock()
			return
		}
		u := q[0]
		q[0] = tgbotapi.Update{}
		b.pending[key] = q[1:]
		b.pendingMu.Unlock()

		b.HandleUpdate(ctx, u)
	}
}

// updateChat is the chat an update belongs to. Callbacks are keyed by the chat
// of the message they are attached to so they line up with that chat's
// commands.
func updateChat(u tgbotapi.Update) int64 {
	switch {
	case u.CallbackQuery != nil:
		if m := u.CallbackQuery.Message; m != nil && m.Chat != nil {
			return m.Chat.ID
		}
		if u.CallbackQuery.From != nil {
			return u.CallbackQuery.From.ID
		}
	case u.Message != nil && u.Message.Chat != nil:
		return u.Message.Chat.ID
	}
	return 0
}
