// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package delivery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/telegram"
)

// event is one call made against the fake sender, in order.
type event struct {
	chat int64
	what string
}

type fakeSender struct {
	mu     sync.Mutex
	events []event
	// failures maps a file ref to the errors returned for its sends to the
	// user chat, consumed in order.
	failures map[string][]error
	deleted  []int
}

func (f *fakeSender) SendStored(_ context.Context, chatID int64, _ metadata.MediaKind, ref string, opts telegram.UploadOptions) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if errs := f.failures[ref]; len(errs) > 0 && chatID == userChat {
		f.failures[ref] = errs[1:]
		f.events = append(f.events, event{chat: chatID, what: "fail:" + ref})
		return 0, errs[0]
	}
	what := "file:" + ref
	if chatID == ownerDump {
		what += "|" + strings.SplitN(opts.Caption, "\n", 2)[0]
	}
	f.events = append(f.events, event{chat: chatID, what: what})
	return len(f.events), nil
}

func (f *fakeSender) SendSticker(_ context.Context, chatID int64, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event{chat: chatID, what: "sticker:" + ref})
	return nil
}

func (f *fakeSender) Delete(_ context.Context, _ int64, ids ...int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ids...)
	return nil
}

func (f *fakeSender) userChatEvents() []string {
	var out []string
	for _, e := range f.events {
		if e.chat == userChat {
			out = append(out, e.what)
		}
	}
	return out
}

type fakeStats struct {
	id int64
	n  int
}

func (s *fakeStats) RecordDelivery(_ context.Context, id int64, n int, _ time.Time) error {
	s.id, s.n = id, s.n+n
	return nil
}

const (
	userChat  = int64(500)
	userDump  = int64(-1001)
	ownerDump = int64(-1002)
)

func file(ref, name string) metadata.FileRecord {
	return metadata.FileRecord{Ref: ref, Name: name, Kind: metadata.MediaDocument}
}

func newTestService(sender *fakeSender, stats *fakeStats, cfg Config) (*Service, *[]time.Duration) {
	var sleeps []time.Duration
	svc := NewService(cfg, sender, stats, nil)
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return ctx.Err()
	}
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, &sleeps
}

func user() *models.UserSettings {
	return &models.UserSettings{ID: 9, FirstName: "Ada", SortMode: "episode", StickerMode: models.StickerModeDefault, StickerRef: "mine"}
}

func TestDeliver_SortedSequentialWithPauses(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	stats := &fakeStats{}
	svc, sleeps := newTestService(sender, stats, Config{SendInterval: 500 * time.Millisecond})

	report, err := svc.Deliver(t.Context(), Batch{
		ChatID: userChat,
		User:   user(),
		Files: []metadata.FileRecord{
			file("c", "Show S01E03.mkv"),
			file("a", "Show S01E01.mkv"),
			file("b", "Show S01E02.mkv"),
		},
		CompletionSticker: "done",
		StatusMessages:    []int{11, 12},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Sent)
	assert.Empty(t, report.Failed)
	assert.Equal(t, []string{"file:a", "file:b", "file:c", "sticker:done", "sticker:mine"}, sender.userChatEvents())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, 500 * time.Millisecond}, *sleeps, "pause between sends, not after the last")
	assert.Equal(t, []int{11, 12}, sender.deleted)
	assert.Equal(t, int64(9), stats.id)
	assert.Equal(t, 3, stats.n)
}

func TestDeliver_FloodWaitResumesAtSameFile(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failures: map[string][]error{
		"b": {&telegram.FloodWaitError{RetryAfter: 3 * time.Second}},
	}}
	svc, sleeps := newTestService(sender, &fakeStats{}, Config{SendInterval: time.Millisecond})

	report, err := svc.Deliver(t.Context(), Batch{
		ChatID: userChat,
		User:   user(),
		Files:  []metadata.FileRecord{file("a", "E01.mkv"), file("b", "E02.mkv"), file("c", "E03.mkv")},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 1, report.FloodWaits)
	assert.Equal(t, []string{"file:a", "fail:b", "file:b", "file:c", "sticker:mine"}, sender.userChatEvents())
	assert.Contains(t, *sleeps, 4*time.Second, "flood wait is padded by a second")
}

func TestDeliver_OtherErrorsSkipOnlyThatFile(t *testing.T) {
	t.Parallel()

	boom := errors.New("bad request")
	sender := &fakeSender{failures: map[string][]error{"b": {boom}}}
	stats := &fakeStats{}
	svc, _ := newTestService(sender, stats, Config{})

	report, err := svc.Deliver(t.Context(), Batch{
		ChatID: userChat,
		User:   user(),
		Files:  []metadata.FileRecord{file("a", "E01.mkv"), file("b", "E02.mkv"), file("c", "E03.mkv")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Sent)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "b", report.Failed[0].File.Ref)
	assert.ErrorIs(t, report.Failed[0].Err, boom)
	assert.Equal(t, []string{"file:a", "fail:b", "file:c", "sticker:mine"}, sender.userChatEvents())
	assert.Equal(t, 2, stats.n)
}

func TestDeliver_QualityMarkers(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failures: map[string][]error{
		"c": {&telegram.FloodWaitError{RetryAfter: time.Second}},
	}}
	svc, _ := newTestService(sender, &fakeStats{}, Config{})

	u := user()
	u.SortMode = "quality"
	u.StickerMode = models.StickerModeQuality

	_, err := svc.Deliver(t.Context(), Batch{
		ChatID: userChat,
		User:   u,
		Files: []metadata.FileRecord{
			file("d", "Show E02 1080p.mkv"),
			file("a", "Show E01 480p.mkv"),
			file("b", "Show E02 480p.mkv"),
			file("c", "Show E01 1080p.mkv"),
		},
		CompletionSticker: "done",
	})
	require.NoError(t, err)

	// the marker before c is not repeated when c is resent; no user sticker at the end in quality mode
	assert.Equal(t, []string{
		"file:a", "file:b", "sticker:mine", "fail:c", "file:c", "file:d", "sticker:done",
	}, sender.userChatEvents())
}

func TestDeliver_DumpChannels(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{}
	svc, _ := newTestService(sender, &fakeStats{}, Config{OwnerDumpChannel: ownerDump})

	u := user()
	u.DumpChannel = userDump

	_, err := svc.Deliver(t.Context(), Batch{
		ChatID: userChat,
		User:   u,
		Files:  []metadata.FileRecord{file("a", "E01.mkv")},
	})
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(sender.events), 3)
	assert.Equal(t, event{chat: userChat, what: "file:a"}, sender.events[0])
	assert.Equal(t, event{chat: userDump, what: "file:a"}, sender.events[1])
	assert.Equal(t, event{chat: ownerDump, what: "file:a|» User Details «"}, sender.events[2])
}

func TestDeliver_CancelledDuringFloodWait(t *testing.T) {
	t.Parallel()

	sender := &fakeSender{failures: map[string][]error{
		"b": {&telegram.FloodWaitError{RetryAfter: time.Hour}},
	}}
	stats := &fakeStats{}
	svc, _ := newTestService(sender, stats, Config{})

	ctx, cancel := context.WithCancel(t.Context())
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		if d > time.Minute {
			cancel()
		}
		return ctx.Err()
	}

	report, err := svc.Deliver(ctx, Batch{
		ChatID: userChat,
		User:   user(),
		Files:  []metadata.FileRecord{file("a", "E01.mkv"), file("b", "E02.mkv"), file("c", "E03.mkv")},
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, report.Sent)
	assert.Equal(t, 1, stats.n, "partial deliveries still count")
	assert.NotContains(t, sender.userChatEvents(), "file:c")
}

func TestCursor(t *testing.T) {
	t.Parallel()

	files := []metadata.FileRecord{file("a", "x 720p"), file("b", "y 720p"), file("c", "z 1080p")}
	c := NewCursor(files)

	var seen []string
	for !c.Done() {
		if c.NeedsMarker() {
			seen = append(seen, "marker")
			c.MarkerSent()
			require.False(t, c.NeedsMarker())
		}
		seen = append(seen, c.Current().Ref)
		c.Advance()
	}
	assert.Equal(t, []string{"a", "b", "marker", "c"}, seen)
	assert.Empty(t, c.Remaining())
}

func TestDumpCaption(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	got := DumpCaption(&models.UserSettings{ID: 5, FirstName: "A<b>", Username: "ada"}, "f & g.mkv", at)

	assert.Equal(t, fmt.Sprintf("» User Details «\nID: <code>5</code>\nName: A&lt;b&gt;\nUsername: @ada\nTime: %s\nFilename: f &amp; g.mkv", "2026-01-02 03:04:05 UTC"), got)

	anon := DumpCaption(&models.UserSettings{ID: 6}, "x", at)
	assert.Contains(t, anon, "Username: N/A")
}
