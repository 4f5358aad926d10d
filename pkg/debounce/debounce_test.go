// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package debounce

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebouncer_RunsLatestOnly(t *testing.T) {
	d := New(80 * time.Millisecond)
	defer d.Stop()

	var mu sync.Mutex
	var executed []int

	for i := 0; i < 5; i++ {
		d.Do(func() {
			mu.Lock()
			executed = append(executed, i)
			mu.Unlock()
		})
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(executed) == 1
	}, time.Second, 10*time.Millisecond)

	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{4}, executed)
}

func TestDebouncer_Queued(t *testing.T) {
	d := New(50 * time.Millisecond)
	defer d.Stop()

	assert.False(t, d.Queued())

	d.Do(func() {})
	require.Eventually(t, d.Queued, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !d.Queued() }, time.Second, 10*time.Millisecond)
}

func TestDebouncer_StopFlushesAndRunsInline(t *testing.T) {
	d := New(time.Hour)

	var executed atomic.Int32
	d.Do(func() { executed.Add(1) })

	d.Stop()
	assert.Equal(t, int32(1), executed.Load())

	d.Do(func() { executed.Add(1) })
	assert.Equal(t, int32(2), executed.Load())

	// second Stop is a no-op
	d.Stop()
}

func TestDebouncer_DoRacingStop(t *testing.T) {
	t.Parallel()

	for range 200 {
		d := New(time.Millisecond)

		var wg sync.WaitGroup
		for range 4 {
			wg.Go(func() {
				for range 50 {
					d.Do(func() {})
				}
			})
		}
		wg.Go(d.Stop)
		wg.Wait()

		// stopped: Do runs inline
		ran := false
		d.Do(func() { ran = true })
		require.True(t, ran)
	}
}

func TestKeyed_IndependentKeys(t *testing.T) {
	k := NewKeyed[int64](40 * time.Millisecond)
	defer k.Stop()

	var a, b atomic.Int32
	for i := 0; i < 3; i++ {
		k.Do(1, func() { a.Add(1) })
		k.Do(2, func() { b.Add(1) })
	}

	require.Eventually(t, func() bool {
		return a.Load() == 1 && b.Load() == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, k.Len())
}

func TestKeyed_Flush(t *testing.T) {
	k := NewKeyed[string](time.Hour)
	defer k.Stop()

	var ran atomic.Bool
	k.Do("user", func() { ran.Store(true) })

	k.Flush("user")
	assert.True(t, ran.Load())
	assert.Equal(t, 0, k.Len())

	// unknown key
	k.Flush("missing")
}

func TestWindow_Seen(t *testing.T) {
	w := NewWindow[string](time.Minute)
	defer w.Close()

	now := time.Now()
	w.now = func() time.Time { return now }

	assert.False(t, w.Seen("1:file"))
	assert.True(t, w.Seen("1:file"))
	assert.False(t, w.Seen("2:file"))

	now = now.Add(61 * time.Second)
	assert.False(t, w.Seen("1:file"))
}

func TestWindow_Forget(t *testing.T) {
	w := NewWindow[string](time.Minute)
	defer w.Close()

	assert.False(t, w.Seen("k"))
	w.Forget("k")
	assert.False(t, w.Seen("k"))
}

func TestWindow_Disabled(t *testing.T) {
	w := NewWindow[string](0)
	defer w.Close()

	assert.False(t, w.Seen("k"))
	assert.False(t, w.Seen("k"))
}
