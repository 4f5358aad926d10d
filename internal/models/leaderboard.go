// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import "time"

// LeaderboardRange selects the activity window of a leaderboard.
type LeaderboardRange string

const (
	RangeDay   LeaderboardRange = "day"
	RangeWeek  LeaderboardRange = "week"
	RangeMonth LeaderboardRange = "month"
	RangeAll   LeaderboardRange = "all"
)

// LeaderboardRanges in display order.
var LeaderboardRanges = []LeaderboardRange{RangeDay, RangeWeek, RangeMonth, RangeAll}

// ParseLeaderboardRange falls back to RangeAll for unknown input.
func ParseLeaderboardRange(s string) LeaderboardRange {
	for _, r := range LeaderboardRanges {
		if string(r) == s {
			return r
		}
	}
	return RangeAll
}

// Since returns the UTC start of the window containing now. Weeks start on
// Monday. RangeAll yields the zero time.
func (r LeaderboardRange) Since(now time.Time) time.Time {
	now = now.UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r {
	case RangeDay:
		return day
	case RangeWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case RangeMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}
