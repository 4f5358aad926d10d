// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package bot

import (
	"context"

	"github.com/autobrr/renamarr/internal/metrics"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/session"
)

// Stats feeds the bot gauges of the metrics collector.
type Stats struct {
	Sessions *session.Manager
	Users    *models.UserSettingsStore
}

var _ metrics.StatsSource = Stats{}

func (s Stats) ActiveSessions() int {
	return s.Sessions.Count()
}

func (s Stats) UserCount(ctx context.Context) (int, error) {
	return s.Users.Count(ctx)
}
