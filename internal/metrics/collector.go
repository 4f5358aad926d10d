// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// StatsSource supplies the point-in-time values exported as gauges.
type StatsSource interface {
	ActiveSessions() int
	UserCount(ctx context.Context) (int, error)
}

type BotCollector struct {
	stats StatsSource

	activeSessionsDesc *prometheus.Desc
	usersTotalDesc     *prometheus.Desc
}

func NewBotCollector(stats StatsSource) *BotCollector {
	return &BotCollector{
		stats: stats,

		activeSessionsDesc: prometheus.NewDesc(
			"renamarr_active_sequences",
			"Number of sequences currently collecting files",
			nil,
			nil,
		),
		usersTotalDesc: prometheus.NewDesc(
			"renamarr_users_total",
			"Number of registered users",
			nil,
			nil,
		),
	}
}

func (c *BotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessionsDesc
	ch <- c.usersTotalDesc
}

func (c *BotCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ch <- prometheus.MustNewConstMetric(c.activeSessionsDesc, prometheus.GaugeValue, float64(c.stats.ActiveSessions()))

	users, err := c.stats.UserCount(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to count users for metrics")
		return
	}
	ch <- prometheus.MustNewConstMetric(c.usersTotalDesc, prometheus.GaugeValue, float64(users))
}
