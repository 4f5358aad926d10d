// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

type Manager struct {
	registry     *prometheus.Registry
	recorder     *Recorder
	botCollector *BotCollector
}

// NewManager builds the registry. stats may be nil, in which case only the
// counters and runtime collectors are exported.
func NewManager(stats StatsSource) *Manager {
	registry := prometheus.NewRegistry()

	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	recorder := NewRecorder()
	recorder.register(registry)

	m := &Manager{
		registry: registry,
		recorder: recorder,
	}

	if stats != nil {
		m.botCollector = NewBotCollector(stats)
		registry.MustRegister(m.botCollector)
	}

	log.Info().Msg("Metrics manager initialized")

	return m
}

func (m *Manager) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *Manager) Recorder() *Recorder {
	return m.recorder
}
