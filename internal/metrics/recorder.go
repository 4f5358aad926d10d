// Copyright (c) 2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recorder holds the event counters. A nil *Recorder discards everything,
// so callers never need to check whether metrics are enabled.
type Recorder struct {
	filesRenamed       prometheus.Counter
	stageFailures      *prometheus.CounterVec
	filesDelivered     prometheus.Counter
	floodWaits         prometheus.Counter
	sessionsExpired    prometheus.Counter
	duplicatesRejected prometheus.Counter
}

func NewRecorder() *Recorder {
	return &Recorder{
		filesRenamed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renamarr_files_renamed_total",
			Help: "Files renamed and uploaded",
		}),
		stageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "renamarr_stage_failures_total",
			Help: "Rename pipeline failures by stage",
		}, []string{"stage"}),
		filesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renamarr_files_delivered_total",
			Help: "Files delivered from completed sequences",
		}),
		floodWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renamarr_flood_waits_total",
			Help: "Flood-wait responses received from Telegram",
		}),
		sessionsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renamarr_sessions_expired_total",
			Help: "Sequences discarded after being idle",
		}),
		duplicatesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "renamarr_duplicates_rejected_total",
			Help: "Files ignored because they were sent twice in quick succession",
		}),
	}
}

func (r *Recorder) register(reg prometheus.Registerer) {
	reg.MustRegister(r.filesRenamed, r.stageFailures, r.filesDelivered, r.floodWaits, r.sessionsExpired, r.duplicatesRejected)
}

func (r *Recorder) FileRenamed() {
	if r != nil {
		r.filesRenamed.Inc()
	}
}

func (r *Recorder) StageFailed(stage string) {
	if r != nil {
		r.stageFailures.WithLabelValues(stage).Inc()
	}
}

func (r *Recorder) FileDelivered() {
	if r != nil {
		r.filesDelivered.Inc()
	}
}

func (r *Recorder) FloodWait() {
	if r != nil {
		r.floodWaits.Inc()
	}
}

func (r *Recorder) SessionExpired() {
	if r != nil {
		r.sessionsExpired.Inc()
	}
}

func (r *Recorder) DuplicateRejected() {
	if r != nil {
		r.duplicatesRejected.Inc()
	}
}
