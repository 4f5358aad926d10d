// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsServer(t *testing.T) {
	t.Parallel()

	manager := NewManager(nil)

	tests := []struct {
		name             string
		host             string
		port             int
		basicAuthUsers   string
		expectedAddr     string
		expectedAuthSize int
	}{
		{name: "default config", host: "127.0.0.1", port: 9074, expectedAddr: "127.0.0.1:9074"},
		{name: "single user", host: "0.0.0.0", port: 8080, basicAuthUsers: "user:password", expectedAddr: "0.0.0.0:8080", expectedAuthSize: 1},
		{name: "invalid entry skipped", host: "localhost", port: 9090, basicAuthUsers: "user1:pass1,invalidentry,user2:pass2", expectedAddr: "localhost:9090", expectedAuthSize: 2},
		{name: "whitespace", host: "localhost", port: 9090, basicAuthUsers: " user1:pass1 , user2:pass2 ", expectedAddr: "localhost:9090", expectedAuthSize: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := NewMetricsServer(manager, tt.host, tt.port, tt.basicAuthUsers)

			require.NotNil(t, server)
			assert.Equal(t, tt.expectedAddr, server.server.Addr)
			assert.Len(t, server.basicAuthUsers, tt.expectedAuthSize)
			assert.Equal(t, manager, server.manager)
		})
	}
}

func TestMetricsServer_MetricsEndpoint(t *testing.T) {
	t.Parallel()

	manager := NewManager(nil)
	manager.Recorder().FileRenamed()
	manager.Recorder().StageFailed("upload")

	server := NewMetricsServer(manager, "localhost", 9074, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "go_")
	assert.Contains(t, body, "renamarr_files_renamed_total 1")
	assert.Contains(t, body, `renamarr_stage_failures_total{stage="upload"} 1`)
}

func TestMetricsServer_BasicAuth(t *testing.T) {
	t.Parallel()

	server := NewMetricsServer(NewManager(nil), "localhost", 9074, "admin:secret")

	tests := []struct {
		name     string
		user     string
		pass     string
		setAuth  bool
		wantCode int
	}{
		{name: "without credentials", wantCode: http.StatusUnauthorized},
		{name: "wrong password", user: "admin", pass: "wrong", setAuth: true, wantCode: http.StatusUnauthorized},
		{name: "unknown user", user: "other", pass: "secret", setAuth: true, wantCode: http.StatusUnauthorized},
		{name: "correct", user: "admin", pass: "secret", setAuth: true, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			if tt.setAuth {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			rec := httptest.NewRecorder()
			server.server.Handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestMetricsServer_NonMetricsEndpoint(t *testing.T) {
	t.Parallel()

	server := NewMetricsServer(NewManager(nil), "localhost", 9074, "")

	req := httptest.NewRequest(http.MethodGet, "/other", nil)
	rec := httptest.NewRecorder()
	server.server.Handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Shutdown(t *testing.T) {
	server := NewHealthServer("localhost", 0, nil)

	done := make(chan error, 1)
	go func() { done <- server.ListenAndServe() }()

	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestHealthHandler(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		ready      func(context.Context) error
		wantCode   int
		wantStatus string
	}{
		{name: "health", path: "/health", wantCode: http.StatusOK, wantStatus: "ok"},
		{name: "liveness", path: "/liveness", wantCode: http.StatusOK, wantStatus: "alive"},
		{name: "ready without check", path: "/readiness", wantCode: http.StatusOK, wantStatus: "ready"},
		{
			name:       "ready with failing check",
			path:       "/readiness",
			ready:      func(context.Context) error { return errors.New("db down") },
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := NewHealthServer("localhost", 0, tt.ready)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			server.server.Handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, tt.wantStatus, resp["status"])
		})
	}
}
