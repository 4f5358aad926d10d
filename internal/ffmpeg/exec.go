// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/Hellseher/go-shellquote"
	"github.com/rs/zerolog/log"
)

// ErrNotFound is returned when the ffmpeg binary cannot be resolved.
var ErrNotFound = errors.New("ffmpeg not found")

// ExecutionResult contains the outcome of one ffmpeg invocation.
type ExecutionResult struct {
	Started bool
	// ExitCode is -1 when the process did not complete.
	ExitCode int
	Stderr   string
	Error    error
	Duration time.Duration
}

// ExitError is returned for a non-zero exit and carries ffmpeg's stderr.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("ffmpeg exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("ffmpeg exited with status %d: %s", e.ExitCode, msg)
}

// Runner invokes the ffmpeg binary.
type Runner struct {
	// Path is the binary name or path; empty means "ffmpeg" on PATH.
	Path string
}

func NewRunner(path string) *Runner {
	return &Runner{Path: path}
}

func (r *Runner) binary() (string, error) {
	name := r.Path
	if name == "" {
		name = "ffmpeg"
	}
	resolved, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return resolved, nil
}

// Available reports whether the configured binary can be resolved.
func (r *Runner) Available() bool {
	_, err := r.binary()
	return err == nil
}

// Execute runs ffmpeg with args and waits for it. Cancelling ctx kills the
// process.
func (r *Runner) Execute(ctx context.Context, args []string) ExecutionResult {
	bin, err := r.binary()
	if err != nil {
		return ExecutionResult{ExitCode: -1, Error: err}
	}

	cmd := exec.CommandContext(ctx, bin, args...) //nolint:gosec
	cmd.WaitDelay = 5 * time.Second

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().Str("command", shellquote.Join(cmd.Args...)).Msg("ffmpeg: executing")

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.Error().Err(err).Str("path", bin).Msg("ffmpeg: failed to start")
		return ExecutionResult{ExitCode: -1, Error: err, Duration: time.Since(start)}
	}

	waitErr := cmd.Wait()
	result := ExecutionResult{
		Started:  true,
		ExitCode: -1,
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case waitErr == nil:
		log.Debug().Dur("duration", result.Duration).Msg("ffmpeg: completed")
	case ctx.Err() != nil:
		result.Error = ctx.Err()
		log.Warn().Err(ctx.Err()).Dur("duration", result.Duration).Msg("ffmpeg: cancelled")
	default:
		result.Error = &ExitError{ExitCode: result.ExitCode, Stderr: result.Stderr}
		log.Debug().Err(waitErr).Int("exitCode", result.ExitCode).Msg("ffmpeg: non-zero exit")
	}

	return result
}

// Remux copies in to out with f applied. A non-zero exit is returned as
// *ExitError.
func (r *Runner) Remux(ctx context.Context, in, out string, f Fields) error {
	return r.Execute(ctx, BuildArgs(in, out, f)).Error
}
