// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package rename runs the single-file pipeline: extract tokens, render the
// user's template, then download, optionally rewrite container metadata,
// and upload the file under its new name.
package rename

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/renamarr/internal/ffmpeg"
	"github.com/autobrr/renamarr/internal/metadata"
	"github.com/autobrr/renamarr/internal/metrics"
	"github.com/autobrr/renamarr/internal/models"
	"github.com/autobrr/renamarr/internal/telegram"
	"github.com/autobrr/renamarr/internal/thumbnail"
	"github.com/autobrr/renamarr/pkg/debounce"
	"github.com/autobrr/renamarr/pkg/releases"
)

var (
	ErrNoTemplate = errors.New("no rename template set")
	ErrDuplicate  = errors.New("file is already being processed")
)

// Stage names a step of the pipeline.
type Stage string

const (
	StageDownload  Stage = "download"
	StageMetadata  Stage = "metadata"
	StageThumbnail Stage = "thumbnail"
	StageUpload    Stage = "upload"
)

// StageError reports which step failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Transport moves bytes to and from Telegram.
type Transport interface {
	Download(ctx context.Context, ref, dst string) error
	Upload(ctx context.Context, chatID int64, kind metadata.MediaKind, path string, opts telegram.UploadOptions) (int, error)
}

// Remuxer rewrites container metadata without re-encoding.
type Remuxer interface {
	Remux(ctx context.Context, in, out string, f ffmpeg.Fields) error
}

type Config struct {
	WorkDir         string
	DuplicateWindow time.Duration
	Attempts        uint
	RetryDelay      time.Duration
}

type Service struct {
	cfg       Config
	transport Transport
	tool      Remuxer
	releases  *releases.Parser
	window    *debounce.Window[string]
	metrics   *metrics.Recorder
}

func NewService(cfg Config, transport Transport, tool Remuxer, parser *releases.Parser, recorder *metrics.Recorder) *Service {
	if cfg.Attempts == 0 {
		cfg.Attempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if parser == nil {
		parser = releases.NewDefaultParser()
	}

	return &Service{
		cfg:       cfg,
		transport: transport,
		tool:      tool,
		releases:  parser,
		window:    debounce.NewWindow[string](cfg.DuplicateWindow),
		metrics:   recorder,
	}
}

// Close releases the duplicate window.
func (s *Service) Close() {
	s.window.Close()
}

// Request is one inbound file to rename.
type Request struct {
	ChatID   int64
	File     metadata.FileRecord
	Settings *models.UserSettings
	// OnStage, when set, is called as each stage starts.
	OnStage func(Stage)
}

// Outcome describes a successfully renamed file.
type Outcome struct {
	NewName   string
	Result    metadata.Result
	MessageID int
}

// Plan computes the new file name without touching the network.
func Plan(f metadata.FileRecord, template string, mode metadata.ExtractionMode) (string, metadata.Result) {
	source := metadata.SourceText(mode, f)
	r := metadata.Extract(source)
	r.Quality = metadata.ExtractQuality(source)

	name := sanitizeFileName(metadata.Render(template, r))
	return name + f.Extension(), r
}

func sanitizeFileName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

func (s *Service) duplicateKey(req Request) string {
	return strconv.FormatInt(req.Settings.ID, 10) + ":" + req.File.Ref
}

// Process runs the pipeline for one file. Temporary files are removed
// whatever the outcome.
func (s *Service) Process(ctx context.Context, req Request) (Outcome, error) {
	if req.Settings == nil || strings.TrimSpace(req.Settings.RenameTemplate) == "" {
		return Outcome{}, ErrNoTemplate
	}

	if s.window.Seen(s.duplicateKey(req)) {
		s.metrics.DuplicateRejected()
		log.Debug().Str("file", req.File.Name).Int64("user", req.Settings.ID).Msg("rename: ignoring duplicate")
		return Outcome{}, ErrDuplicate
	}

	newName, result := Plan(req.File, req.Settings.RenameTemplate, metadata.ParseExtractionMode(req.Settings.ExtractionMode))
	out := Outcome{NewName: newName, Result: result}

	log.Info().
		Str("file", req.File.Name).
		Str("newName", newName).
		Int64("user", req.Settings.ID).
		Msg("rename: processing")

	if err := os.MkdirAll(s.cfg.WorkDir, 0o755); err != nil {
		return out, fmt.Errorf("failed to create work dir: %w", err)
	}
	dir, err := os.MkdirTemp(s.cfg.WorkDir, "rename-")
	if err != nil {
		return out, fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("rename: failed to clean up")
		}
	}()

	msgID, err := s.run(ctx, req, dir, newName)
	if err != nil {
		var se *StageError
		if errors.As(err, &se) {
			s.metrics.StageFailed(string(se.Stage))
		}
		log.Error().Err(err).Str("file", req.File.Name).Msg("rename: failed")
		return out, err
	}

	out.MessageID = msgID
	s.metrics.FileRenamed()
	return out, nil
}

func (s *Service) run(ctx context.Context, req Request, dir, newName string) (int, error) {
	stage := func(st Stage) {
		if req.OnStage != nil {
			req.OnStage(st)
		}
	}

	stage(StageDownload)
	downloaded := filepath.Join(dir, newName)
	if err := s.retry(ctx, func() error {
		return s.transport.Download(ctx, req.File.Ref, downloaded)
	}); err != nil {
		return 0, &StageError{Stage: StageDownload, Err: err}
	}

	final := downloaded
	if req.Settings.MetadataEnabled {
		stage(StageMetadata)
		if err := os.MkdirAll(filepath.Join(dir, "out"), 0o755); err != nil {
			return 0, &StageError{Stage: StageMetadata, Err: err}
		}
		final = filepath.Join(dir, "out", newName)
		if err := s.tool.Remux(ctx, downloaded, final, fieldsFrom(req.Settings.Metadata)); err != nil {
			return 0, &StageError{Stage: StageMetadata, Err: err}
		}
	}

	var thumbPath string
	if ref := thumbnailRef(req); ref != "" {
		stage(StageThumbnail)
		thumbPath = filepath.Join(dir, "thumb.jpg")
		if err := s.retry(ctx, func() error {
			return s.transport.Download(ctx, ref, thumbPath)
		}); err != nil {
			return 0, &StageError{Stage: StageThumbnail, Err: err}
		}
		if err := thumbnail.Prepare(thumbPath); err != nil {
			log.Warn().Err(err).Str("ref", ref).Msg("rename: unusable thumbnail, uploading without one")
			thumbPath = ""
		}
	}

	stage(StageUpload)
	opts := telegram.UploadOptions{
		Caption:   s.Caption(req.Settings.CaptionTemplate, newName, req.File.Size),
		ParseMode: "HTML",
		ThumbPath: thumbPath,
	}

	var msgID int
	if err := s.retry(ctx, func() error {
		var err error
		msgID, err = s.transport.Upload(ctx, req.ChatID, req.File.Kind, final, opts)
		return err
	}); err != nil {
		return 0, &StageError{Stage: StageUpload, Err: err}
	}

	return msgID, nil
}

// thumbnailRef prefers the user's thumbnail, then a video's own one.
func thumbnailRef(req Request) string {
	if req.Settings.ThumbnailRef != "" {
		return req.Settings.ThumbnailRef
	}
	if req.File.Kind == metadata.MediaVideo {
		return req.File.ThumbRef
	}
	return ""
}

func fieldsFrom(m models.MetadataFields) ffmpeg.Fields {
	return ffmpeg.Fields{
		Title:      m.Title,
		Artist:     m.Artist,
		Author:     m.Author,
		VideoTitle: m.Video,
		AudioTitle: m.Audio,
		Subtitle:   m.Subtitle,
	}
}

// retry runs fn up to the configured attempts. Flood waits sleep for the
// requested duration before the next attempt.
func (s *Service) retry(ctx context.Context, fn func() error) error {
	return retry.Do(
		func() error {
			err := fn()
			var fw *telegram.FloodWaitError
			if errors.As(err, &fw) {
				s.metrics.FloodWait()
				if werr := sleep(ctx, fw.RetryAfter); werr != nil {
					return werr
				}
			}
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.cfg.Attempts),
		retry.Delay(s.cfg.RetryDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && !errors.Is(err, context.Canceled) && !errors.Is(err, ffmpeg.ErrNotFound)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Debug().Err(err).Uint("attempt", n+1).Msg("rename: retrying")
		}),
	)
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Caption renders the caption template. Supported placeholders are
// {filename}, {filesize} and {title}; an empty template yields the bold
// file name.
func (s *Service) Caption(template, fileName string, size int64) string {
	if strings.TrimSpace(template) == "" {
		return "<b>" + html.EscapeString(fileName) + "</b>"
	}

	title := s.releases.Describe(fileName).Title
	return strings.NewReplacer(
		"{filename}", html.EscapeString(fileName),
		"{filesize}", humanize.Bytes(uint64(max(size, 0))),
		"{title}", html.EscapeString(title),
	).Replace(template)
}
