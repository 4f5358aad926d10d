// Copyright (c) 2025-2026, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package testdb hands out migrated sqlite databases to tests.
package testdb

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/autobrr/renamarr/internal/database"
)

var (
	templateOnce sync.Once
	templatePath string
	templateErr  error
)

// Open returns a fresh, migrated database cloned from a package-level
// template. It is closed when the test ends.
func Open(t *testing.T) *database.DB {
	t.Helper()

	templateOnce.Do(func() {
		templatePath, templateErr = createTemplate()
	})
	if templateErr != nil {
		t.Fatalf("prepare test DB template: %v", templateErr)
	}

	dbPath := filepath.Join(t.TempDir(), "renamarr.db")
	if err := cloneDatabaseFiles(templatePath, dbPath); err != nil {
		t.Fatalf("clone test DB template to %s: %v", dbPath, err)
	}

	db, err := database.New(dbPath)
	if err != nil {
		t.Fatalf("open test DB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func createTemplate() (string, error) {
	dir, err := os.MkdirTemp("", "renamarr-template-")
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, "template.db")
	db, err := database.New(path)
	if err != nil {
		return "", err
	}
	if err := db.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return err
	}
	return dstFile.Close()
}

func cloneDatabaseFiles(srcMain, dstMain string) error {
	if err := copyFile(srcMain, dstMain); err != nil {
		return err
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		if _, err := os.Stat(srcMain + suffix); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(srcMain+suffix, dstMain+suffix); err != nil {
			return err
		}
	}
	return nil
}
