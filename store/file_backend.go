// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielhkuo/quickly-annotate/models"
)

// maxLineBytes bounds a single JSONL record when reading a log back
const maxLineBytes = 16 << 20

// FileBackend stores each campaign's log as <dir>/<campaign_id>.jsonl
type FileBackend struct {
	dir string
}

// NewFileBackend creates the output directory if needed
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// Path returns the JSONL file for a campaign
func (b *FileBackend) Path(campaignID string) string {
	return filepath.Join(b.dir, campaignID+".jsonl")
}

func (b *FileBackend) Load(ctx context.Context, campaignID string) ([]models.LogEntry, error) {
	f, err := os.Open(b.Path(campaignID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []models.LogEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e models.LogEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", b.Path(campaignID), line, err)
		}
		entries = append(entries, e)
		if line%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
	}
	return entries, scanner.Err()
}

func (b *FileBackend) Append(ctx context.Context, campaignID string, entry models.LogEntry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return err
	}

	f, err := os.OpenFile(b.Path(campaignID), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
