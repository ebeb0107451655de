// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/danielhkuo/quickly-annotate/models"
)

// ProgressStore keeps every campaign's user progress in memory and persists
// the whole snapshot to a single JSON file after each mutation.
type ProgressStore struct {
	mu   sync.RWMutex
	path string
	data map[string]models.CampaignProgress
}

// OpenProgressStore loads the snapshot at path, creating an empty one if missing
func OpenProgressStore(path string) (*ProgressStore, error) {
	s := &ProgressStore{path: path, data: make(map[string]models.CampaignProgress)}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Warn("no progress snapshot found, no campaign will be available", "path", path)
		if err := s.persist(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse progress: %w", err)
	}
	if s.data == nil {
		s.data = make(map[string]models.CampaignProgress)
	}
	return s, nil
}

// CampaignIDs returns the IDs of campaigns with progress records, sorted
func (s *ProgressStore) CampaignIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.data))
}

// Get returns a copy of one user's progress
func (s *ProgressStore) Get(campaignID, userID string) (*models.UserProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[campaignID]
	if !ok {
		return nil, models.ErrUnknownCampaign
	}
	p, ok := cp[userID]
	if !ok {
		return nil, models.ErrUnknownUser
	}
	return p.Clone(), nil
}

// Snapshot returns a copy of all users' progress for a campaign
func (s *ProgressStore) Snapshot(campaignID string) (models.CampaignProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.data[campaignID]
	if !ok {
		return nil, models.ErrUnknownCampaign
	}
	return cp.Clone(), nil
}

// Mutate applies fn to the campaign's progress in place and persists the full
// snapshot before returning. If fn or the write fails, the campaign's
// progress is restored to what it was before the call.
func (s *ProgressStore) Mutate(campaignID string, fn func(models.CampaignProgress) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp, ok := s.data[campaignID]
	if !ok {
		return models.ErrUnknownCampaign
	}
	backup := cp.Clone()

	if err := fn(cp); err != nil {
		s.data[campaignID] = backup
		return err
	}
	if err := s.persist(); err != nil {
		s.data[campaignID] = backup
		return err
	}
	return nil
}

// persist writes the snapshot atomically. Callers hold s.mu.
func (s *ProgressStore) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	return writeFileAtomic(s.path, raw)
}

// writeFileAtomic writes to a temp file in the same directory and renames it
// over path, so readers never observe a half-written snapshot
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
