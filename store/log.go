// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/danielhkuo/quickly-annotate/models"
)

// LogBackend is the durable side of the annotation log
type LogBackend interface {
	// Load returns every entry of the campaign in append order
	Load(ctx context.Context, campaignID string) ([]models.LogEntry, error)
	// Append durably stores one entry at the end of the campaign's log
	Append(ctx context.Context, campaignID string, entry models.LogEntry) error
}

// Log is the append-only annotation log. Each campaign is loaded from the
// backend on first access and served from memory afterwards.
type Log struct {
	backend LogBackend
	now     func() time.Time

	mu        sync.Mutex
	campaigns map[string]*campaignLog
	flight    singleflight.Group
}

// campaignLog is one campaign's entries plus the offset of the last
// tombstone per scope, so masking needs no rescan
type campaignLog struct {
	mu        sync.RWMutex
	entries   []models.LogEntry
	lastReset map[scopeKey]int
}

// scopeKey identifies a tombstone scope. global is set for campaign-wide
// tombstones (null user_id), which mask every user's entries for the item.
type scopeKey struct {
	user   string
	global bool
	item   int
}

func keyFor(userID *string, item int) scopeKey {
	if userID == nil {
		return scopeKey{global: true, item: item}
	}
	return scopeKey{user: *userID, item: item}
}

// NewLog creates a log on top of the given backend
func NewLog(backend LogBackend) *Log {
	return &Log{
		backend:   backend,
		now:       time.Now,
		campaigns: make(map[string]*campaignLog),
	}
}

func (l *Log) campaign(ctx context.Context, campaignID string) (*campaignLog, error) {
	l.mu.Lock()
	cl, ok := l.campaigns[campaignID]
	l.mu.Unlock()
	if ok {
		return cl, nil
	}

	v, err, _ := l.flight.Do(campaignID, func() (any, error) {
		l.mu.Lock()
		if cl, ok := l.campaigns[campaignID]; ok {
			l.mu.Unlock()
			return cl, nil
		}
		l.mu.Unlock()

		entries, err := l.backend.Load(ctx, campaignID)
		if err != nil {
			return nil, fmt.Errorf("failed to load annotation log %s: %w", campaignID, err)
		}
		cl := &campaignLog{lastReset: make(map[scopeKey]int)}
		for _, e := range entries {
			cl.add(e)
		}

		l.mu.Lock()
		l.campaigns[campaignID] = cl
		l.mu.Unlock()
		return cl, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*campaignLog), nil
}

// add appends to memory and updates the tombstone index. Callers hold cl.mu.
func (cl *campaignLog) add(e models.LogEntry) {
	cl.entries = append(cl.entries, e)
	if e.IsReset() {
		cl.lastReset[keyFor(e.UserID, e.ItemI)] = len(cl.entries) - 1
	}
}

// masked reports whether the entry at offset i is hidden by a tombstone
func (cl *campaignLog) masked(i int, e models.LogEntry) bool {
	if off, ok := cl.lastReset[keyFor(e.UserID, e.ItemI)]; ok && i <= off {
		return true
	}
	if off, ok := cl.lastReset[scopeKey{global: true, item: e.ItemI}]; ok && i <= off {
		return true
	}
	return false
}

// Append durably writes the entry, then makes it visible to readers.
// Entries get a log_id and logged_at if they have none.
func (l *Log) Append(ctx context.Context, campaignID string, entry models.LogEntry) error {
	cl, err := l.campaign(ctx, campaignID)
	if err != nil {
		return err
	}
	if entry.LogID == "" {
		entry.LogID = uuid.NewString()
	}
	if entry.LoggedAt == nil {
		now := l.now().UTC()
		entry.LoggedAt = &now
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if err := l.backend.Append(ctx, campaignID, entry); err != nil {
		return fmt.Errorf("failed to append annotation: %w", err)
	}
	cl.add(entry)
	return nil
}

// Query returns the entries matching the optional user and item filters,
// oldest first, with tombstones and everything they mask removed. An entry
// for (user, item) is masked by a later-or-equal tombstone for the same
// (user, item) or by a campaign-wide tombstone for the item.
func (l *Log) Query(ctx context.Context, campaignID string, userID *string, itemI *int) ([]models.LogEntry, error) {
	cl, err := l.campaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	cl.mu.RLock()
	defer cl.mu.RUnlock()

	var out []models.LogEntry
	for i, e := range cl.entries {
		if e.IsReset() {
			continue
		}
		if userID != nil && e.User() != *userID {
			continue
		}
		if itemI != nil && e.ItemI != *itemI {
			continue
		}
		if cl.masked(i, e) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Latest returns the most recent visible entry for the filters, if any
func (l *Log) Latest(ctx context.Context, campaignID string, userID *string, itemI int) (*models.LogEntry, error) {
	entries, err := l.Query(ctx, campaignID, userID, &itemI)
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	e := entries[len(entries)-1]
	return &e, nil
}

// All returns the raw log including tombstones
func (l *Log) All(ctx context.Context, campaignID string) ([]models.LogEntry, error) {
	cl, err := l.campaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return slices.Clone(cl.entries), nil
}
