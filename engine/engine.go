// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/danielhkuo/quickly-annotate/auth"
	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/store"
)

// Engine serves items, records submissions and resets progress.
// Every read-modify-write on one campaign runs under that campaign's lock.
type Engine struct {
	campaigns *store.CampaignStore
	progress  *store.ProgressStore
	log       *store.Log
	rng       *Rand

	strategies map[string]Strategy

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures an Engine
type Option func(*Engine)

// WithSeed makes random draws reproducible
func WithSeed(seed uint64) Option {
	return func(e *Engine) {
		e.rng = NewRand(seed)
	}
}

// New wires the stores together and picks a strategy for every campaign
func New(campaigns *store.CampaignStore, progress *store.ProgressStore, log *store.Log, opts ...Option) (*Engine, error) {
	e := &Engine{
		campaigns:  campaigns,
		progress:   progress,
		log:        log,
		rng:        NewRand(rand.Uint64()),
		strategies: make(map[string]Strategy),
		locks:      make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}

	for _, id := range campaigns.IDs() {
		c, err := campaigns.Get(id)
		if err != nil {
			return nil, err
		}
		s, err := StrategyFor(c, log, e.rng)
		if err != nil {
			return nil, fmt.Errorf("campaign %s: %w", id, err)
		}
		e.strategies[id] = s

		if err := e.ensureTokens(id); err != nil {
			return nil, fmt.Errorf("campaign %s: %w", id, err)
		}
	}
	return e, nil
}

// ensureTokens gives users without completion tokens a fresh pair
func (e *Engine) ensureTokens(campaignID string) error {
	snapshot, err := e.progress.Snapshot(campaignID)
	if err != nil {
		return err
	}
	missing := false
	for _, p := range snapshot {
		if p.TokenCorrect == "" || p.TokenIncorrect == "" {
			missing = true
			break
		}
	}
	if !missing {
		return nil
	}

	return e.progress.Mutate(campaignID, func(users models.CampaignProgress) error {
		generated := 0
		for _, p := range users {
			for _, tok := range []*string{&p.TokenCorrect, &p.TokenIncorrect} {
				if *tok != "" {
					continue
				}
				t, err := auth.GenerateToken()
				if err != nil {
					return err
				}
				*tok = t
				generated++
			}
		}
		slog.Info("generated missing completion tokens", "campaign_id", campaignID, "tokens", generated)
		return nil
	})
}

// lock acquires the campaign's lock and returns its release
func (e *Engine) lock(campaignID string) func() {
	e.mu.Lock()
	l, ok := e.locks[campaignID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[campaignID] = l
	}
	e.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (e *Engine) resolve(campaignID string) (*models.Campaign, Strategy, error) {
	c, err := e.campaigns.Get(campaignID)
	if err != nil {
		return nil, nil, err
	}
	s, ok := e.strategies[campaignID]
	if !ok {
		return nil, nil, models.ErrUnsupportedAssignment
	}
	return c, s, nil
}

// NextItem returns the user's next item, or the completion token once
// nothing is left
func (e *Engine) NextItem(ctx context.Context, campaignID, userID string) (*models.ItemResponse, error) {
	c, s, err := e.resolve(campaignID)
	if err != nil {
		return nil, err
	}

	unlock := e.lock(campaignID)
	defer unlock()

	p, err := e.progress.Get(campaignID, userID)
	if err != nil {
		return nil, err
	}

	done, err := s.Completed(c, userID, p)
	if err != nil {
		return nil, err
	}
	if done {
		resp := e.completed(c, userID, p)
		itemsServed.WithLabelValues(s.Name(), models.StatusCompleted).Inc()
		return resp, nil
	}

	itemI, payload, err := s.Next(ctx, c, userID, p)
	if err != nil {
		return nil, err
	}
	itemsServed.WithLabelValues(s.Name(), models.StatusOK).Inc()
	return e.item(ctx, c, s, userID, p, itemI, payload)
}

// ItemAt returns a specific item so the user can revisit it
func (e *Engine) ItemAt(ctx context.Context, campaignID, userID string, itemI int) (*models.ItemResponse, error) {
	c, s, err := e.resolve(campaignID)
	if err != nil {
		return nil, err
	}

	unlock := e.lock(campaignID)
	defer unlock()

	p, err := e.progress.Get(campaignID, userID)
	if err != nil {
		return nil, err
	}

	payload, err := s.ItemAt(c, userID, itemI)
	if err != nil {
		return nil, err
	}
	return e.item(ctx, c, s, userID, p, itemI, payload)
}

func (e *Engine) item(ctx context.Context, c *models.Campaign, s Strategy, userID string, p *models.UserProgress, itemI int, payload models.Document) (*models.ItemResponse, error) {
	existing, err := e.log.Latest(ctx, c.ID, s.Scope(userID), itemI)
	if err != nil {
		return nil, err
	}

	info := map[string]any{"item_i": itemI}
	for k, v := range c.Info.Protocol {
		info[k] = v
	}

	resp := &models.ItemResponse{
		Status:   models.StatusOK,
		Progress: p.Progress,
		Time:     p.Time,
		Info:     info,
		Payload:  payload,
	}
	if existing != nil {
		resp.PayloadExisting = existing.Existing()
	}
	return resp, nil
}

func (e *Engine) completed(c *models.Campaign, userID string, p *models.UserProgress) *models.ItemResponse {
	token := p.TokenIncorrect
	if Passes(c.Info.Threshold(), p.Validations) {
		token = p.TokenCorrect
	}
	return &models.ItemResponse{
		Status:   models.StatusCompleted,
		Progress: p.Progress,
		Time:     p.Time,
		Token:    token,
		Goodbye:  c.Info.Goodbye(token, userID),
	}
}

// Submit logs an annotation and updates progress. The log append happens
// first; if it fails nothing else changes.
func (e *Engine) Submit(ctx context.Context, campaignID, userID string, itemI int, payload models.AnnotationPayload) error {
	c, s, err := e.resolve(campaignID)
	if err != nil {
		return err
	}

	unlock := e.lock(campaignID)
	defer unlock()

	if _, err := e.progress.Get(campaignID, userID); err != nil {
		return err
	}
	n, err := s.Len(c, userID)
	if err != nil {
		return err
	}
	if itemI < 0 || itemI >= n {
		return models.ErrItemIndexOutOfRange
	}

	if err := e.log.Append(ctx, campaignID, models.NewAnnotationEntry(userID, itemI, payload)); err != nil {
		return err
	}

	err = e.progress.Mutate(campaignID, func(users models.CampaignProgress) error {
		u := users[userID]
		u.RecordActions(payload.Actions)
		if payload.Validations != nil {
			if u.Validations == nil {
				u.Validations = make(map[int][]bool)
			}
			u.Validations[itemI] = slices.Clone(payload.Validations)
		}
		return s.Record(c, users, userID, itemI, payload)
	})
	if err != nil {
		slog.Error("failed to update progress after logging annotation",
			"campaign_id", campaignID, "user_id", userID, "item_i", itemI, "error", err)
		return err
	}

	annotationsLogged.WithLabelValues(s.Name()).Inc()
	return nil
}

// Reset clears progress and masks prior annotations with tombstones.
// Requires the campaign's dashboard token.
func (e *Engine) Reset(ctx context.Context, campaignID, userID, token string) error {
	c, s, err := e.resolve(campaignID)
	if err != nil {
		return err
	}
	if err := auth.ValidateToken(c.Token, token); err != nil {
		return err
	}

	unlock := e.lock(campaignID)
	defer unlock()

	if _, err := e.progress.Get(campaignID, userID); err != nil {
		return err
	}
	n, err := s.Len(c, userID)
	if err != nil {
		return err
	}

	scope := s.Scope(userID)
	for i := range n {
		if err := e.log.Append(ctx, campaignID, models.NewResetEntry(scope, i)); err != nil {
			return err
		}
	}

	err = e.progress.Mutate(campaignID, func(users models.CampaignProgress) error {
		s.ResetMarks(users, userID, n)
		users[userID].ResetTime()
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("progress reset", "campaign_id", campaignID, "user_id", userID, "items", n, "assignment", s.Name())
	resets.WithLabelValues(s.Name()).Inc()
	return nil
}

// DownloadAnnotations returns the raw logs, tombstones included
func (e *Engine) DownloadAnnotations(ctx context.Context, campaignIDs []string) (map[string][]models.LogEntry, error) {
	out := make(map[string][]models.LogEntry, len(campaignIDs))
	for _, id := range campaignIDs {
		if _, err := e.campaigns.Get(id); err != nil {
			return nil, fmt.Errorf("%w %s", err, id)
		}
		entries, err := e.log.All(ctx, id)
		if err != nil {
			return nil, err
		}
		if entries == nil {
			entries = []models.LogEntry{}
		}
		out[id] = entries
	}
	return out, nil
}

// DownloadProgress returns progress snapshots. tokens[i] must be the
// dashboard token of campaignIDs[i].
func (e *Engine) DownloadProgress(campaignIDs, tokens []string) (map[string]models.CampaignProgress, error) {
	if len(campaignIDs) != len(tokens) {
		return nil, fmt.Errorf("%w: mismatched campaign_id and token count", models.ErrInvalidRequest)
	}

	out := make(map[string]models.CampaignProgress, len(campaignIDs))
	for i, id := range campaignIDs {
		c, err := e.campaigns.Get(id)
		if err != nil {
			return nil, fmt.Errorf("%w %s", err, id)
		}
		if err := auth.ValidateToken(c.Token, tokens[i]); err != nil {
			return nil, fmt.Errorf("%w for campaign ID %s", err, id)
		}
		snap, err := e.progress.Snapshot(id)
		if err != nil {
			return nil, err
		}
		out[id] = snap
	}
	return out, nil
}
