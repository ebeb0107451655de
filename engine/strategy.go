// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package engine

import (
	"context"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/danielhkuo/quickly-annotate/models"
	"github.com/danielhkuo/quickly-annotate/store"
)

// Strategy decides which item a user sees and how submissions and resets
// change completion marks. One is chosen per campaign when the engine starts.
type Strategy interface {
	// Name is the assignment type as written in campaign files
	Name() string
	// Len is the number of documents the user works through
	Len(c *models.Campaign, userID string) (int, error)
	// Completed reports whether the user has nothing left to annotate
	Completed(c *models.Campaign, userID string, p *models.UserProgress) (bool, error)
	// Next picks an item for a user who is not yet complete
	Next(ctx context.Context, c *models.Campaign, userID string, p *models.UserProgress) (int, models.Document, error)
	// ItemAt returns the payload at a given index
	ItemAt(c *models.Campaign, userID string, itemI int) (models.Document, error)
	// Scope is the log user for resume lookups and tombstones; nil means
	// campaign-wide
	Scope(userID string) *string
	// Record applies a submission to the completion marks
	Record(c *models.Campaign, users models.CampaignProgress, userID string, itemI int, payload models.AnnotationPayload) error
	// ResetMarks restores the initial marks for everyone the reset affects
	ResetMarks(users models.CampaignProgress, userID string, n int)
}

// StrategyFor returns the strategy matching the campaign's assignment type
func StrategyFor(c *models.Campaign, log *store.Log, rng *Rand) (Strategy, error) {
	switch c.Info.Assignment {
	case models.AssignmentTaskBased:
		return fixedStrategy{}, nil
	case models.AssignmentSingleStream:
		return sharedPoolStrategy{rng: rng}, nil
	case models.AssignmentDynamic:
		return &dynamicStrategy{log: log, rng: rng}, nil
	default:
		return nil, models.ErrUnsupportedAssignment
	}
}

func documentAt(docs []models.Document, itemI int) (models.Document, error) {
	if itemI < 0 || itemI >= len(docs) {
		return nil, models.ErrItemIndexOutOfRange
	}
	return docs[itemI], nil
}

// Rand is a math/rand/v2 generator safe for concurrent use
type Rand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func NewRand(seed uint64) *Rand {
	return &Rand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *Rand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *Rand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Choice returns a uniformly random element of xs, which must be non-empty
func (l *Rand) Choice(xs []int) int {
	return xs[l.IntN(len(xs))]
}

// Sample returns k distinct elements of xs, sorted
func (l *Rand) Sample(xs []string, k int) []string {
	k = min(k, len(xs))
	if k <= 0 {
		return nil
	}
	l.mu.Lock()
	perm := l.r.Perm(len(xs))
	l.mu.Unlock()

	out := make([]string, k)
	for i := range k {
		out[i] = xs[perm[i]]
	}
	slices.Sort(out)
	return out
}
