// Package loader decides on start-up whether to show cached bugs, fetch fresh
// ones, or show stale ones while a refresh runs.
package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/danielolaszy/bugtable/internal/cache"
	"github.com/danielolaszy/bugtable/internal/logging"
	"github.com/danielolaszy/bugtable/pkg/models"
)

// DefaultMaxAge is the age at which a cached payload becomes stale.
const DefaultMaxAge = 24 * time.Hour

// Fetcher retrieves a fresh {"bugs": [...]} document.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Plan is the start-up decision.
type Plan int

const (
	// PlanFetch means nothing usable is cached; fetch before showing anything.
	PlanFetch Plan = iota
	// PlanServeStale means show the cached bugs now and refresh in the background.
	PlanServeStale
	// PlanServeFresh means show the cached bugs and do not fetch.
	PlanServeFresh
)

func (p Plan) String() string {
	switch p {
	case PlanFetch:
		return "fetch"
	case PlanServeStale:
		return "stale"
	case PlanServeFresh:
		return "fresh"
	default:
		return fmt.Sprintf("Plan(%d)", int(p))
	}
}

// NeedsFetch reports whether the plan calls for a remote fetch.
func (p Plan) NeedsFetch() bool {
	return p != PlanServeFresh
}

// Snapshot is a collection ready for display.
type Snapshot struct {
	Bugs      []models.Bug
	FetchedAt time.Time
	Stale     bool
}

// Start is the outcome of Plan. Cached is only set when the plan serves from cache.
type Start struct {
	Plan   Plan
	Cached Snapshot
	Age    time.Duration
}

// Loader applies the staleness policy over a cache store and a fetcher.
type Loader struct {
	store   cache.Store
	fetcher Fetcher
	maxAge  time.Duration
	now     func() time.Time
}

// Option configures a Loader.
type Option func(*Loader)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Loader) { l.now = now }
}

// WithMaxAge overrides DefaultMaxAge. Non-positive values are ignored.
func WithMaxAge(d time.Duration) Option {
	return func(l *Loader) {
		if d > 0 {
			l.maxAge = d
		}
	}
}

// New creates a Loader.
func New(store cache.Store, fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		store:   store,
		fetcher: fetcher,
		maxAge:  DefaultMaxAge,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Plan reads the cache and decides what to show. Cache read failures and
// undecodable payloads count as an empty cache.
func (l *Loader) Plan(ctx context.Context) Start {
	entry, found, err := cache.ReadEntry(ctx, l.store)
	if err != nil {
		// found is still set when only the timestamp was unreadable
		logging.Warn("failed to read cache", "error", err)
	}

	if !found {
		logging.Info("no cached data, fetching")
		return Start{Plan: PlanFetch}
	}

	payload, err := models.Decode(entry.Payload)
	if err != nil {
		logging.Warn("cached data is unreadable, fetching", "error", err)
		return Start{Plan: PlanFetch}
	}

	// A missing timestamp leaves FetchedAt at the zero time, which is always stale
	age := l.now().Sub(entry.FetchedAt)
	if entry.FetchedAt.IsZero() || age >= l.maxAge {
		logging.Info("displaying stale cached data, fetching fresh data",
			"fetched_at", entry.FetchedAt,
			"count", len(payload.Bugs))
		return Start{
			Plan:   PlanServeStale,
			Cached: Snapshot{Bugs: payload.Bugs, FetchedAt: entry.FetchedAt, Stale: true},
			Age:    age,
		}
	}

	logging.Info("displaying fresh cached data, not fetching",
		"fetched_at", entry.FetchedAt,
		"count", len(payload.Bugs))
	return Start{
		Plan:   PlanServeFresh,
		Cached: Snapshot{Bugs: payload.Bugs, FetchedAt: entry.FetchedAt},
		Age:    age,
	}
}

// Refresh fetches once, stores the payload and its fetch time, and returns the
// new collection. A failed cache write is logged; the fresh data is still returned.
func (l *Loader) Refresh(ctx context.Context) (Snapshot, error) {
	data, err := l.fetcher.Fetch(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to fetch bugs: %w", err)
	}

	payload, err := models.Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse fetched bugs: %w", err)
	}

	// The payload is already in hand, so the write outlives a cancelled caller
	fetchedAt := l.now()
	if err := cache.WriteEntry(context.WithoutCancel(ctx), l.store, data, fetchedAt); err != nil {
		logging.Warn("failed to write cache", "error", err)
	}

	logging.Debug("refreshed bugs", "count", len(payload.Bugs), "fetched_at", fetchedAt)

	return Snapshot{Bugs: payload.Bugs, FetchedAt: fetchedAt}, nil
}

// Load runs the whole start-up flow, calling show with every collection that
// becomes displayable: the stale cache first when there is one, then the
// fresh fetch. It fetches at most once.
func (l *Loader) Load(ctx context.Context, show func(Snapshot)) error {
	start := l.Plan(ctx)

	switch start.Plan {
	case PlanServeFresh:
		show(start.Cached)
		return nil
	case PlanServeStale:
		show(start.Cached)
	}

	snap, err := l.Refresh(ctx)
	if err != nil {
		return err
	}
	show(snap)
	return nil
}
