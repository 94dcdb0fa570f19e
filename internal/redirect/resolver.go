package redirect

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/JakeFAU/paintco-web/internal/metrics"
	"github.com/JakeFAU/paintco-web/internal/store"
)

const (
	// DefaultTTL is how long a snapshot is served before a lookup refreshes it.
	DefaultTTL = 5 * time.Minute
	// DefaultFetchTimeout bounds a single rule fetch.
	DefaultFetchTimeout = 3 * time.Second

	refreshKey = "redirects"
	tracerName = "github.com/JakeFAU/paintco-web/internal/redirect"
)

// RuleSource returns the active redirect rules.
type RuleSource interface {
	ListActive(ctx context.Context) ([]store.Redirect, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Config tunes the resolver's cache.
type Config struct {
	TTL          time.Duration
	FetchTimeout time.Duration
}

// RefreshOutcome distinguishes a successful refresh from a failed one.
type RefreshOutcome int

// Refresh outcomes.
const (
	RefreshSucceeded RefreshOutcome = iota + 1
	RefreshFailed
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshSucceeded:
		return "succeeded"
	case RefreshFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RefreshResult reports what a refresh attempt did. On RefreshSucceeded,
// Snapshot is the newly installed snapshot; on RefreshFailed, Err holds the
// reason and the previous snapshot stayed in place.
type RefreshResult struct {
	Outcome  RefreshOutcome
	Snapshot Snapshot
	Skipped  []SkippedRow
	Err      error
	At       time.Time
	Duration time.Duration
}

// Status describes the snapshot currently being served.
type Status struct {
	Rules       int       `json:"rules"`
	Loaded      bool      `json:"loaded"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Stale       bool      `json:"stale"`
}

// state pairs a snapshot with the time it was loaded so both are swapped together.
type state struct {
	snapshot    Snapshot
	refreshedAt time.Time
	loaded      bool
}

// Resolver answers redirect lookups from a TTL-bounded snapshot.
type Resolver struct {
	source RuleSource
	cfg    Config
	clock  Clock
	logger *zap.Logger
	tracer trace.Tracer

	current atomic.Pointer[state]
	flight  singleflight.Group
	// generation is bumped by Invalidate. A fetch that started under an
	// older generation may have read rows from before the write.
	generation atomic.Uint64
}

// NewResolver creates a Resolver with an empty snapshot. The first lookup
// triggers the initial load.
func NewResolver(source RuleSource, cfg Config, clock Clock, logger *zap.Logger) (*Resolver, error) {
	if source == nil {
		return nil, errors.New("redirect rule source is required")
	}
	if clock == nil {
		return nil, errors.New("clock is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	r := &Resolver{
		source: source,
		cfg:    cfg,
		clock:  clock,
		logger: logger,
		tracer: otel.Tracer(tracerName),
	}
	r.current.Store(&state{snapshot: Snapshot{}})
	return r, nil
}

// Resolve returns the redirect decision for path. It never fails: when the
// store is unreachable the last good snapshot (possibly empty) is consulted.
func (r *Resolver) Resolve(ctx context.Context, path string) Decision {
	st := r.current.Load()
	if r.expired(st) {
		r.refreshShared(ctx, false)
		st = r.current.Load()
	}

	key, target, ok := st.snapshot.Match(path)
	if !ok {
		metrics.ObserveRedirectDecision(metrics.DecisionMiss)
		return NoRedirect
	}
	metrics.ObserveRedirectDecision(metrics.DecisionRedirect)
	return Decision{
		Redirect:    true,
		Destination: target.Destination,
		StatusCode:  target.StatusCode,
		MatchedPath: key,
	}
}

// Refresh reloads the snapshot now regardless of its age. Concurrent callers
// (including lookups that found the snapshot expired) share one fetch.
func (r *Resolver) Refresh(ctx context.Context) RefreshResult {
	return r.refreshShared(ctx, true)
}

// Invalidate marks the snapshot as expired without discarding it, so the next
// lookup reloads while still falling back to the current rules on failure.
func (r *Resolver) Invalidate() {
	r.generation.Add(1)
	for {
		// Swap even an already-zero timestamp so a racing apply retries.
		st := r.current.Load()
		next := *st
		next.refreshedAt = time.Time{}
		if r.current.CompareAndSwap(st, &next) {
			return
		}
	}
}

// Status reports the size and age of the snapshot being served.
func (r *Resolver) Status() Status {
	st := r.current.Load()
	return Status{
		Rules:       len(st.snapshot),
		Loaded:      st.loaded,
		RefreshedAt: st.refreshedAt,
		Stale:       r.expired(st),
	}
}

func (r *Resolver) expired(st *state) bool {
	return r.clock.Now().Sub(st.refreshedAt) >= r.cfg.TTL
}

func (r *Resolver) refreshShared(ctx context.Context, force bool) RefreshResult {
	v, _, _ := r.flight.Do(refreshKey, func() (any, error) {
		if !force {
			if st := r.current.Load(); !r.expired(st) {
				return RefreshResult{Outcome: RefreshSucceeded, Snapshot: st.snapshot, At: st.refreshedAt}, nil
			}
		}
		// Detach from the caller so a client hanging up does not fail the
		// refresh for every request sharing it.
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.FetchTimeout)
		defer cancel()
		gen := r.generation.Load()
		res := r.refresh(fetchCtx)
		r.apply(res, gen)
		return res, nil
	})
	res, _ := v.(RefreshResult)
	return res
}

func (r *Resolver) refresh(ctx context.Context) RefreshResult {
	ctx, span := r.tracer.Start(ctx, "redirect.refresh")
	defer span.End()

	start := r.clock.Now()
	rows, err := r.source.ListActive(ctx)
	elapsed := r.clock.Now().Sub(start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch redirects")
		return RefreshResult{
			Outcome:  RefreshFailed,
			Err:      fmt.Errorf("list active redirects: %w", err),
			At:       start,
			Duration: elapsed,
		}
	}
	snap, skipped := BuildSnapshot(rows)
	span.SetAttributes(
		attribute.Int("redirect.rows", len(rows)),
		attribute.Int("redirect.rules", len(snap)),
		attribute.Int("redirect.skipped", len(skipped)),
	)
	return RefreshResult{
		Outcome:  RefreshSucceeded,
		Snapshot: snap,
		Skipped:  skipped,
		At:       r.clock.Now(),
		Duration: elapsed,
	}
}

func (r *Resolver) apply(res RefreshResult, gen uint64) {
	switch res.Outcome {
	case RefreshSucceeded:
		for {
			st := r.current.Load()
			next := &state{snapshot: res.Snapshot, refreshedAt: res.At, loaded: true}
			if r.generation.Load() != gen {
				// Invalidated mid-fetch: serve these rules but reload on the next lookup.
				next.refreshedAt = time.Time{}
			}
			if r.current.CompareAndSwap(st, next) {
				break
			}
		}
		for _, row := range res.Skipped {
			r.logger.Warn("skipping malformed redirect row",
				zap.String("from_path", row.FromPath),
				zap.String("reason", row.Reason),
			)
		}
		metrics.ObserveRedirectRefresh(metrics.RefreshSuccess, res.Duration)
		metrics.AddRedirectRowsSkipped(len(res.Skipped))
		metrics.SetRedirectSnapshot(len(res.Snapshot), res.At)
		r.logger.Debug("redirect snapshot refreshed",
			zap.Int("rules", len(res.Snapshot)),
			zap.Int("skipped", len(res.Skipped)),
			zap.Duration("duration", res.Duration),
		)
	case RefreshFailed:
		// Keep the previous snapshot and its timestamp so the next lookup retries.
		st := r.current.Load()
		metrics.ObserveRedirectRefresh(metrics.RefreshFailure, res.Duration)
		r.logger.Warn("redirect refresh failed; serving last known rules",
			zap.Error(res.Err),
			zap.Int("rules", len(st.snapshot)),
			zap.Time("refreshed_at", st.refreshedAt),
		)
	}
}
