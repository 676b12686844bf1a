// Package aggregatorsvc implements the ingestion cycle described in
// spec.md §4.1: one batched upstream fetch per tick, persisted as a
// tick per asset plus an atomically-published snapshot.
package aggregatorsvc

import (
	"context"
	"log/slog"
	"math"
	"time"

	"priceflow/internal/adapters/snapshot"
	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/healthsvc"
)

var fetchBackoffs = []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}

const (
	// FConsecMax is the consecutive cycle-failure count that enters a
	// recovery cool-down, grounded on original_source/src/price_service.rs's
	// 5-failure threshold (SPEC_FULL.md §C.3). Distinct from the
	// per-cycle retry budget in fetchBackoffs: that covers one bad
	// fetch, this covers sustained failure across cycles.
	FConsecMax = 5
	// recoveryCooldown is the Degraded-style sleep applied once
	// FConsecMax is reached, before the cycle loop resumes at its
	// normal cadence.
	recoveryCooldown = 60 * time.Second
)

// Service runs the Aggregator's periodic fetch-and-publish cycle.
type Service struct {
	feeds    []domain.AssetFeed
	interval time.Duration

	oracle  port.OracleClient
	store   port.Store
	cache   port.Cache // may be nil
	writer  *snapshot.Writer
	tracker *healthsvc.Tracker
	log     *slog.Logger
}

func New(
	feeds []domain.AssetFeed,
	interval time.Duration,
	oracle port.OracleClient,
	store port.Store,
	cache port.Cache,
	writer *snapshot.Writer,
	tracker *healthsvc.Tracker,
	log *slog.Logger,
) *Service {
	return &Service{
		feeds:    feeds,
		interval: interval,
		oracle:   oracle,
		store:    store,
		cache:    cache,
		writer:   writer,
		tracker:  tracker,
		log:      log,
	}
}

// Run loops RunCycle on the configured cadence until ctx is canceled.
// Sleep duration is max(0, T_fetch-elapsed); drift is not corrected,
// per spec.md §4.1's cadence control. After FConsecMax consecutive
// cycle failures it instead sleeps recoveryCooldown, mirroring the
// Presence Worker's Degraded state (SPEC_FULL.md §C.3).
func (s *Service) Run(ctx context.Context) {
	for {
		start := time.Now()
		err := s.RunCycle(ctx)

		if err != nil {
			s.log.Error("aggregator cycle failed", "error", err)
			if failures := s.tracker.RecordFailure(); failures >= FConsecMax {
				s.log.Warn("entering recovery cool-down", "consecutive_failures", failures)
				select {
				case <-time.After(recoveryCooldown):
				case <-ctx.Done():
					return
				}
				continue
			}
		}

		elapsed := time.Since(start)
		sleep := s.interval - elapsed
		if sleep < 0 {
			sleep = 0
		}

		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return
		}
	}
}

// RunCycle performs one fetch-parse-persist-publish cycle. It never
// returns an error that should crash the process: an upstream failure
// or a cycle with no usable price returns an error before anything is
// written (Run logs it and the cycle is skipped), and a store failure
// is logged while the snapshot is still written, per the failure
// semantics in spec.md §4.1 and the error taxonomy in spec.md §7.
func (s *Service) RunCycle(ctx context.Context) error {
	feedIDs := make([]string, len(s.feeds))
	bySymbolFeed := make(map[string]string, len(s.feeds))
	for i, f := range s.feeds {
		feedIDs[i] = f.FeedID
		bySymbolFeed[f.FeedID] = f.Symbol
	}

	prices, err := s.fetchWithRetry(ctx, feedIDs)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	ticks := make([]domain.Tick, 0, len(prices))
	entries := make(map[string]domain.SnapshotEntry, len(prices))

	for _, p := range prices {
		symbol, ok := bySymbolFeed[p.FeedID]
		if !ok {
			continue
		}
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			s.log.Warn("dropping non-finite price", "feed", p.FeedID)
			continue
		}
		ticks = append(ticks, domain.Tick{Asset: symbol, TS: now, Price: p.Price})
		entries[symbol] = domain.SnapshotEntry{Price: p.Price, PublishTime: p.PublishTime}
	}

	if len(ticks) == 0 {
		return domain.ErrUpstreamParse
	}

	if err := s.store.InsertTicks(ctx, ticks); err != nil {
		// Store failure after a successful fetch is logged but does not
		// block the snapshot write, per spec.md §4.1.
		s.log.Error("insert ticks failed", "error", err)
	} else if s.cache != nil {
		for _, t := range ticks {
			if err := s.cache.SetLatest(ctx, t.Asset, t.TS, t.Price); err != nil {
				s.log.Warn("cache set latest failed", "error", err, "asset", t.Asset)
			}
		}
	}

	snap := domain.Snapshot{Timestamp: now, Prices: entries}
	if err := s.writer.Write(snap); err != nil {
		s.log.Error("snapshot write failed", "error", err)
		return err
	}

	s.tracker.RecordCycle()
	return nil
}

func (s *Service) fetchWithRetry(ctx context.Context, feedIDs []string) ([]port.OraclePrice, error) {
	var lastErr error
	for attempt := 0; attempt <= len(fetchBackoffs); attempt++ {
		prices, err := s.oracle.FetchPrices(ctx, feedIDs)
		if err == nil {
			return prices, nil
		}
		lastErr = err
		s.log.Warn("oracle fetch failed", "attempt", attempt+1, "error", err)
		if attempt == len(fetchBackoffs) {
			break
		}
		select {
		case <-time.After(fetchBackoffs[attempt]):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}
