// Package downsamplersvc implements the maintenance cycle described in
// spec.md §4.3: promote ticks through the tier ladder and expire rows
// past their retention horizon.
package downsamplersvc

import (
	"context"
	"log/slog"
	"time"

	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/healthsvc"
)

// vacuumThresholdFraction triggers a VACUUM when a cycle's change
// count reaches this share of the pre-cycle row count summed over all
// tiers (spec.md §4.3 step 5). The change count is the number of
// buckets emitted by promotion plus the T3 rows expired; source rows
// deleted by promotion are not counted individually.
const vacuumThresholdFraction = 0.01

// Service runs the Downsampler's periodic promote/expire cycle.
type Service struct {
	interval time.Duration
	store    port.Store
	cache    port.Cache // may be nil
	assets   []string
	tracker  *healthsvc.Tracker
	log      *slog.Logger
}

func New(interval time.Duration, store port.Store, cache port.Cache, assets []string, tracker *healthsvc.Tracker, log *slog.Logger) *Service {
	return &Service{interval: interval, store: store, cache: cache, assets: assets, tracker: tracker, log: log}
}

// Run executes one cycle immediately, then on the configured cadence,
// per spec.md §4.3's startup rule.
func (s *Service) Run(ctx context.Context) {
	s.Cycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Cycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Cycle runs the four promote/expire steps in order. Each step is its
// own transaction inside the Store; a failed step is logged and
// skipped rather than aborting the remaining steps, per spec.md §4.3.
func (s *Service) Cycle(ctx context.Context) {
	now := time.Now().Unix()
	var totalChanged int64

	statsBefore, err := s.store.Stats(ctx)
	if err != nil {
		s.log.Warn("stats before cycle failed", "error", err)
	}

	steps := []struct {
		name        string
		srcDuration int64
		dstDuration int64
		horizon     int64
	}{
		{"T0->T1", domain.TierRaw, domain.TierOneMinute, domain.RawRetentionSeconds},
		{"T1->T2", domain.TierOneMinute, domain.TierFiveMinute, domain.OneMinuteRetentionSeconds},
		{"T2->T3", domain.TierFiveMinute, domain.TierFifteenMinute, domain.FiveMinuteRetentionSeconds},
	}

	for _, step := range steps {
		promoted, err := s.store.Promote(ctx, step.srcDuration, step.dstDuration, step.horizon, now)
		if err != nil {
			s.log.Error("promotion step failed", "step", step.name, "error", err)
			s.tracker.RecordFailure()
			continue
		}
		s.log.Info("promotion step complete", "step", step.name, "buckets_emitted", promoted)
		totalChanged += int64(promoted)
		if promoted > 0 {
			s.invalidateCache(ctx)
		}
	}

	expired, err := s.store.Expire(ctx, domain.TierFifteenMinute, domain.FifteenMinRetentionSeconds, now)
	if err != nil {
		s.log.Error("expire T3 failed", "error", err)
		s.tracker.RecordFailure()
	} else {
		s.log.Info("expire T3 complete", "rows_deleted", expired)
		totalChanged += expired
	}

	if statsBefore != nil {
		var rawBefore int64
		for _, v := range statsBefore {
			rawBefore += v
		}
		if rawBefore > 0 && float64(totalChanged)/float64(rawBefore) >= vacuumThresholdFraction {
			if err := s.store.Vacuum(ctx); err != nil {
				s.log.Error("vacuum failed", "error", err)
			} else {
				s.log.Info("vacuum complete")
			}
		}
	}

	if statsAfter, err := s.store.Stats(ctx); err == nil {
		s.log.Info("store stats", "stats", statsAfter)
	}

	s.tracker.RecordCycle()
}

// invalidateCache drops every known asset's cached latest entry after a
// tier promotion, so a cache read racing the promote transaction never
// serves a price believed to still be backed by a row that was just
// moved to a coarser tier.
func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	for _, asset := range s.assets {
		if err := s.cache.Invalidate(ctx, asset); err != nil {
			s.log.Warn("cache invalidate failed", "asset", asset, "error", err)
		}
	}
}
