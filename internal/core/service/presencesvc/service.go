// Package presencesvc implements the per-asset Presence Worker
// described in spec.md §4.4: nickname/presence updates driven off the
// shared snapshot and store, plus the /price command.
package presencesvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"priceflow/internal/adapters/snapshot"
	"priceflow/internal/core/domain"
	"priceflow/internal/core/port"
	"priceflow/internal/core/service/healthsvc"
	"priceflow/internal/utils"
)

const (
	// FConsecMax is the default consecutive full-iteration failure
	// count that enters Degraded, per spec.md §4.4.
	FConsecMax = 5
	// GMax is the default consecutive gateway transport failure count
	// that enters Degraded, per spec.md §4.5.
	GMax = 5
	// recoveryCooldown is the Degraded-state sleep before resuming.
	recoveryCooldown = 60 * time.Second
	// interGuildDelay is the pause between set_nickname calls across
	// guilds within one tick, per spec.md §4.4 step 4.
	interGuildDelay = 2 * time.Second
)

// referenceAssets is the cross-rate conversion set every worker
// resolves from the snapshot, per spec.md §4.4 step 2.
var referenceAssets = []string{"BTC", "ETH", "SOL"}

// longWindowThreshold marks the boundary above which computeChanges
// reads a bucket's avg column instead of its close column, per the
// "avg for long-window averages" rule in spec.md §4.2.
var longWindowThreshold = 24 * time.Hour

// Service runs one asset's presence update loop and command handler.
type Service struct {
	asset          string
	updateInterval time.Duration

	store   port.Store
	cache   port.Cache // may be nil
	reader  *snapshot.Reader
	gateway port.GatewayClient
	tracker *healthsvc.Tracker
	log     *slog.Logger

	rotation int
}

func New(
	asset string,
	updateInterval time.Duration,
	store port.Store,
	cache port.Cache,
	reader *snapshot.Reader,
	gateway port.GatewayClient,
	tracker *healthsvc.Tracker,
	log *slog.Logger,
) *Service {
	return &Service{
		asset:          asset,
		updateInterval: updateInterval,
		store:          store,
		cache:          cache,
		reader:         reader,
		gateway:        gateway,
		tracker:        tracker,
		log:            log,
	}
}

// Start registers the /price command and verifies gateway
// connectivity, per the Starting/Connecting states in spec.md §4.4.
// Any error from registration or the initial Guilds call is returned
// as is: Start makes no retry and does not tell fatal errors apart
// from transient ones, and presence/main.go exits on any error it
// returns.
func (s *Service) Start(ctx context.Context) error {
	if err := s.gateway.RegisterCommand(ctx, "price", "Show an asset's current price", []port.CommandOption{
		{Name: "asset", Description: "Asset symbol (defaults to this worker's own)", Required: false},
	}); err != nil {
		return fmt.Errorf("register command: %w", err)
	}
	s.gateway.OnCommand("price", s.handlePriceCommand)

	if _, err := s.gateway.Guilds(ctx); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

// Run drives the Running/Degraded state machine until ctx is
// canceled: update loop ticks at updateInterval, entering a
// recoveryCooldown sleep after FConsecMax consecutive full-iteration
// failures or GMax consecutive gateway transport failures, per
// spec.md §4.4/§4.5. The two thresholds are independent: a worker can
// be degraded by repeated rate-limit/5xx responses from individual
// gateway calls even on iterations that otherwise complete, and
// vice versa.
func (s *Service) Run(ctx context.Context) {
	for {
		start := time.Now()
		err := s.updateOnce(ctx)

		degraded := false
		if err != nil {
			s.log.Error("presence update failed", "error", err)
			if failures := s.tracker.RecordFailure(); failures >= FConsecMax {
				s.log.Warn("entering degraded state", "reason", "consecutive_failures", "count", failures)
				degraded = true
			}
		}
		if gwFailures := s.tracker.GatewayFailures(); gwFailures >= GMax {
			s.log.Warn("entering degraded state", "reason", "gateway_failures", "count", gwFailures)
			degraded = true
		}

		if degraded {
			if !s.sleepOrDone(ctx, recoveryCooldown) {
				return
			}
			continue
		}

		elapsed := time.Since(start)
		sleep := s.updateInterval - elapsed
		if sleep < 0 {
			sleep = 0
		}
		if !s.sleepOrDone(ctx, sleep) {
			return
		}
	}
}

func (s *Service) sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// updateOnce performs one full update-loop tick, per the numbered
// steps in spec.md §4.4.
func (s *Service) updateOnce(ctx context.Context) error {
	prices, stale := s.resolvePrices(ctx)
	if stale {
		s.log.Warn("snapshot stale, using store data", "asset", s.asset)
	} else {
		s.tracker.RecordPriceUpdate()
	}

	selfPrice, ok := prices[s.asset]
	if !ok {
		return fmt.Errorf("%w: no price available for %s", domain.ErrSnapshotMissing, s.asset)
	}

	changes := s.computeChanges(ctx, s.asset, selfPrice)
	nickname := fmt.Sprintf("%s %s", s.asset, FormatPrice(selfPrice))

	guilds, err := s.gateway.Guilds(ctx)
	if err != nil {
		s.tracker.RecordGatewayFailure()
		return fmt.Errorf("list guilds: %w", err)
	}
	s.tracker.ResetGatewayFailures()

	for i, guildID := range guilds {
		if err := s.gateway.SetNickname(ctx, guildID, nickname); err != nil {
			s.tracker.RecordGatewayFailure()
			s.log.Warn("set nickname failed", "guild", guildID, "error", err)
			continue
		}
		s.tracker.ResetGatewayFailures()
		if i < len(guilds)-1 {
			if !s.sleepOrDone(ctx, interGuildDelay) {
				return ctx.Err()
			}
		}
	}

	panel := s.presencePanel(prices, changes)
	if err := s.gateway.SetPresence(ctx, panel); err != nil {
		s.tracker.RecordGatewayFailure()
		return fmt.Errorf("set presence: %w", err)
	}
	s.tracker.ResetGatewayFailures()
	s.rotation = (s.rotation + 1) % 5

	s.tracker.RecordDiscordUpdate()
	return nil
}

// resolvePrices reads the snapshot for self+reference assets, falling
// back to the cache and then the store's latest tick when the
// snapshot is missing or its timestamp is older than 2*updateInterval
// (spec.md §4.4 step 1). The bound is taken from updateInterval; the
// worker's T_FETCH_SECONDS setting is not passed to the Service and
// plays no part in it.
func (s *Service) resolvePrices(ctx context.Context) (map[string]float64, bool) {
	wanted := append([]string{s.asset}, referenceAssets...)
	prices := make(map[string]float64, len(wanted))

	snap, _, err := s.reader.Read()
	stale := err != nil
	if !stale {
		staleAfter := 2 * s.updateInterval
		if time.Since(time.Unix(snap.Timestamp, 0)) > staleAfter {
			stale = true
		}
	}

	if !stale {
		for _, asset := range wanted {
			if entry, ok := snap.Prices[asset]; ok {
				prices[asset] = entry.Price
			}
		}
		return prices, false
	}

	for _, asset := range wanted {
		if s.cache != nil {
			if price, _, ok, err := s.cache.GetLatest(ctx, asset); err == nil && ok {
				prices[asset] = price
				continue
			}
		}
		tick, ok, err := s.store.LatestTick(ctx, asset)
		if err != nil || !ok {
			continue
		}
		prices[asset] = tick.Price
	}
	return prices, true
}

type changeResult struct {
	available bool
	pct       float64
}

// computeChanges resolves percentage change vs now-{1h,12h,24h,7d} for
// asset, per spec.md §4.4 step 3 and §4.2's tier-selection rule.
func (s *Service) computeChanges(ctx context.Context, asset string, currentPrice float64) map[string]changeResult {
	now := time.Now().Unix()
	results := make(map[string]changeResult, len(utils.ChangeWindows))

	for _, w := range utils.ChangeWindows {
		useAvg := w.Duration > longWindowThreshold
		point, ok, err := s.store.PriceAtOrBefore(ctx, asset, now-int64(w.Duration.Seconds()), now, useAvg)
		if err != nil || !ok {
			results[w.Label] = changeResult{available: false}
			continue
		}
		pct, ok := utils.PercentChange(point.Price, currentPrice)
		results[w.Label] = changeResult{available: ok, pct: pct}
	}
	return results
}

func percentChange(from, to float64) (float64, bool) {
	return utils.PercentChange(from, to)
}

// presencePanel renders one of the 5 rotating status texts, per
// spec.md §4.4 step 5.
func (s *Service) presencePanel(prices map[string]float64, changes map[string]changeResult) string {
	switch s.rotation {
	case 0:
		return changePanel("1h", changes["1h"])
	case 1:
		return crossRatePanel(s.asset, "BTC", prices)
	case 2:
		return crossRatePanel(s.asset, "ETH", prices)
	case 3:
		return crossRatePanel(s.asset, "SOL", prices)
	case 4:
		return changePanel("24h", changes["24h"])
	default:
		return ""
	}
}

func changePanel(label string, c changeResult) string {
	if !c.available {
		return fmt.Sprintf("%s: unavailable", label)
	}
	return fmt.Sprintf("%s: %s", label, FormatPercent(c.pct))
}

func crossRatePanel(asset, quote string, prices map[string]float64) string {
	if asset == quote {
		return ""
	}
	assetPrice, ok1 := prices[asset]
	quotePrice, ok2 := prices[quote]
	if !ok1 || !ok2 || quotePrice == 0 {
		return fmt.Sprintf("1 %s = ? %s", asset, quote)
	}
	return fmt.Sprintf("1 %s = %.4f %s", asset, assetPrice/quotePrice, quote)
}
