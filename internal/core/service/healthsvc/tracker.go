// Package healthsvc is a small mutex-guarded liveness tracker shared
// by all three processes, grounded on the teacher's
// internal/core/service/health/service.go (component checks feeding a
// single HealthStatus), adapted from a DB/cache/exchange-service
// component check into the per-process counters spec.md §4.6 defines.
package healthsvc

import (
	"sync"
	"time"

	"priceflow/internal/core/domain"
)

// defaultConsecFailureMax and defaultGatewayFailureMax are F_consec_max
// and G_max from spec.md §4.4/§4.6.
const (
	defaultConsecFailureMax = 5
	defaultGatewayFailureMax = 5
	// discordStaleSeconds is the 300s bound on seconds_since_discord_update
	// in the healthy formula, spec.md §4.6.
	discordStaleSeconds = 300
)

// Tracker accumulates the counters the GET /health contract reports.
// Asset is empty for the Aggregator and Downsampler, which do not run
// per-asset.
type Tracker struct {
	mu sync.Mutex

	asset               string
	lastPriceUpdate     time.Time
	lastDiscordUpdate   time.Time
	consecutiveFailures int
	gatewayFailures     int
	recoveryCount       int
	consecFailureMax    int
	gatewayFailureMax   int
}

// NewTracker builds a tracker for asset (empty for process-wide
// health, i.e. the Aggregator and Downsampler).
func NewTracker(asset string, _ time.Duration) *Tracker {
	now := time.Now()
	return &Tracker{
		asset:             asset,
		lastPriceUpdate:   now,
		lastDiscordUpdate: now,
		consecFailureMax:  defaultConsecFailureMax,
		gatewayFailureMax: defaultGatewayFailureMax,
	}
}

// RecordCycle marks a successful iteration for processes with no
// separate Discord-facing update (the Aggregator and Downsampler),
// advancing both timestamps the healthy formula in spec.md §4.6
// checks.
func (t *Tracker) RecordCycle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	t.lastPriceUpdate = now
	t.lastDiscordUpdate = now
	if t.consecutiveFailures > 0 {
		t.recoveryCount++
	}
	t.consecutiveFailures = 0
}

// RecordPriceUpdate marks a successful price fetch/read, resetting the
// consecutive failure counter.
func (t *Tracker) RecordPriceUpdate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastPriceUpdate = time.Now()
	if t.consecutiveFailures > 0 {
		t.recoveryCount++
	}
	t.consecutiveFailures = 0
}

// RecordDiscordUpdate marks a successful presence/gateway update.
func (t *Tracker) RecordDiscordUpdate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastDiscordUpdate = time.Now()
}

// RecordFailure increments the consecutive failure counter and
// returns the new count, so callers can compare against a recovery
// cool-down threshold.
func (t *Tracker) RecordFailure() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.consecutiveFailures++
	return t.consecutiveFailures
}

// RecordGatewayFailure increments the gateway failure counter,
// tracking presence API calls that returned an error, and
// returns the new count so callers can compare it against G_max.
func (t *Tracker) RecordGatewayFailure() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gatewayFailures++
	return t.gatewayFailures
}

// ResetGatewayFailures clears the gateway failure counter, called
// after any successful gateway RPC breaks a failure streak.
func (t *Tracker) ResetGatewayFailures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gatewayFailures = 0
}

// GatewayFailures reports the current consecutive gateway failure
// count, so a caller can compare it against G_max independently of
// whether the enclosing operation ultimately returned an error.
func (t *Tracker) GatewayFailures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.gatewayFailures
}

// Health implements port.HealthProvider, applying the healthy formula
// from spec.md §4.6: seconds_since_discord_update <= 300 and both
// failure counters are below their max.
func (t *Tracker) Health() domain.HealthStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	sincePrice := int64(now.Sub(t.lastPriceUpdate).Seconds())
	sinceDiscord := int64(now.Sub(t.lastDiscordUpdate).Seconds())

	healthy := sinceDiscord <= discordStaleSeconds &&
		t.consecutiveFailures < t.consecFailureMax &&
		t.gatewayFailures < t.gatewayFailureMax

	return domain.HealthStatus{
		Healthy:                   healthy,
		Asset:                     t.asset,
		SecondsSincePriceUpdate:   sincePrice,
		SecondsSinceDiscordUpdate: sinceDiscord,
		ConsecutiveFailures:       t.consecutiveFailures,
		GatewayFailures:           t.gatewayFailures,
		RecoveryCount:             t.recoveryCount,
	}
}
