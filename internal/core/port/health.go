package port

import "priceflow/internal/core/domain"

// HealthProvider reports a process's current liveness snapshot, per
// the shared GET /health contract in spec.md §4.6. Each of the three
// processes implements this over its own liveness tracker.
type HealthProvider interface {
	Health() domain.HealthStatus
}
