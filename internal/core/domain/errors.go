package domain

import "errors"

// Sentinel error kinds, matching the taxonomy in spec.md §7. Callers
// wrap these with fmt.Errorf("...: %w", ErrUpstreamTransient) so that
// errors.Is still classifies the failure after context is attached.
var (
	ErrUpstreamTransient = errors.New("upstream transient failure")
	ErrUpstreamParse     = errors.New("upstream entry parse failure")
	ErrStoreBusy         = errors.New("store busy")
	ErrStoreFatal        = errors.New("store fatal error")
	ErrSnapshotMissing   = errors.New("snapshot missing or stale")
	ErrPresenceRateLimit = errors.New("presence api rate limited")
	ErrPresenceGateway   = errors.New("presence api gateway failure")
	ErrPresenceFatal     = errors.New("presence api fatal error")
)
