// Package common provides shared utilities for credsync
package common

import "time"

// Freshness TTLs for cached entities
const (
	FreshnessProfile = 5 * time.Minute
	FreshnessReports = 5 * time.Minute
	// Credit scores are invalidated by content hash, not elapsed time;
	// this TTL only bounds how long a score survives without any input check.
	FreshnessScore = 24 * time.Hour
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
