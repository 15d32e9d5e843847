package interfaces

import (
	"context"
	"time"
)

// Durable cache keys owned by this layer. One value per key.
const (
	CacheKeyProfile   = "financialProfile"
	CacheKeyLoans     = "loans"
	CacheKeyScore     = "creditScore"
	CacheKeyScoreHash = "creditScoreDataHash"
	CacheKeyUser      = "userInfo"
	CacheKeyReports   = "creditReports"
	CacheKeyMetrics   = "dashboardMetrics"
	CacheKeyToken     = "token"
	CacheKeyLastSync  = "lastSyncTimestamp"
)

// CacheStore is the durable local key-value store backing the in-memory
// cache across process restarts. Values are JSON-encoded by callers.
type CacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error

	// Freshness timestamps, one per entity key. A zero time means never written.
	GetTimestamp(ctx context.Context, key string) (time.Time, error)
	SetTimestamp(ctx context.Context, key string, ts time.Time) error

	Close() error
}

// StorageManager coordinates storage backends.
type StorageManager interface {
	CacheStore() CacheStore
	Close() error
}
