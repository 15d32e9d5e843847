package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// CacheEntry is one durable cache value, keyed by logical entity name.
type CacheEntry struct {
	Key       string `badgerhold:"key"`
	Value     string
	UpdatedAt time.Time
}

type cacheStorage struct {
	store  *Store
	logger *common.Logger
}

// NewCacheStorage creates a CacheStore backed by BadgerHold.
func NewCacheStorage(store *Store, logger *common.Logger) interfaces.CacheStore {
	return &cacheStorage{store: store, logger: logger}
}

func (s *cacheStorage) Get(_ context.Context, key string) (string, error) {
	var entry CacheEntry
	err := s.store.db.Get(key, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return "", fmt.Errorf("key '%s' not found", key)
		}
		return "", fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	return entry.Value, nil
}

func (s *cacheStorage) Set(_ context.Context, key, value string) error {
	entry := CacheEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	if err := s.store.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set key '%s': %w", key, err)
	}
	return nil
}

func (s *cacheStorage) Delete(_ context.Context, key string) error {
	err := s.store.db.Delete(key, CacheEntry{})
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete key '%s': %w", key, err)
	}
	return nil
}

func (s *cacheStorage) GetTimestamp(_ context.Context, key string) (time.Time, error) {
	var entry CacheEntry
	err := s.store.db.Get(key, &entry)
	if err != nil {
		if err == badgerhold.ErrNotFound {
			return time.Time{}, nil
		}
		return time.Time{}, fmt.Errorf("failed to get timestamp for '%s': %w", key, err)
	}
	return entry.UpdatedAt, nil
}

func (s *cacheStorage) SetTimestamp(_ context.Context, key string, ts time.Time) error {
	var entry CacheEntry
	err := s.store.db.Get(key, &entry)
	if err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to get key '%s': %w", key, err)
	}
	entry.Key = key
	entry.UpdatedAt = ts
	if err := s.store.db.Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to set timestamp for '%s': %w", key, err)
	}
	return nil
}

func (s *cacheStorage) Close() error {
	return s.store.Close()
}
