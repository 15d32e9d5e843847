// Package storage coordinates the durable cache backends.
package storage

import (
	"fmt"

	"github.com/bobmcallan/credsync/internal/common"
	"github.com/bobmcallan/credsync/internal/interfaces"
	"github.com/bobmcallan/credsync/internal/storage/badger"
)

type manager struct {
	store *badger.Store
	cache interfaces.CacheStore
}

// NewStorageManager opens the durable cache at the configured path.
func NewStorageManager(logger *common.Logger, config *common.Config) (interfaces.StorageManager, error) {
	store, err := badger.NewStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache store: %w", err)
	}

	return &manager{
		store: store,
		cache: badger.NewCacheStorage(store, logger),
	}, nil
}

func (m *manager) CacheStore() interfaces.CacheStore {
	return m.cache
}

func (m *manager) Close() error {
	return m.store.Close()
}
