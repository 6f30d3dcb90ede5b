// Healthmap - Wearable Fleet Alert and Telemetry Map Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/healthmap

package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "geocode:"

// BadgerCache keeps geocode results on local disk so a restarted instance
// does not re-query providers for positions it has already resolved.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadgerCache opens or creates the cache in dir. An empty dir opens an
// in-memory store.
func OpenBadgerCache(dir string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open geocode cache: %w", err)
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get returns the cached address. A miss or an expired entry is
// ("", false, nil).
func (c *BadgerCache) Get(_ context.Context, key string) (string, bool, error) {
	var addr string
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(badgerKeyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			addr = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get geocode entry: %w", err)
	}
	return addr, true, nil
}

// Set stores an address with the cache TTL.
func (c *BadgerCache) Set(_ context.Context, key, address string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(badgerKeyPrefix+key), []byte(address))
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}

// Close flushes and closes the store.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
