// Package cache persists the transfer count used as a UI refresh trigger.
package cache

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

// CountKey is the fixed name the count is stored under.
const CountKey = "transactionCount"

type CountCache struct {
	db     *badger.DB
	logger zerolog.Logger
}

func NewCountCache(db *badger.DB, logger zerolog.Logger) *CountCache {
	return &CountCache{db: db, logger: logger}
}

// Open opens a badger store at dir, or an in-memory one when dir is empty.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return db, nil
}

// Load returns the cached count and whether it was set.
func (c *CountCache) Load() (int64, bool, error) {
	var count int64
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(CountKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			n, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil {
				return fmt.Errorf("decode %s: %w", CountKey, err)
			}
			count = n
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, false, nil
	}
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to load transfer count")
		return 0, false, err
	}
	return count, true, nil
}

func (c *CountCache) Store(count int64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(CountKey), []byte(strconv.FormatInt(count, 10)))
	})
	if err != nil {
		c.logger.Error().Err(err).Int64("count", count).Msg("Failed to store transfer count")
		return err
	}
	c.logger.Debug().Int64("count", count).Msg("Transfer count cached")
	return nil
}
