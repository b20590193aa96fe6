// Package buntdb implements ports.SlotStore on BuntDB
// (https://github.com/tidwall/buntdb).
package buntdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/buntdb"

	"github.com/bft-labs/accountstore/internal/domain"
)

// DatabaseFile is the file name used inside the data directory.
const DatabaseFile = "accountstore.db"

// InMemory opens a database that is never written to disk.
const InMemory = ":memory:"

const keyPrefix = "slot:"

// SlotStore keeps every slot as a single BuntDB key.
type SlotStore struct {
	db *buntdb.DB
}

// Open opens or creates the database at path. Use InMemory for a
// throwaway store.
func Open(path string) (*SlotStore, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", domain.ErrStorageUnavailable, path, err)
	}
	return &SlotStore{db: db}, nil
}

// Close closes the database.
func (s *SlotStore) Close() error {
	return s.db.Close()
}

// Get returns the slot value, or nil if the slot does not exist.
func (s *SlotStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(keyPrefix + key)
		if err != nil {
			return err
		}
		value = []byte(v)
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: problem reading %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return value, nil
}

// Set replaces the slot value.
func (s *SlotStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(keyPrefix+key, string(value), nil)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: problem updating %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Delete removes the slot. A missing slot is not an error.
func (s *SlotStore) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(keyPrefix + key)
		return err
	})
	if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
		return fmt.Errorf("%w: problem deleting %s: %v", domain.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Keys lists the slots currently stored.
func (s *SlotStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys(keyPrefix+"*", func(k, _ string) bool {
			keys = append(keys, strings.TrimPrefix(k, keyPrefix))
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return keys, nil
}
