package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bft-labs/accountstore/internal/domain"
	"github.com/bft-labs/accountstore/internal/ports"
)

// slotList is a JSON-encoded list persisted to a single slot.
type slotList[T any] struct {
	mu     sync.RWMutex
	key    string
	slots  ports.SlotStore
	logger ports.Logger
	items  []T
}

func (s *slotList[T]) load(ctx context.Context) error {
	b, err := s.slots.Get(ctx, s.key)
	if err != nil {
		return fmt.Errorf("load %s: %w", s.key, err)
	}

	var items []T
	if len(b) > 0 {
		if err := json.Unmarshal(b, &items); err != nil {
			s.logger.Warn("discarding unreadable slot",
				ports.String("key", s.key),
				ports.Err(err),
			)
			return fmt.Errorf("load %s: %w: %v", s.key, domain.ErrCorruptRecord, err)
		}
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()
	return nil
}

func (s *slotList[T]) save(ctx context.Context) error {
	items := s.list()
	b, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s: %w", s.key, err)
	}
	if err := s.slots.Set(ctx, s.key, b); err != nil {
		s.logger.Error("failed to persist slot", ports.String("key", s.key), ports.Err(err))
		return fmt.Errorf("persist %s: %w", s.key, err)
	}
	return nil
}

func (s *slotList[T]) append(item T) {
	s.mu.Lock()
	s.items = append(s.items, item)
	s.mu.Unlock()
}

// removeFunc drops the first item matching fn and reports whether one was found.
func (s *slotList[T]) removeFunc(fn func(T) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, it := range s.items {
		if fn(it) {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

func (s *slotList[T]) list() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]T(nil), s.items...)
}

func (s *slotList[T]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *slotList[T]) reset() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()
}
