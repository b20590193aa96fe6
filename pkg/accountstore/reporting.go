package accountstore

import (
	"context"

	"github.com/bft-labs/accountstore/internal/ports"
)

// reportingStore forwards synchronous write and delete failures to the
// event handlers.
type reportingStore struct {
	inner  ports.SlotStore
	report func(key string, err error)
}

func (s *reportingStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.inner.Get(ctx, key)
}

func (s *reportingStore) Set(ctx context.Context, key string, value []byte) error {
	err := s.inner.Set(ctx, key, value)
	if err != nil {
		s.report(key, err)
	}
	return err
}

func (s *reportingStore) Delete(ctx context.Context, key string) error {
	err := s.inner.Delete(ctx, key)
	if err != nil {
		s.report(key, err)
	}
	return err
}

func (s *reportingStore) Close() error {
	return s.inner.Close()
}
