package store

// memstore.go provides an in-memory Store used by tests and local
// development. Collections are plain slices guarded by a mutex; records are
// shallow-copied on the way in and out so callers cannot mutate stored state.

import (
	"context"
	"sync"
)

// MemStore is an in-memory implementation of Store.
type MemStore struct {
	mu          sync.RWMutex
	collections map[string][]Record
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		collections: make(map[string][]Record),
	}
}

// Insert appends a copy of the record to the named collection.
func (s *MemStore) Insert(_ context.Context, collection string, rec Record) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[collection] = append(s.collections[collection], cloneRecord(rec))
	return rec, nil
}

// QueryByKeys returns copies of records whose field matches any key.
func (s *MemStore) QueryByKeys(_ context.Context, collection, field string, keys []string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keySet := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		keySet[k] = struct{}{}
	}

	var result []Record
	for _, rec := range s.collections[collection] {
		v, ok := rec[field].(string)
		if !ok {
			continue
		}
		if _, match := keySet[v]; match {
			result = append(result, cloneRecord(rec))
		}
	}
	return result, nil
}

// Delete removes all records whose matchField equals matchValue.
func (s *MemStore) Delete(_ context.Context, collection, matchField string, matchValue any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.collections[collection]
	kept := recs[:0]
	for _, rec := range recs {
		if rec[matchField] != matchValue {
			kept = append(kept, rec)
		}
	}
	s.collections[collection] = kept
	return nil
}

// Count returns the number of records in a collection.
func (s *MemStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

// All returns copies of every record in a collection, in insertion order.
func (s *MemStore) All(collection string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.collections[collection]
	result := make([]Record, len(recs))
	for i, rec := range recs {
		result[i] = cloneRecord(rec)
	}
	return result
}

func cloneRecord(rec Record) Record {
	c := make(Record, len(rec))
	for k, v := range rec {
		c[k] = v
	}
	return c
}
