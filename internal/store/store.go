// Package store provides the record store abstraction the import pipeline
// writes through. Records live in named collections; the pipeline never
// issues SQL directly, so it can run against Postgres in production and the
// in-memory store in tests.
package store

import "context"

// Record is a single row in a collection, keyed by column name.
type Record map[string]any

// Store is the repository interface the import pipeline requires.
//
// Every call returns a definitive success or failure; partial or streaming
// responses are not modeled.
type Store interface {
	// Insert adds a record to a collection and returns the stored record.
	Insert(ctx context.Context, collection string, rec Record) (Record, error)

	// QueryByKeys returns all records whose field value matches any of keys.
	QueryByKeys(ctx context.Context, collection, field string, keys []string) ([]Record, error)

	// Delete removes all records whose matchField equals matchValue.
	Delete(ctx context.Context, collection, matchField string, matchValue any) error
}
