package store

// pg.go implements Store on top of PostgreSQL via pgx.
//
// SQL is built dynamically from record keys with quoted identifiers and
// positional parameters. Collection and column names come from the fixed
// schema in the importer package, never from user input, but identifiers are
// quoted anyway so a hostile header cannot break out of its position.

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgx operations the store needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

// PGStore is the PostgreSQL-backed record store.
type PGStore struct {
	db DBTX
}

// NewPGStore creates a store over a pgx pool or transaction.
func NewPGStore(db DBTX) *PGStore {
	return &PGStore{db: db}
}

// Insert adds a record to a collection and returns it unchanged.
func (s *PGStore) Insert(ctx context.Context, collection string, rec Record) (Record, error) {
	if len(rec) == 0 {
		return nil, fmt.Errorf("insert into %s: empty record", collection)
	}

	// Deterministic column order so generated SQL is stable across calls.
	cols := make([]string, 0, len(rec))
	for col := range rec {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = quoteIdentifier(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = rec[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		quoteIdentifier(collection),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	return rec, nil
}

// QueryByKeys returns records whose field matches any of the given keys.
// Only the matched field is selected; callers use the result for existence
// checks, not for full record hydration.
func (s *PGStore) QueryByKeys(ctx context.Context, collection, field string, keys []string) ([]Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = ANY($1)",
		quoteIdentifier(field),
		quoteIdentifier(collection),
		quoteIdentifier(field),
	)

	rows, err := s.db.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, fmt.Errorf("scan %s: %w", field, err)
		}
		result = append(result, Record{field: value})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return result, nil
}

// Delete removes all records whose matchField equals matchValue.
func (s *PGStore) Delete(ctx context.Context, collection, matchField string, matchValue any) error {
	query := fmt.Sprintf(
		"DELETE FROM %s WHERE %s = $1",
		quoteIdentifier(collection),
		quoteIdentifier(matchField),
	)

	if _, err := s.db.Exec(ctx, query, matchValue); err != nil {
		return fmt.Errorf("delete from %s: %w", collection, err)
	}
	return nil
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
