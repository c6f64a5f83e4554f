// Package importer provides the bulk investor import pipeline: decoding
// uploaded spreadsheets, coercing cells into typed candidates, validating,
// deduplicating, and persisting each record across the investor collections.
// This package has no HTTP dependencies and can be driven by any frontend.
package importer

import (
	"errors"
	"fmt"
)

// FileKind identifies the upload format.
type FileKind int

const (
	KindUnknown FileKind = iota
	KindCSV
	KindXLSX
)

// Sentinel errors for pre-flight failures. These are the only errors that
// abort a whole operation; row-level problems are aggregated instead.
var (
	ErrEmptyFile       = errors.New("file contains no data rows")
	ErrUnsupportedKind = errors.New("unsupported file type (expected .csv or .xlsx)")
	ErrDuplicateKeys   = errors.New("records already exist for the given keys")
)

// DecodeError wraps a decoding failure with a human-readable cause.
type DecodeError struct {
	Cause string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Cause, e.Err)
	}
	return e.Cause
}

func (e *DecodeError) Unwrap() error { return e.Err }

// RawRow maps normalized header names to trimmed cell values. Cells that
// were absent or empty after trimming are omitted, so a missing key reads
// as null.
type RawRow map[string]string

// Source is the provenance tag marking which channel produced a record.
type Source string

const (
	SourceAdmin    Source = "admin"
	SourceSelfReg  Source = "self_registration"
	SourceReferral Source = "referral"
)

// knownSources lists every recognized provenance value.
var knownSources = []Source{SourceAdmin, SourceSelfReg, SourceReferral}

// DedupePolicy selects how cross-batch collisions are handled.
type DedupePolicy string

const (
	// DedupeSkip drops colliding candidates and continues with the rest.
	DedupeSkip DedupePolicy = "skip"
	// DedupeStrict aborts the whole batch before any write if a collision exists.
	DedupeStrict DedupePolicy = "strict"
)

// Candidate is the typed, in-memory form of one incoming investor record
// after field mapping. Pointer and slice fields are nil when the source cell
// was empty or unparseable; the mapper never produces a partially-typed
// candidate.
type Candidate struct {
	ID           string  `json:"id"`
	FirmName     string  `json:"firmName"`
	InvestorType *string `json:"investorType"`
	HQLocation   *string `json:"hqLocation"`
	Website      *string `json:"website"`
	ContactName  *string `json:"contactName"`
	ContactEmail *string `json:"contactEmail"`
	Thesis       *string `json:"thesis"`
	CheckSize    *string `json:"checkSize"`

	ActivityScore *float64 `json:"activityScore"`
	FoundedYear   *int     `json:"foundedYear"`
	AUM           *float64 `json:"aum"`

	Stages    []string `json:"stages"`
	Sectors   []string `json:"sectors"`
	Locations []string `json:"locations"`

	Industries map[string]float64 `json:"industries"`

	Source Source `json:"source"`

	// IsDuplicate marks batch-local collisions; it is never persisted.
	IsDuplicate bool `json:"isDuplicate"`
}

// Key returns the candidate's normalized natural key (lowercased firm name).
func (c Candidate) Key() string {
	return normalizeKey(c.FirmName)
}

// ValidationError describes a single rule failure on one row. Row numbers
// are 1-based and header-inclusive: data row i (0-based) reports as i+2.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   string `json:"value"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// rowOffset converts a 0-based data row index into the reported row number,
// accounting for the header row and 1-based counting.
const rowOffset = 2

// Summary is the caller-facing outcome of an import or delete run.
// The JSON field names are load-bearing: UI and logging both key off them.
type Summary struct {
	Success    bool     `json:"success"`
	SavedCount int      `json:"savedCount"`
	Errors     []string `json:"errors"`
	Message    string   `json:"message"`
}

// ImportResult contains everything importBatch returns to the caller.
type ImportResult struct {
	Saved   []Record `json:"saved"`
	Errors  []string `json:"errors"`
	Summary Summary  `json:"summary"`
}

// DeleteResult reports a bulk delete outcome.
type DeleteResult struct {
	DeletedCount int      `json:"deletedCount"`
	Errors       []string `json:"errors"`
}

// PreviewResult is the outcome of decoding, mapping, and validating a file
// without persisting anything. Rows with validation errors remain in
// Candidates so the operator can correct or remove them.
type PreviewResult struct {
	Candidates []Candidate       `json:"candidates"`
	Errors     []ValidationError `json:"errors"`
	Duplicates []string          `json:"duplicates"`
	TotalRows  int               `json:"totalRows"`
}
