package importer

// service.go wires the pipeline stages together behind the three entry
// points: preview (decode → map → validate → dedupe, no writes),
// check-duplicates, and the import/delete batch operations in persist.go.

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/capitalmatch/importer/internal/store"
)

// MaxFileSize is the default upload size cap (20MB); configurable via Options.
var MaxFileSize int64 = 20 * 1024 * 1024

// Options configures pipeline behavior.
type Options struct {
	// DedupePolicy controls cross-batch collision handling; default DedupeSkip.
	DedupePolicy DedupePolicy
	// DefaultSource is the provenance tag applied when the upload has no
	// recognized source column; default SourceAdmin.
	DefaultSource Source
	// MaxFileSize caps accepted payloads in bytes; default MaxFileSize.
	MaxFileSize int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Service runs the import pipeline against a record store.
type Service struct {
	store         store.Store
	policy        DedupePolicy
	defaultSource Source
	maxFileSize   int64
	log           *slog.Logger
}

// NewService creates a Service over the given store.
func NewService(st store.Store, opts Options) *Service {
	if opts.DedupePolicy == "" {
		opts.DedupePolicy = DedupeSkip
	}
	if opts.DefaultSource == "" {
		opts.DefaultSource = SourceAdmin
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = MaxFileSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		store:         st,
		policy:        opts.DedupePolicy,
		defaultSource: opts.DefaultSource,
		maxFileSize:   opts.MaxFileSize,
		log:           opts.Logger,
	}
}

// Preview decodes, maps, and validates an uploaded file without touching
// the store. Invalid rows stay in the candidate list; duplicate firm names
// are reported once each.
func (s *Service) Preview(ctx context.Context, fileName, contentType string, data []byte) (*PreviewResult, error) {
	if int64(len(data)) > s.maxFileSize {
		return nil, fmt.Errorf("file exceeds %dMB limit", s.maxFileSize/(1024*1024))
	}

	kind, err := DetectKind(fileName, contentType, data)
	if err != nil {
		return nil, err
	}

	rows, err := Decode(data, kind)
	if err != nil {
		return nil, err
	}

	cands := make([]Candidate, len(rows))
	var allErrs []ValidationError
	for i, row := range rows {
		cands[i] = MapRow(row, s.defaultSource)
		allErrs = append(allErrs, ValidateCandidate(cands[i], row, i)...)
	}

	_, duplicates := DedupeBatch(cands)

	s.log.Info("preview generated",
		"file", fileName,
		"rows", len(rows),
		"validation_errors", len(allErrs),
		"duplicates", len(duplicates),
	)
	return BuildPreview(cands, allErrs, duplicates, len(rows)), nil
}

// CheckDuplicates returns the subset of keys whose natural key already
// exists in persisted data.
func (s *Service) CheckDuplicates(ctx context.Context, keys []string) ([]string, error) {
	existing, err := CheckExisting(ctx, s.store, keys)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = []string{}
	}
	return existing, nil
}
