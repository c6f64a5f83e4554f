package importer

// report.go aggregates pipeline outcomes into the caller-facing summary.
// Pure functions only: no I/O, no side effects.

import "fmt"

// BuildSummary folds save and error counts into a Summary.
//
// The operation reports failure only when nothing was saved and at least one
// error exists. Partial success is a first-class result: saved > 0 with a
// non-empty error list is still Success=true, with the message calling out
// the failures. Silent partial failure is disallowed by design.
func BuildSummary(saved int, errs []string) Summary {
	s := Summary{
		SavedCount: saved,
		Errors:     errs,
		Success:    saved > 0 || len(errs) == 0,
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}

	switch {
	case len(errs) == 0:
		s.Message = fmt.Sprintf("imported %d record(s)", saved)
	case saved > 0:
		s.Message = fmt.Sprintf("imported %d record(s), %d failed", saved, len(errs))
	default:
		s.Message = fmt.Sprintf("import failed: %d error(s)", len(errs))
	}
	return s
}

// BuildPreview assembles the preview report shown to the operator before
// anything is persisted: every mapped candidate (including invalid rows, so
// they can be corrected or removed), the full validation error list, and
// the intra-batch duplicate names.
func BuildPreview(cands []Candidate, errs []ValidationError, duplicates []string, totalRows int) *PreviewResult {
	p := &PreviewResult{
		Candidates: cands,
		Errors:     errs,
		Duplicates: duplicates,
		TotalRows:  totalRows,
	}
	if p.Candidates == nil {
		p.Candidates = []Candidate{}
	}
	if p.Errors == nil {
		p.Errors = []ValidationError{}
	}
	if p.Duplicates == nil {
		p.Duplicates = []string{}
	}
	return p
}
