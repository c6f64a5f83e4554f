package importer

// persist.go is the persistence orchestrator: it writes each surviving
// candidate to the record store as a primary insert followed by the
// dependent collection inserts, and handles the symmetric bulk delete.
//
// Per-record atomicity is best-effort by design. If the primary insert
// succeeds and a later child insert fails, the rows already written stay in
// the store, the record is reported as failed with the child's error, and
// the batch continues with the next candidate.

import (
	"context"
	"fmt"
	"strings"
)

// Record aliases store.Record for the pipeline's payload types.
type Record = map[string]any

// Collection names. Children reference the primary by investor_id and have
// no independent lifecycle.
const (
	collectionInvestors  = "investors"
	collectionStages     = "investor_stages"
	collectionSectors    = "investor_sectors"
	collectionLocations  = "investor_locations"
	collectionIndustries = "investor_industries"
	collectionMetrics    = "investor_metrics"
	collectionNotes      = "investor_notes"
)

// childCollections is the fixed deletion order: every child is cleared
// before the primary row is touched.
var childCollections = []string{
	collectionStages,
	collectionSectors,
	collectionLocations,
	collectionIndustries,
	collectionMetrics,
	collectionNotes,
}

// ImportBatch validates, deduplicates, and persists a batch of candidates.
// Row-level failures never abort the batch; the result distinguishes full,
// partial, and zero success via the summary.
func (s *Service) ImportBatch(ctx context.Context, cands []Candidate) *ImportResult {
	result := &ImportResult{
		Saved:  []Record{},
		Errors: []string{},
	}

	// Validate. Invalid candidates are excluded from persistence but their
	// errors all surface.
	var savable []Candidate
	for i, c := range cands {
		if errs := ValidateCandidate(c, nil, i); len(errs) > 0 {
			for _, e := range errs {
				result.Errors = append(result.Errors, e.Error())
			}
			continue
		}
		savable = append(savable, c)
	}

	// Intra-batch dedup: first occurrence of a key wins.
	savable, duplicates := DedupeBatch(savable)
	for _, name := range duplicates {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: duplicate in batch (skipped)", name))
	}

	// Cross-batch pre-flight against persisted data.
	keys := make([]string, 0, len(savable))
	for _, c := range savable {
		keys = append(keys, c.FirmName)
	}
	existing, err := CheckExisting(ctx, s.store, keys)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		result.Summary = BuildSummary(0, result.Errors)
		return result
	}

	if len(existing) > 0 {
		if s.policy == DedupeStrict {
			// Strict mode aborts before any write.
			for _, key := range existing {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", key, ErrDuplicateKeys))
			}
			result.Summary = BuildSummary(0, result.Errors)
			return result
		}
		// Lenient mode skips only the colliding candidates.
		existingSet := make(map[string]struct{}, len(existing))
		for _, key := range existing {
			existingSet[key] = struct{}{}
		}
		var novel []Candidate
		for _, c := range savable {
			if _, dup := existingSet[c.Key()]; dup {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: already exists", c.FirmName))
				continue
			}
			novel = append(novel, c)
		}
		savable = novel
	}

	// Persist sequentially: child rows depend on the just-created parent id
	// and error aggregation assumes in-order completion.
	for _, c := range savable {
		rec, err := s.writeCandidate(ctx, c)
		if err != nil {
			s.log.Warn("import record failed", "firm", c.FirmName, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c.FirmName, err))
			continue
		}
		result.Saved = append(result.Saved, rec)
	}

	result.Summary = BuildSummary(len(result.Saved), result.Errors)
	s.log.Info("import batch finished",
		"candidates", len(cands),
		"saved", len(result.Saved),
		"errors", len(result.Errors),
	)
	return result
}

// writeCandidate performs the ordered per-record write sequence: primary
// row first, then each dependent collection. The first failure stops this
// record's sequence and is returned tagged with the failing step.
func (s *Service) writeCandidate(ctx context.Context, c Candidate) (Record, error) {
	primary := buildInvestorRecord(c)
	if _, err := s.store.Insert(ctx, collectionInvestors, primary); err != nil {
		return nil, fmt.Errorf("insert investor: %w", err)
	}

	for _, stage := range c.Stages {
		rec := Record{"investor_id": c.ID, "stage": stage}
		if _, err := s.store.Insert(ctx, collectionStages, rec); err != nil {
			return nil, fmt.Errorf("insert stage: %w", err)
		}
	}
	for _, sector := range c.Sectors {
		rec := Record{"investor_id": c.ID, "sector": sector}
		if _, err := s.store.Insert(ctx, collectionSectors, rec); err != nil {
			return nil, fmt.Errorf("insert sector: %w", err)
		}
	}
	for _, location := range c.Locations {
		rec := Record{"investor_id": c.ID, "location": location}
		if _, err := s.store.Insert(ctx, collectionLocations, rec); err != nil {
			return nil, fmt.Errorf("insert location: %w", err)
		}
	}
	for industry, pct := range c.Industries {
		rec := Record{"investor_id": c.ID, "industry": industry, "percentage": pct}
		if _, err := s.store.Insert(ctx, collectionIndustries, rec); err != nil {
			return nil, fmt.Errorf("insert industry: %w", err)
		}
	}

	metrics := Record{
		"investor_id":    c.ID,
		"activity_score": floatVal(c.ActivityScore),
		"aum":            floatVal(c.AUM),
		"founded_year":   intVal(c.FoundedYear),
	}
	if _, err := s.store.Insert(ctx, collectionMetrics, metrics); err != nil {
		return nil, fmt.Errorf("insert metrics: %w", err)
	}

	if notes := buildNotes(c); notes != "" {
		rec := Record{"investor_id": c.ID, "body": notes}
		if _, err := s.store.Insert(ctx, collectionNotes, rec); err != nil {
			return nil, fmt.Errorf("insert notes: %w", err)
		}
	}

	return primary, nil
}

// DeleteBatch removes investors and their dependent rows. For each id the
// child collections are cleared in fixed order before the primary delete;
// a failed step is recorded and the remaining steps and ids still proceed.
func (s *Service) DeleteBatch(ctx context.Context, ids []string) *DeleteResult {
	result := &DeleteResult{Errors: []string{}}

	for _, id := range ids {
		failed := false
		for _, collection := range childCollections {
			if err := s.store.Delete(ctx, collection, "investor_id", id); err != nil {
				s.log.Warn("delete child rows failed", "collection", collection, "investor_id", id, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("%s: delete %s: %v", id, collection, err))
				failed = true
			}
		}
		if err := s.store.Delete(ctx, collectionInvestors, "id", id); err != nil {
			s.log.Warn("delete investor failed", "investor_id", id, "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("%s: delete investor: %v", id, err))
			failed = true
		}
		if !failed {
			result.DeletedCount++
		}
	}

	s.log.Info("delete batch finished",
		"requested", len(ids),
		"deleted", result.DeletedCount,
		"errors", len(result.Errors),
	)
	return result
}

// buildInvestorRecord flattens a candidate into the primary collection row.
func buildInvestorRecord(c Candidate) Record {
	return Record{
		"id":             c.ID,
		"firm_name":      c.FirmName,
		investorKeyField: c.Key(),
		"investor_type":  strVal(c.InvestorType),
		"hq_location":    strVal(c.HQLocation),
		"website":        strVal(c.Website),
		"contact_name":   strVal(c.ContactName),
		"contact_email":  strVal(c.ContactEmail),
		"source":         string(c.Source),
	}
}

// buildNotes synthesizes a human-readable notes blob from the candidate's
// optional free-text attributes, in priority order. Returns "" when nothing
// is present so no notes row gets written.
func buildNotes(c Candidate) string {
	var parts []string
	if !blank(c.Thesis) {
		parts = append(parts, "Thesis: "+*c.Thesis)
	}
	if !blank(c.CheckSize) {
		parts = append(parts, "Check size: "+*c.CheckSize)
	}
	switch {
	case !blank(c.ContactName) && !blank(c.ContactEmail):
		parts = append(parts, fmt.Sprintf("Contact: %s <%s>", *c.ContactName, *c.ContactEmail))
	case !blank(c.ContactName):
		parts = append(parts, "Contact: "+*c.ContactName)
	case !blank(c.ContactEmail):
		parts = append(parts, "Contact: "+*c.ContactEmail)
	}
	return strings.Join(parts, "\n")
}

func strVal(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func floatVal(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func intVal(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
