package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/capitalmatch/importer/internal/store"
)

// failingStore wraps a real store and fails operations on one collection.
type failingStore struct {
	store.Store
	failInsert string
	failDelete string
}

func (f *failingStore) Insert(ctx context.Context, collection string, rec store.Record) (store.Record, error) {
	if collection == f.failInsert {
		return nil, errors.New("connection reset")
	}
	return f.Store.Insert(ctx, collection, rec)
}

func (f *failingStore) Delete(ctx context.Context, collection, matchField string, matchValue any) error {
	if collection == f.failDelete {
		return errors.New("connection reset")
	}
	return f.Store.Delete(ctx, collection, matchField, matchValue)
}

func fullCandidate(id, firm string) Candidate {
	c := validCandidate(firm)
	c.ID = id
	c.Thesis = strPtr("B2B SaaS at seed")
	c.ActivityScore = floatPtr(72)
	c.Stages = []string{"Seed", "Series A"}
	c.Sectors = []string{"fintech"}
	c.Industries = map[string]float64{"fintech": 100}
	return c
}

func TestImportBatch_AllValid(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{})

	result := svc.ImportBatch(ctx, []Candidate{
		fullCandidate("id-1", "Acme Capital"),
		fullCandidate("id-2", "Beta Ventures"),
	})

	if len(result.Saved) != 2 || len(result.Errors) != 0 {
		t.Fatalf("saved %d errors %v", len(result.Saved), result.Errors)
	}
	if !result.Summary.Success || result.Summary.SavedCount != 2 {
		t.Errorf("summary = %+v", result.Summary)
	}
	if result.Summary.Message != "imported 2 record(s)" {
		t.Errorf("message = %q", result.Summary.Message)
	}

	if mem.Count("investors") != 2 {
		t.Errorf("investors = %d, want 2", mem.Count("investors"))
	}
	if mem.Count("investor_stages") != 4 {
		t.Errorf("stages = %d, want 4", mem.Count("investor_stages"))
	}
	if mem.Count("investor_metrics") != 2 {
		t.Errorf("metrics = %d, want 2", mem.Count("investor_metrics"))
	}
	if mem.Count("investor_notes") != 2 {
		t.Errorf("notes = %d, want 2", mem.Count("investor_notes"))
	}

	primary := mem.All("investors")[0]
	if primary["firm_name_key"] != "acme capital" {
		t.Errorf("firm_name_key = %v", primary["firm_name_key"])
	}
	if primary["source"] != "admin" {
		t.Errorf("source = %v", primary["source"])
	}
}

func TestImportBatch_InvalidRowsExcluded(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{})

	result := svc.ImportBatch(ctx, []Candidate{
		fullCandidate("id-1", "Acme Capital"),
		{ID: "id-2", FirmName: "No Type Partners"}, // missing required fields
	})

	if len(result.Saved) != 1 {
		t.Fatalf("saved %d, want 1", len(result.Saved))
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want 2 validation failures", result.Errors)
	}
	if !result.Summary.Success {
		t.Error("partial success should still report Success=true")
	}
	if mem.Count("investors") != 1 {
		t.Errorf("investors = %d, want 1", mem.Count("investors"))
	}
}

func TestImportBatch_DependentWriteFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(&failingStore{Store: mem, failInsert: "investor_sectors"}, Options{})

	noSectors := fullCandidate("id-1", "Acme Capital")
	noSectors.Sectors = nil

	result := svc.ImportBatch(ctx, []Candidate{
		noSectors,
		fullCandidate("id-2", "Beta Ventures"),
	})

	if len(result.Saved) != 1 {
		t.Fatalf("saved %d, want 1", len(result.Saved))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("errors = %v, want 1", result.Errors)
	}
	if !strings.Contains(result.Errors[0], "Beta Ventures") {
		t.Errorf("error should name the failed record: %q", result.Errors[0])
	}
	if !strings.Contains(result.Errors[0], "insert sector") {
		t.Errorf("error should name the failing step: %q", result.Errors[0])
	}
	if !result.Summary.Success || result.Summary.SavedCount != 1 {
		t.Errorf("summary = %+v", result.Summary)
	}

	// Best-effort: the failed record's primary row already landed and stays.
	if mem.Count("investors") != 2 {
		t.Errorf("investors = %d, want 2", mem.Count("investors"))
	}
}

func TestImportBatch_IntraBatchDuplicates(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{})

	result := svc.ImportBatch(ctx, []Candidate{
		fullCandidate("id-1", "Acme Capital"),
		fullCandidate("id-2", "ACME CAPITAL"),
	})

	if len(result.Saved) != 1 {
		t.Fatalf("saved %d, want 1", len(result.Saved))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "duplicate in batch") {
		t.Errorf("errors = %v", result.Errors)
	}
	if mem.Count("investors") != 1 {
		t.Errorf("investors = %d, want 1", mem.Count("investors"))
	}
}

func TestImportBatch_SkipPolicy(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{DedupePolicy: DedupeSkip})

	first := svc.ImportBatch(ctx, []Candidate{fullCandidate("id-1", "Acme Capital")})
	if first.Summary.SavedCount != 1 {
		t.Fatalf("seed import failed: %+v", first.Summary)
	}

	result := svc.ImportBatch(ctx, []Candidate{
		fullCandidate("id-2", "Acme Capital"),
		fullCandidate("id-3", "Beta Ventures"),
	})

	if len(result.Saved) != 1 {
		t.Fatalf("saved %d, want 1", len(result.Saved))
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "already exists") {
		t.Errorf("errors = %v", result.Errors)
	}
	if mem.Count("investors") != 2 {
		t.Errorf("investors = %d, want 2", mem.Count("investors"))
	}
}

func TestImportBatch_StrictPolicy(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{DedupePolicy: DedupeStrict})

	first := svc.ImportBatch(ctx, []Candidate{fullCandidate("id-1", "Acme Capital")})
	if first.Summary.SavedCount != 1 {
		t.Fatalf("seed import failed: %+v", first.Summary)
	}

	// One collision aborts the whole batch before any write.
	result := svc.ImportBatch(ctx, []Candidate{
		fullCandidate("id-2", "Acme Capital"),
		fullCandidate("id-3", "Beta Ventures"),
	})

	if len(result.Saved) != 0 {
		t.Fatalf("saved %d, want 0", len(result.Saved))
	}
	if result.Summary.Success {
		t.Error("aborted batch should report Success=false")
	}
	if mem.Count("investors") != 1 {
		t.Errorf("investors = %d, want 1 (nothing written)", mem.Count("investors"))
	}
}

func TestDeleteBatch(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{})

	svc.ImportBatch(ctx, []Candidate{
		fullCandidate("id-1", "Acme Capital"),
		fullCandidate("id-2", "Beta Ventures"),
	})

	result := svc.DeleteBatch(ctx, []string{"id-1"})
	if result.DeletedCount != 1 || len(result.Errors) != 0 {
		t.Fatalf("result = %+v", result)
	}

	if mem.Count("investors") != 1 {
		t.Errorf("investors = %d, want 1", mem.Count("investors"))
	}
	for _, collection := range []string{"investor_stages", "investor_sectors", "investor_metrics", "investor_notes"} {
		for _, rec := range mem.All(collection) {
			if rec["investor_id"] == "id-1" {
				t.Errorf("%s still holds rows for deleted investor", collection)
			}
		}
	}
}

func TestDeleteBatch_ChildFailureContinues(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemStore()
	svc := NewService(mem, Options{})
	svc.ImportBatch(ctx, []Candidate{fullCandidate("id-1", "Acme Capital")})

	failing := NewService(&failingStore{Store: mem, failDelete: "investor_sectors"}, Options{})
	result := failing.DeleteBatch(ctx, []string{"id-1"})

	if result.DeletedCount != 0 {
		t.Errorf("DeletedCount = %d, want 0 (id not fully cleaned)", result.DeletedCount)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "investor_sectors") {
		t.Errorf("errors = %v", result.Errors)
	}

	// The failing child is recorded but the rest of the sequence still runs.
	if mem.Count("investors") != 0 {
		t.Errorf("primary row should still be deleted, investors = %d", mem.Count("investors"))
	}
	if mem.Count("investor_stages") != 0 {
		t.Errorf("other children should still be deleted, stages = %d", mem.Count("investor_stages"))
	}
}

func TestBuildNotes(t *testing.T) {
	c := Candidate{
		Thesis:       strPtr("B2B SaaS at seed"),
		CheckSize:    strPtr("$250k-$1M"),
		ContactName:  strPtr("Jane Roe"),
		ContactEmail: strPtr("jane@acme.vc"),
	}
	want := "Thesis: B2B SaaS at seed\nCheck size: $250k-$1M\nContact: Jane Roe <jane@acme.vc>"
	if got := buildNotes(c); got != want {
		t.Errorf("buildNotes = %q, want %q", got, want)
	}

	if got := buildNotes(Candidate{}); got != "" {
		t.Errorf("empty candidate should yield no notes, got %q", got)
	}

	nameOnly := Candidate{ContactName: strPtr("Jane Roe")}
	if got := buildNotes(nameOnly); got != "Contact: Jane Roe" {
		t.Errorf("buildNotes = %q", got)
	}
}
