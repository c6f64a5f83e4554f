package importer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/capitalmatch/importer/internal/store"
)

func TestPreview(t *testing.T) {
	csv := "Firm Name,Investor Type,HQ Location,Activity Score\n" +
		"Acme Capital,VC,New York,72\n" +
		"Acme Capital,VC,New York,72\n" +
		"Broken Partners,Hedge Fund,London,high\n"

	svc := NewService(store.NewMemStore(), Options{})
	preview, err := svc.Preview(context.Background(), "investors.csv", "text/csv", []byte(csv))
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	// Invalid and duplicate rows stay visible in the candidate list.
	if preview.TotalRows != 3 || len(preview.Candidates) != 3 {
		t.Errorf("TotalRows = %d, candidates = %d, want 3 and 3", preview.TotalRows, len(preview.Candidates))
	}
	if len(preview.Duplicates) != 1 || preview.Duplicates[0] != "Acme Capital" {
		t.Errorf("Duplicates = %v", preview.Duplicates)
	}

	// Row 3 has a bad type and a junk score: both errors, reported as row 4.
	if len(preview.Errors) != 2 {
		t.Fatalf("Errors = %v, want 2", preview.Errors)
	}
	for _, e := range preview.Errors {
		if e.Row != 4 {
			t.Errorf("error row = %d, want 4", e.Row)
		}
	}
}

func TestPreview_FileTooLarge(t *testing.T) {
	svc := NewService(store.NewMemStore(), Options{MaxFileSize: 10})
	_, err := svc.Preview(context.Background(), "investors.csv", "text/csv", bytes.Repeat([]byte("a"), 11))
	if err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestPreview_EmptyFile(t *testing.T) {
	svc := NewService(store.NewMemStore(), Options{})
	_, err := svc.Preview(context.Background(), "investors.csv", "text/csv", []byte("firm_name\n"))
	if !errors.Is(err, ErrEmptyFile) {
		t.Errorf("err = %v, want ErrEmptyFile", err)
	}
}

func TestCheckDuplicates_NeverNil(t *testing.T) {
	svc := NewService(store.NewMemStore(), Options{})
	got, err := svc.CheckDuplicates(context.Background(), []string{"Acme Capital"})
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}
	if got == nil {
		t.Error("result must be an empty slice, not nil")
	}
}
