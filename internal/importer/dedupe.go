package importer

// dedupe.go detects natural-key collisions, both inside one batch and
// against records already persisted in the store.

import (
	"context"
	"fmt"

	"github.com/capitalmatch/importer/internal/store"
)

// investorKeyField is the persisted column holding the normalized natural
// key used for duplicate detection.
const investorKeyField = "firm_name_key"

// DedupeBatch removes intra-batch duplicates by normalized firm name.
// Candidates are scanned in file order; the first occurrence of a key wins.
// Repeated occurrences are marked IsDuplicate and dropped from the kept set,
// and each colliding key is reported once no matter how many repeats exist.
func DedupeBatch(cands []Candidate) (kept []Candidate, duplicates []string) {
	seen := make(map[string]struct{}, len(cands))
	reported := make(map[string]struct{})

	for _, c := range cands {
		key := c.Key()
		if key == "" {
			kept = append(kept, c)
			continue
		}
		if _, dup := seen[key]; dup {
			c.IsDuplicate = true
			if _, done := reported[key]; !done {
				reported[key] = struct{}{}
				duplicates = append(duplicates, c.FirmName)
			}
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, c)
	}

	return kept, duplicates
}

// CheckExisting queries the store for natural keys that are already
// persisted. Keys are normalized before the lookup; the returned slice
// contains the normalized keys that matched.
func CheckExisting(ctx context.Context, st store.Store, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	normalized := make([]string, 0, len(keys))
	for _, k := range keys {
		if nk := normalizeKey(k); nk != "" {
			normalized = append(normalized, nk)
		}
	}

	recs, err := st.QueryByKeys(ctx, collectionInvestors, investorKeyField, normalized)
	if err != nil {
		return nil, fmt.Errorf("check existing keys: %w", err)
	}

	existing := make([]string, 0, len(recs))
	seen := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		key, _ := rec[investorKeyField].(string)
		if key == "" {
			continue
		}
		if _, done := seen[key]; done {
			continue
		}
		seen[key] = struct{}{}
		existing = append(existing, key)
	}

	return existing, nil
}
