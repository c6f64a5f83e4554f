package importer

// validate.go applies the row-level rule set to mapped candidates.
//
// Validation is purely referential: it never mutates the candidate, and all
// errors for a row are collected rather than short-circuiting, so the
// operator sees every problem in one pass. A row with errors stays visible
// in the preview set but is excluded from persistence.

import (
	"fmt"
	"strings"
	"time"
)

// InvestorTypes is the closed set of accepted investor_type values.
var InvestorTypes = []string{"VC", "Angel", "PE", "Family Office", "Corporate VC", "Accelerator"}

const (
	minActivityScore = 0
	maxActivityScore = 100
	minFoundedYear   = 1900
)

// ValidateCandidate checks one candidate against the rule set and returns
// every rule failure for that row. rowIndex is the 0-based data row index;
// reported row numbers include the header offset. raw carries the original
// cells so unparseable numerics can be flagged; it may be nil when
// candidates arrive pre-mapped (e.g. straight from the API).
func ValidateCandidate(c Candidate, raw RawRow, rowIndex int) []ValidationError {
	row := rowIndex + rowOffset
	var errs []ValidationError

	if strings.TrimSpace(c.FirmName) == "" {
		errs = append(errs, ValidationError{Row: row, Field: "firm_name", Message: "required field is missing"})
	}
	if blank(c.InvestorType) {
		errs = append(errs, ValidationError{Row: row, Field: "investor_type", Message: "required field is missing"})
	}
	if blank(c.HQLocation) {
		errs = append(errs, ValidationError{Row: row, Field: "hq_location", Message: "required field is missing"})
	}

	if c.ActivityScore != nil {
		if *c.ActivityScore < minActivityScore || *c.ActivityScore > maxActivityScore {
			errs = append(errs, ValidationError{
				Row:     row,
				Field:   "activity_score",
				Message: fmt.Sprintf("must be between %d and %d", minActivityScore, maxActivityScore),
				Value:   rawValue(raw, "activity_score"),
			})
		}
	} else if rawValue(raw, "activity_score") != "" {
		errs = append(errs, ValidationError{
			Row:     row,
			Field:   "activity_score",
			Message: "must be a number",
			Value:   rawValue(raw, "activity_score"),
		})
	}

	maxYear := time.Now().Year() + 5
	if c.FoundedYear != nil {
		if *c.FoundedYear < minFoundedYear || *c.FoundedYear > maxYear {
			errs = append(errs, ValidationError{
				Row:     row,
				Field:   "founded_year",
				Message: fmt.Sprintf("must be between %d and %d", minFoundedYear, maxYear),
				Value:   rawValue(raw, "founded_year"),
			})
		}
	} else if rawValue(raw, "founded_year") != "" {
		errs = append(errs, ValidationError{
			Row:     row,
			Field:   "founded_year",
			Message: "must be a year",
			Value:   rawValue(raw, "founded_year"),
		})
	}

	if !blank(c.InvestorType) && !validInvestorType(*c.InvestorType) {
		errs = append(errs, ValidationError{
			Row:     row,
			Field:   "investor_type",
			Message: "must be one of: " + strings.Join(InvestorTypes, ", "),
			Value:   *c.InvestorType,
		})
	}

	return errs
}

func validInvestorType(v string) bool {
	for _, t := range InvestorTypes {
		if strings.EqualFold(t, v) {
			return true
		}
	}
	return false
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func rawValue(raw RawRow, field string) string {
	if raw == nil {
		return ""
	}
	return raw[field]
}
