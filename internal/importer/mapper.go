package importer

// mapper.go converts RawRows into typed Candidates.
//
// These functions handle the messy reality of operator-supplied spreadsheet
// data: currency symbols and thousands separators in numbers, Python-style
// list literals with single quotes, JSON-ish objects, stray quoting. Every
// coercion degrades to nil on bad input instead of returning an error; the
// validator decides later whether a nil field is a problem.

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// numericRegex validates a numeric string after currency cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// MapRow builds one Candidate from a decoded row. It never fails:
// unparseable values become nil and the candidate is always fully coerced,
// so mapping the same row twice yields identical results.
func MapRow(row RawRow, defaultSource Source) Candidate {
	return Candidate{
		ID:           uuid.New().String(),
		FirmName:     strings.TrimSpace(row["firm_name"]),
		InvestorType: toScalar(row["investor_type"]),
		HQLocation:   toScalar(row["hq_location"]),
		Website:      toScalar(row["website"]),
		ContactName:  toScalar(row["contact_name"]),
		ContactEmail: toScalar(row["contact_email"]),
		Thesis:       toScalar(row["thesis"]),
		CheckSize:    toScalar(row["check_size"]),

		ActivityScore: toNumber(row["activity_score"]),
		FoundedYear:   toInt(row["founded_year"]),
		AUM:           toNumber(row["aum"]),

		Stages:    toList(row["stages"]),
		Sectors:   toList(row["sectors"]),
		Locations: toList(row["locations"]),

		Industries: toPercentMap(row["industries"]),

		Source: ParseSource(row["source"], defaultSource),
	}
}

// toScalar trims the cell and strips surrounding quotes.
// Empty input yields nil.
func toScalar(s string) *string {
	s = stripQuotes(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// toNumber coerces a cell to a float. Currency symbols, thousands
// separators, and accounting-style parentheses are tolerated; anything else
// non-numeric yields nil, never zero.
func toNumber(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "", "%", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}

// toInt coerces a cell to an integer, accepting float notation that happens
// to be whole ("2015.0").
func toInt(s string) *int {
	n := toNumber(s)
	if n == nil {
		return nil
	}
	i := int(*n)
	if float64(i) != *n {
		return nil
	}
	return &i
}

// toList parses a cell into an ordered list of strings. Bracketed literals
// (['a', 'b'] or ["a", "b"]) are parsed structurally; anything else splits
// on commas. Elements are trimmed, unquoted, and empties dropped; an
// all-empty result collapses to nil, never an empty list.
func toList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var elements []string
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		var parsed []string
		if err := json.Unmarshal([]byte(normalizeQuotes(s)), &parsed); err == nil {
			elements = parsed
		} else {
			// Malformed literal: fall back to splitting the inner text.
			elements = strings.Split(s[1:len(s)-1], ",")
		}
	} else {
		elements = strings.Split(s, ",")
	}

	var out []string
	for _, e := range elements {
		e = stripQuotes(strings.TrimSpace(e))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// toPercentMap parses a JSON-ish object literal ({'fintech': 40, ...}) into
// a key→percentage map. Single quotes are normalized to double quotes before
// a strict parse; any failure yields nil rather than a partial object.
func toPercentMap(s string) map[string]float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var m map[string]float64
	if err := json.Unmarshal([]byte(normalizeQuotes(s)), &m); err != nil {
		return nil
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// ParseSource resolves a provenance cell against the known source set.
// Unrecognized or empty values fall back to def rather than propagating
// garbage into persisted records.
func ParseSource(s string, def Source) Source {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	for _, known := range knownSources {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	return def
}

// normalizeKey lowercases and trims a natural key for duplicate matching.
func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// stripQuotes removes one layer of surrounding single or double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// normalizeQuotes rewrites single-quoted literals into valid JSON. Quotes
// inside double-quoted regions are left alone.
func normalizeQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble := false
	for _, r := range s {
		switch {
		case r == '"':
			inDouble = !inDouble
			b.WriteRune(r)
		case r == '\'' && !inDouble:
			b.WriteByte('"')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
