package importer

// decode.go turns an uploaded byte payload into RawRows.
//
// Two formats are recognized: delimited text (CSV) and spreadsheet binary
// (XLSX, first sheet only). Format detection prefers byte sniffing over the
// file name, since browsers and operators routinely mislabel uploads.

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// DetectKind determines the upload format from the payload bytes, falling
// back to the file extension and declared content type.
func DetectKind(fileName, contentType string, data []byte) (FileKind, error) {
	if len(data) == 0 {
		return KindUnknown, &DecodeError{Cause: "empty payload", Err: ErrEmptyFile}
	}

	// XLSX is a zip container: local file header PK\x03\x04.
	if len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 3 && data[3] == 4 {
		return KindXLSX, nil
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	ct := strings.ToLower(strings.TrimSpace(contentType))

	switch {
	case ext == ".csv", strings.Contains(ct, "text/csv"):
		return KindCSV, nil
	case ext == ".xlsx", strings.Contains(ct, "spreadsheetml"):
		// Claimed xlsx but missing the zip magic.
		return KindUnknown, &DecodeError{Cause: "file claims xlsx but is not a valid container", Err: ErrUnsupportedKind}
	}

	// Plausible plain text is treated as CSV.
	if isProbablyText(data) {
		return KindCSV, nil
	}

	return KindUnknown, &DecodeError{Cause: "unrecognized file type", Err: ErrUnsupportedKind}
}

// Decode parses the payload into RawRows in file order. The first non-empty
// row is the header; rows where every cell is blank are silently skipped.
func Decode(data []byte, kind FileKind) ([]RawRow, error) {
	switch kind {
	case KindCSV:
		return decodeCSV(data)
	case KindXLSX:
		return decodeXLSX(data)
	default:
		return nil, &DecodeError{Cause: "unrecognized file type", Err: ErrUnsupportedKind}
	}
}

func decodeCSV(data []byte) ([]RawRow, error) {
	data = sanitizeUTF8(data)

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, &DecodeError{Cause: "malformed delimited text", Err: err}
	}

	return rowsFromRecords(records)
}

func decodeXLSX(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Cause: "unreadable spreadsheet container", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Cause: "spreadsheet has no sheets", Err: ErrEmptyFile}
	}

	// Only the first sheet is read.
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DecodeError{Cause: "read sheet", Err: err}
	}

	return rowsFromRecords(records)
}

// rowsFromRecords converts raw cell matrices into RawRows: the first
// non-empty record is the header, everything after is data.
func rowsFromRecords(records [][]string) ([]RawRow, error) {
	// Skip leading blank rows before the header.
	start := 0
	for start < len(records) && isEmptyRow(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil, &DecodeError{Cause: "empty payload", Err: ErrEmptyFile}
	}

	headers := make([]string, len(records[start]))
	for i, h := range records[start] {
		headers[i] = NormalizeHeader(h)
	}

	var rows []RawRow
	for _, record := range records[start+1:] {
		if isEmptyRow(record) {
			continue
		}
		row := make(RawRow, len(headers))
		for i, header := range headers {
			if header == "" || i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			row[header] = cell
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, &DecodeError{Cause: "empty payload", Err: ErrEmptyFile}
	}

	return rows, nil
}

// NormalizeHeader lowercases a header, converts whitespace runs to single
// underscores, and strips everything that is not alphanumeric. Normalizing
// an already-normalized header is a no-op.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))

	var b strings.Builder
	b.Grow(len(h))
	lastUnderscore := false
	for _, r := range h {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r), r == '_', r == '-':
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the replacement rune so
// the CSV reader never chokes on mixed encodings.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}
	return buf.Bytes()
}

// isProbablyText reports whether the payload looks like plain text: mostly
// printable bytes and no NULs in the sample window.
func isProbablyText(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}

	good := 0
	for _, c := range sample {
		if c == 0x00 {
			return false
		}
		if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
			good++
		}
	}
	return float64(good)/float64(len(sample)) > 0.9
}
