// Package reference loads the expected certificate contents from a CSV
// export and answers exact lookups by reference number.
package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"certificate-validator/internal/logger"
)

// Column headers the reference CSV must expose.
const (
	ColumnReferenceNumber = "Reference Number"
	ColumnFirstName       = "First Name"
	ColumnLastName        = "Last Name"
	ColumnSchoolName      = "School Name"
)

// RequiredColumns in the order they are checked.
var RequiredColumns = []string{ColumnReferenceNumber, ColumnFirstName, ColumnLastName, ColumnSchoolName}

// FormatError reports a reference file that cannot be used.
type FormatError struct {
	// Column is set when a required column is missing.
	Column string
	// Line is set when a specific data row is malformed.
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	switch {
	case e.Column != "":
		return "Missing column: " + e.Column
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	default:
		return e.Reason
	}
}

// Record holds what one certificate is expected to contain.
type Record struct {
	ReferenceNumber string `json:"reference_number"`
	// FullName is "First Last", lowercased.
	FullName string `json:"full_name"`
	// School is lowercased.
	School string `json:"school"`

	DisplayName   string `json:"display_name"`
	DisplaySchool string `json:"display_school"`
}

// Store maps reference numbers to records. It is immutable once loaded.
type Store struct {
	records map[string]Record
	rows    []Record
}

// Normalize lowercases s the same way for reference values and certificate text.
func Normalize(s string) string {
	return cases.Lower(language.Und).String(s)
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference file: %w", err)
	}
	defer f.Close()

	store, err := Load(f)
	if err != nil {
		return nil, err
	}
	logger.Info("reference file loaded",
		logger.String("path", path),
		logger.Int("records", store.Len()))
	return store, nil
}

// Load parses a reference CSV. A missing required column or a truncated row
// fails the whole load with a *FormatError; no partial store is returned.
// Columns after the last required one may be missing from a row.
// Duplicate reference numbers keep the last row.
func Load(r io.Reader) (*Store, error) {
	// Spreadsheet exports often start with a UTF-8 BOM, which would otherwise
	// end up inside the first header name.
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	// Hand-edited exports carry stray quotes inside unquoted names.
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FormatError{Reason: "reference file is empty"}
		}
		return nil, &FormatError{Line: 1, Reason: err.Error()}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	// Rows may stop short after the last required column.
	minFields := 0
	for _, col := range RequiredColumns {
		i, ok := index[col]
		if !ok {
			return nil, &FormatError{Column: col}
		}
		if i+1 > minFields {
			minFields = i + 1
		}
	}

	store := &Store{records: make(map[string]Record)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, &FormatError{Line: parseErr.Line, Reason: parseErr.Err.Error()}
			}
			return nil, &FormatError{Reason: err.Error()}
		}
		line, _ := reader.FieldPos(0)
		if len(row) < minFields {
			return nil, &FormatError{
				Line:   line,
				Reason: fmt.Sprintf("expected at least %d fields, got %d", minFields, len(row)),
			}
		}

		ref := strings.TrimSpace(row[index[ColumnReferenceNumber]])
		fullName := row[index[ColumnFirstName]] + " " + row[index[ColumnLastName]]
		school := row[index[ColumnSchoolName]]

		rec := Record{
			ReferenceNumber: ref,
			FullName:        Normalize(fullName),
			School:          Normalize(school),
			DisplayName:     fullName,
			DisplaySchool:   school,
		}
		if _, dup := store.records[ref]; dup {
			logger.Warn("duplicate reference number, keeping last row",
				logger.String("reference", ref),
				logger.Int("line", line))
		}
		store.records[ref] = rec
		store.rows = append(store.rows, rec)
	}

	return store, nil
}

// Lookup returns the record for an exact reference number.
func (s *Store) Lookup(ref string) (Record, bool) {
	if s == nil {
		return Record{}, false
	}
	rec, ok := s.records[ref]
	return rec, ok
}

// Len is the number of distinct reference numbers.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Rows returns every loaded row in file order, duplicates included,
// for listing in the UI.
func (s *Store) Rows() []Record {
	if s == nil {
		return nil
	}
	out := make([]Record, len(s.rows))
	copy(out, s.rows)
	return out
}
