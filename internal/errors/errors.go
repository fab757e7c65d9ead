// Package errors defines the per-certificate error tags recorded during a
// validation run and the record persisted to the error report.
package errors

import (
	"strings"
)

// Error tags written to ValidationResult.Errors and to the report.
const (
	TagReferenceMismatch = "Reference mismatch"
	TagNameMismatch      = "Name mismatch"
	TagSchoolMismatch    = "School mismatch"
	// TagPDFErrorPrefix precedes the extraction failure message.
	TagPDFErrorPrefix = "PDF Error: "
)

// ErrorKind 错误类别
type ErrorKind string

const (
	KindLookup     ErrorKind = "lookup"
	KindContent    ErrorKind = "content_mismatch"
	KindExtraction ErrorKind = "extraction"
	KindUnknown    ErrorKind = "unknown"
)

// PDFErrorTag builds the tag for a certificate whose text could not be extracted.
func PDFErrorTag(err error) string {
	if err == nil {
		return TagPDFErrorPrefix + "unknown error"
	}
	return TagPDFErrorPrefix + err.Error()
}

// Classify maps an error tag back to its kind.
func Classify(tag string) ErrorKind {
	switch {
	case tag == TagReferenceMismatch:
		return KindLookup
	case tag == TagNameMismatch, tag == TagSchoolMismatch:
		return KindContent
	case strings.HasPrefix(tag, TagPDFErrorPrefix):
		return KindExtraction
	default:
		return KindUnknown
	}
}

// ErrorRecord 错误记录, one row of the error report.
type ErrorRecord struct {
	Filename        string   `json:"filename"`
	ReferenceNumber string   `json:"reference_number"`
	Errors          []string `json:"errors"`
}

// JoinedErrors renders the tags the way the report stores them.
func (r ErrorRecord) JoinedErrors() string {
	return strings.Join(r.Errors, ", ")
}

// CountByKind tallies tags across records, for run summaries.
func CountByKind(records []ErrorRecord) map[ErrorKind]int {
	counts := make(map[ErrorKind]int)
	for _, r := range records {
		for _, tag := range r.Errors {
			counts[Classify(tag)]++
		}
	}
	return counts
}
