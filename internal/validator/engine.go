// Package validator checks certificate documents against the reference store
// and runs batches of them over a folder.
package validator

import (
	"path/filepath"
	"strings"

	certerrors "certificate-validator/internal/errors"
	"certificate-validator/internal/reference"
)

// Result is the outcome of checking one certificate.
type Result struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// Engine validates certificate text against a reference store.
type Engine struct {
	store *reference.Store
}

// NewEngine creates an Engine over store. A nil store treats every reference as unknown.
func NewEngine(store *reference.Store) *Engine {
	return &Engine{store: store}
}

// Validate checks certificate text for the expected name and school.
// An unknown reference yields only "Reference mismatch". Otherwise both the
// name and the school are checked, so both tags can appear.
func (e *Engine) Validate(referenceNumber, text string) Result {
	rec, ok := e.store.Lookup(referenceNumber)
	if !ok {
		return Result{Errors: []string{certerrors.TagReferenceMismatch}}
	}
	return checkContent(rec, text)
}

// ValidateDocument looks up referenceNumber and only then calls extract for
// the certificate text. An extraction error yields a single "PDF Error" tag.
func (e *Engine) ValidateDocument(referenceNumber string, extract func() (string, error)) Result {
	rec, ok := e.store.Lookup(referenceNumber)
	if !ok {
		return Result{Errors: []string{certerrors.TagReferenceMismatch}}
	}

	text, err := extract()
	if err != nil {
		return Result{Errors: []string{certerrors.PDFErrorTag(err)}}
	}
	return checkContent(rec, text)
}

func checkContent(rec reference.Record, text string) Result {
	content := reference.Normalize(text)

	tags := []string{}
	if !strings.Contains(content, rec.FullName) {
		tags = append(tags, certerrors.TagNameMismatch)
	}
	if !strings.Contains(content, rec.School) {
		tags = append(tags, certerrors.TagSchoolMismatch)
	}
	return Result{IsValid: len(tags) == 0, Errors: tags}
}

// ReferenceFromFilename derives the reference number from a certificate
// filename: the name without its final extension, trimmed. Leading dots do
// not start an extension, so ".pdf" has no extension.
func ReferenceFromFilename(name string) string {
	ext := filepath.Ext(name)
	if strings.TrimLeft(name, ".") == strings.TrimLeft(ext, ".") {
		ext = ""
	}
	return strings.TrimSpace(strings.TrimSuffix(name, ext))
}
