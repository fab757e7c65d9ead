package pdf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"certificate-validator/internal/pdf/pdftest"
)

func TestExtractText_SinglePage(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "R1.pdf", []string{"Certificate of Completion", "Jane Doe", "Acme High"})

	text, err := NewTextExtractor(false).ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	for _, want := range []string{"Certificate of Completion", "Jane Doe", "Acme High"} {
		if !strings.Contains(text, want) {
			t.Errorf("ExtractText() = %q, missing %q", text, want)
		}
	}
}

func TestExtractText_PagesInOrder(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "R2.pdf", []string{"first page"}, []string{"second page"})

	text, err := NewTextExtractor(false).ExtractText(path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	first := strings.Index(text, "first page")
	second := strings.Index(text, "second page")
	if first < 0 || second < 0 {
		t.Fatalf("ExtractText() = %q, want both pages", text)
	}
	if first > second {
		t.Errorf("pages out of order: %q", text)
	}
}

func TestExtractText_NonExistentFile(t *testing.T) {
	_, err := NewTextExtractor(false).ExtractText("/non/existent/file.pdf")
	if err == nil {
		t.Fatal("Expected error for non-existent file, got nil")
	}

	var pdfErr *PDFError
	if !errors.As(err, &pdfErr) {
		t.Fatalf("Expected PDFError, got %T", err)
	}
	if pdfErr.Code != ErrPDFNotFound {
		t.Errorf("Expected error code %s, got %s", ErrPDFNotFound, pdfErr.Code)
	}
}

func TestExtractText_Directory(t *testing.T) {
	_, err := NewTextExtractor(false).ExtractText(t.TempDir())

	var pdfErr *PDFError
	if !errors.As(err, &pdfErr) {
		t.Fatalf("Expected PDFError, got %T", err)
	}
	if pdfErr.Code != ErrPDFInvalid {
		t.Errorf("Expected error code %s, got %s", ErrPDFInvalid, pdfErr.Code)
	}
}

func TestExtractText_InvalidFile(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "invalid.pdf")
	if err := os.WriteFile(tmpFile, []byte("This is not a PDF file"), 0644); err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}

	text, err := NewTextExtractor(false).ExtractText(tmpFile)
	if err == nil {
		t.Fatal("Expected error for invalid PDF file, got nil")
	}
	if text != "" {
		t.Errorf("Expected no text on error, got %q", text)
	}

	var pdfErr *PDFError
	if !errors.As(err, &pdfErr) {
		t.Fatalf("Expected PDFError, got %T", err)
	}
	if err.Error() == "" {
		t.Error("Expected a descriptive error message")
	}
}

func TestGetPDFInfo(t *testing.T) {
	path := pdftest.WriteFile(t, t.TempDir(), "R3.pdf", []string{"one"}, []string{"two"}, []string{"three"})

	info, err := GetPDFInfo(path)
	if err != nil {
		t.Fatalf("GetPDFInfo() error = %v", err)
	}
	if info.PageCount != 3 {
		t.Errorf("PageCount = %d, want 3", info.PageCount)
	}
	if info.FileName != "R3.pdf" {
		t.Errorf("FileName = %q, want R3.pdf", info.FileName)
	}
	if info.FileSize <= 0 {
		t.Errorf("FileSize = %d, want > 0", info.FileSize)
	}
}

func TestGetPDFInfo_NonExistentFile(t *testing.T) {
	_, err := GetPDFInfo("/non/existent/file.pdf")

	var pdfErr *PDFError
	if !errors.As(err, &pdfErr) {
		t.Fatalf("Expected PDFError, got %T", err)
	}
	if pdfErr.Code != ErrPDFNotFound {
		t.Errorf("Expected error code %s, got %s", ErrPDFNotFound, pdfErr.Code)
	}
}

func TestPDFError_Error(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		name string
		err  *PDFError
		want string
	}{
		{"message only", NewPDFError(ErrPDFInvalid, "bad", nil), "bad"},
		{"with cause", NewPDFError(ErrPDFInvalid, "bad", cause), "bad: boom"},
		{"details win", NewPDFErrorWithDetails(ErrPDFCorrupted, "bad", "xref", cause), "bad: xref"},
		{"with page", NewPDFErrorWithPage(ErrExtractFailed, "page 2", 2, cause), "page 2: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}

	if !errors.Is(NewPDFError(ErrPDFInvalid, "bad", cause), cause) {
		t.Error("PDFError should unwrap to its cause")
	}
}
