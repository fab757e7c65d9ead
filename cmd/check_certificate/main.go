// Command check_certificate shows what the validator sees in one certificate:
// its page count, the extracted text and, given a reference CSV, the result.
//
// Usage:
//
//	go run ./cmd/check_certificate <certificate.pdf> [references.csv]
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"certificate-validator/internal/pdf"
	"certificate-validator/internal/reference"
	"certificate-validator/internal/validator"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: check_certificate <certificate.pdf> [references.csv]")
		fmt.Println()
		fmt.Println("Prints the page count and extracted text of a certificate.")
		fmt.Println("With a reference CSV it also prints the validation result,")
		fmt.Println("using the file name (without extension) as reference number.")
		os.Exit(1)
	}

	certPath := os.Args[1]
	info, err := pdf.GetPDFInfo(certPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("File:  %s\n", info.FileName)
	fmt.Printf("Pages: %d\n", info.PageCount)
	fmt.Printf("Size:  %d bytes\n\n", info.FileSize)

	text, extractErr := pdf.NewTextExtractor(false).ExtractText(certPath)
	if extractErr != nil {
		fmt.Printf("Text extraction failed: %v\n", extractErr)
	} else {
		fmt.Println("--- extracted text ---")
		fmt.Println(strings.TrimSpace(text))
		fmt.Println("----------------------")
	}

	if len(os.Args) < 3 {
		return
	}

	store, err := reference.LoadFile(os.Args[2])
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ref := validator.ReferenceFromFilename(filepath.Base(certPath))
	if rec, ok := store.Lookup(ref); ok {
		fmt.Printf("\nExpected name:   %s\n", rec.DisplayName)
		fmt.Printf("Expected school: %s\n", rec.DisplaySchool)
	}

	result := validator.NewEngine(store).ValidateDocument(ref, func() (string, error) {
		return text, extractErr
	})
	if result.IsValid {
		fmt.Printf("\n%s: valid\n", ref)
		return
	}
	fmt.Printf("\n%s: %s\n", ref, strings.Join(result.Errors, ", "))
	os.Exit(2)
}
