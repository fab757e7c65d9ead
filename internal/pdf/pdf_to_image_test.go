package pdf

import (
	"context"
	"errors"
	"image"
	"strings"
	"testing"

	"certificate-validator/internal/pdf/pdftest"
	"certificate-validator/internal/types"
)

func TestFitSize(t *testing.T) {
	tests := []struct {
		name       string
		w, h       int
		maxW, maxH int
		wantW      int
		wantH      int
	}{
		{"already fits", 600, 800, 794, 1123, 600, 800},
		{"a4 at 150dpi", 1240, 1754, 794, 1123, 794, 1123},
		{"landscape limited by width", 2000, 1000, 794, 1123, 794, 397},
		{"tall limited by height", 500, 3000, 794, 1123, 187, 1123},
		{"no bounds", 5000, 5000, 0, 0, 5000, 5000},
		{"empty image", 0, 0, 794, 1123, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := fitSize(tt.w, tt.h, tt.maxW, tt.maxH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("fitSize(%d, %d) = %dx%d, want %dx%d", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestThumbnail(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1600, 1200))

	got := thumbnail(src, 800, 800)
	if b := got.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Errorf("thumbnail bounds = %v, want 800x600", b)
	}

	small := image.NewRGBA(image.Rect(0, 0, 100, 100))
	if thumbnail(small, 800, 800) != image.Image(small) {
		t.Error("thumbnail should return images that fit unchanged")
	}
}

func TestPreviewer_Unavailable(t *testing.T) {
	p := &Previewer{dpi: 150, maxWidth: 794, maxHeight: 1123}

	_, err := p.Render(context.Background(), "whatever.pdf")
	var pdfErr *PDFError
	if !errors.As(err, &pdfErr) {
		t.Fatalf("Expected PDFError, got %T", err)
	}
	if pdfErr.Code != ErrRenderUnavailable {
		t.Errorf("Expected error code %s, got %s", ErrRenderUnavailable, pdfErr.Code)
	}
}

func TestPreviewer_Render(t *testing.T) {
	p := NewPreviewer(types.PreviewConfig{Enabled: true, DPI: 72, MaxWidth: 300, MaxHeight: 400})
	if !p.Available() {
		t.Skip("pdftoppm not installed")
	}

	path := pdftest.WriteFile(t, t.TempDir(), "R1.pdf", []string{"Jane Doe"})
	preview, err := p.Render(context.Background(), path)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if !strings.HasPrefix(preview.DataURL, "data:image/png;base64,") {
		t.Errorf("DataURL prefix = %.30q", preview.DataURL)
	}
	if preview.Width > 300 || preview.Height > 400 {
		t.Errorf("preview %dx%d exceeds bounds", preview.Width, preview.Height)
	}
	if preview.FileName != "R1.pdf" {
		t.Errorf("FileName = %q", preview.FileName)
	}
}
