package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"golang.org/x/image/draw"

	"certificate-validator/internal/logger"
	"certificate-validator/internal/types"
)

const popplerHint = "pdftoppm not found, install poppler-utils " +
	"(Ubuntu/Debian: apt-get install poppler-utils, macOS: brew install poppler)"

// Previewer renders the first page of a certificate as a PNG thumbnail.
type Previewer struct {
	dpi        int
	maxWidth   int
	maxHeight  int
	usePoppler bool
}

// NewPreviewer creates a Previewer from the preview settings.
func NewPreviewer(cfg types.PreviewConfig) *Previewer {
	p := &Previewer{
		dpi:        cfg.DPI,
		maxWidth:   cfg.MaxWidth,
		maxHeight:  cfg.MaxHeight,
		usePoppler: checkPopplerAvailable(),
	}
	if p.dpi <= 0 {
		p.dpi = 150
	}
	if !p.usePoppler {
		logger.Warn("certificate previews disabled", logger.String("reason", popplerHint))
	}
	return p
}

// checkPopplerAvailable checks if pdftoppm is available
func checkPopplerAvailable() bool {
	_, err := exec.LookPath("pdftoppm")
	return err == nil
}

// Available reports whether pages can be rasterized on this machine.
func (p *Previewer) Available() bool {
	return p.usePoppler
}

// Render rasterizes page 1 of pdfPath and returns it as a data URL.
func (p *Previewer) Render(ctx context.Context, pdfPath string) (*Preview, error) {
	if !p.usePoppler {
		return nil, NewPDFError(ErrRenderUnavailable, popplerHint, nil)
	}

	img, err := p.renderFirstPage(ctx, pdfPath)
	if err != nil {
		return nil, err
	}
	img = thumbnail(img, p.maxWidth, p.maxHeight)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, NewPDFError(ErrRenderFailed, "encode preview", err)
	}

	pages, err := PageCount(pdfPath)
	if err != nil {
		logger.Debug("page count unavailable for preview",
			logger.String("file", filepath.Base(pdfPath)), logger.Err(err))
		pages = 0
	}

	b := img.Bounds()
	return &Preview{
		FileName:  filepath.Base(pdfPath),
		PageCount: pages,
		Width:     b.Dx(),
		Height:    b.Dy(),
		DataURL:   "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// renderFirstPage uses pdftoppm for high-quality conversion
func (p *Previewer) renderFirstPage(ctx context.Context, pdfPath string) (image.Image, error) {
	tempDir, err := os.MkdirTemp("", "certpreview_*")
	if err != nil {
		return nil, NewPDFError(ErrRenderFailed, "create temp dir", err)
	}
	defer os.RemoveAll(tempDir)

	outputPrefix := filepath.Join(tempDir, "page")
	args := []string{
		"-f", "1",
		"-l", "1",
		"-png",
		"-r", strconv.Itoa(p.dpi),
		"-singlefile",
		pdfPath,
		outputPrefix,
	}

	cmd := exec.CommandContext(ctx, "pdftoppm", args...)
	hideWindowOnWindows(cmd)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, NewPDFErrorWithDetails(ErrRenderFailed, "pdftoppm failed", string(bytes.TrimSpace(output)), err)
	}

	img, err := loadImage(outputPrefix + ".png")
	if err != nil {
		return nil, NewPDFError(ErrRenderFailed, "load rendered page", err)
	}

	logger.Debug("page rendered",
		logger.String("file", filepath.Base(pdfPath)),
		logger.Int("width", img.Bounds().Dx()),
		logger.Int("height", img.Bounds().Dy()))
	return img, nil
}

// loadImage loads an image from file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// thumbnail scales img down to fit maxW x maxH keeping its aspect ratio.
// Images that already fit are returned unchanged.
func thumbnail(img image.Image, maxW, maxH int) image.Image {
	b := img.Bounds()
	w, h := fitSize(b.Dx(), b.Dy(), maxW, maxH)
	if w == b.Dx() && h == b.Dy() {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

// fitSize returns the largest size not exceeding maxW x maxH with the aspect
// ratio of w x h. It never enlarges. A non-positive bound is ignored.
func fitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return w, h
	}
	scale := 1.0
	if maxW > 0 && w > maxW {
		scale = float64(maxW) / float64(w)
	}
	if maxH > 0 && float64(h)*scale > float64(maxH) {
		scale = float64(maxH) / float64(h)
	}
	if scale >= 1 {
		return w, h
	}
	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
