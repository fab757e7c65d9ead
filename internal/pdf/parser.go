// Package pdf reads certificate documents: text extraction, page counts and
// first-page previews.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"certificate-validator/internal/logger"
)

// TextExtractor 负责从证书 PDF 中提取纯文本
type TextExtractor struct {
	strict bool
	conf   *model.Configuration
}

// NewTextExtractor creates a TextExtractor. With strict set, every file is
// structurally validated with pdfcpu before its text is read.
func NewTextExtractor(strict bool) *TextExtractor {
	e := &TextExtractor{strict: strict}
	if strict {
		e.conf = model.NewDefaultConfiguration()
	}
	return e
}

// Strict reports whether structural validation runs before extraction.
func (e *TextExtractor) Strict() bool {
	return e.strict
}

// ExtractText returns the plain text of every page, concatenated in page order.
func (e *TextExtractor) ExtractText(pdfPath string) (text string, err error) {
	// ledongthuc/pdf panics on some malformed streams.
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("pdf reader panicked",
				logger.String("file", filepath.Base(pdfPath)),
				logger.Any("panic", r))
			text = ""
			err = NewPDFErrorWithDetails(ErrPDFCorrupted, "malformed PDF", fmt.Sprint(r), nil)
		}
	}()

	if _, err := checkFile(pdfPath); err != nil {
		return "", err
	}

	if e.strict {
		if err := api.ValidateFile(pdfPath, e.conf); err != nil {
			return "", NewPDFError(ErrPDFInvalid, "PDF failed validation", err)
		}
	}

	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", NewPDFError(ErrPDFInvalid, "cannot open PDF", err)
	}
	defer f.Close()

	var sb strings.Builder
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", NewPDFErrorWithPage(ErrExtractFailed,
				fmt.Sprintf("cannot read text on page %d", pageNum), pageNum, err)
		}
		sb.WriteString(content)
	}

	logger.Debug("text extracted",
		logger.String("file", filepath.Base(pdfPath)),
		logger.Int("pages", r.NumPage()),
		logger.Int("chars", sb.Len()))
	return sb.String(), nil
}

// GetPDFInfo 获取 PDF 基本信息（页数、文件大小）
func GetPDFInfo(pdfPath string) (*PDFInfo, error) {
	fileInfo, err := checkFile(pdfPath)
	if err != nil {
		return nil, err
	}

	pageCount, err := PageCount(pdfPath)
	if err != nil {
		return nil, err
	}

	return &PDFInfo{
		FilePath:  pdfPath,
		FileName:  filepath.Base(pdfPath),
		PageCount: pageCount,
		FileSize:  fileInfo.Size(),
	}, nil
}

// PageCount returns the number of pages according to pdfcpu.
func PageCount(pdfPath string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
			err = NewPDFErrorWithDetails(ErrPDFCorrupted, "malformed PDF", fmt.Sprint(r), nil)
		}
	}()

	n, err = api.PageCountFile(pdfPath)
	if err != nil {
		return 0, NewPDFError(ErrPDFInvalid, "cannot count pages", err)
	}
	return n, nil
}

func checkFile(pdfPath string) (os.FileInfo, error) {
	info, err := os.Stat(pdfPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewPDFError(ErrPDFNotFound, "file does not exist", err)
		}
		return nil, NewPDFError(ErrPDFInvalid, "cannot access file", err)
	}
	if info.IsDir() {
		return nil, NewPDFError(ErrPDFInvalid, "path is a directory", nil)
	}
	return info, nil
}
