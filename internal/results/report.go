// Package results writes the error report of a validation run to an XLSX
// workbook.
package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	certerrors "certificate-validator/internal/errors"
	"certificate-validator/internal/logger"
	"certificate-validator/internal/types"
)

// Header is the first row of a new report.
var Header = []string{"Filename", "Reference Number", "Errors"}

// DefaultSheet is used when a report is created.
const DefaultSheet = "Validation Errors"

// Reporter appends error records to a workbook. Rows are only ever appended;
// earlier runs stay in the file.
type Reporter struct {
	mu sync.Mutex
}

// NewReporter creates a Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Persist appends one row per record to the first sheet of dest, after the
// last used row. A missing dest is created with the header row. An empty
// records slice still creates the file. Failures are *types.AppError with
// code ErrPersistence.
func (r *Reporter) Persist(records []certerrors.ErrorRecord, dest string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, sheet, next, err := openOrCreate(dest)
	if err != nil {
		return persistenceError("cannot open error report", err)
	}
	defer f.Close()

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, next+i)
		if err != nil {
			return persistenceError("cannot address report row", err)
		}
		row := []interface{}{rec.Filename, rec.ReferenceNumber, rec.JoinedErrors()}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return persistenceError("cannot write report row", err)
		}
	}

	if dir := filepath.Dir(dest); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return persistenceError("cannot create report directory", err)
		}
	}
	if err := f.SaveAs(dest); err != nil {
		return persistenceError("cannot save error report", err)
	}

	logger.Info("error report written",
		logger.String("path", dest),
		logger.Int("rows", len(records)),
		logger.Int("firstRow", next))
	return nil
}

// persistenceError keeps the cause in the message, so the run result and
// the log say why the report was not written.
func persistenceError(message string, err error) *types.AppError {
	return types.NewAppErrorWithDetails(types.ErrPersistence, message, err.Error(), err)
}

// openOrCreate returns the workbook, the sheet to append to and the first
// free row number (1-based).
func openOrCreate(dest string) (*excelize.File, string, int, error) {
	if _, err := os.Stat(dest); err == nil {
		f, err := excelize.OpenFile(dest)
		if err != nil {
			return nil, "", 0, err
		}
		sheet := f.GetSheetName(0)
		if sheet == "" {
			f.Close()
			return nil, "", 0, fmt.Errorf("%s has no sheets", dest)
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			f.Close()
			return nil, "", 0, err
		}
		return f, sheet, len(rows) + 1, nil
	} else if !os.IsNotExist(err) {
		return nil, "", 0, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), DefaultSheet); err != nil {
		f.Close()
		return nil, "", 0, err
	}
	if err := writeHeader(f, DefaultSheet); err != nil {
		f.Close()
		return nil, "", 0, err
	}
	return f, DefaultSheet, 2, nil
}

func writeHeader(f *excelize.File, sheet string) error {
	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "C1", style); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", "B", 24); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", 48)
}

// ReadRows returns every row of the first sheet of path, header included.
func ReadRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.GetRows(f.GetSheetName(0))
}
