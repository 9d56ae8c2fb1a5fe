// Package template adapts the invoice template workbook behind the
// projector's SheetWriter interface using excelize.
package template

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/fapiaoflow/fapiaoflow/internal/common"
)

// outputPrefix and timestampLayout form the generated output filename:
// 已合并整理_开票文件_20240105_143000.xlsx
const (
	outputPrefix    = "已合并整理_开票文件_"
	timestampLayout = "20060102_150405"
)

// Workbook wraps an open invoice template. Writes mutate the template
// in place; untouched cells, styles and merges are preserved as-is.
type Workbook struct {
	file *excelize.File
	path string
}

// Open loads the template and verifies every required sheet exists.
// A missing sheet aborts before any row is written.
func Open(path string, requiredSheets ...string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open template %s: %w", path, err)
	}

	for _, sheet := range requiredSheets {
		index, indexErr := f.GetSheetIndex(sheet)
		if indexErr != nil || index < 0 {
			_ = f.Close()
			return nil, fmt.Errorf("%w: %s", common.ErrMissingSheet, sheet)
		}
	}

	return &Workbook{file: f, path: path}, nil
}

// SetCell writes a value at a 1-based (row, column) coordinate.
func (w *Workbook) SetCell(sheet string, row, col int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell coordinate (%d, %d): %w", row, col, err)
	}

	if err := w.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
	}

	return nil
}

// SaveAs writes the mutated workbook to the given path.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook to %s: %w", path, err)
	}
	return nil
}

// Close releases the underlying file without saving.
func (w *Workbook) Close() error {
	return w.file.Close()
}

// OutputPath generates the timestamped output filename in the source
// file's directory.
func OutputPath(sourcePath string, now time.Time) string {
	name := fmt.Sprintf("%s%s.xlsx", outputPrefix, now.Format(timestampLayout))
	return filepath.Join(filepath.Dir(sourcePath), name)
}
