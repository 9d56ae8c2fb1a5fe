// Package project maps invoice entries onto the two template sheets.
package project

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/fapiaoflow/fapiaoflow/internal/model"
)

// Constant cell values required by the invoice template layout.
const (
	invoiceTypeLabel = "增值税电子普通发票"
	taxIncludedFlag  = "是"
	unitLabel        = "项"
)

// Basic-info sheet columns (1-based).
const (
	basicColSerial      = 1
	basicColInvoiceType = 2
	basicColTaxIncluded = 4
	basicColCompany     = 6
	basicColTaxID       = 7
	basicColMemo        = 23
	basicColEmail       = 30
)

// Detail sheet columns (1-based).
const (
	detailColSerial    = 1
	detailColItemName  = 2
	detailColTaxCode   = 3
	detailColUnit      = 5
	detailColQuantity  = 6
	detailColUnitPrice = 7
	detailColAmount    = 8
	detailColTaxRate   = 9
)

// SheetWriter writes a single cell value at a 1-based (row, column)
// coordinate of a named sheet. Implemented by the excelize-backed
// workbook adapter and by in-memory fakes in tests.
type SheetWriter interface {
	SetCell(sheet string, row, col int, value any) error
}

// Params are the caller-supplied constants written on every entry.
type Params struct {
	TaxCode  string
	TaxRate  string // written verbatim, never validated as a percentage
	ItemName string
}

// Config positions the projection inside the template.
type Config struct {
	BasicSheet     string
	DetailSheet    string
	BasicStartRow  int // template variants use 4 or 6
	DetailStartRow int
}

// Projector writes one basic-info row and one detail row per entry at
// two independently based, lockstep-advancing row cursors.
type Projector struct {
	writer    SheetWriter
	logger    *slog.Logger
	config    Config
	params    Params
	basicRow  int
	detailRow int
}

// New creates a projector with both cursors at their starting rows.
func New(writer SheetWriter, config Config, params Params, logger *slog.Logger) *Projector {
	return &Projector{
		writer:    writer,
		logger:    logger,
		config:    config,
		params:    params,
		basicRow:  config.BasicStartRow,
		detailRow: config.DetailStartRow,
	}
}

// Write projects one entry onto both sheets and advances both cursors.
func (p *Projector) Write(entry *model.InvoiceEntry) error {
	if err := p.writeBasicRow(entry); err != nil {
		return fmt.Errorf("failed to write basic-info row %d: %w", p.basicRow, err)
	}
	if err := p.writeDetailRow(entry); err != nil {
		return fmt.Errorf("failed to write detail row %d: %w", p.detailRow, err)
	}

	p.logger.Debug("Projected invoice entry",
		"serial", entry.Serial,
		"basic_row", p.basicRow,
		"detail_row", p.detailRow)

	p.basicRow++
	p.detailRow++

	return nil
}

// Emitted reports how many entries have been written so far. By
// construction it equals the advance of either cursor past its base.
func (p *Projector) Emitted() int {
	return p.basicRow - p.config.BasicStartRow
}

func (p *Projector) writeBasicRow(entry *model.InvoiceEntry) error {
	sheet := p.config.BasicSheet
	cells := []struct {
		value any
		col   int
	}{
		{entry.Serial, basicColSerial},
		{invoiceTypeLabel, basicColInvoiceType},
		{taxIncludedFlag, basicColTaxIncluded},
		{entry.Company, basicColCompany},
		{entry.TaxID, basicColTaxID},
		{entry.Memo, basicColMemo},
	}

	for _, cell := range cells {
		if err := p.writer.SetCell(sheet, p.basicRow, cell.col, cell.value); err != nil {
			return err
		}
	}

	// The email cell is written only for billers that look like an
	// email address; otherwise it is left untouched, not blanked.
	if strings.Contains(entry.Biller, "@") {
		if err := p.writer.SetCell(sheet, p.basicRow, basicColEmail, entry.Biller); err != nil {
			return err
		}
	}

	return nil
}

func (p *Projector) writeDetailRow(entry *model.InvoiceEntry) error {
	sheet := p.config.DetailSheet
	total := entry.TotalAmount.InexactFloat64()

	// Quantity is always 1, so unit price and amount are identical.
	cells := []struct {
		value any
		col   int
	}{
		{entry.Serial, detailColSerial},
		{p.params.ItemName, detailColItemName},
		{p.params.TaxCode, detailColTaxCode},
		{unitLabel, detailColUnit},
		{1, detailColQuantity},
		{total, detailColUnitPrice},
		{total, detailColAmount},
		{p.params.TaxRate, detailColTaxRate},
	}

	for _, cell := range cells {
		if err := p.writer.SetCell(sheet, p.detailRow, cell.col, cell.value); err != nil {
			return err
		}
	}

	return nil
}
