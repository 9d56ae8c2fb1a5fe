package project

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fapiaoflow/fapiaoflow/internal/model"
)

// cellRef addresses one written cell in the fake.
type cellRef struct {
	sheet string
	row   int
	col   int
}

// fakeSheetWriter records every write for assertion.
type fakeSheetWriter struct {
	cells map[cellRef]any
	err   error
}

func newFakeSheetWriter() *fakeSheetWriter {
	return &fakeSheetWriter{cells: make(map[cellRef]any)}
}

func (f *fakeSheetWriter) SetCell(sheet string, row, col int, value any) error {
	if f.err != nil {
		return f.err
	}
	f.cells[cellRef{sheet, row, col}] = value
	return nil
}

func (f *fakeSheetWriter) get(sheet string, row, col int) (any, bool) {
	v, ok := f.cells[cellRef{sheet, row, col}]
	return v, ok
}

func testConfig() Config {
	return Config{
		BasicSheet:     "1-发票基本信息",
		DetailSheet:    "2-发票明细信息",
		BasicStartRow:  4,
		DetailStartRow: 4,
	}
}

func testParams() Params {
	return Params{
		TaxCode:  "3070401000000000000",
		TaxRate:  "0.06",
		ItemName: "餐饮服务",
	}
}

func entryWithBiller(biller string) *model.InvoiceEntry {
	return &model.InvoiceEntry{
		Serial:      "1001_合",
		Biller:      biller,
		Company:     "ACME",
		TaxID:       "T1",
		TotalAmount: decimal.RequireFromString("150"),
		MemberCount: 2,
		Memo:        "Beijing 01月05日-01月08日 餐饮服务共2笔",
	}
}

func TestProjector_WritesBothRows(t *testing.T) {
	writer := newFakeSheetWriter()
	p := New(writer, testConfig(), testParams(), slog.Default())

	require.NoError(t, p.Write(entryWithBiller("a@x.com")))

	basic := testConfig().BasicSheet
	for col, want := range map[int]any{
		1:  "1001_合",
		2:  "增值税电子普通发票",
		4:  "是",
		6:  "ACME",
		7:  "T1",
		23: "Beijing 01月05日-01月08日 餐饮服务共2笔",
		30: "a@x.com",
	} {
		got, ok := writer.get(basic, 4, col)
		require.True(t, ok, "basic column %d must be written", col)
		assert.Equal(t, want, got, "basic column %d", col)
	}

	detail := testConfig().DetailSheet
	for col, want := range map[int]any{
		1: "1001_合",
		2: "餐饮服务",
		3: "3070401000000000000",
		5: "项",
		6: 1,
		7: 150.0,
		8: 150.0,
		9: "0.06",
	} {
		got, ok := writer.get(detail, 4, col)
		require.True(t, ok, "detail column %d must be written", col)
		assert.Equal(t, want, got, "detail column %d", col)
	}
}

func TestProjector_EmailGating(t *testing.T) {
	tests := []struct {
		name      string
		biller    string
		wantEmail bool
	}{
		{
			name:      "email-like biller written",
			biller:    "a@x.com",
			wantEmail: true,
		},
		{
			name:      "plain name left untouched",
			biller:    "zhang san",
			wantEmail: false,
		},
		{
			name:      "empty biller left untouched",
			biller:    "",
			wantEmail: false,
		},
		{
			name:      "bare @ is enough",
			biller:    "@",
			wantEmail: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			writer := newFakeSheetWriter()
			p := New(writer, testConfig(), testParams(), slog.Default())
			require.NoError(t, p.Write(entryWithBiller(tt.biller)))

			_, written := writer.get(testConfig().BasicSheet, 4, 30)
			assert.Equal(t, tt.wantEmail, written,
				"email cell presence for biller %q", tt.biller)
		})
	}
}

func TestProjector_LockstepCursors(t *testing.T) {
	cfg := testConfig()
	cfg.BasicStartRow = 6 // the second template variant
	cfg.DetailStartRow = 4

	writer := newFakeSheetWriter()
	p := New(writer, cfg, testParams(), slog.Default())

	const n = 3
	for i := 0; i < n; i++ {
		require.NoError(t, p.Write(entryWithBiller("a@x.com")))
	}

	assert.Equal(t, n, p.Emitted())

	// After N entries, rows base..base+N-1 are written on each sheet.
	for i := 0; i < n; i++ {
		_, basicOK := writer.get(cfg.BasicSheet, 6+i, 1)
		_, detailOK := writer.get(cfg.DetailSheet, 4+i, 1)
		assert.True(t, basicOK, "basic row %d", 6+i)
		assert.True(t, detailOK, "detail row %d", 4+i)
	}
	_, overrun := writer.get(cfg.BasicSheet, 6+n, 1)
	assert.False(t, overrun, "no row past the cursor may be written")
}

func TestProjector_UnitPriceEqualsAmount(t *testing.T) {
	writer := newFakeSheetWriter()
	p := New(writer, testConfig(), testParams(), slog.Default())
	require.NoError(t, p.Write(entryWithBiller("a@x.com")))

	price, _ := writer.get(testConfig().DetailSheet, 4, 7)
	amount, _ := writer.get(testConfig().DetailSheet, 4, 8)
	assert.Equal(t, price, amount, "quantity is fixed at 1, so unit price and amount are identical")
}

func TestProjector_WriteErrorPropagates(t *testing.T) {
	writer := newFakeSheetWriter()
	writer.err = errors.New("sheet gone")
	p := New(writer, testConfig(), testParams(), slog.Default())

	err := p.Write(entryWithBiller("a@x.com"))
	require.Error(t, err)
	assert.Equal(t, 0, p.Emitted(), "failed write must not advance the cursors")
}
