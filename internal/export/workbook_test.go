package export_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/straye-as/bid-estimator/internal/catalog"
	"github.com/straye-as/bid-estimator/internal/estimate"
	"github.com/straye-as/bid-estimator/internal/export"
	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var referenceRates = pricing.RateConfiguration{
	CostPerLabourDay:  296,
	MaterialPct:       18,
	OverheadPct:       12,
	ProfitPct:         30,
	SubtradeMarkupPct: 20,
}

func pricedDocument(t *testing.T) estimate.Document {
	t.Helper()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	doc := estimate.New(catalog.Default(), referenceRates, "estimator", now)

	qty := 250.0
	doc, err := doc.UpdateItem("ft_vct", estimate.ItemUpdate{Quantity: &qty})
	require.NoError(t, err)

	bins, cost := 2.0, 450.0
	doc, err = doc.UpdateSubtrade("st_bin", estimate.SubtradeUpdate{Quantity: &bins, UnitCost: &cost})
	require.NoError(t, err)
	return doc
}

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err, "result is not a valid workbook")
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func findRow(rows [][]string, col int, value string) []string {
	for _, row := range rows {
		if len(row) > col && row[col] == value {
			return row
		}
	}
	return nil
}

func TestWorkbook_Breakdown(t *testing.T) {
	doc := pricedDocument(t)

	data, err := export.Workbook(export.Estimate{
		BidName:    "Tower A strip-out",
		ClientName: "Acme",
		PreparedBy: "estimator",
		Status:     string(doc.Metadata.Status),
		Rates:      doc.Rates,
		Summary:    doc.Summary(),
		ExportedAt: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	assert.Equal(t, []string{export.BreakdownSheet, export.SubtradeSheet}, f.GetSheetList())

	title, err := f.GetCellValue(export.BreakdownSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Tower A strip-out", title)

	rows, err := f.GetRows(export.BreakdownSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)

	vct := findRow(rows, 1, "VCT & mastic removal")
	require.NotNil(t, vct, "VCT line missing from breakdown")
	assert.Equal(t, "250", vct[3])
	assert.Equal(t, "495.98", vct[9])

	grand := findRow(rows, 8, "Grand total")
	require.NotNil(t, grand)
	assert.Equal(t, pricing.Money(doc.GrandTotal).String(), grand[9])
}

func TestWorkbook_Subtrades(t *testing.T) {
	doc := pricedDocument(t)

	data, err := export.Workbook(export.Estimate{Summary: doc.Summary(), Rates: doc.Rates})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	rows, err := f.GetRows(export.SubtradeSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 3, "header, one priced subtrade, total")

	assert.Equal(t, "900", rows[1][5])
	assert.Equal(t, "180", rows[1][6])
	assert.Equal(t, "1080", rows[1][7])
}

func TestWorkbook_SanitizesFormulaInjection(t *testing.T) {
	data, err := export.Workbook(export.Estimate{BidName: "=HYPERLINK(\"http://x\")"})
	require.NoError(t, err)

	f := openWorkbook(t, data)
	title, err := f.GetCellValue(export.BreakdownSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "'=HYPERLINK(\"http://x\")", title)
}
