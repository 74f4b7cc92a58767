// Package export renders priced estimates as XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/straye-as/bid-estimator/internal/pricing"
	"github.com/xuri/excelize/v2"
)

const (
	BreakdownSheet = "Breakdown"
	SubtradeSheet  = "Subtrades"
	ContentType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	moneyFormat = "#,##0.00"
)

// Estimate is everything the workbook shows
type Estimate struct {
	BidName    string
	ClientName string
	PreparedBy string
	Status     string
	Rates      pricing.RateConfiguration
	Summary    pricing.Summary
	ExportedAt time.Time
}

type styles struct {
	title    int
	header   int
	section  int
	line     int
	money    int
	label    int
	totalVal int
}

// Workbook renders the estimate breakdown and returns the file contents
func Workbook(est Estimate) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), BreakdownSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	if _, err := f.NewSheet(SubtradeSheet); err != nil {
		return nil, fmt.Errorf("create subtrade sheet: %w", err)
	}

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeBreakdown(f, st, est); err != nil {
		return nil, err
	}
	if err := writeSubtrades(f, st, est.Summary); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	numFmt := moneyFormat

	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return st, fmt.Errorf("create title style: %w", err)
	}
	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return st, fmt.Errorf("create header style: %w", err)
	}
	st.section, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E7E6E6"}, Pattern: 1},
		Border: thinBorders(),
	})
	if err != nil {
		return st, fmt.Errorf("create section style: %w", err)
	}
	if st.line, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}); err != nil {
		return st, fmt.Errorf("create line style: %w", err)
	}
	st.money, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Size: 10},
		Border:       thinBorders(),
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return st, fmt.Errorf("create money style: %w", err)
	}
	st.label, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "right"},
	})
	if err != nil {
		return st, fmt.Errorf("create label style: %w", err)
	}
	st.totalVal, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true, Size: 11},
		CustomNumFmt: &numFmt,
	})
	if err != nil {
		return st, fmt.Errorf("create total style: %w", err)
	}
	return st, nil
}

var breakdownHeaders = []string{
	"Phase", "Description", "Unit", "Quantity", "Labour Days",
	"Labour", "Material", "Overhead", "Profit", "Total",
}

func writeBreakdown(f *excelize.File, st styles, est Estimate) error {
	sheet := BreakdownSheet
	widths := []float64{10, 42, 8, 12, 12, 14, 14, 14, 14, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(breakdownHeaders))

	title := est.BidName
	if title == "" {
		title = "Estimate"
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheet, "A1", "A1", st.title)
	f.SetCellValue(sheet, "A2", sanitizeExcelCell(fmt.Sprintf("Client: %s", est.ClientName)))
	f.SetCellValue(sheet, "A3", sanitizeExcelCell(fmt.Sprintf("Prepared by: %s  Status: %s  Exported: %s",
		est.PreparedBy, est.Status, est.ExportedAt.UTC().Format("2006-01-02"))))

	row := 5
	setRow(f, sheet, row, toAny(breakdownHeaders))
	f.SetCellStyle(sheet, cell(1, row), cell(len(breakdownHeaders), row), st.header)
	row++

	for _, section := range est.Summary.Sections {
		f.MergeCell(sheet, cell(1, row), cell(len(breakdownHeaders)-1, row))
		f.SetCellValue(sheet, cell(1, row), sanitizeExcelCell(section.Name))
		f.SetCellValue(sheet, cell(len(breakdownHeaders), row), money(section.Total))
		f.SetCellStyle(sheet, cell(1, row), cell(len(breakdownHeaders), row), st.section)
		row++

		for _, line := range section.Lines {
			c := line.Calc
			setRow(f, sheet, row, []any{
				sanitizeExcelCell(line.PhaseCode),
				sanitizeExcelCell(line.Description),
				string(line.UnitType),
				line.Quantity,
				c.LabourDays,
				money(c.LabourCost),
				money(c.MaterialCost),
				money(c.Overhead),
				money(c.Profit),
				money(c.Total),
			})
			f.SetCellStyle(sheet, cell(1, row), cell(5, row), st.line)
			f.SetCellStyle(sheet, cell(6, row), cell(len(breakdownHeaders), row), st.money)
			row++
		}
	}

	row++
	s := est.Summary
	totals := []struct {
		label string
		value float64
	}{
		{"Labour days", s.LabourDays},
		{"Labour", s.LabourCost},
		{"Material", s.MaterialCost},
		{"Overhead", s.Overhead},
		{"Profit", s.Profit},
		{"Own forces", s.OwnForces},
		{"Subtrades", s.SubtradeTotal},
		{"Grand total", s.GrandTotal},
	}
	for _, t := range totals {
		labelCell := cell(len(breakdownHeaders)-1, row)
		valueCell := cell(len(breakdownHeaders), row)
		f.SetCellValue(sheet, labelCell, t.label)
		f.SetCellStyle(sheet, labelCell, labelCell, st.label)
		f.SetCellValue(sheet, valueCell, money(t.value))
		f.SetCellStyle(sheet, valueCell, valueCell, st.totalVal)
		row++
	}

	row++
	r := est.Rates
	f.SetCellValue(sheet, cell(1, row), sanitizeExcelCell(fmt.Sprintf(
		"Rates: %.2f per labour day, material %.2f%%, overhead %.2f%%, profit %.2f%%, subtrade markup %.2f%%",
		r.CostPerLabourDay, r.MaterialPct, r.OverheadPct, r.ProfitPct, r.SubtradeMarkupPct)))

	return nil
}

var subtradeHeaders = []string{
	"Phase", "Description", "Unit", "Quantity", "Unit Cost", "Cost", "Markup", "Total",
}

func writeSubtrades(f *excelize.File, st styles, s pricing.Summary) error {
	sheet := SubtradeSheet
	widths := []float64{10, 42, 8, 12, 14, 14, 14, 16}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	row := 1
	setRow(f, sheet, row, toAny(subtradeHeaders))
	f.SetCellStyle(sheet, cell(1, row), cell(len(subtradeHeaders), row), st.header)
	row++

	for _, item := range s.Subtrades {
		setRow(f, sheet, row, []any{
			sanitizeExcelCell(item.PhaseCode),
			sanitizeExcelCell(item.Description),
			string(item.UnitType),
			item.Quantity,
			money(item.UnitCost),
			money(item.Cost),
			money(item.Markup),
			money(item.Total),
		})
		f.SetCellStyle(sheet, cell(1, row), cell(4, row), st.line)
		f.SetCellStyle(sheet, cell(5, row), cell(len(subtradeHeaders), row), st.money)
		row++
	}

	labelCell := cell(len(subtradeHeaders)-1, row)
	valueCell := cell(len(subtradeHeaders), row)
	f.SetCellValue(sheet, labelCell, "Subtrades")
	f.SetCellStyle(sheet, labelCell, labelCell, st.label)
	f.SetCellValue(sheet, valueCell, money(s.SubtradeTotal))
	f.SetCellStyle(sheet, valueCell, valueCell, st.totalVal)
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		f.SetCellValue(sheet, cell(i+1, row), v)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func money(v float64) float64 {
	return pricing.Money(v).InexactFloat64()
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
