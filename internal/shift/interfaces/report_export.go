package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	shift "shift-reconcile/internal/shift/domain"
)

// Export formats understood by BuildShiftReport.
const (
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// BuildShiftReport renders a report in the given format.
func BuildShiftReport(format string, report shift.ShiftReport) ([]byte, error) {
	switch format {
	case FormatPDF:
		return BuildShiftReportPDF(report)
	case FormatXLSX:
		return BuildShiftReportXLSX(report)
	default:
		return nil, fmt.Errorf("report export: unsupported format %q", format)
	}
}

// BuildShiftReportPDF renders a one-page summary of a closed shift.
func BuildShiftReportPDF(report shift.ShiftReport) ([]byte, error) {
	h := report.Header
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Shift Close Report")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Station: %s", h.StationID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", h.Date.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Shift: %s", h.Label))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Shift ID: %s", h.ID))
	pdf.Ln(5)
	if !h.CreatedAt.IsZero() {
		pdf.Cell(0, 6, fmt.Sprintf("Closed: %s", h.CreatedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Station Revenue: %s", money(h.TotalStationRevenue)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Sales: %s", money(report.TotalSales)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Net Difference: %s", money(report.NetDifference)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	headers := []struct {
		title string
		width float64
	}{
		{"Attendant", 40}, {"Fuel", 24}, {"Lubricants", 24}, {"Store", 24}, {"Payments", 26}, {"Difference", 26},
	}
	for _, col := range headers {
		pdf.CellFormat(col.width, 6, col.title, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, a := range report.Attendants {
		pdf.CellFormat(40, 6, a.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(24, 6, money(a.FuelAllocation), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, money(a.LubricantTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(24, 6, money(a.InStoreSales), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, money(a.PaymentTotal), "1", 0, "R", false, 0, "")
		pdf.CellFormat(26, 6, money(a.Difference), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		for _, p := range a.Payments {
			pdf.CellFormat(40, 5, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(48, 5, fmt.Sprintf("%s: %s", p.Category, money(p.Amount)), "", 0, "L", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildShiftReportXLSX renders a workbook with a summary sheet and one row
// per attendant.
func BuildShiftReportXLSX(report shift.ShiftReport) ([]byte, error) {
	h := report.Header
	f := excelize.NewFile()
	summarySheet := "summary"
	attendantsSheet := "attendants"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(attendantsSheet)

	_ = f.SetCellValue(summarySheet, "A1", "Shift Close Report")
	_ = f.SetCellValue(summarySheet, "A3", "Station")
	_ = f.SetCellValue(summarySheet, "B3", h.StationID)
	_ = f.SetCellValue(summarySheet, "A4", "Date")
	_ = f.SetCellValue(summarySheet, "B4", h.Date.Format("2006-01-02"))
	_ = f.SetCellValue(summarySheet, "A5", "Shift")
	_ = f.SetCellValue(summarySheet, "B5", h.Label)
	_ = f.SetCellValue(summarySheet, "A6", "Shift ID")
	_ = f.SetCellValue(summarySheet, "B6", h.ID)
	_ = f.SetCellValue(summarySheet, "A7", "Station Revenue")
	_ = f.SetCellValue(summarySheet, "B7", h.TotalStationRevenue.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A8", "Total Sales")
	_ = f.SetCellValue(summarySheet, "B8", report.TotalSales.InexactFloat64())
	_ = f.SetCellValue(summarySheet, "A9", "Net Difference")
	_ = f.SetCellValue(summarySheet, "B9", report.NetDifference.InexactFloat64())

	columns := []string{"Attendant", "Role", "Fuel", "Lubricants", "Store", "Payments", "Difference"}
	for _, c := range shift.PaymentCategories() {
		columns = append(columns, "Payments "+string(c))
	}
	for i, title := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(attendantsSheet, cell, title)
	}
	for i, a := range report.Attendants {
		row := i + 2
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("A%d", row), a.Name)
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("B%d", row), string(a.Role))
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("C%d", row), a.FuelAllocation.InexactFloat64())
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("D%d", row), a.LubricantTotal.InexactFloat64())
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("E%d", row), a.InStoreSales.InexactFloat64())
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("F%d", row), a.PaymentTotal.InexactFloat64())
		_ = f.SetCellValue(attendantsSheet, fmt.Sprintf("G%d", row), a.Difference.InexactFloat64())
		for j, c := range shift.PaymentCategories() {
			cell, err := excelize.CoordinatesToCellName(8+j, row)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(attendantsSheet, cell, categoryAmount(a.Payments, c).InexactFloat64())
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func categoryAmount(totals []shift.CategoryTotal, category shift.PaymentCategory) decimal.Decimal {
	for _, t := range totals {
		if t.Category == category {
			return t.Amount
		}
	}
	return decimal.Zero
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
