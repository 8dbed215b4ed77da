package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"moveflow/internal/core"
)

// BuildInvoicePDF renders a customer-facing PDF for a finalized invoice.
// Amounts are whole SEK.
func BuildInvoicePDF(invoice *core.Invoice) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Faktura / Invoice")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice number: %s", invoice.InvoiceNumber))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Job: %d", invoice.JobID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Issued: %s", invoice.CreatedAt.Format(time.RFC3339)))
	pdf.Ln(5)
	if invoice.AutoInvoiced {
		pdf.Cell(0, 6, fmt.Sprintf("Auto-invoiced: %s", invoice.AutoInvoiceReason))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	// Line items table
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Description", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 6, "Qty", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Unit (SEK)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Total (SEK)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, line := range invoice.LineItems {
		pdf.CellFormat(90, 6, line.Description, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", line.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", line.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", line.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.Cell(0, 6, fmt.Sprintf("Subtotal: %d SEK", invoice.Subtotal))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("RUT deduction: -%d SEK", invoice.RutDeduction))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("VAT: %d SEK", invoice.VAT))
	pdf.Ln(5)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, fmt.Sprintf("To pay: %d SEK", invoice.TotalAmount))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildInvoicesXLSX renders an XLSX workbook with one summary row per invoice
// and a detail sheet of all line items, for the bookkeeping handover.
func BuildInvoicesXLSX(invoices []core.Invoice) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "invoices"
	linesSheet := "lines"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(linesSheet); err != nil {
		return nil, err
	}

	headers := []string{"Invoice", "Job", "Subtotal (SEK)", "RUT (SEK)", "VAT (SEK)", "Total (SEK)", "Auto", "Issued"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(summarySheet, cell, h)
	}
	for i, inv := range invoices {
		row := i + 2
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), inv.InvoiceNumber)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), inv.JobID)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), inv.Subtotal)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("D%d", row), inv.RutDeduction)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("E%d", row), inv.VAT)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("F%d", row), inv.TotalAmount)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("G%d", row), inv.AutoInvoiced)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("H%d", row), inv.CreatedAt.Format("2006-01-02"))
	}

	_ = f.SetCellValue(linesSheet, "A1", "Invoice")
	_ = f.SetCellValue(linesSheet, "B1", "Description")
	_ = f.SetCellValue(linesSheet, "C1", "Qty")
	_ = f.SetCellValue(linesSheet, "D1", "Unit (SEK)")
	_ = f.SetCellValue(linesSheet, "E1", "Total (SEK)")
	row := 2
	for _, inv := range invoices {
		for _, line := range inv.LineItems {
			_ = f.SetCellValue(linesSheet, fmt.Sprintf("A%d", row), inv.InvoiceNumber)
			_ = f.SetCellValue(linesSheet, fmt.Sprintf("B%d", row), line.Description)
			_ = f.SetCellValue(linesSheet, fmt.Sprintf("C%d", row), line.Quantity)
			_ = f.SetCellValue(linesSheet, fmt.Sprintf("D%d", row), line.UnitPrice)
			_ = f.SetCellValue(linesSheet, fmt.Sprintf("E%d", row), line.Total)
			row++
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
