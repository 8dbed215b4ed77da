package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"moveflow/internal/core"
)

func sampleInvoice() core.Invoice {
	return core.Invoice{
		ID:             1,
		JobID:          7,
		InvoiceNumber:  "INV-2026-00001",
		Subtotal:       12000,
		RutDeduction:   4200,
		TotalBeforeVAT: 7800,
		VAT:            0,
		TotalAmount:    7800,
		LineItems: []core.InvoiceLine{
			{Description: "Flyttjänst enligt offert", Quantity: 1, UnitPrice: 10000, Total: 10000},
			{Description: "Flyttstädning", Quantity: 1, UnitPrice: 2000, Total: 2000},
		},
		CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuildInvoicePDF(t *testing.T) {
	result, err := BuildInvoicePDF(ptr(sampleInvoice()))
	if err != nil {
		t.Fatalf("BuildInvoicePDF() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("BuildInvoicePDF() returned empty bytes")
	}
	if !bytes.HasPrefix(result, []byte("%PDF")) {
		t.Error("output does not look like a PDF")
	}
}

func TestBuildInvoicesXLSX(t *testing.T) {
	result, err := BuildInvoicesXLSX([]core.Invoice{sampleInvoice()})
	if err != nil {
		t.Fatalf("BuildInvoicesXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	number, _ := f.GetCellValue("invoices", "A2")
	if number != "INV-2026-00001" {
		t.Errorf("expected invoice number in A2, got %q", number)
	}
	total, _ := f.GetCellValue("invoices", "F2")
	if total != "7800" {
		t.Errorf("expected total 7800 in F2, got %q", total)
	}
	desc, _ := f.GetCellValue("lines", "B3")
	if desc != "Flyttstädning" {
		t.Errorf("expected second line item in B3, got %q", desc)
	}
}

func ptr(inv core.Invoice) *core.Invoice { return &inv }
