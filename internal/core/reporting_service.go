package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RevenueSummary aggregates invoiced revenue for one calendar month.
// Amounts are whole SEK.
type RevenueSummary struct {
	Year              int   `json:"year"`
	Month             int   `json:"month"`
	InvoiceCount      int   `json:"invoice_count"`
	AutoInvoiceCount  int   `json:"auto_invoice_count"`
	Subtotal          int64 `json:"subtotal"`
	RutDeductionTotal int64 `json:"rut_deduction_total"`
	BilledTotal       int64 `json:"billed_total"`
}

// LedgerActivity summarizes additional-service uptake per catalog service.
type LedgerActivity struct {
	ServiceID  string `json:"service_id"`
	Name       string `json:"name"`
	EntryCount int    `json:"entry_count"`
	Quantity   int64  `json:"quantity"`
	Revenue    int64  `json:"revenue"`
}

// ReportingService provides read-only aggregates for the CRM dashboard and
// the XLSX export.
type ReportingService interface {
	// MonthlyRevenue returns the revenue summary for one calendar month.
	MonthlyRevenue(ctx context.Context, year, month int) (*RevenueSummary, error)

	// ServiceActivity returns per-service ledger aggregates, busiest first.
	ServiceActivity(ctx context.Context) ([]LedgerActivity, error)
}

type reportingService struct {
	pool *pgxpool.Pool
}

// NewReportingService constructs a ReportingService backed by PostgreSQL.
func NewReportingService(pool *pgxpool.Pool) ReportingService {
	return &reportingService{pool: pool}
}

func (s *reportingService) MonthlyRevenue(ctx context.Context, year, month int) (*RevenueSummary, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("invalid month %d", month)
	}

	summary := RevenueSummary{Year: year, Month: month}
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE auto_invoiced),
		       COALESCE(SUM(subtotal), 0),
		       COALESCE(SUM(rut_deduction), 0),
		       COALESCE(SUM(total_amount), 0)
		FROM invoices
		WHERE EXTRACT(YEAR FROM created_at) = $1
		  AND EXTRACT(MONTH FROM created_at) = $2
	`, year, month).Scan(&summary.InvoiceCount, &summary.AutoInvoiceCount,
		&summary.Subtotal, &summary.RutDeductionTotal, &summary.BilledTotal)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly revenue: %w", err)
	}
	return &summary, nil
}

func (s *reportingService) ServiceActivity(ctx context.Context) ([]LedgerActivity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT service_id, MIN(name), COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(total_price), 0)
		FROM service_ledger_entries
		GROUP BY service_id
		ORDER BY SUM(total_price) DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate service activity: %w", err)
	}
	defer rows.Close()

	var activity []LedgerActivity
	for rows.Next() {
		var a LedgerActivity
		if err := rows.Scan(&a.ServiceID, &a.Name, &a.EntryCount, &a.Quantity, &a.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan service activity: %w", err)
		}
		activity = append(activity, a)
	}
	return activity, rows.Err()
}
