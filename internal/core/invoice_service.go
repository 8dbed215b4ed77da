package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrInvoiceNotFound is returned by invoice lookups when no invoice exists,
// as opposed to a query failure.
var ErrInvoiceNotFound = errors.New("invoice not found")

// InvoiceService finalizes jobs into terminal invoices. A job gets at most one
// invoice: the status guard inside the finalize transaction plus a unique
// index on invoices.job_id make a second finalize fail with ErrAlreadyInvoiced
// instead of silently overwriting.
type InvoiceService interface {
	// FinalizeJob runs the normal close-out path for a completed job:
	// quote + service ledger, labor-fraction RUT, job transitions to invoiced.
	FinalizeJob(ctx context.Context, jobID int) (*Invoice, error)

	// AutoFinalizeJob runs the fallback path for a job the daily sweep has
	// claimed: hours evidence × flat rate, flat 50% RUT, tagged auto-invoiced.
	AutoFinalizeJob(ctx context.Context, jobID int, ev HoursEvidence) (*Invoice, error)

	GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error)
	GetInvoiceForJob(ctx context.Context, jobID int) (*Invoice, error)
	ListInvoices(ctx context.Context) ([]Invoice, error)
}

type invoiceService struct {
	pool *pgxpool.Pool
}

// NewInvoiceService constructs an InvoiceService backed by PostgreSQL.
func NewInvoiceService(pool *pgxpool.Pool) InvoiceService {
	return &invoiceService{pool: pool}
}

func (s *invoiceService) FinalizeJob(ctx context.Context, jobID int) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockJobStatus(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if err := EnsureFinalizable(status); err != nil {
		return nil, err
	}
	if status != JobCompleted {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, status, JobInvoiced)
	}

	var quote Quote
	err = tx.QueryRow(ctx, `
		SELECT b.base_price, b.surcharge_floors_start, b.surcharge_floors_end,
		       b.additional_services_total, b.total_price
		FROM bookings b
		JOIN jobs j ON j.booking_id = b.id
		WHERE j.id = $1
	`, jobID).Scan(&quote.BasePrice, &quote.Surcharges.FloorsStart, &quote.Surcharges.FloorsEnd,
		&quote.AdditionalServicesTotal, &quote.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("failed to load quote for job %d: %w", jobID, err)
	}

	// Snapshot the ledger inside the transaction so entries appended after
	// this point land on a correcting invoice, not this one.
	entries, err := ledgerEntriesTx(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}

	invoice, err := BuildInvoice(jobID, quote, entries)
	if err != nil {
		return nil, err
	}

	return s.persistInvoice(ctx, tx, invoice)
}

func (s *invoiceService) AutoFinalizeJob(ctx context.Context, jobID int, ev HoursEvidence) (*Invoice, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	status, err := lockJobStatus(ctx, tx, jobID)
	if err != nil {
		return nil, err
	}
	if err := EnsureFinalizable(status); err != nil {
		return nil, err
	}
	if status != JobCompleted {
		return nil, fmt.Errorf("%w: auto-invoice requires a claimed job, got %s", ErrInvalidTransition, status)
	}

	invoice, err := BuildAutoInvoice(jobID, ev)
	if err != nil {
		return nil, err
	}

	return s.persistInvoice(ctx, tx, invoice)
}

// lockJobStatus reads a job's status under FOR UPDATE so the status check and
// the invoiced transition are atomic against concurrent finalizers.
func lockJobStatus(ctx context.Context, tx pgx.Tx, jobID int) (JobStatus, error) {
	var status JobStatus
	err := tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, jobID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("job %d not found", jobID)
		}
		return "", fmt.Errorf("failed to lock job %d: %w", jobID, err)
	}
	return status, nil
}

func ledgerEntriesTx(ctx context.Context, tx pgx.Tx, jobID int) ([]ServiceLedgerEntry, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, job_id, service_id, name, quantity, unit_price, total_price, rut_eligible, added_by, added_at, added_during_job, notes
		FROM service_ledger_entries
		WHERE job_id = $1
		ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []ServiceLedgerEntry
	for rows.Next() {
		var e ServiceLedgerEntry
		if err := rows.Scan(&e.ID, &e.JobID, &e.ServiceID, &e.Name, &e.Quantity, &e.UnitPrice,
			&e.TotalPrice, &e.RutEligible, &e.AddedBy, &e.AddedAt, &e.AddedDuringJob, &e.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// persistInvoice assigns a gapless invoice number, stores the invoice and
// moves the job to invoiced, all inside the caller's transaction.
func (s *invoiceService) persistInvoice(ctx context.Context, tx pgx.Tx, invoice *Invoice) (*Invoice, error) {
	number, err := nextInvoiceNumber(ctx, tx)
	if err != nil {
		return nil, err
	}
	invoice.InvoiceNumber = number

	linesJSON, err := json.Marshal(invoice.LineItems)
	if err != nil {
		return nil, fmt.Errorf("failed to encode line items: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO invoices
			(job_id, invoice_number, subtotal, rut_deduction, total_before_vat, vat,
			 total_amount, line_items, auto_invoiced, auto_invoice_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`, invoice.JobID, invoice.InvoiceNumber, invoice.Subtotal, invoice.RutDeduction,
		invoice.TotalBeforeVAT, invoice.VAT, invoice.TotalAmount, linesJSON,
		invoice.AutoInvoiced, nullIfEmpty(invoice.AutoInvoiceReason),
	).Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyInvoiced
		}
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE jobs SET status = $1, invoiced_at = NOW() WHERE id = $2
	`, string(JobInvoiced), invoice.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark job invoiced: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invoice: %w", err)
	}
	return invoice, nil
}

// nextInvoiceNumber generates a concurrency-safe gapless number per calendar
// year, formatted INV-<year>-<5 digits>.
func nextInvoiceNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	year := time.Now().Year()
	var lastNumber int64
	err := tx.QueryRow(ctx, `
		INSERT INTO invoice_sequences (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_number = invoice_sequences.last_number + 1
		RETURNING last_number
	`, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%d-%05d", year, lastNumber), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, invoiceID int) (*Invoice, error) {
	return s.getInvoice(ctx, "id = $1", invoiceID)
}

func (s *invoiceService) GetInvoiceForJob(ctx context.Context, jobID int) (*Invoice, error) {
	return s.getInvoice(ctx, "job_id = $1", jobID)
}

const invoiceColumns = `id, job_id, invoice_number, subtotal, rut_deduction, total_before_vat,
	vat, total_amount, line_items, auto_invoiced, COALESCE(auto_invoice_reason, ''), created_at`

func (s *invoiceService) getInvoice(ctx context.Context, where string, arg any) (*Invoice, error) {
	inv, err := scanInvoice(s.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w for %v", ErrInvoiceNotFound, arg)
		}
		return nil, fmt.Errorf("failed to fetch invoice: %w", err)
	}
	return inv, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context) ([]Invoice, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var (
		inv       Invoice
		linesJSON []byte
	)
	err := row.Scan(&inv.ID, &inv.JobID, &inv.InvoiceNumber, &inv.Subtotal, &inv.RutDeduction,
		&inv.TotalBeforeVAT, &inv.VAT, &inv.TotalAmount, &linesJSON, &inv.AutoInvoiced,
		&inv.AutoInvoiceReason, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(linesJSON, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	return &inv, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
