package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LedgerService is the append-only log of additional services attached to
// jobs. The contract has no update or delete: corrections are new entries.
// Totals are always recomputed by summing the log, never stored and
// incremented, so concurrent appends from different staff devices are plain
// independent inserts with nothing to race on.
type LedgerService interface {
	// Append records one service addition. entry.TotalPrice is computed here
	// (unitPrice × quantity) and frozen; the caller's value is ignored.
	Append(ctx context.Context, entry ServiceLedgerEntry) (*ServiceLedgerEntry, error)

	// EntriesFor returns all entries for a job in insertion order.
	EntriesFor(ctx context.Context, jobID int) ([]ServiceLedgerEntry, error)

	// TotalFor returns the SEK sum of TotalPrice over all entries for a job.
	TotalFor(ctx context.Context, jobID int) (int64, error)
}

type ledgerService struct {
	pool *pgxpool.Pool
}

// NewLedgerService constructs a LedgerService backed by PostgreSQL.
func NewLedgerService(pool *pgxpool.Pool) LedgerService {
	return &ledgerService{pool: pool}
}

func (s *ledgerService) Append(ctx context.Context, entry ServiceLedgerEntry) (*ServiceLedgerEntry, error) {
	if entry.JobID == 0 {
		return nil, errors.New("ledger entry must reference a job")
	}
	if entry.Quantity < 1 {
		return nil, fmt.Errorf("ledger entry quantity must be at least 1, got %d", entry.Quantity)
	}
	if entry.Quantity > maxServiceQuantity {
		return nil, fmt.Errorf("ledger entry quantity cannot exceed %d, got %d", maxServiceQuantity, entry.Quantity)
	}
	if entry.UnitPrice < 0 {
		return nil, fmt.Errorf("ledger entry unit price cannot be negative, got %d", entry.UnitPrice)
	}
	if entry.AddedBy == "" {
		return nil, errors.New("ledger entry must record who added it")
	}

	// Frozen at append time. Later catalog price changes never touch history.
	entry.TotalPrice = entry.UnitPrice * entry.Quantity

	var saved ServiceLedgerEntry
	err := s.pool.QueryRow(ctx, `
		INSERT INTO service_ledger_entries
			(job_id, service_id, name, quantity, unit_price, total_price, rut_eligible, added_by, added_during_job, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, job_id, service_id, name, quantity, unit_price, total_price, rut_eligible, added_by, added_at, added_during_job, notes
	`, entry.JobID, entry.ServiceID, entry.Name, entry.Quantity, entry.UnitPrice, entry.TotalPrice,
		entry.RutEligible, entry.AddedBy, entry.AddedDuringJob, entry.Notes,
	).Scan(
		&saved.ID, &saved.JobID, &saved.ServiceID, &saved.Name, &saved.Quantity, &saved.UnitPrice,
		&saved.TotalPrice, &saved.RutEligible, &saved.AddedBy, &saved.AddedAt, &saved.AddedDuringJob, &saved.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return &saved, nil
}

func (s *ledgerService) EntriesFor(ctx context.Context, jobID int) ([]ServiceLedgerEntry, error) {
	rows, err := s.pool.Query(ctx, `
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}

func (s *ledgerService) TotalFor(ctx context.Context, jobID int) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_price), 0)
		FROM service_ledger_entries
		WHERE job_id = $1
	`, jobID).Scan(&total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}
