package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is returned for a job status change the state machine
// does not allow.
var ErrInvalidTransition = errors.New("invalid job status transition")

// jobTransitions is the allowed status state machine.
var jobTransitions = map[JobStatus][]JobStatus{
	JobPending:    {JobConfirmed, JobCancelled},
	JobConfirmed:  {JobInProgress, JobCancelled},
	JobInProgress: {JobCompleted, JobCancelled},
	JobCompleted:  {JobInvoiced, JobCancelled},
	JobInvoiced:   {},
	JobCancelled:  {},
}

func transitionAllowed(from, to JobStatus) bool {
	for _, s := range jobTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// JobService manages the job lifecycle and the evidence signals consumed by
// the auto-invoice fallback.
type JobService interface {
	GetJob(ctx context.Context, jobID int) (*Job, error)
	ListJobs(ctx context.Context, status *JobStatus) ([]Job, error)

	// Transition moves a job to the next status under a row lock. Invalid
	// transitions return ErrInvalidTransition without modifying the row.
	Transition(ctx context.Context, jobID int, to JobStatus) (*Job, error)

	// RecordGPSPing stores a crew position report for a job.
	RecordGPSPing(ctx context.Context, jobID int, staff string, at time.Time) error

	// RecordTimeEntry stores hours worked by one staff member on a job.
	RecordTimeEntry(ctx context.Context, jobID int, staff string, hours decimal.Decimal) error

	// HoursEvidenceFor gathers the hours signals available for a job.
	HoursEvidenceFor(ctx context.Context, jobID int) (*HoursEvidence, error)

	// AutoInvoiceCandidates returns jobs scheduled on the given date that are
	// still active (confirmed or in progress) and thus eligible for the
	// end-of-day auto-invoice sweep.
	AutoInvoiceCandidates(ctx context.Context, date string) ([]Job, error)

	// ClaimForAutoInvoice atomically claims one candidate by moving it to
	// completed. The compare-and-swap on status makes the daily runner
	// at-most-once per job: a second claimer finds zero rows updated.
	ClaimForAutoInvoice(ctx context.Context, jobID int) (bool, error)
}

type jobService struct {
	pool *pgxpool.Pool
}

// NewJobService constructs a JobService backed by PostgreSQL.
func NewJobService(pool *pgxpool.Pool) JobService {
	return &jobService{pool: pool}
}

const jobColumns = `id, booking_id, status, scheduled_date::text, scheduled_start, actual_start,
	estimated_hours, created_at, completed_at, invoiced_at`

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	err := row.Scan(&j.ID, &j.BookingID, &j.Status, &j.ScheduledDate, &j.ScheduledStart,
		&j.ActualStart, &j.EstimatedHours, &j.CreatedAt, &j.CompletedAt, &j.InvoicedAt)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *jobService) GetJob(ctx context.Context, jobID int) (*Job, error) {
	j, err := scanJob(s.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, jobID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %d not found", jobID)
		}
		return nil, fmt.Errorf("failed to fetch job %d: %w", jobID, err)
	}
	return j, nil
}

func (s *jobService) ListJobs(ctx context.Context, status *JobStatus) ([]Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY scheduled_date, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *jobService) Transition(ctx context.Context, jobID int, to JobStatus) (*Job, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current JobStatus
	err = tx.QueryRow(ctx, `SELECT status FROM jobs WHERE id = $1 FOR UPDATE`, jobID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("job %d not found", jobID)
		}
		return nil, fmt.Errorf("failed to lock job %d: %w", jobID, err)
	}

	if !transitionAllowed(current, to) {
		return nil, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, current, to)
	}

	set := `status = $1`
	switch to {
	case JobInProgress:
		set += `, actual_start = NOW()`
	case JobCompleted:
		set += `, completed_at = NOW()`
	case JobInvoiced:
		set += `, invoiced_at = NOW()`
	}

	j, err := scanJob(tx.QueryRow(ctx,
		`UPDATE jobs SET `+set+` WHERE id = $2 RETURNING `+jobColumns, string(to), jobID))
	if err != nil {
		return nil, fmt.Errorf("failed to update job %d: %w", jobID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transition: %w", err)
	}
	return j, nil
}

func (s *jobService) RecordGPSPing(ctx context.Context, jobID int, staff string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO gps_pings (job_id, staff, pinged_at) VALUES ($1, $2, $3)
	`, jobID, staff, at)
	if err != nil {
		return fmt.Errorf("failed to record gps ping: %w", err)
	}
	return nil
}

func (s *jobService) RecordTimeEntry(ctx context.Context, jobID int, staff string, hours decimal.Decimal) error {
	if !hours.IsPositive() {
		return fmt.Errorf("time entry hours must be positive, got %s", hours)
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO time_entries (job_id, staff, hours) VALUES ($1, $2, $3)
	`, jobID, staff, hours)
	if err != nil {
		return fmt.Errorf("failed to record time entry: %w", err)
	}
	return nil
}

func (s *jobService) HoursEvidenceFor(ctx context.Context, jobID int) (*HoursEvidence, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	ev := HoursEvidence{EstimatedHours: job.EstimatedHours}

	// Start time: actual check-in wins over the scheduled slot.
	if job.ActualStart != nil {
		ev.StartTime = job.ActualStart
	} else if job.ScheduledStart != nil {
		ev.StartTime = job.ScheduledStart
	}

	var tracked *decimal.Decimal
	err = s.pool.QueryRow(ctx, `
		SELECT SUM(hours) FROM time_entries WHERE job_id = $1
	`, jobID).Scan(&tracked)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to sum time entries: %w", err)
	}
	if tracked != nil && tracked.IsPositive() {
		ev.TrackedHours = tracked
	}

	var lastPing *time.Time
	err = s.pool.QueryRow(ctx, `
		SELECT MAX(pinged_at) FROM gps_pings WHERE job_id = $1
	`, jobID).Scan(&lastPing)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch last gps ping: %w", err)
	}
	ev.LastGPSPing = lastPing

	return &ev, nil
}

func (s *jobService) AutoInvoiceCandidates(ctx context.Context, date string) ([]Job, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE scheduled_date = $1 AND status IN ($2, $3)
		ORDER BY id
	`, date, string(JobConfirmed), string(JobInProgress))
	if err != nil {
		return nil, fmt.Errorf("failed to query auto-invoice candidates: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		jobs = append(jobs, *j)
	}
	return jobs, rows.Err()
}

func (s *jobService) ClaimForAutoInvoice(ctx context.Context, jobID int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET status = $1, completed_at = NOW()
		WHERE id = $2 AND status IN ($3, $4)
	`, string(JobCompleted), jobID, string(JobConfirmed), string(JobInProgress))
	if err != nil {
		return false, fmt.Errorf("failed to claim job %d: %w", jobID, err)
	}
	return tag.RowsAffected() == 1, nil
}
