package app

import (
	"context"

	"moveflow/internal/core"
)

// ApplicationService is the single interface all delivery adapters (web
// handlers, the auto-invoice runner) call. It decouples presentation from
// business logic. Implementations must contain no display logic of any kind.
type ApplicationService interface {
	// PriceQuote computes a quote for a move without persisting anything.
	PriceQuote(ctx context.Context, req QuoteRequest) (*QuoteResult, error)

	// CreateBooking prices the move, stores the booking with its issued quote
	// and opens the job record.
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error)

	// GetBooking returns a booking by public reference (UUID) or numeric ID.
	GetBooking(ctx context.Context, ref string) (*BookingResult, error)

	// ListCatalog returns the effective additional-service catalog.
	ListCatalog(ctx context.Context) (*CatalogResult, error)

	// ListJobs returns jobs, optionally filtered by status.
	ListJobs(ctx context.Context, status string) (*JobListResult, error)

	// GetJob returns one job with its booking, ledger entries and running totals.
	GetJob(ctx context.Context, jobID int) (*JobDetailResult, error)

	// TransitionJob moves a job along its lifecycle (confirm, start, complete,
	// cancel). Invalid transitions are rejected.
	TransitionJob(ctx context.Context, jobID int, to string) (*core.Job, error)

	// AppendService appends one additional-service entry to a job's ledger.
	// Entries are immutable once written.
	AppendService(ctx context.Context, req AppendServiceRequest) (*core.ServiceLedgerEntry, error)

	// ListLedger returns a job's ledger entries in append order with the
	// running total.
	ListLedger(ctx context.Context, jobID int) (*LedgerResult, error)

	// RecordTimeEntry stores hours worked by one staff member on a job.
	RecordTimeEntry(ctx context.Context, req TimeEntryRequest) error

	// RecordGPSPing stores a crew position report for a job.
	RecordGPSPing(ctx context.Context, req GPSPingRequest) error

	// FinalizeInvoice reconciles a completed job into its final invoice.
	// At most one invoice per job, ever.
	FinalizeInvoice(ctx context.Context, jobID int) (*core.Invoice, error)

	// GetInvoice returns an invoice by ID.
	GetInvoice(ctx context.Context, invoiceID int) (*core.Invoice, error)

	// GetInvoiceForJob returns the invoice issued for a job, if any.
	GetInvoiceForJob(ctx context.Context, jobID int) (*core.Invoice, error)

	// ListInvoices returns all invoices, newest first.
	ListInvoices(ctx context.Context) ([]core.Invoice, error)

	// RunAutoInvoicing sweeps jobs scheduled on the given date (YYYY-MM-DD)
	// that were never closed out and invoices each from the best available
	// hours evidence. A failure on one job does not stop the sweep.
	RunAutoInvoicing(ctx context.Context, date string) (*AutoInvoiceRunResult, error)

	// MonthlyRevenue returns the invoiced-revenue summary for one month.
	MonthlyRevenue(ctx context.Context, year, month int) (*core.RevenueSummary, error)

	// ServiceActivity returns per-service ledger aggregates, busiest first.
	ServiceActivity(ctx context.Context) ([]core.LedgerActivity, error)

	// QuoteAssist sends a free-text move description to the AI agent and
	// returns either a structured quote-request draft or a clarification
	// question. The agent never prices anything itself.
	QuoteAssist(ctx context.Context, text string) (*AssistResult, error)

	// AuthenticateStaff verifies credentials and returns a session on success.
	AuthenticateStaff(ctx context.Context, username, password string) (*StaffSession, error)

	// GetStaff returns a staff profile by ID.
	GetStaff(ctx context.Context, staffID int) (*core.StaffMember, error)
}
