package app

import (
	"moveflow/internal/ai"
	"moveflow/internal/core"
)

// QuoteResult is returned by PriceQuote.
type QuoteResult struct {
	Quote    core.Quote
	Move     core.MoveSpecification
	Services []core.SelectedService
}

// BookingResult is returned by booking operations.
type BookingResult struct {
	Booking *core.Booking
	Job     *core.Job
}

// CatalogResult is returned by ListCatalog.
type CatalogResult struct {
	Services []core.CatalogService
}

// JobListResult is returned by ListJobs.
type JobListResult struct {
	Jobs []core.Job
}

// JobDetailResult is returned by GetJob.
type JobDetailResult struct {
	Job         *core.Job
	Booking     *core.Booking
	Ledger      []core.ServiceLedgerEntry
	LedgerTotal int64
	Invoice     *core.Invoice // nil until the job is invoiced
}

// LedgerResult is returned by ListLedger.
type LedgerResult struct {
	JobID   int
	Entries []core.ServiceLedgerEntry
	Total   int64
}

// AutoInvoiceRunResult summarizes one end-of-day auto-invoice sweep.
type AutoInvoiceRunResult struct {
	Date     string
	Examined int
	Invoiced []core.Invoice
	Skipped  int // lost the claim race, already handled elsewhere
	Failures []AutoInvoiceFailure
}

// AutoInvoiceFailure records one job the sweep could not invoice.
type AutoInvoiceFailure struct {
	JobID int
	Err   string
}

// AssistResult is returned by QuoteAssist.
type AssistResult struct {
	Draft                *ai.QuoteRequestDraft
	ClarificationMessage string
	IsClarification      bool
}

// StaffSession is returned by AuthenticateStaff.
type StaffSession struct {
	Staff *core.StaffMember
}
