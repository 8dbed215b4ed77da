package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"moveflow/internal/ai"
	"moveflow/internal/core"
)

type appService struct {
	bookings  core.BookingService
	jobs      core.JobService
	ledger    core.LedgerService
	invoices  core.InvoiceService
	catalog   core.CatalogResolver
	reporting core.ReportingService
	staff     core.StaffService
	agent     *ai.Agent
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil; QuoteAssist then reports the capability as unavailable.
func NewAppService(
	bookings core.BookingService,
	jobs core.JobService,
	ledger core.LedgerService,
	invoices core.InvoiceService,
	catalog core.CatalogResolver,
	reporting core.ReportingService,
	staff core.StaffService,
	agent *ai.Agent,
) ApplicationService {
	return &appService{
		bookings:  bookings,
		jobs:      jobs,
		ledger:    ledger,
		invoices:  invoices,
		catalog:   catalog,
		reporting: reporting,
		staff:     staff,
		agent:     agent,
	}
}

func (s *appService) PriceQuote(ctx context.Context, req QuoteRequest) (*QuoteResult, error) {
	quote, err := s.bookings.PriceQuote(ctx, req.Move, req.Services)
	if err != nil {
		return nil, err
	}
	req.Move.Normalize()
	return &QuoteResult{Quote: *quote, Move: req.Move, Services: req.Services}, nil
}

func (s *appService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingResult, error) {
	booking, job, err := s.bookings.CreateBooking(ctx, core.BookingInput{
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		MoveDate:       req.MoveDate,
		Move:           req.Move,
		Services:       req.Services,
		EstimatedHours: req.EstimatedHours,
	})
	if err != nil {
		return nil, err
	}
	return &BookingResult{Booking: booking, Job: job}, nil
}

// GetBooking accepts either the numeric booking ID (staff app) or the public
// UUID reference (customer confirmation page).
func (s *appService) GetBooking(ctx context.Context, ref string) (*BookingResult, error) {
	var booking *core.Booking
	var err error
	if id, convErr := strconv.Atoi(ref); convErr == nil {
		booking, err = s.bookings.GetBooking(ctx, id)
	} else {
		booking, err = s.bookings.GetBookingByReference(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	return &BookingResult{Booking: booking}, nil
}

func (s *appService) ListCatalog(ctx context.Context) (*CatalogResult, error) {
	services, err := s.catalog.List(ctx)
	if err != nil {
		return nil, err
	}
	return &CatalogResult{Services: services}, nil
}

func (s *appService) ListJobs(ctx context.Context, status string) (*JobListResult, error) {
	var filter *core.JobStatus
	if status != "" {
		st := core.JobStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("unknown job status %q", status)
		}
		filter = &st
	}
	jobs, err := s.jobs.ListJobs(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &JobListResult{Jobs: jobs}, nil
}

func (s *appService) GetJob(ctx context.Context, jobID int) (*JobDetailResult, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	booking, err := s.bookings.GetBooking(ctx, job.BookingID)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledger.EntriesFor(ctx, jobID)
	if err != nil {
		return nil, err
	}
	total, err := s.ledger.TotalFor(ctx, jobID)
	if err != nil {
		return nil, err
	}

	detail := &JobDetailResult{
		Job:         job,
		Booking:     booking,
		Ledger:      entries,
		LedgerTotal: total,
	}
	if job.Status == core.JobInvoiced {
		invoice, err := s.invoices.GetInvoiceForJob(ctx, jobID)
		if err != nil && !errors.Is(err, core.ErrInvoiceNotFound) {
			return nil, err
		}
		detail.Invoice = invoice
	}
	return detail, nil
}

func (s *appService) TransitionJob(ctx context.Context, jobID int, to string) (*core.Job, error) {
	target := core.JobStatus(to)
	if !target.Valid() {
		return nil, fmt.Errorf("unknown job status %q", to)
	}
	return s.jobs.Transition(ctx, jobID, target)
}

func (s *appService) AppendService(ctx context.Context, req AppendServiceRequest) (*core.ServiceLedgerEntry, error) {
	entry := core.ServiceLedgerEntry{
		JobID:          req.JobID,
		ServiceID:      req.ServiceID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		AddedBy:        req.AddedBy,
		AddedDuringJob: req.AddedDuringJob,
		Notes:          req.Notes,
	}

	svc, known, err := s.catalog.Resolve(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	switch {
	case known:
		entry.Name = svc.Name
		entry.UnitPrice = svc.UnitPrice
		entry.RutEligible = svc.RutEligible
	case req.UnitPrice == nil || req.Name == "":
		return nil, fmt.Errorf("service %q is not in the catalog; custom work needs a name and unit price", req.ServiceID)
	}
	if req.UnitPrice != nil {
		entry.UnitPrice = *req.UnitPrice
	}
	if req.RutEligible != nil {
		entry.RutEligible = *req.RutEligible
	}

	return s.ledger.Append(ctx, entry)
}

func (s *appService) ListLedger(ctx context.Context, jobID int) (*LedgerResult, error) {
	entries, err := s.ledger.EntriesFor(ctx, jobID)
	if err != nil {
		return nil, err
	}
	total, err := s.ledger.TotalFor(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &LedgerResult{JobID: jobID, Entries: entries, Total: total}, nil
}

func (s *appService) RecordTimeEntry(ctx context.Context, req TimeEntryRequest) error {
	return s.jobs.RecordTimeEntry(ctx, req.JobID, req.Staff, req.Hours)
}

func (s *appService) RecordGPSPing(ctx context.Context, req GPSPingRequest) error {
	at := req.PingedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return s.jobs.RecordGPSPing(ctx, req.JobID, req.Staff, at)
}

func (s *appService) FinalizeInvoice(ctx context.Context, jobID int) (*core.Invoice, error) {
	return s.invoices.FinalizeJob(ctx, jobID)
}

func (s *appService) GetInvoice(ctx context.Context, invoiceID int) (*core.Invoice, error) {
	return s.invoices.GetInvoice(ctx, invoiceID)
}

func (s *appService) GetInvoiceForJob(ctx context.Context, jobID int) (*core.Invoice, error) {
	return s.invoices.GetInvoiceForJob(ctx, jobID)
}

func (s *appService) ListInvoices(ctx context.Context) ([]core.Invoice, error) {
	return s.invoices.ListInvoices(ctx)
}

func (s *appService) RunAutoInvoicing(ctx context.Context, date string) (*AutoInvoiceRunResult, error) {
	if date == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	candidates, err := s.jobs.AutoInvoiceCandidates(ctx, date)
	if err != nil {
		return nil, err
	}

	result := &AutoInvoiceRunResult{Date: date, Examined: len(candidates)}
	for _, job := range candidates {
		claimed, err := s.jobs.ClaimForAutoInvoice(ctx, job.ID)
		if err != nil {
			result.Failures = append(result.Failures, AutoInvoiceFailure{JobID: job.ID, Err: err.Error()})
			continue
		}
		if !claimed {
			result.Skipped++
			continue
		}

		ev, err := s.jobs.HoursEvidenceFor(ctx, job.ID)
		if err != nil {
			result.Failures = append(result.Failures, AutoInvoiceFailure{JobID: job.ID, Err: err.Error()})
			continue
		}
		invoice, err := s.invoices.AutoFinalizeJob(ctx, job.ID, *ev)
		if err != nil {
			// Another finalizer may have won between claim and insert.
			if errors.Is(err, core.ErrAlreadyInvoiced) {
				result.Skipped++
			} else {
				result.Failures = append(result.Failures, AutoInvoiceFailure{JobID: job.ID, Err: err.Error()})
			}
			continue
		}
		result.Invoiced = append(result.Invoiced, *invoice)
	}
	return result, nil
}

func (s *appService) MonthlyRevenue(ctx context.Context, year, month int) (*core.RevenueSummary, error) {
	return s.reporting.MonthlyRevenue(ctx, year, month)
}

func (s *appService) ServiceActivity(ctx context.Context) ([]core.LedgerActivity, error) {
	return s.reporting.ServiceActivity(ctx)
}

func (s *appService) QuoteAssist(ctx context.Context, text string) (*AssistResult, error) {
	if s.agent == nil {
		return nil, errors.New("quote assist is not configured: missing OPENAI_API_KEY")
	}
	outcome, err := s.agent.QuoteAssist(ctx, text)
	if err != nil {
		return nil, err
	}
	if outcome.NeedsClarification {
		return &AssistResult{IsClarification: true, ClarificationMessage: outcome.Clarification}, nil
	}
	return &AssistResult{Draft: outcome.Draft}, nil
}

func (s *appService) AuthenticateStaff(ctx context.Context, username, password string) (*StaffSession, error) {
	member, err := s.staff.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	return &StaffSession{Staff: member}, nil
}

func (s *appService) GetStaff(ctx context.Context, staffID int) (*core.StaffMember, error) {
	return s.staff.GetByID(ctx, staffID)
}
