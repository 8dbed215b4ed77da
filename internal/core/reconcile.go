package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrAlreadyInvoiced is returned when finalization is requested for a job
// that already carries a terminal invoice.
var ErrAlreadyInvoiced = errors.New("job is already invoiced")

// ErrJobCancelled is returned when finalization is requested for a cancelled job.
var ErrJobCancelled = errors.New("job is cancelled")

// Auto-invoice fallback billing policy: a flat hourly rate for jobs with no
// itemized close-out, and a hard default when no hours signal exists at all.
const (
	autoInvoiceHourlyRateSEK = 400
	autoInvoiceDefaultHours  = 4

	// gpsMaxPlausibleHours bounds GPS-derived durations; anything at or past
	// this is treated as a stale ping and the chain falls through.
	gpsMaxPlausibleHours = 12

	// trackedHoursCapFactor caps tracked hours at estimate × 1.5 to stop bad
	// tracking data from over-billing.
	trackedHoursCapFactor = 1.5
)

// EnsureFinalizable rejects finalization for jobs in a terminal state. The
// caller passes the job's current status; at-most-once execution across
// concurrent callers is the scheduler's job (status claim in the database),
// this check just makes double invoicing detectable at the contract level.
func EnsureFinalizable(status JobStatus) error {
	switch status {
	case JobInvoiced:
		return ErrAlreadyInvoiced
	case JobCancelled:
		return ErrJobCancelled
	default:
		return nil
	}
}

// BuildInvoice reconciles a job on the normal close-out path: the original
// quote plus everything appended to the service ledger, with the RUT
// deduction on the combined subtotal. Moving labor under RUT is VAT-exempt,
// so VAT is always zero here.
//
// Line items are ordered: the base move line first, then one line per ledger
// entry in ledger order.
func BuildInvoice(jobID int, quote Quote, entries []ServiceLedgerEntry) (*Invoice, error) {
	lines := make([]InvoiceLine, 0, len(entries)+1)
	lines = append(lines, InvoiceLine{
		Description: "Flyttjänst enligt offert",
		Quantity:    1,
		UnitPrice:   quote.TotalPrice,
		Total:       quote.TotalPrice,
	})

	subtotal := quote.TotalPrice
	for _, e := range entries {
		lines = append(lines, InvoiceLine{
			Description: e.Name,
			Quantity:    e.Quantity,
			UnitPrice:   e.UnitPrice,
			Total:       e.TotalPrice,
		})
		subtotal += e.TotalPrice
	}

	deduction, err := RUTDeduction(subtotal)
	if err != nil {
		return nil, fmt.Errorf("rut deduction: %w", err)
	}

	return &Invoice{
		JobID:          jobID,
		Subtotal:       subtotal,
		RutDeduction:   deduction,
		TotalBeforeVAT: subtotal - deduction,
		VAT:            0,
		TotalAmount:    subtotal - deduction,
		LineItems:      lines,
	}, nil
}

// HoursEvidence gathers the signals available to the auto-invoice fallback
// for estimating how long a job actually ran. Any field may be absent.
type HoursEvidence struct {
	TrackedHours   *decimal.Decimal // sum of staff time entries, if any
	LastGPSPing    *time.Time       // last position report from the crew
	StartTime      *time.Time       // actual start, or scheduled start if never checked in
	EstimatedHours *decimal.Decimal // estimate captured at booking
}

// ResolveBillableHours applies the fallback hours policy in strict priority
// order and reports which signal won:
//
//  1. positive tracked hours, capped at the booking estimate × 1.5;
//  2. GPS last-seen minus start time, accepted only inside (0, 12) hours and
//     rounded to the nearest half hour;
//  3. the booking estimate;
//  4. a hard default of 4 hours.
func ResolveBillableHours(ev HoursEvidence) (decimal.Decimal, string) {
	if ev.TrackedHours != nil && ev.TrackedHours.IsPositive() {
		hours := *ev.TrackedHours
		if ev.EstimatedHours != nil && ev.EstimatedHours.IsPositive() {
			limit := ev.EstimatedHours.Mul(decimal.NewFromFloat(trackedHoursCapFactor))
			if hours.GreaterThan(limit) {
				hours = limit
			}
		}
		return hours, "time tracking"
	}

	if ev.LastGPSPing != nil && ev.StartTime != nil {
		elapsed := ev.LastGPSPing.Sub(*ev.StartTime)
		hours := decimal.NewFromFloat(elapsed.Hours())
		if hours.IsPositive() && hours.LessThan(decimal.NewFromInt(gpsMaxPlausibleHours)) {
			// Round to the nearest half hour.
			half := hours.Mul(decimal.NewFromInt(2)).Round(0).Div(decimal.NewFromInt(2))
			if half.IsPositive() {
				return half, "gps last seen"
			}
		}
	}

	if ev.EstimatedHours != nil && ev.EstimatedHours.IsPositive() {
		return *ev.EstimatedHours, "booking estimate"
	}

	return decimal.NewFromInt(autoInvoiceDefaultHours), "default"
}

// BuildAutoInvoice synthesizes an invoice for a job that was never closed out
// by staff. Billing is hours × flat 400 SEK/h, and the RUT deduction is the
// simpler flat 50% rule, deliberately not the labor-fraction rule from the
// normal path, matching how the two billing paths have always diverged.
func BuildAutoInvoice(jobID int, ev HoursEvidence) (*Invoice, error) {
	hours, source := ResolveBillableHours(ev)

	amount := hours.Mul(decimal.NewFromInt(autoInvoiceHourlyRateSEK)).Round(0).IntPart()
	deduction, err := RUTDeductionFlat(amount)
	if err != nil {
		return nil, fmt.Errorf("rut deduction: %w", err)
	}

	return &Invoice{
		JobID:          jobID,
		Subtotal:       amount,
		RutDeduction:   deduction,
		TotalBeforeVAT: amount - deduction,
		VAT:            0,
		TotalAmount:    amount - deduction,
		LineItems: []InvoiceLine{{
			Description: fmt.Sprintf("Flyttarbete %s tim à %d SEK", hours.String(), autoInvoiceHourlyRateSEK),
			Quantity:    1,
			UnitPrice:   amount,
			Total:       amount,
		}},
		AutoInvoiced:      true,
		AutoInvoiceReason: fmt.Sprintf("job was never closed out; billed %s hours from %s", hours.String(), source),
	}, nil
}
