package app

import (
	"time"

	"github.com/shopspring/decimal"

	"moveflow/internal/core"
)

// QuoteRequest is the input for pricing a move.
type QuoteRequest struct {
	Move     core.MoveSpecification
	Services []core.SelectedService
}

// CreateBookingRequest is the input for booking a priced move.
type CreateBookingRequest struct {
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	MoveDate       string // YYYY-MM-DD
	Move           core.MoveSpecification
	Services       []core.SelectedService
	EstimatedHours *decimal.Decimal
}

// AppendServiceRequest is the input for adding one service to a job's ledger.
// For catalog services only ServiceID and Quantity are needed; name, price and
// RUT eligibility are resolved from the effective catalog. Custom work must
// carry an explicit Name and UnitPrice.
type AppendServiceRequest struct {
	JobID          int
	ServiceID      string
	Name           string
	Quantity       int64
	UnitPrice      *int64 // nil means "use catalog price"
	RutEligible    *bool  // nil means "use catalog eligibility"
	AddedBy        string
	AddedDuringJob bool
	Notes          string
}

// TimeEntryRequest records hours worked by one staff member on a job.
type TimeEntryRequest struct {
	JobID int
	Staff string
	Hours decimal.Decimal
}

// GPSPingRequest records a crew position report for a job.
type GPSPingRequest struct {
	JobID    int
	Staff    string
	PingedAt time.Time // zero means now
}
