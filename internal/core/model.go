package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoveType classifies the distance category of a move.
type MoveType string

const (
	MoveLocal         MoveType = "local"
	MoveDistance      MoveType = "distance"
	MoveInternational MoveType = "international"
)

// MoveSize classifies the volume category of a move.
type MoveSize string

const (
	SizeSmall  MoveSize = "small"
	SizeMedium MoveSize = "medium"
	SizeLarge  MoveSize = "large"
	SizeOffice MoveSize = "office"
)

// Location describes one end of a move (pickup or delivery).
// ParkingDistance is meters from the parking spot to the entrance. It is
// captured for operational planning but carries no surcharge in the base
// quote formula.
type Location struct {
	Floors          int  `json:"floors"`
	Elevator        bool `json:"elevator"`
	ParkingDistance int  `json:"parking_distance"`
}

// MoveSpecification is the immutable pricing input captured from the public
// booking form. It is validated once at the boundary and never mutated.
type MoveSpecification struct {
	MoveType MoveType `json:"move_type"`
	MoveSize MoveSize `json:"move_size"`
	Start    Location `json:"start"`
	End      Location `json:"end"`
}

// SelectedService references a catalog service chosen on the booking form.
type SelectedService struct {
	ServiceID string `json:"service_id"`
	Quantity  int64  `json:"quantity"`
	Selected  bool   `json:"selected"`
}

// CatalogService is one entry in the additional-service catalog.
// UnitPrice is whole SEK.
type CatalogService struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	UnitPrice   int64  `json:"unit_price"`
	RutEligible bool   `json:"rut_eligible"`
	Category    string `json:"category"`
}

// Surcharges breaks out the floor surcharges applied on top of the base rate.
type Surcharges struct {
	FloorsStart int64 `json:"floors_start"`
	FloorsEnd   int64 `json:"floors_end"`
}

// Quote is the priced offer issued to a customer at booking time. A quote is
// immutable once issued; re-pricing produces a new Quote, never an edit.
type Quote struct {
	BasePrice               int64      `json:"base_price"`
	Surcharges              Surcharges `json:"surcharges"`
	AdditionalServicesTotal int64      `json:"additional_services_total"`
	TotalPrice              int64      `json:"total_price"`
}

// Booking is a persisted quote request: the customer, the move specification,
// the selected services and the quote issued for them.
type Booking struct {
	ID            int               `json:"id"`
	Reference     string            `json:"reference"`
	CustomerName  string            `json:"customer_name"`
	CustomerEmail string            `json:"customer_email"`
	CustomerPhone string            `json:"customer_phone"`
	MoveDate      string            `json:"move_date"` // YYYY-MM-DD
	Move          MoveSpecification `json:"move"`
	Services      []SelectedService `json:"services"`
	Quote         Quote             `json:"quote"`
	CreatedAt     time.Time         `json:"created_at"`
}

// JobStatus is the lifecycle state of a job.
//
//	pending → confirmed → in_progress → completed → invoiced
//	any pre-terminal status → cancelled
//
// invoiced and cancelled are terminal.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobConfirmed  JobStatus = "confirmed"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobInvoiced   JobStatus = "invoiced"
	JobCancelled  JobStatus = "cancelled"
)

// Valid reports whether s is one of the known lifecycle states.
func (s JobStatus) Valid() bool {
	switch s {
	case JobPending, JobConfirmed, JobInProgress, JobCompleted, JobInvoiced, JobCancelled:
		return true
	}
	return false
}

// Job is the operational record created from a booking. EstimatedHours comes
// from the booking intake and feeds the auto-invoice hours fallback chain.
type Job struct {
	ID             int              `json:"id"`
	BookingID      int              `json:"booking_id"`
	Status         JobStatus        `json:"status"`
	ScheduledDate  string           `json:"scheduled_date"` // YYYY-MM-DD
	ScheduledStart *time.Time       `json:"scheduled_start,omitempty"`
	ActualStart    *time.Time       `json:"actual_start,omitempty"`
	EstimatedHours *decimal.Decimal `json:"estimated_hours,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
	InvoicedAt     *time.Time       `json:"invoiced_at,omitempty"`
}

// ServiceLedgerEntry is one immutable record of an additional service attached
// to a job. Entries are append-only: corrections happen by appending a new
// entry, never by editing or deleting an existing one. TotalPrice is frozen at
// append time so later catalog price changes cannot rewrite history.
type ServiceLedgerEntry struct {
	ID             int       `json:"id"`
	JobID          int       `json:"job_id"`
	ServiceID      string    `json:"service_id"`
	Name           string    `json:"name"`
	Quantity       int64     `json:"quantity"`
	UnitPrice      int64     `json:"unit_price"`
	TotalPrice     int64     `json:"total_price"`
	RutEligible    bool      `json:"rut_eligible"`
	AddedBy        string    `json:"added_by"`
	AddedAt        time.Time `json:"added_at"`
	AddedDuringJob bool      `json:"added_during_job"`
	Notes          string    `json:"notes,omitempty"`
}

// InvoiceLine is one line item on a finalized invoice.
type InvoiceLine struct {
	Description string `json:"description"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   int64  `json:"unit_price"`
	Total       int64  `json:"total"`
}

// Invoice is the terminal billing record for a job. All amounts are whole SEK.
// Invariants: TotalAmount == Subtotal - RutDeduction and
// Subtotal == sum of LineItems[i].Total.
type Invoice struct {
	ID                int           `json:"id"`
	JobID             int           `json:"job_id"`
	InvoiceNumber     string        `json:"invoice_number"`
	Subtotal          int64         `json:"subtotal"`
	RutDeduction      int64         `json:"rut_deduction"`
	TotalBeforeVAT    int64         `json:"total_before_vat"`
	VAT               int64         `json:"vat"`
	TotalAmount       int64         `json:"total_amount"`
	LineItems         []InvoiceLine `json:"line_items"`
	AutoInvoiced      bool          `json:"auto_invoiced"`
	AutoInvoiceReason string        `json:"auto_invoice_reason,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}
