package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// BookingInput is the validated intake from the public booking form.
type BookingInput struct {
	CustomerName   string
	CustomerEmail  string
	CustomerPhone  string
	MoveDate       string // YYYY-MM-DD
	Move           MoveSpecification
	Services       []SelectedService
	EstimatedHours *decimal.Decimal
}

// BookingService handles booking intake: it prices the move, persists the
// booking with its issued quote verbatim, and opens the job record.
type BookingService interface {
	// CreateBooking validates the intake, computes the quote and stores
	// booking + job atomically. The issued quote is immutable; re-pricing the
	// same stored specification must reproduce it exactly.
	CreateBooking(ctx context.Context, input BookingInput) (*Booking, *Job, error)

	// PriceQuote computes a quote without persisting anything, for the public
	// price-preview endpoint.
	PriceQuote(ctx context.Context, move MoveSpecification, services []SelectedService) (*Quote, error)

	GetBooking(ctx context.Context, id int) (*Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*Booking, error)
}

type bookingService struct {
	pool    *pgxpool.Pool
	catalog CatalogResolver
}

// NewBookingService constructs a BookingService backed by PostgreSQL.
func NewBookingService(pool *pgxpool.Pool, catalog CatalogResolver) BookingService {
	return &bookingService{pool: pool, catalog: catalog}
}

func (s *bookingService) PriceQuote(ctx context.Context, move MoveSpecification, services []SelectedService) (*Quote, error) {
	move.Normalize()
	if err := move.Validate(); err != nil {
		return nil, err
	}
	resolve := CatalogResolveFunc(ctx, s.catalog)
	if err := ValidateSelectedServices(services, resolve); err != nil {
		return nil, err
	}
	quote := ComputeQuote(move, services, resolve)
	return &quote, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, input BookingInput) (*Booking, *Job, error) {
	if input.CustomerName == "" {
		return nil, nil, errors.New("booking must carry a customer name")
	}
	if input.MoveDate == "" {
		return nil, nil, errors.New("booking must carry a move date")
	}

	quote, err := s.PriceQuote(ctx, input.Move, input.Services)
	if err != nil {
		return nil, nil, err
	}
	input.Move.Normalize()

	moveJSON, err := json.Marshal(input.Move)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode move specification: %w", err)
	}
	servicesJSON, err := json.Marshal(input.Services)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode selected services: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	booking := Booking{
		Reference:     uuid.NewString(),
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		MoveDate:      input.MoveDate,
		Move:          input.Move,
		Services:      input.Services,
		Quote:         *quote,
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO bookings
			(reference, customer_name, customer_email, customer_phone, move_date,
			 move_spec, selected_services, base_price, surcharge_floors_start,
			 surcharge_floors_end, additional_services_total, total_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`, booking.Reference, booking.CustomerName, booking.CustomerEmail, booking.CustomerPhone,
		booking.MoveDate, moveJSON, servicesJSON,
		quote.BasePrice, quote.Surcharges.FloorsStart, quote.Surcharges.FloorsEnd,
		quote.AdditionalServicesTotal, quote.TotalPrice,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	job := Job{
		BookingID:      booking.ID,
		Status:         JobPending,
		ScheduledDate:  input.MoveDate,
		EstimatedHours: input.EstimatedHours,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO jobs (booking_id, status, scheduled_date, estimated_hours)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, booking.ID, string(JobPending), input.MoveDate, input.EstimatedHours).Scan(&job.ID, &job.CreatedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit booking: %w", err)
	}
	return &booking, &job, nil
}

func (s *bookingService) GetBooking(ctx context.Context, id int) (*Booking, error) {
	return s.getBooking(ctx, "id = $1", id)
}

func (s *bookingService) GetBookingByReference(ctx context.Context, reference string) (*Booking, error) {
	return s.getBooking(ctx, "reference = $1", reference)
}

func (s *bookingService) getBooking(ctx context.Context, where string, arg any) (*Booking, error) {
	var (
		b            Booking
		moveJSON     []byte
		servicesJSON []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, reference, customer_name, customer_email, customer_phone, move_date::text,
		       move_spec, selected_services, base_price, surcharge_floors_start,
		       surcharge_floors_end, additional_services_total, total_price, created_at
		FROM bookings
		WHERE `+where, arg,
	).Scan(&b.ID, &b.Reference, &b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.MoveDate,
		&moveJSON, &servicesJSON, &b.Quote.BasePrice, &b.Quote.Surcharges.FloorsStart,
		&b.Quote.Surcharges.FloorsEnd, &b.Quote.AdditionalServicesTotal, &b.Quote.TotalPrice, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("booking %v not found", arg)
		}
		return nil, fmt.Errorf("failed to fetch booking: %w", err)
	}

	if err := json.Unmarshal(moveJSON, &b.Move); err != nil {
		return nil, fmt.Errorf("failed to decode move specification: %w", err)
	}
	if err := json.Unmarshal(servicesJSON, &b.Services); err != nil {
		return nil, fmt.Errorf("failed to decode selected services: %w", err)
	}
	return &b, nil
}
