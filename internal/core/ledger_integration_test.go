package core_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"moveflow/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE gps_pings, time_entries, service_ledger_entries, invoices,
			invoice_sequences, jobs, bookings, service_catalog_overrides, staff
			RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean test database: %v", err)
	}

	return pool
}

// seedBookedJob inserts a booking with its issued quote and a job in the given
// status, returning the job id.
func seedBookedJob(t *testing.T, pool *pgxpool.Pool, status core.JobStatus) int {
	ctx := context.Background()

	svc := core.NewBookingService(pool, core.NewCatalogResolver(pool))
	estimate := decimal.NewFromInt(6)
	booking, job, err := svc.CreateBooking(ctx, core.BookingInput{
		CustomerName:  "Anna Lindqvist",
		CustomerEmail: "anna@example.se",
		MoveDate:      "2026-09-15",
		Move: core.MoveSpecification{
			MoveType: core.MoveLocal,
			MoveSize: core.SizeMedium,
			Start:    core.Location{Floors: 2, Elevator: false},
			End:      core.Location{Floors: 0, Elevator: false},
		},
		Services: []core.SelectedService{
			{ServiceID: "packing", Quantity: 1, Selected: true},
			{ServiceID: "cleaning", Quantity: 1, Selected: true},
		},
		EstimatedHours: &estimate,
	})
	if err != nil {
		t.Fatalf("Failed to seed booking: %v", err)
	}
	if booking.Quote.TotalPrice != 10000 {
		t.Fatalf("Seed booking priced at %d, want 10000", booking.Quote.TotalPrice)
	}

	if status != core.JobPending {
		_, err = pool.Exec(ctx, "UPDATE jobs SET status = $1 WHERE id = $2", status, job.ID)
		if err != nil {
			t.Fatalf("Failed to move seed job to %s: %v", status, err)
		}
	}
	return job.ID
}

func TestLedger_AppendFreezesTotal(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	jobID := seedBookedJob(t, pool, core.JobInProgress)
	ledger := core.NewLedgerService(pool)
	ctx := context.Background()

	// The caller's TotalPrice is ignored; the service recomputes and freezes it.
	entry, err := ledger.Append(ctx, core.ServiceLedgerEntry{
		JobID:          jobID,
		ServiceID:      "storage",
		Name:           "Magasinering",
		Quantity:       3,
		UnitPrice:      1000,
		TotalPrice:     1, // deliberately wrong
		RutEligible:    true,
		AddedBy:        "erik",
		AddedDuringJob: true,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if entry.TotalPrice != 3000 {
		t.Errorf("Expected frozen total 3000, got %d", entry.TotalPrice)
	}
	if entry.ID == 0 {
		t.Errorf("Expected appended entry to receive an id")
	}
}

func TestLedger_EntriesKeepAppendOrder(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	jobID := seedBookedJob(t, pool, core.JobInProgress)
	ledger := core.NewLedgerService(pool)
	ctx := context.Background()

	ids := []string{"piano", "assembly", "storage"}
	prices := []int64{2500, 1200, 1000}
	for i, id := range ids {
		_, err := ledger.Append(ctx, core.ServiceLedgerEntry{
			JobID:     jobID,
			ServiceID: id,
			Name:      id,
			Quantity:  1,
			UnitPrice: prices[i],
			AddedBy:   "erik",
		})
		if err != nil {
			t.Fatalf("Append %s failed: %v", id, err)
		}
	}

	entries, err := ledger.EntriesFor(ctx, jobID)
	if err != nil {
		t.Fatalf("EntriesFor failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	for i, id := range ids {
		if entries[i].ServiceID != id {
			t.Errorf("Entry %d: expected %s, got %s", i, id, entries[i].ServiceID)
		}
	}

	total, err := ledger.TotalFor(ctx, jobID)
	if err != nil {
		t.Fatalf("TotalFor failed: %v", err)
	}
	if total != 4700 {
		t.Errorf("Expected ledger total 4700, got %d", total)
	}
}

func TestLedger_TotalForEmptyJobIsZero(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	jobID := seedBookedJob(t, pool, core.JobConfirmed)
	ledger := core.NewLedgerService(pool)

	total, err := ledger.TotalFor(context.Background(), jobID)
	if err != nil {
		t.Fatalf("TotalFor failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected empty ledger total 0, got %d", total)
	}
}

func TestLedger_RejectsInvalidEntries(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	jobID := seedBookedJob(t, pool, core.JobInProgress)
	ledger := core.NewLedgerService(pool)
	ctx := context.Background()

	cases := []struct {
		name  string
		entry core.ServiceLedgerEntry
	}{
		{"missing job", core.ServiceLedgerEntry{ServiceID: "x", Name: "x", Quantity: 1, UnitPrice: 100, AddedBy: "erik"}},
		{"zero quantity", core.ServiceLedgerEntry{JobID: jobID, ServiceID: "x", Name: "x", Quantity: 0, UnitPrice: 100, AddedBy: "erik"}},
		{"negative price", core.ServiceLedgerEntry{JobID: jobID, ServiceID: "x", Name: "x", Quantity: 1, UnitPrice: -5, AddedBy: "erik"}},
		{"missing actor", core.ServiceLedgerEntry{JobID: jobID, ServiceID: "x", Name: "x", Quantity: 1, UnitPrice: 100}},
		{"quantity above the ceiling", core.ServiceLedgerEntry{JobID: jobID, ServiceID: "x", Name: "x", Quantity: 1001, UnitPrice: 100, AddedBy: "erik"}},
		{"quantity large enough to overflow", core.ServiceLedgerEntry{JobID: jobID, ServiceID: "x", Name: "x", Quantity: 1 << 53, UnitPrice: 100, AddedBy: "erik"}},
	}
	for _, tc := range cases {
		if _, err := ledger.Append(ctx, tc.entry); err == nil {
			t.Errorf("%s: expected append to be rejected", tc.name)
		}
	}
}

func TestLedger_ConcurrentAppendsAllLand(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	jobID := seedBookedJob(t, pool, core.JobInProgress)
	ledger := core.NewLedgerService(pool)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Append(ctx, core.ServiceLedgerEntry{
				JobID:     jobID,
				ServiceID: "packing",
				Name:      "Packhjälp",
				Quantity:  1,
				UnitPrice: 1500,
				AddedBy:   "erik",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Concurrent append failed: %v", err)
		}
	}

	total, err := ledger.TotalFor(ctx, jobID)
	if err != nil {
		t.Fatalf("TotalFor failed: %v", err)
	}
	if total != int64(writers)*1500 {
		t.Errorf("Expected total %d after concurrent appends, got %d", writers*1500, total)
	}
}
