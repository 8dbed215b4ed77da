// Command autoinvoice is the end-of-day sweep: it finds jobs scheduled on a
// date that were never closed out and invoices each one from the best
// available hours evidence. Run it from cron after the last crew shift.
//
// The claim on each job is a compare-and-swap on its status, so overlapping
// runs (or a staff member finalizing at the same moment) settle on exactly
// one invoice per job.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/joho/godotenv"

	"moveflow/internal/app"
	"moveflow/internal/core"
	"moveflow/internal/db"
	"moveflow/internal/logger"
	"moveflow/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()
	if err := logger.Setup(logger.FromEnv()); err != nil {
		panic(err)
	}
	log := logger.WithComponent("autoinvoice")

	date := flag.String("date", "", "sweep date as YYYY-MM-DD, defaults to today (UTC)")
	flag.Parse()

	sweepDate := *date
	if sweepDate == "" {
		sweepDate = time.Now().UTC().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", sweepDate); err != nil {
		log.Fatal().Str("date", sweepDate).Msg("invalid sweep date, expected YYYY-MM-DD")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	metrics.Init()

	catalog := core.NewCatalogResolver(pool)
	svc := app.NewAppService(
		core.NewBookingService(pool, catalog),
		core.NewJobService(pool),
		core.NewLedgerService(pool),
		core.NewInvoiceService(pool),
		catalog,
		core.NewReportingService(pool),
		core.NewStaffService(pool),
		nil,
	)

	result, err := svc.RunAutoInvoicing(ctx, sweepDate)
	if err != nil {
		log.Fatal().Err(err).Str("date", sweepDate).Msg("sweep failed")
	}
	metrics.IncAutoInvoiceRun()

	for _, inv := range result.Invoiced {
		metrics.IncAutoInvoiceJob("invoiced")
		metrics.ObserveInvoice("auto", "", inv.TotalAmount)
		log.Info().
			Int("job_id", inv.JobID).
			Str("invoice", inv.InvoiceNumber).
			Int64("total_sek", inv.TotalAmount).
			Str("reason", inv.AutoInvoiceReason).
			Msg("auto-invoiced")
	}
	for i := 0; i < result.Skipped; i++ {
		metrics.IncAutoInvoiceJob("skipped")
	}
	for _, failure := range result.Failures {
		metrics.IncAutoInvoiceJob("failed")
		log.Error().Int("job_id", failure.JobID).Str("error", failure.Err).Msg("auto-invoice failed")
	}

	log.Info().
		Str("date", result.Date).
		Int("examined", result.Examined).
		Int("invoiced", len(result.Invoiced)).
		Int("skipped", result.Skipped).
		Int("failed", len(result.Failures)).
		Msg("sweep complete")

	if len(result.Failures) > 0 {
		// Non-zero exit so cron alerts on partial failure.
		log.Fatal().Msg("sweep finished with failures")
	}
}
