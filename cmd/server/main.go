package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	webAdapter "moveflow/internal/adapters/web"
	"moveflow/internal/ai"
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
	log := logger.WithComponent("server")

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer pool.Close()

	metrics.Init()

	catalog := core.NewCatalogResolver(pool)
	bookings := core.NewBookingService(pool, catalog)
	jobs := core.NewJobService(pool)
	ledger := core.NewLedgerService(pool)
	invoices := core.NewInvoiceService(pool)
	reporting := core.NewReportingService(pool)
	staff := core.NewStaffService(pool)

	var agent *ai.Agent
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		agent = ai.NewAgent(apiKey)
	} else {
		log.Warn().Msg("OPENAI_API_KEY is not set, quote assist disabled")
	}

	svc := app.NewAppService(bookings, jobs, ledger, invoices, catalog, reporting, staff, agent)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal().Msg("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Info().Str("port", port).Msg("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
