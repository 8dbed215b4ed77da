package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moveflow/internal/app"
)

// Handler holds the ApplicationService the routes delegate to.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes. The public
// routes cover the customer-facing quote and booking flow; everything the
// staff app uses sits behind cookie auth.
func NewHandler(svc app.ApplicationService, allowedOrigins, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	// ── Operational (public) ─────────────────────────────────────────────────
	r.Get("/api/health", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// ── Auth (public API) ────────────────────────────────────────────────────
	r.Post("/api/auth/login", h.login)
	r.Post("/api/auth/logout", h.logout)

	// ── Customer-facing quote and booking flow (public) ──────────────────────
	r.Group(func(r chi.Router) {
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/services", h.listCatalog)
		r.Post("/api/quote", h.priceQuote)
		r.Post("/api/bookings", h.createBooking)
		r.Get("/api/bookings/{ref}", h.getBooking)
		r.Post("/api/ai/quote-assist", h.quoteAssist)
	})

	// ── Staff app (401 JSON if unauthenticated) ──────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		r.Get("/api/auth/me", h.me)

		r.Get("/api/jobs", h.listJobs)
		r.Get("/api/jobs/{id}", h.getJob)
		r.Post("/api/jobs/{id}/status", h.transitionJob)
		r.Get("/api/jobs/{id}/ledger", h.listLedger)
		r.Post("/api/jobs/{id}/ledger", h.appendService)
		r.Post("/api/jobs/{id}/time", h.recordTime)
		r.Post("/api/jobs/{id}/gps", h.recordGPS)

		r.Post("/api/jobs/{id}/invoice", h.finalizeInvoice)
		r.Get("/api/jobs/{id}/invoice", h.getInvoiceForJob)
		r.Get("/api/invoices", h.listInvoices)
		r.Get("/api/invoices/{id}", h.getInvoice)
		r.Get("/api/invoices/{id}/pdf", h.invoicePDF)
		r.Get("/api/invoices/export", h.exportInvoices)

		r.Get("/api/reports/revenue", h.monthlyRevenue)
		r.Get("/api/reports/services", h.serviceActivity)
	})

	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	writeJSON(w, response{Status: "ok"})
}
