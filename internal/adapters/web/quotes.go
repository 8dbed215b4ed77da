package web

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"moveflow/internal/app"
	"moveflow/internal/core"
	"moveflow/internal/observability/metrics"
)

// listCatalog handles GET /api/services: the effective additional-service
// catalog the booking form renders.
func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCatalog(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result.Services)
}

type quoteRequest struct {
	Move     core.MoveSpecification `json:"move"`
	Services []core.SelectedService `json:"services"`
}

// priceQuote handles POST /api/quote: prices a move without persisting it.
func (h *Handler) priceQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.svc.PriceQuote(r.Context(), app.QuoteRequest{Move: req.Move, Services: req.Services})
	if err != nil {
		metrics.IncQuote("error")
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	metrics.IncQuote("")
	writeJSON(w, result.Quote)
}

type createBookingRequest struct {
	CustomerName   string                 `json:"customer_name"`
	CustomerEmail  string                 `json:"customer_email"`
	CustomerPhone  string                 `json:"customer_phone"`
	MoveDate       string                 `json:"move_date"`
	Move           core.MoveSpecification `json:"move"`
	Services       []core.SelectedService `json:"services"`
	EstimatedHours *string                `json:"estimated_hours,omitempty"`
}

// createBooking handles POST /api/bookings.
func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var estimate *decimal.Decimal
	if req.EstimatedHours != nil && strings.TrimSpace(*req.EstimatedHours) != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(*req.EstimatedHours))
		if err != nil || d.IsNegative() {
			writeError(w, r, "estimated_hours must be a non-negative decimal", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		estimate = &d
	}

	result, err := h.svc.CreateBooking(r.Context(), app.CreateBookingRequest{
		CustomerName:   req.CustomerName,
		CustomerEmail:  req.CustomerEmail,
		CustomerPhone:  req.CustomerPhone,
		MoveDate:       req.MoveDate,
		Move:           req.Move,
		Services:       req.Services,
		EstimatedHours: estimate,
	})
	if err != nil {
		metrics.IncBooking("error")
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	metrics.IncBooking("")
	writeJSONStatus(w, http.StatusCreated, result)
}

// getBooking handles GET /api/bookings/{ref}; ref is the public UUID
// reference or the numeric ID.
func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.GetBooking(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		writeError(w, r, "booking not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, result.Booking)
}

// quoteAssist handles POST /api/ai/quote-assist: free text in, a filled
// booking form (or a clarification question) out. No prices cross this path.
func (h *Handler) quoteAssist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, r, "text is required", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	result, err := h.svc.QuoteAssist(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err.Error(), "AI_ERROR", http.StatusBadGateway)
		return
	}

	if result.IsClarification {
		writeJSON(w, map[string]any{
			"needs_clarification": true,
			"message":             result.ClarificationMessage,
		})
		return
	}
	writeJSON(w, map[string]any{
		"needs_clarification": false,
		"move":                result.Draft.MoveSpecification(),
		"services":            result.Draft.SelectedServices(),
		"confidence":          result.Draft.Confidence,
		"reasoning":           result.Draft.Reasoning,
	})
}
