package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"moveflow/internal/app"
	"moveflow/internal/core"
	"moveflow/internal/observability/metrics"
)

// jobID extracts the {id} URL parameter as an int.
func jobID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid job id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// listJobs handles GET /api/jobs?status=...
func (h *Handler) listJobs(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListJobs(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, result.Jobs)
}

// getJob handles GET /api/jobs/{id}: job, booking, ledger and invoice.
func (h *Handler) getJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	detail, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, r, "job not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, detail)
}

// transitionJob handles POST /api/jobs/{id}/status.
func (h *Handler) transitionJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	job, err := h.svc.TransitionJob(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, core.ErrInvalidTransition) {
			writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
			return
		}
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, job)
}

// listLedger handles GET /api/jobs/{id}/ledger.
func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	result, err := h.svc.ListLedger(r.Context(), id)
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, result)
}

type appendServiceRequest struct {
	ServiceID   string `json:"service_id"`
	Name        string `json:"name,omitempty"`
	Quantity    int64  `json:"quantity"`
	UnitPrice   *int64 `json:"unit_price,omitempty"`
	RutEligible *bool  `json:"rut_eligible,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// appendService handles POST /api/jobs/{id}/ledger. The acting staff member
// comes from the auth cookie, never from the body.
func (h *Handler) appendService(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req appendServiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	detail, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		writeError(w, r, "job not found", "NOT_FOUND", http.StatusNotFound)
		return
	}

	entry, err := h.svc.AppendService(r.Context(), app.AppendServiceRequest{
		JobID:          id,
		ServiceID:      req.ServiceID,
		Name:           req.Name,
		Quantity:       req.Quantity,
		UnitPrice:      req.UnitPrice,
		RutEligible:    req.RutEligible,
		AddedBy:        claims.Username,
		AddedDuringJob: detail.Job.Status == core.JobInProgress,
		Notes:          req.Notes,
	})
	if err != nil {
		metrics.IncLedgerAppend("error")
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	metrics.IncLedgerAppend("")
	writeJSONStatus(w, http.StatusCreated, entry)
}

// recordTime handles POST /api/jobs/{id}/time.
func (h *Handler) recordTime(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req struct {
		Hours string `json:"hours"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	hours, err := decimal.NewFromString(req.Hours)
	if err != nil || !hours.IsPositive() {
		writeError(w, r, "hours must be a positive decimal", "BAD_REQUEST", http.StatusBadRequest)
		return
	}

	if err := h.svc.RecordTimeEntry(r.Context(), app.TimeEntryRequest{
		JobID: id,
		Staff: claims.Username,
		Hours: hours,
	}); err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// recordGPS handles POST /api/jobs/{id}/gps.
func (h *Handler) recordGPS(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	claims := authFromContext(r.Context())
	if claims == nil {
		writeError(w, r, "not authenticated", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	var req struct {
		PingedAt *time.Time `json:"pinged_at,omitempty"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	ping := app.GPSPingRequest{JobID: id, Staff: claims.Username}
	if req.PingedAt != nil {
		ping.PingedAt = *req.PingedAt
	}
	if err := h.svc.RecordGPSPing(r.Context(), ping); err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
