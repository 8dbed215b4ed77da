package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"moveflow/internal/adapters/export"
	"moveflow/internal/core"
	"moveflow/internal/observability/metrics"
)

// finalizeInvoice handles POST /api/jobs/{id}/invoice: reconciles a completed
// job into its final invoice.
func (h *Handler) finalizeInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}

	invoice, err := h.svc.FinalizeInvoice(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrAlreadyInvoiced):
			metrics.ObserveInvoice("manual", "duplicate", 0)
			writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
		case errors.Is(err, core.ErrJobCancelled):
			writeError(w, r, err.Error(), "CONFLICT", http.StatusConflict)
		default:
			metrics.ObserveInvoice("manual", "error", 0)
			writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		}
		return
	}
	metrics.ObserveInvoice("manual", "", invoice.TotalAmount)
	writeJSONStatus(w, http.StatusCreated, invoice)
}

// getInvoiceForJob handles GET /api/jobs/{id}/invoice.
func (h *Handler) getInvoiceForJob(w http.ResponseWriter, r *http.Request) {
	id, ok := jobID(w, r)
	if !ok {
		return
	}
	invoice, err := h.svc.GetInvoiceForJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrInvoiceNotFound) {
			writeError(w, r, "no invoice for job", "NOT_FOUND", http.StatusNotFound)
		} else {
			writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, invoice)
}

// listInvoices handles GET /api/invoices.
func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, invoices)
}

// getInvoice handles GET /api/invoices/{id}.
func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid invoice id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	invoice, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrInvoiceNotFound) {
			writeError(w, r, "invoice not found", "NOT_FOUND", http.StatusNotFound)
		} else {
			writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, invoice)
}

// invoicePDF handles GET /api/invoices/{id}/pdf.
func (h *Handler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid invoice id", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	invoice, err := h.svc.GetInvoice(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrInvoiceNotFound) {
			writeError(w, r, "invoice not found", "NOT_FOUND", http.StatusNotFound)
		} else {
			writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		}
		return
	}

	pdf, err := export.BuildInvoicePDF(invoice)
	if err != nil {
		writeError(w, r, "pdf rendering failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", invoice.InvoiceNumber))
	_, _ = w.Write(pdf)
}

// exportInvoices handles GET /api/invoices/export: XLSX workbook for the
// bookkeeping handover.
func (h *Handler) exportInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.svc.ListInvoices(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	book, err := export.BuildInvoicesXLSX(invoices)
	if err != nil {
		writeError(w, r, "xlsx rendering failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("invoices-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	_, _ = w.Write(book)
}

// monthlyRevenue handles GET /api/reports/revenue?year=&month=
// Defaults to the current month.
func (h *Handler) monthlyRevenue(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid year", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, r, "invalid month", "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		month = m
	}

	summary, err := h.svc.MonthlyRevenue(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	writeJSON(w, summary)
}

// serviceActivity handles GET /api/reports/services.
func (h *Handler) serviceActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.svc.ServiceActivity(r.Context())
	if err != nil {
		writeError(w, r, err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, activity)
}
