package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pastrypal/pastrypal-backend/internal/payroll/service"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// PayrollHandler handles payroll endpoints
type PayrollHandler struct {
	service *service.PayrollService
	logger  *logger.Logger
}

// NewPayrollHandler creates a new payroll handler
func NewPayrollHandler(svc *service.PayrollService, log *logger.Logger) *PayrollHandler {
	return &PayrollHandler{
		service: svc,
		logger:  log,
	}
}

// Compute computes or recomputes the draft run for a period
// POST /payroll/compute
func (h *PayrollHandler) Compute(w http.ResponseWriter, r *http.Request) {
	var req service.ComputeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.Compute(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// ListRuns lists all payroll runs
// GET /payroll/runs
func (h *PayrollHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.service.ListRuns(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, runs)
}

// GetPeriod returns the latest run for a period with its pay lines
// GET /payroll?month=&year=
func (h *PayrollHandler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	month, year, err := parsePeriod(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	result, err := h.service.GetPeriod(r.Context(), month, year)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, result)
}

// Finalize freezes a draft run
// POST /payroll/runs/{id}/finalize
func (h *PayrollHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	run, err := h.service.Finalize(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, run)
}

// Reset deletes a run so the period can be recomputed
// DELETE /payroll/runs/{id}
func (h *PayrollHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Reset(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Export renders a period's payroll as CSV
// GET /payroll/export?month=&year=&employee_code=
func (h *PayrollHandler) Export(w http.ResponseWriter, r *http.Request) {
	month, year, err := parsePeriod(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	export, err := h.service.ExportCSV(r.Context(), month, year, r.URL.Query().Get("employee_code"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(export.Data)
}

func parsePeriod(r *http.Request) (int, int, error) {
	month, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || month < 1 || month > 12 {
		return 0, 0, errors.Validation(map[string]string{"month": "must be between 1 and 12"})
	}
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2100 {
		return 0, 0, errors.Validation(map[string]string{"year": "must be a four digit year"})
	}
	return month, year, nil
}
