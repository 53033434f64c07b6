package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pastrypal/pastrypal-backend/internal/kiosk/service"
	"github.com/pastrypal/pastrypal-backend/pkg/errors"
	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// KioskHandler handles kiosk endpoints
type KioskHandler struct {
	service *service.KioskService
	logger  *logger.Logger
}

// NewKioskHandler creates a new kiosk handler
func NewKioskHandler(svc *service.KioskService, log *logger.Logger) *KioskHandler {
	return &KioskHandler{
		service: svc,
		logger:  log,
	}
}

// QRCode issues a signed kiosk QR payload for an employee
// GET /employees/{id}/qr
func (h *KioskHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.QRCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, resp)
}

// Status returns the public kiosk status for an employee code
// GET /kiosk/status?employee_code=EMP-2024-000001
func (h *KioskHandler) Status(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("employee_code")
	if code == "" {
		httputil.Error(w, errors.BadRequest("employee_code is required"))
		return
	}

	resp, err := h.service.Status(r.Context(), code)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, resp)
}
