package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pastrypal/pastrypal-backend/internal/attendance/repository"
	"github.com/pastrypal/pastrypal-backend/internal/attendance/service"
	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// AttendanceHandler handles attendance endpoints
type AttendanceHandler struct {
	attendance  *service.AttendanceService
	corrections *service.CorrectionService
	logger      *logger.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(attendance *service.AttendanceService, corrections *service.CorrectionService, log *logger.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		attendance:  attendance,
		corrections: corrections,
		logger:      log,
	}
}

// TimeIn starts a shift from the kiosk
// POST /kiosk/time-in
func (h *AttendanceHandler) TimeIn(w http.ResponseWriter, r *http.Request) {
	var req service.TimeInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.DeviceInfo == "" {
		req.DeviceInfo = r.UserAgent()
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	log, err := h.attendance.TimeIn(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, log)
}

// TimeOut closes a shift from the kiosk
// POST /kiosk/time-out
func (h *AttendanceHandler) TimeOut(w http.ResponseWriter, r *http.Request) {
	var req service.TimeOutRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if req.DeviceInfo == "" {
		req.DeviceInfo = r.UserAgent()
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	log, err := h.attendance.TimeOut(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, log)
}

// VerifyPasskey checks a passkey behind a valid QR code
// POST /kiosk/verify-passkey
func (h *AttendanceHandler) VerifyPasskey(w http.ResponseWriter, r *http.Request) {
	var req service.VerifyPasskeyRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.attendance.VerifyPasskey(r.Context(), &req); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// List lists attendance logs
// GET /attendance?employee_id=&from=&to=&open=&limit=&offset=
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := &repository.LogFilter{
		EmployeeID: r.URL.Query().Get("employee_id"),
		OpenOnly:   r.URL.Query().Get("open") == "true",
	}
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err == nil {
			filter.From = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err == nil {
			filter.To = &t
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}

	logs, total, err := h.attendance.ListLogs(r.Context(), filter)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, logs, httputil.PageMeta(total, filter.Limit, filter.Offset))
}

// Edit applies or proposes an edit to a log's times. Admin edits return
// 200 with the updated log; supervisor proposals return 202 with the
// pending correction request.
// PATCH /attendance/{id}
func (h *AttendanceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	var req service.EditRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	outcome, err := h.attendance.Edit(r.Context(), h.corrections, chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if outcome.Applied {
		httputil.JSON(w, http.StatusOK, outcome)
		return
	}
	httputil.Accepted(w, outcome)
}

// Delete removes an attendance log
// DELETE /attendance/{id}
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.attendance.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Photo serves a clock photo
// GET /attendance/{id}/photo?kind=timeIn|timeOut
func (h *AttendanceHandler) Photo(w http.ResponseWriter, r *http.Request) {
	photo, err := h.attendance.GetPhoto(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("kind"))
	if err != nil {
		httputil.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	w.Write(photo.Data)
}

// ListCorrections returns the pending correction queue
// GET /attendance/corrections
func (h *AttendanceHandler) ListCorrections(w http.ResponseWriter, r *http.Request) {
	corrections, err := h.corrections.ListPending(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, corrections)
}

// ReviewCorrection approves or rejects a pending correction request
// PATCH /attendance/corrections/{id}
func (h *AttendanceHandler) ReviewCorrection(w http.ResponseWriter, r *http.Request) {
	var req service.ReviewRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	correction, err := h.corrections.Review(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, correction)
}
