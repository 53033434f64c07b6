package audit

import (
	"net/http"
	"strconv"

	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
)

// Handler serves the audit trail to the admin panel
type Handler struct {
	recorder *Recorder
}

// NewHandler creates a new audit handler
func NewHandler(recorder *Recorder) *Handler {
	return &Handler{recorder: recorder}
}

// List returns recent audit entries
// GET /audit?limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.recorder.ListRecent(r.Context(), limit)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, entries)
}
