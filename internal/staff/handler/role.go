package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pastrypal/pastrypal-backend/internal/staff/service"
	"github.com/pastrypal/pastrypal-backend/pkg/httputil"
	"github.com/pastrypal/pastrypal-backend/pkg/logger"
)

// RoleHandler handles job role endpoints
type RoleHandler struct {
	service *service.StaffService
	logger  *logger.Logger
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(svc *service.StaffService, log *logger.Logger) *RoleHandler {
	return &RoleHandler{
		service: svc,
		logger:  log,
	}
}

// Create creates a new job role
// POST /roles
func (h *RoleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateRoleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	role, err := h.service.CreateRole(r.Context(), &req)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, role)
}

// List lists all job roles
// GET /roles
func (h *RoleHandler) List(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, roles)
}

// Delete removes a job role
// DELETE /roles/{id}
func (h *RoleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRole(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}
