package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"opinex/internal/domain/user"
	"opinex/internal/platform/apperr"
)

type updateRoleRequest struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// @Summary     List users
// @Tags        users
// @Security    BearerAuth
// @Produce     json
// @Success     200  {array}   user.User
// @Failure     401  {object}  map[string]string  "missing token"
// @Failure     403  {object}  map[string]string  "not an admin"
// @Router      /get_user [get]
func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userSvc.List(r.Context())
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// @Summary     Update user role by id
// @Tags        users
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       request  body      updateRoleRequest  true  "User id and new role"
// @Success     200      {object}  user.User
// @Failure     400      {object}  map[string]string  "invalid role"
// @Failure     403      {object}  map[string]string  "not an admin"
// @Failure     404      {object}  map[string]string  "not found"
// @Router      /update_role [post]
func (h *Handler) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}
	if req.ID == "" {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "id is required", nil))
		return
	}

	u, err := h.userSvc.UpdateRole(r.Context(), req.ID, user.Role(req.Role))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// @Summary     Update user role by email
// @Tags        users
// @Security    BearerAuth
// @Accept      json
// @Produce     json
// @Param       email    path      string             true  "User email"
// @Param       request  body      updateRoleRequest  true  "New role"
// @Success     200      {object}  user.User
// @Failure     400      {object}  map[string]string  "invalid role or email"
// @Failure     403      {object}  map[string]string  "not an admin"
// @Failure     404      {object}  map[string]string  "not found"
// @Router      /update_role/{email} [post]
func (h *Handler) handleUpdateRoleByEmail(w http.ResponseWriter, r *http.Request) {
	var req updateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		errorResponse(w, r, apperr.BadRequest("invalid_input", "invalid body", err))
		return
	}

	u, err := h.userSvc.UpdateRoleByEmail(r.Context(), chi.URLParam(r, "email"), user.Role(req.Role))
	if err != nil {
		errorResponse(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
