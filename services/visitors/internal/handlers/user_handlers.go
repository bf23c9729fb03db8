package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.ListUsers(r.Context(), actorFrom(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users, "total": len(users)})
}

func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.userService.CreateUser(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handlers) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.userService.UpdateUserRole(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.SoftDeleteUser(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
