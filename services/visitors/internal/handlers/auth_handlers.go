package handlers

import (
	"net/http"

	"github.com/diagnosis/visitor-desk/internal/http/response"
	"github.com/diagnosis/visitor-desk/services/visitors/internal/domain"
)

func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.identityService.SignUp(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	resp, err := h.identityService.SignIn(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SignOut is stateless; clients drop the token.
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	profile := profileFrom(r)
	if profile == nil {
		response.Unauthorized(w, "Authentication required")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handlers) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	updated, err := h.userService.UpdateOwnProfile(r.Context(), actorFrom(r), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// UploadAvatar takes the raw image as the request body.
func (h *Handlers) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, h.config.Storage.AvatarMaxBytes+1)
	updated, err := h.userService.UploadAvatar(r.Context(), actorFrom(r), body)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
