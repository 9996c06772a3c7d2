package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/offcuts/internal/models"
)

// CreateUser handles POST /api/users.
//
//	@Summary		Register a user
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateUserRequest	true	"User to create"
//	@Success		201		{object}	models.User
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Router			/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	if req.Role == models.RoleAdmin && !h.auth.isAdmin(r) {
		forbidden(w)
		return
	}
	u, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		writeError(w, r, "create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// GetUser handles GET /api/users/{login}.
//
//	@Summary		Get a user by login
//	@Tags			users
//	@Produce		json
//	@Param			login	path		string	true	"User login"
//	@Success		200		{object}	models.User
//	@Failure		404		{object}	errResponse
//	@Router			/users/{login} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.GetUser(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		writeError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// EditUser handles PATCH /api/users/{login}.
func (h *Handler) EditUser(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")
	if !h.auth.actingAs(r, login) {
		forbidden(w)
		return
	}
	var req EditUserRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	u, err := h.svc.EditUser(r.Context(), login, req)
	if err != nil {
		writeError(w, r, "edit user", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// SetUserStatus handles PATCH /api/users/{login}/status.
func (h *Handler) SetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req StatusRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	u, err := h.svc.SetUserStatus(r.Context(), chi.URLParam(r, "login"), req.Status)
	if err != nil {
		writeError(w, r, "set user status", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/{login}.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "login")); err != nil {
		writeError(w, r, "delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login handles POST /api/login.
//
//	@Summary		Log in with login and password
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	LoginResponse
//	@Failure		401		{object}	errResponse
//	@Failure		403		{object}	errResponse
//	@Router			/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	if req.Login == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("login and password are required"))
		return
	}
	sess, err := h.svc.Login(r.Context(), req.Login, req.Password)
	if err != nil {
		writeError(w, r, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}
