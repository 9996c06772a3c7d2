package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// UserFeedback handles GET /api/users/{login}/comments.
func (h *Handler) UserFeedback(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.UserFeedback(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		writeError(w, r, "list user feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateUserFeedback handles POST /api/users/{login}/comments.
//
//	@Summary		Review a user
//	@Tags			feedback
//	@Accept			json
//	@Produce		json
//	@Param			login	path		string				true	"Reviewed user"
//	@Param			body	body		UserFeedbackRequest	true	"Review"
//	@Success		201		{object}	messageResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/users/{login}/comments [post]
func (h *Handler) CreateUserFeedback(w http.ResponseWriter, r *http.Request) {
	var req UserFeedbackRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	if !h.auth.actingAs(r, req.SenderLogin) {
		forbidden(w)
		return
	}
	err := h.svc.CreateUserFeedback(r.Context(), req.SenderLogin, chi.URLParam(r, "login"), req.Text, req.Estimation)
	if err != nil {
		writeError(w, r, "create user feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "feedback created"})
}

// DeleteUserFeedback handles DELETE /api/users/{login}/comments/{author}.
func (h *Handler) DeleteUserFeedback(w http.ResponseWriter, r *http.Request) {
	author := chi.URLParam(r, "author")
	if !h.auth.actingAs(r, author) {
		forbidden(w)
		return
	}
	if err := h.svc.DeleteUserFeedback(r.Context(), author, chi.URLParam(r, "login")); err != nil {
		writeError(w, r, "delete user feedback", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnnouncementFeedback handles GET /api/announcements/{login}/{number}/comments.
func (h *Handler) AnnouncementFeedback(w http.ResponseWriter, r *http.Request) {
	login, number, ok := announcementKey(w, r)
	if !ok {
		return
	}
	list, err := h.svc.AnnouncementFeedback(r.Context(), login, number)
	if err != nil {
		writeError(w, r, "list announcement feedback", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateAnnouncementFeedback handles POST /api/announcements/{login}/{number}/comments.
func (h *Handler) CreateAnnouncementFeedback(w http.ResponseWriter, r *http.Request) {
	login, number, ok := announcementKey(w, r)
	if !ok {
		return
	}
	var req AnnouncementFeedbackRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	if !h.auth.actingAs(r, req.SenderLogin) {
		forbidden(w)
		return
	}
	if err := h.svc.CreateAnnouncementFeedback(r.Context(), req.SenderLogin, login, number, req.Text); err != nil {
		writeError(w, r, "create announcement feedback", err)
		return
	}
	writeJSON(w, http.StatusCreated, messageResponse{Message: "feedback created"})
}

// DeleteAnnouncementFeedback handles DELETE /api/announcements/{login}/{number}/comments/{author}.
func (h *Handler) DeleteAnnouncementFeedback(w http.ResponseWriter, r *http.Request) {
	login, number, ok := announcementKey(w, r)
	if !ok {
		return
	}
	author := chi.URLParam(r, "author")
	if !h.auth.actingAs(r, author) {
		forbidden(w)
		return
	}
	if err := h.svc.DeleteAnnouncementFeedback(r.Context(), author, login, number); err != nil {
		writeError(w, r, "delete announcement feedback", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
