package api

import (
	"net/http"

	"github.com/starford/offcuts/internal/listing"
	"github.com/starford/offcuts/internal/models"
)

// ListAnnouncements handles GET /api/announcements.
//
//	@Summary		List announcements matching optional filters
//	@Tags			announcements
//	@Produce		json
//	@Param			name		query	string	false	"Name contains"
//	@Param			master		query	string	false	"Owner full name contains"
//	@Param			address		query	string	false	"Address contains"
//	@Param			price_min	query	number	false	"Lowest price"
//	@Param			price_max	query	number	false	"Highest price, 0 means unbounded"
//	@Success		200			{array}	models.Announcement
//	@Failure		400			{object}	errResponse
//	@Router			/announcements [get]
func (h *Handler) ListAnnouncements(w http.ResponseWriter, r *http.Request) {
	f, err := listing.ParseQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, "list announcements", err)
		return
	}
	list, err := h.svc.ListAnnouncements(r.Context(), f)
	if err != nil {
		writeError(w, r, "list announcements", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// CreateAnnouncement handles POST /api/announcements.
//
//	@Summary		Publish an announcement
//	@Tags			announcements
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateAnnouncementRequest	true	"Announcement"
//	@Success		201		{object}	models.Announcement
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/announcements [post]
func (h *Handler) CreateAnnouncement(w http.ResponseWriter, r *http.Request) {
	var req CreateAnnouncementRequest
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	if !h.auth.actingAs(r, req.Login) {
		forbidden(w)
		return
	}
	a, err := h.svc.CreateAnnouncement(r.Context(), req.Login, req.AnnouncementAttrs)
	if err != nil {
		writeError(w, r, "create announcement", err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// GetAnnouncement handles GET /api/announcements/{login}/{number}.
func (h *Handler) GetAnnouncement(w http.ResponseWriter, r *http.Request) {
	login, number, ok := announcementKey(w, r)
	if !ok {
		return
	}
	a, err := h.svc.GetAnnouncement(r.Context(), login, number)
	if err != nil {
		writeError(w, r, "get announcement", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// EditAnnouncement handles PATCH /api/announcements/{login}/{number}.
func (h *Handler) EditAnnouncement(w http.ResponseWriter, r *http.Request) {
	login, number, ok := announcementKey(w, r)
	if !ok {
		return
	}
	if !h.auth.actingAs(r, login) {
		forbidden(w)
		return
	}
	var req models.AnnouncementAttrs
	if !decodeJSON(w, r, maxJSONBytes, &req) {
		return
	}
	a, err := h.svc.EditAnnouncement(r.Context(), login, number, req)
	if err != nil {
		writeError(w, r, "edit announcement", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DeleteAnnouncement handles DELETE /api/announcements/{login}/{number}.
func (h *Handler) DeleteAnnouncement(w http.ResponseWriter, r *http.Request) {
	login, number, ok := announcementKey(w, r)
	if !ok {
		return
	}
	if !h.auth.actingAs(r, login) {
		forbidden(w)
		return
	}
	if err := h.svc.DeleteAnnouncement(r.Context(), login, number); err != nil {
		writeError(w, r, "delete announcement", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
