package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/starford/offcuts/internal/marketservice"
	"github.com/starford/offcuts/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// auth may be nil for disabled mode. photos and sseHandler are optional;
// their routes are only mounted when non-nil.
func NewRouter(svc *marketservice.Service, auth *Authenticator, photos storage.Provider, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, auth)

	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(auth.Middleware)

	r.Post("/login", h.Login)

	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.CreateUser)
		r.Route("/{login}", func(r chi.Router) {
			r.Get("/", h.GetUser)
			r.With(auth.RequireUser).Patch("/", h.EditUser)
			r.With(auth.RequireAdmin).Delete("/", h.DeleteUser)
			r.With(auth.RequireAdmin).Patch("/status", h.SetUserStatus)

			r.Get("/comments", h.UserFeedback)
			r.With(auth.RequireUser).Post("/comments", h.CreateUserFeedback)
			r.With(auth.RequireUser).Delete("/comments/{author}", h.DeleteUserFeedback)
		})
	})

	r.Route("/announcements", func(r chi.Router) {
		r.Get("/", h.ListAnnouncements)
		r.With(auth.RequireUser).Post("/", h.CreateAnnouncement)
		r.Route("/{login}/{number}", func(r chi.Router) {
			r.Get("/", h.GetAnnouncement)
			r.With(auth.RequireUser).Patch("/", h.EditAnnouncement)
			r.With(auth.RequireUser).Delete("/", h.DeleteAnnouncement)

			r.Get("/comments", h.AnnouncementFeedback)
			r.With(auth.RequireUser).Post("/comments", h.CreateAnnouncementFeedback)
			r.With(auth.RequireUser).Delete("/comments/{author}", h.DeleteAnnouncementFeedback)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAdmin)
		r.Get("/backup", h.ExportBackup)
		r.Post("/backup", h.ImportBackup)
	})

	if photos != nil {
		ph := NewPhotoHandler(photos)
		r.Get("/photos/{name}", ph.Serve)
		r.With(auth.RequireUser).Post("/photos", ph.Upload)
	}

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
