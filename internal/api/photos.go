package api

import (
	"bufio"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/offcuts/internal/storage"
)

const maxUploadBytes = 10 << 20 // 10 MB

// PhotoHandler serves and accepts user and announcement photos.
type PhotoHandler struct {
	store storage.Provider
}

// NewPhotoHandler creates a handler over a photo store.
func NewPhotoHandler(store storage.Provider) *PhotoHandler {
	return &PhotoHandler{store: store}
}

// Serve handles GET /api/photos/{name}.
func (h *PhotoHandler) Serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !storage.ValidName(name) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid photo name"))
		return
	}
	rc, obj, err := h.store.Open(r.Context(), name)
	if err != nil {
		writeError(w, r, "open photo", err)
		return
	}
	defer rc.Close()

	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if rs, ok := rc.(io.ReadSeeker); ok {
		http.ServeContent(w, r, name, obj.ModTime, rs)
		return
	}
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, rc)
}

// Upload handles POST /api/photos (multipart/form-data, field "file").
//
//	@Summary		Upload a photo
//	@Tags			photos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file	formData	file	true	"PNG, JPEG, GIF or WebP image"
//	@Success		201		{object}	PhotoUploadResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/photos [post]
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	// Trust the bytes, not the client-declared type.
	br := bufio.NewReaderSize(file, 512)
	head, _ := br.Peek(512)
	contentType := http.DetectContentType(head)
	ext, ok := storage.PhotoExt(contentType)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("unsupported image type "+contentType))
		return
	}

	name := storage.NewName(ext)
	if err := h.store.Put(r.Context(), name, br, header.Size, contentType); err != nil {
		writeError(w, r, "store photo", err)
		return
	}

	writeJSON(w, http.StatusCreated, PhotoUploadResponse{
		Name: name,
		Size: header.Size,
		URL:  "/api/photos/" + name,
	})
}
