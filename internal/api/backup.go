package api

import (
	"net/http"

	"github.com/starford/offcuts/internal/backup"
	"github.com/starford/offcuts/internal/checksum"
)

const maxBackupBytes = 256 << 20 // 256 MB

// ExportBackup handles GET /api/backup.
//
//	@Summary		Download the whole graph as a backup document
//	@Tags			backup
//	@Produce		json
//	@Param			If-None-Match	header	string	false	"ETag of a previously downloaded backup"
//	@Success		200		{object}	backup.Document
//	@Success		304
//	@Security		BearerAuth
//	@Router			/backup [get]
func (h *Handler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	doc, err := h.svc.ExportBackup(r.Context())
	if err != nil {
		writeError(w, r, "export backup", err)
		return
	}
	raw, err := backup.Marshal(doc)
	if err != nil {
		writeError(w, r, "export backup", err)
		return
	}

	etag := checksum.ETag(raw)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	if inm := r.Header.Get("If-None-Match"); inm != "" && checksum.MatchesETag(inm, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

// ImportBackup handles POST /api/backup.
//
//	@Summary		Replace the whole graph with a backup document
//	@Tags			backup
//	@Accept			json
//	@Produce		json
//	@Param			body	body		BackupImportRequest	true	"Backup"
//	@Success		201		{object}	backup.Report
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/backup [post]
func (h *Handler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	var req BackupImportRequest
	if !decodeJSON(w, r, maxBackupBytes, &req) {
		return
	}
	if req.BackupData == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("backup_data is required"))
		return
	}
	rep, err := h.svc.ImportBackup(r.Context(), req.BackupData)
	if err != nil {
		writeError(w, r, "import backup", err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}
