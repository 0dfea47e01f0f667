package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"bulkgen/internal/bulk"
	"bulkgen/pkg/zip"
)

func (a *App) DownloadBulk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.download(w, r, []int64{id})
}

// DownloadMany bundles several requests; ids come from the query string or a form body.
func (a *App) DownloadMany(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid form")
		return
	}
	ids, err := parseIDs(r.Form["ids"])
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.download(w, r, ids)
}

func (a *App) download(w http.ResponseWriter, r *http.Request, ids []int64) {
	archive, err := a.Service.Archive(r.Context(), ids)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeArchiveHeaders(w, archive)
	w.WriteHeader(http.StatusOK)
	if err := zip.Write(w, archive.Entries); err != nil {
		a.log(r).Error().Err(err).Ints64("bulk_request_ids", ids).Msg("write archive")
	}
}

func writeArchiveHeaders(w http.ResponseWriter, archive *bulk.Archive) {
	h := w.Header()
	h.Set("Content-Type", "application/zip")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", archive.Filename))
	h.Set("X-Archive-Images", strconv.Itoa(archive.Images))
	if archive.Skipped > 0 {
		h.Set("X-Archive-Skipped", strconv.Itoa(archive.Skipped))
	}
}
