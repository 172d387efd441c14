package api

import (
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/starford/daybook/internal/checksum"
)

const maxUploadBytes = 20 << 20

// Export handles GET /api/export and downloads the journal document.
//
//	@Summary	Download the journal as Markdown
//	@Tags		journal
//	@Produce	text/markdown
//	@Param		q	query	string	false	"Only export records matching this term"
//	@Success	200	{file}	file
//	@Success	304	"Not modified"
//	@Security	BearerAuth
//	@Router		/export [get]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	exp, err := h.svc.Export(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "export", err)
		return
	}

	w.Header().Set("ETag", checksum.ETag(exp.Checksum))
	if checksum.MatchesIfNoneMatch(r.Header.Get("If-None-Match"), exp.Checksum) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Content)))
	w.Header().Set("X-Journal-Records", strconv.Itoa(exp.Records))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Content)
}

// Import handles POST /api/import (multipart/form-data, field "file").
//
//	@Summary	Import a journal document
//	@Tags		journal
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		file	formData	file	true	"Journal file (.md, .markdown, .txt)"
//	@Success	200		{object}	journalservice.ImportSummary
//	@Failure	400		{object}	errResponse
//	@Failure	415		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/import [post]
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
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

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}

	sum, err := h.svc.Import(r.Context(), header.Filename, data)
	if err != nil {
		writeError(w, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
