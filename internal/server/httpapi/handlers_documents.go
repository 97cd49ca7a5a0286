package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/server/storage"
)

const (
	// multipartOverhead covers boundaries, part headers and the note field.
	multipartOverhead = 64 << 10
	multipartMemory   = 8 << 20
)

func (a *API) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	list, err := a.documents.List(r.Context(), currentUser(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]documentResponse, 0, len(list))
	for _, d := range list {
		out = append(out, newDocumentResponse(d))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleUpload takes a multipart form with a "file" part and an optional
// "note" field.
func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	limit := a.documents.MaxSizeBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			a.writeError(w, r, &common.PayloadTooLargeError{Limit: limit})
			return
		}
		a.writeError(w, r, common.NewValidationError("file", "multipart form with a file part required"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, fh, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, common.NewValidationError("file", "required"))
		return
	}
	defer f.Close()

	doc, err := a.documents.Upload(r.Context(), currentUser(r), id,
		fh.Filename, fh.Header.Get("Content-Type"), r.FormValue("note"), f)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDocumentResponse(doc))
}

// handleDownload streams the stored body as an attachment. The stored
// content type is sent as metadata only; nosniff stops browsers from
// guessing.
func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	doc, body, err := a.documents.Open(r.Context(), currentUser(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	defer body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.OriginalName})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": storage.SanitizeFilename(doc.OriginalName)})
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = storage.DefaultContentType
	}

	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", disposition)
	h.Set("Content-Length", strconv.FormatInt(doc.Size, 10))
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		a.logger.Warn(r.Context(), "download interrupted", "document_id", doc.ID, "error", err)
	}
}
