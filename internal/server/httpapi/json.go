package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
)

const (
	maxJSONBody = 1 << 20
	dateLayout  = "2006-01-02"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return common.NewValidationError("body", "required")
		}
		return common.NewValidationError("body", "invalid JSON")
	}
	return nil
}

// pathID parses a numeric route parameter. Anything else cannot name an
// existing resource.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrorNotFound
	}
	return id, nil
}

type binderResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Industry  string    `json:"industry"`
	CreatedAt time.Time `json:"created_at"`
}

func newBinderResponse(b *models.Binder) binderResponse {
	return binderResponse{ID: b.ID, Name: b.Name, Industry: b.Industry, CreatedAt: b.CreatedAt}
}

type taskResponse struct {
	ID          int64     `json:"id"`
	BinderID    int64     `json:"binder_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	DueDate     *string   `json:"due_date"`
	IsOverdue   bool      `json:"is_overdue"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newTaskResponse(t *models.Task, today time.Time) taskResponse {
	out := taskResponse{
		ID:          t.ID,
		BinderID:    t.BinderID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		IsOverdue:   t.IsOverdue(today),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(dateLayout)
		out.DueDate = &d
	}
	return out
}

type documentResponse struct {
	ID           int64     `json:"id"`
	BinderID     int64     `json:"binder_id"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	Note         string    `json:"note"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func newDocumentResponse(d *models.Document) documentResponse {
	return documentResponse{
		ID:           d.ID,
		BinderID:     d.BinderID,
		OriginalName: d.OriginalName,
		ContentType:  d.ContentType,
		Size:         d.Size,
		Note:         d.Note,
		UploadedAt:   d.UploadedAt,
	}
}
