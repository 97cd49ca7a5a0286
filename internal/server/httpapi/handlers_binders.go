package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

type createBinderRequest struct {
	Name     string `json:"name"`
	Industry string `json:"industry"`
}

func (a *API) handleListBinders(w http.ResponseWriter, r *http.Request) {
	list, err := a.binders.List(r.Context(), currentUser(r))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]binderResponse, 0, len(list))
	for _, b := range list {
		out = append(out, newBinderResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCreateBinder(w http.ResponseWriter, r *http.Request) {
	var req createBinderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	b, err := a.binders.Create(r.Context(), currentUser(r), req.Name, req.Industry)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newBinderResponse(b))
}

func (a *API) handleGetBinder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	b, err := a.binders.Get(r.Context(), currentUser(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBinderResponse(b))
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
}

func (a *API) handleListTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	list, err := a.tasks.List(r.Context(), currentUser(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	today := a.tasks.Today()
	out := make([]taskResponse, 0, len(list))
	for _, t := range list {
		out = append(out, newTaskResponse(t, today))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req createTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	var due *time.Time
	if s := strings.TrimSpace(req.DueDate); s != "" {
		d, err := time.Parse(dateLayout, s)
		if err != nil {
			a.writeError(w, r, common.NewValidationError("due_date", "must be YYYY-MM-DD"))
			return
		}
		due = &d
	}

	t, err := a.tasks.Create(r.Context(), currentUser(r), id, req.Title, req.Description, due)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTaskResponse(t, a.tasks.Today()))
}

func (a *API) handleMarkDone(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	t, err := a.tasks.MarkDone(r.Context(), currentUser(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newTaskResponse(t, a.tasks.Today()))
}

const reportCSP = "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'; base-uri 'none'"

func (a *API) handleReport(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	page, err := a.reports.HTML(r.Context(), currentUser(r), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Security-Policy", reportCSP)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page)
}
