// Package httpapi exposes the services over HTTP with a chi router.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/services"
)

// Services groups what the handlers call.
type Services struct {
	Guard     *services.Guard
	Users     *services.UserService
	Binders   *services.BinderService
	Tasks     *services.TaskService
	Documents *services.DocumentService
	Reports   *services.ReportService
	Monitor   *services.Monitor
}

type Options struct {
	// AllowedOrigins enables CORS for the listed origins. Empty disables it.
	AllowedOrigins []string
}

type API struct {
	guard     *services.Guard
	users     *services.UserService
	binders   *services.BinderService
	tasks     *services.TaskService
	documents *services.DocumentService
	reports   *services.ReportService
	monitor   *services.Monitor
	logger    logging.Logger
	opts      Options
}

func New(s Services, logger logging.Logger, opts Options) *API {
	return &API{
		guard:     s.Guard,
		users:     s.Users,
		binders:   s.Binders,
		tasks:     s.Tasks,
		documents: s.Documents,
		reports:   s.Reports,
		monitor:   s.Monitor,
		logger:    logger.With("module", "http"),
		opts:      opts,
	}
}

// Routes builds the router.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(accessLog(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	if len(a.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.opts.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{"Content-Disposition", "Retry-After", requestIDHeader},
			MaxAge:         300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, apiError{Message: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, apiError{Message: "method not allowed"})
	})

	r.Get("/health", a.handleHealth)
	r.Get("/metrics", a.handleMetrics)
	r.Get("/status", a.handleStatus)

	r.Post("/auth/register", a.handleRegister)
	r.Post("/auth/token", a.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(a.requireUser)

		r.Get("/binders", a.handleListBinders)
		r.Post("/binders", a.handleCreateBinder)
		r.Get("/binders/{id}", a.handleGetBinder)
		r.Get("/binders/{id}/tasks", a.handleListTasks)
		r.Post("/binders/{id}/tasks", a.handleCreateTask)
		r.Post("/tasks/{id}/done", a.handleMarkDone)
		r.Get("/binders/{id}/documents", a.handleListDocuments)
		r.Post("/binders/{id}/documents", a.handleUpload)
		r.Get("/documents/{id}/download", a.handleDownload)
		r.Get("/binders/{id}/report", a.handleReport)
	})

	return r
}
