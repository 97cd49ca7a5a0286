package services

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/dmitrijs2005/compliancebinder/internal/buildinfo"
	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/storage"
)

// Component and overall health values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
	StatusDegraded  = "degraded"
)

type Health struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Database  string    `json:"database"`
	Storage   string    `json:"storage"`
}

// Healthy reports whether every component is healthy.
func (h Health) Healthy() bool {
	return h.Status == StatusHealthy
}

type Metrics struct {
	Timestamp      time.Time `json:"timestamp"`
	UsersTotal     int64     `json:"users_total"`
	BindersTotal   int64     `json:"binders_total"`
	TasksTotal     int64     `json:"tasks_total"`
	TasksOpen      int64     `json:"tasks_open"`
	TasksDone      int64     `json:"tasks_done"`
	TasksOverdue   int64     `json:"tasks_overdue"`
	DocumentsTotal int64     `json:"documents_total"`
	StorageBytes   int64     `json:"storage_bytes"`
}

type Status struct {
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	GoVersion      string    `json:"go_version"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	DatabaseStatus string    `json:"database_status"`
	StorageStatus  string    `json:"storage_status"`
	StorageBackend string    `json:"storage_backend"`
	StoragePath    string    `json:"storage_path"`
	StorageBytes   int64     `json:"storage_bytes"`
}

// Monitor reports service health and usage totals. It reads without a
// transaction and never requires authentication.
type Monitor struct {
	deps    Deps
	store   storage.Store
	logger  logging.Logger
	started time.Time
}

func NewMonitor(deps Deps, store storage.Store, logger logging.Logger) *Monitor {
	if logger == nil {
		logger = logging.Discard()
	}
	deps = deps.withDefaults()
	return &Monitor{deps: deps, store: store, logger: logger, started: deps.now()}
}

func (m *Monitor) databaseStatus(ctx context.Context) string {
	if err := m.deps.DB.PingContext(ctx); err != nil {
		m.logger.Error(ctx, "database health check failed", "error", err)
		return StatusUnhealthy
	}
	if _, err := m.deps.RepoManager.Users(m.deps.DB).Count(ctx); err != nil {
		m.logger.Error(ctx, "database health check failed", "error", err)
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (m *Monitor) storageStatus(ctx context.Context) string {
	if err := m.store.Check(ctx); err != nil {
		m.logger.Error(ctx, "storage health check failed", "error", err)
		return StatusUnhealthy
	}
	return StatusHealthy
}

func (m *Monitor) storageBytes(ctx context.Context) int64 {
	n, err := m.store.Usage(ctx)
	if err != nil {
		m.logger.Error(ctx, "storage usage failed", "error", err)
		return 0
	}
	return n
}

// Health is healthy only when both the database and the storage are.
func (m *Monitor) Health(ctx context.Context) Health {
	h := Health{
		Timestamp: m.deps.now(),
		Version:   buildinfo.Version,
		Database:  m.databaseStatus(ctx),
		Storage:   m.storageStatus(ctx),
	}
	h.Status = StatusDegraded
	if h.Database == StatusHealthy && h.Storage == StatusHealthy {
		h.Status = StatusHealthy
	}
	return h
}

func (m *Monitor) Metrics(ctx context.Context) (*Metrics, error) {
	now := m.deps.now()
	out := &Metrics{Timestamp: now}

	var err error
	if out.UsersTotal, err = m.deps.RepoManager.Users(m.deps.DB).Count(ctx); err != nil {
		return nil, fmt.Errorf("error counting users: %w", err)
	}
	if out.BindersTotal, err = m.deps.RepoManager.Binders(m.deps.DB).Count(ctx); err != nil {
		return nil, fmt.Errorf("error counting binders: %w", err)
	}
	counts, err := m.deps.RepoManager.Tasks(m.deps.DB).Counts(ctx, models.DateOf(now))
	if err != nil {
		return nil, fmt.Errorf("error counting tasks: %w", err)
	}
	out.TasksOpen, out.TasksDone, out.TasksOverdue = counts.Open, counts.Done, counts.Overdue
	out.TasksTotal = counts.Open + counts.Done
	if out.DocumentsTotal, err = m.deps.RepoManager.Documents(m.deps.DB).Count(ctx); err != nil {
		return nil, fmt.Errorf("error counting documents: %w", err)
	}
	out.StorageBytes = m.storageBytes(ctx)

	return out, nil
}

func (m *Monitor) Status(ctx context.Context) Status {
	now := m.deps.now()
	backend, location := m.store.Describe()
	return Status{
		Timestamp:      now,
		Version:        buildinfo.Version,
		GoVersion:      runtime.Version(),
		UptimeSeconds:  float64(now.Sub(m.started).Round(10*time.Millisecond)) / float64(time.Second),
		DatabaseStatus: m.databaseStatus(ctx),
		StorageStatus:  m.storageStatus(ctx),
		StorageBackend: backend,
		StoragePath:    location,
		StorageBytes:   m.storageBytes(ctx),
	}
}
