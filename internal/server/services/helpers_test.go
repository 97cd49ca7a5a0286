package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/compliancebinder/internal/dbx"
	"github.com/dmitrijs2005/compliancebinder/internal/logging"
	"github.com/dmitrijs2005/compliancebinder/internal/server/audit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/auth"
	"github.com/dmitrijs2005/compliancebinder/internal/server/models"
	"github.com/dmitrijs2005/compliancebinder/internal/server/ratelimit"
	"github.com/dmitrijs2005/compliancebinder/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/compliancebinder/internal/server/storage"
)

var testNow = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

// captureAudit is a sink behind a real audit.Recorder, so events arrive
// stamped the way production sinks see them.
type captureAudit struct {
	mu     sync.Mutex
	events []models.AuditEvent
}

func (c *captureAudit) Emit(_ context.Context, e *models.AuditEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, *e)
	return nil
}

func (c *captureAudit) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Action+":"+string(e.Outcome))
	}
	return out
}

type testEnv struct {
	deps      Deps
	audit     *captureAudit
	tokens    *auth.TokenManager
	store     *storage.LocalStore
	guard     *Guard
	users     *UserService
	binders   *BinderService
	tasks     *TaskService
	documents *DocumentService
	reports   *ReportService
}

type envOption func(*envConfig)

type envConfig struct {
	limiter    ratelimit.Limiter
	loginLimit int
	recorder   AuditRecorder
	policy     UploadPolicy
}

func withLoginLimit(l ratelimit.Limiter, limit int) envOption {
	return func(c *envConfig) { c.limiter, c.loginLimit = l, limit }
}

func withRecorder(r AuditRecorder) envOption {
	return func(c *envConfig) { c.recorder = r }
}

func withPolicy(p UploadPolicy) envOption {
	return func(c *envConfig) { c.policy = p }
}

// newTestEnv wires every service against a fresh sqlite database and a
// temporary upload directory.
func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := dbx.Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "binder.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rm, err := repomanager.NewSQLRepositoryManager(dialect)
	require.NoError(t, err)
	require.NoError(t, rm.RunMigrations(ctx, db))

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := envConfig{policy: UploadPolicy{MaxSizeBytes: 1 << 20}}
	for _, o := range opts {
		o(&cfg)
	}

	capture := &captureAudit{}
	var recorder AuditRecorder = audit.NewRecorder(capture, logging.Discard())
	if cfg.recorder != nil {
		recorder = cfg.recorder
	}

	deps := Deps{DB: db, RepoManager: rm, Audit: recorder, Now: func() time.Time { return testNow }}
	tokens := auth.NewTokenManager("test-secret", time.Hour).WithClock(func() time.Time { return testNow })
	guard := NewGuard(deps, tokens)

	return &testEnv{
		deps:      deps,
		audit:     capture,
		tokens:    tokens,
		store:     store,
		guard:     guard,
		users:     NewUserService(deps, auth.NewBcryptHasher(bcrypt.MinCost), tokens, cfg.limiter, cfg.loginLimit),
		binders:   NewBinderService(deps, guard),
		tasks:     NewTaskService(deps, guard),
		documents: NewDocumentService(deps, guard, store, cfg.policy, logging.Discard()),
		reports:   NewReportService(deps, guard),
	}
}

// user registers email and returns the stored identity.
func (e *testEnv) user(t *testing.T, email string) *models.User {
	t.Helper()
	u, err := e.users.Register(context.Background(), email, "pw-"+email)
	require.NoError(t, err)
	return u
}

func (e *testEnv) binder(t *testing.T, owner *models.User, name string) *models.Binder {
	t.Helper()
	b, err := e.binders.Create(context.Background(), owner, name, "")
	require.NoError(t, err)
	return b
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}
