package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/compliancebinder/internal/client/config"
	"github.com/dmitrijs2005/compliancebinder/internal/server"
	serverconfig "github.com/dmitrijs2005/compliancebinder/internal/server/config"
)

// startServer runs the real API over sqlite and local storage.
func startServer(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	c := &serverconfig.Config{}
	c.LoadDefaults()
	c.Env = "test"
	c.DatabaseURL = "sqlite://" + filepath.Join(dir, "binder.db")
	c.UploadDir = filepath.Join(dir, "uploads")
	c.SecretKey = "cli-test-secret"
	c.BcryptCost = 4
	c.LogLevel = "error"

	app, err := server.NewApp(context.Background(), c)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

type testApp struct {
	*App
	out *bytes.Buffer
}

func newTestApp(t *testing.T, serverURL, input string) *testApp {
	t.Helper()
	stubTerminal(t, false, nil)

	cfg := &config.Config{
		ServerURL: serverURL,
		Timeout:   10 * time.Second,
		TokenFile: filepath.Join(t.TempDir(), "token"),
	}
	out := &bytes.Buffer{}
	return &testApp{App: newApp(cfg, strings.NewReader(input), out, &bytes.Buffer{}), out: out}
}

// run executes one command line and returns its output.
func (a *testApp) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a.out.Reset()
	// a fresh client per command, as in separate invocations
	a.client.SetToken("")
	err := a.Run(context.Background(), args)
	return a.out.String(), err
}

func TestVerify_AgainstServer(t *testing.T) {
	a := newTestApp(t, startServer(t), "")

	out, err := a.run(t, "verify")
	require.NoError(t, err, out)
	assert.Contains(t, out, "all checks passed")
	assert.NotContains(t, out, "FAIL")
	assert.Contains(t, out, "ok    foreign report hidden")
}

func TestVerify_ReportsFailures(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer broken.Close()

	a := newTestApp(t, broken.URL, "")
	out, err := a.run(t, "verify")
	require.ErrorIs(t, err, ErrVerifyFailed)
	assert.Contains(t, out, "FAIL  server reachable")
}

func TestWorkflow(t *testing.T) {
	url := startServer(t)
	a := newTestApp(t, url, "pw-1\npw-1\n")
	work := t.TempDir()

	out, err := a.run(t, "register", "--email", "owner@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered owner@example.com")

	_, err = a.run(t, "binders", "list")
	require.ErrorIs(t, err, ErrNotLoggedIn)

	out, err = a.run(t, "login", "-e", "owner@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in as owner@example.com")
	token, err := os.ReadFile(a.config.TokenFile)
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(string(token)))

	out, err = a.run(t, "binders", "create", "--name", "Acme Ltd", "--industry", "Finance")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme Ltd")

	out, err = a.run(t, "binders", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "1   Acme Ltd")

	out, err = a.run(t, "tasks", "add", "1", "--title", "Renew insurance", "--due", "2000-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "2000-01-01 (overdue)")

	out, err = a.run(t, "tasks", "done", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "done")

	_, err = a.run(t, "tasks", "add", "1", "--due", "2000-01-01")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")

	src := filepath.Join(work, "policy.pdf")
	require.NoError(t, os.WriteFile(src, []byte("%PDF-1.4 test"), 0o600))
	out, err = a.run(t, "docs", "upload", "1", src, "--note", "signed")
	require.NoError(t, err)
	assert.Contains(t, out, "application/pdf")

	txt := filepath.Join(work, "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("plain"), 0o600))
	_, err = a.run(t, "docs", "upload", "1", txt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "415")

	dest := filepath.Join(work, "copy.pdf")
	_, err = a.run(t, "docs", "download", "1", "-o", dest)
	require.NoError(t, err)
	body, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(body))

	out, err = a.run(t, "docs", "list", "1", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"original_name": "policy.pdf"`)

	report := filepath.Join(work, "report.html")
	_, err = a.run(t, "report", "1", "-o", report)
	require.NoError(t, err)
	html, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Renew insurance")

	_, err = a.run(t, "binders", "show", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = a.run(t, "logout")
	require.NoError(t, err)
	_, err = a.run(t, "binders", "list")
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestHealthCommand(t *testing.T) {
	a := newTestApp(t, startServer(t), "")

	out, err := a.run(t, "health")
	require.NoError(t, err)
	assert.Contains(t, out, "status: healthy")
}

func TestTokenFromConfig(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")
	a.config.Token = "explicit"

	require.NoError(t, a.authenticate())
	assert.Equal(t, "explicit", a.client.Token())
}

func TestUsageErrors(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"unknown subcommand", []string{"binders", "delete"}},
		{"missing id", []string{"tasks", "done"}},
		{"bad id", []string{"tasks", "done", "abc"}},
		{"negative id", []string{"binders", "show", "-1"}},
		{"unknown flag", []string{"binders", "list", "--yaml"}},
		{"upload without path", []string{"docs", "upload", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.run(t, tt.args...)
			assert.ErrorIs(t, err, ErrUsage)
		})
	}
}

func TestHelp(t *testing.T) {
	a := newTestApp(t, "http://127.0.0.1:1", "")

	out, err := a.run(t, "help")
	require.NoError(t, err)
	assert.Contains(t, out, "verify")
	assert.Contains(t, out, "binders")

	out, err = a.run(t, "docs", "upload", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--note")
}

func TestSafeLocalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{`..\..\boot.ini`, "boot.ini"},
		{"", "document-7"},
		{"..", "document-7"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, safeLocalName(tt.in, 7), tt.in)
	}
}
