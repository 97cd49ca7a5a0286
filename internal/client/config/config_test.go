package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, rest, err := load([]string{"binders", "list"}, envMap(nil))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.NotEmpty(t, cfg.TokenFile)
	assert.Equal(t, []string{"binders", "list"}, rest)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cli.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"server_url":"http://file:1","timeout":"5s","token_file":"/tmp/file-token"}`), 0o600))

	tests := []struct {
		name string
		args []string
		env  map[string]string
		want Config
		rest []string
	}{
		{
			name: "file only",
			args: []string{"-c", path, "health"},
			want: Config{ServerURL: "http://file:1", Timeout: 5 * time.Second, TokenFile: "/tmp/file-token"},
			rest: []string{"health"},
		},
		{
			name: "env over file",
			args: []string{"--config=" + path, "health"},
			env:  map[string]string{"BINDERCTL_SERVER": "http://env:2", "BINDERCTL_TOKEN": "tok"},
			want: Config{ServerURL: "http://env:2", Timeout: 5 * time.Second, Token: "tok", TokenFile: "/tmp/file-token"},
			rest: []string{"health"},
		},
		{
			name: "flags over env",
			args: []string{"-c", path, "--server", "http://flag:3/", "--timeout", "2s", "tasks", "list", "--server", "ignored"},
			env:  map[string]string{"BINDERCTL_SERVER": "http://env:2"},
			want: Config{ServerURL: "http://flag:3", Timeout: 2 * time.Second, TokenFile: "/tmp/file-token"},
			rest: []string{"tasks", "list", "--server", "ignored"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, rest, err := load(tt.args, envMap(tt.env))
			require.NoError(t, err)
			assert.Empty(t, cmp.Diff(tt.want, *cfg))
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"timeout":true}`), 0o600))

	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"-c", filepath.Join(dir, "absent.json")}},
		{"bad json", []string{"-c", bad}},
		{"bad duration flag", []string{"--timeout", "soon"}},
		{"unknown flag", []string{"--verbose", "health"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := load(tt.args, envMap(nil))
			assert.Error(t, err)
		})
	}
}
