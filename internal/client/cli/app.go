package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/compliancebinder/internal/client/api"
	"github.com/dmitrijs2005/compliancebinder/internal/client/config"
)

// ErrNotLoggedIn is returned by commands that need a token when none is
// configured or stored.
var ErrNotLoggedIn = errors.New("not logged in, run 'binderctl login' first")

type App struct {
	config *config.Config
	client *api.Client
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

// NewApp builds the client application reading from stdin and writing to
// stdout.
func NewApp(cfg *config.Config) *App {
	return newApp(cfg, os.Stdin, os.Stdout, os.Stderr)
}

func newApp(cfg *config.Config, in io.Reader, out, errOut io.Writer) *App {
	return &App{
		config: cfg,
		client: api.New(cfg.ServerURL, cfg.Timeout),
		reader: bufio.NewReader(in),
		out:    out,
		errOut: errOut,
	}
}

// Run executes the command named by args.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.rootCommand().Execute(ctx, args, a.out)
}

func (a *App) rootCommand() *Command {
	return &Command{
		Name:    "binderctl",
		Summary: "Command-line client for ComplianceBinder",
		Usage:   "binderctl [--server URL] [--timeout 30s] [--token-file PATH] [-c config.json] <command>",
		Subcommands: []*Command{
			a.registerCommand(),
			a.loginCommand(),
			a.logoutCommand(),
			a.bindersCommand(),
			a.tasksCommand(),
			a.documentsCommand(),
			a.reportCommand(),
			a.healthCommand(),
			a.verifyCommand(),
		},
	}
}

// authenticate loads the token into the client. An explicit token in the
// config wins over the token file.
func (a *App) authenticate() error {
	if a.client.Token() != "" {
		return nil
	}
	if a.config.Token != "" {
		a.client.SetToken(a.config.Token)
		return nil
	}

	b, err := os.ReadFile(a.config.TokenFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotLoggedIn
		}
		return fmt.Errorf("read token: %w", err)
	}
	token := strings.TrimSpace(string(b))
	if token == "" {
		return ErrNotLoggedIn
	}
	a.client.SetToken(token)
	return nil
}

func (a *App) saveToken(token string) error {
	if dir := filepath.Dir(a.config.TokenFile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create token dir: %w", err)
		}
	}
	if err := os.WriteFile(a.config.TokenFile, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// credentials returns the email from the flag or a prompt, then the password.
func (a *App) credentials(email string) (string, []byte, error) {
	if email == "" {
		var err error
		if email, err = GetSimpleText(a.reader, "Enter email", a.errOut); err != nil {
			return "", nil, err
		}
	}
	if email == "" {
		return "", nil, usageError("email is required")
	}

	pw, err := GetPassword(a.reader, a.errOut)
	if err != nil {
		return "", nil, err
	}
	return email, pw, nil
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseID(args []string, what string) (int64, error) {
	if len(args) != 1 {
		return 0, usageError("expected one %s argument, got %d", what, len(args))
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, usageError("invalid %s %q", what, args[0])
	}
	return id, nil
}
