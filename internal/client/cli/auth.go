package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/compliancebinder/internal/common"
)

func (a *App) registerCommand() *Command {
	var email string
	return &Command{
		Name:    "register",
		Summary: "Create an account",
		Usage:   "binderctl register [--email EMAIL]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
			fs.StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			e, pw, err := a.credentials(email)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			if err := a.client.Register(ctx, e, string(pw)); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Registered", e)
			return nil
		},
	}
}

func (a *App) loginCommand() *Command {
	var email string
	return &Command{
		Name:    "login",
		Summary: "Log in and store the access token",
		Usage:   "binderctl login [--email EMAIL]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
			fs.StringVarP(&email, "email", "e", "", "account email (prompted when empty)")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			e, pw, err := a.credentials(email)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			tok, err := a.client.Login(ctx, e, string(pw))
			if err != nil {
				return err
			}
			if err := a.saveToken(tok.AccessToken); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s, token valid until %s\n", e, tok.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
}

func (a *App) logoutCommand() *Command {
	return &Command{
		Name:    "logout",
		Summary: "Forget the stored access token",
		Run: func(ctx context.Context, args []string) error {
			if err := os.Remove(a.config.TokenFile); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("remove token: %w", err)
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}
