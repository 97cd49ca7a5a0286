package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

func (a *App) reportCommand() *Command {
	var output string
	return &Command{
		Name:    "report",
		Summary: "Fetch the HTML report of a binder",
		Usage:   "binderctl report <binder-id> [-o PATH]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("report", pflag.ContinueOnError)
			fs.StringVarP(&output, "output", "o", "", "write the report to a file instead of stdout")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args, "binder id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}
			html, err := a.client.Report(ctx, id)
			if err != nil {
				return err
			}

			if output == "" {
				_, err := io.WriteString(a.out, html)
				return err
			}
			if err := os.WriteFile(output, []byte(html), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintln(a.out, "Saved", output)
			return nil
		},
	}
}

func (a *App) healthCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "health",
		Summary: "Show server health",
		Flags:   func() *pflag.FlagSet { return jsonFlag("health", &asJSON) },
		Run: func(ctx context.Context, args []string) error {
			h, err := a.client.Health(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				if err := a.printJSON(h); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(a.out, "status: %s\ndatabase: %s\nstorage: %s\nversion: %s\n", h.Status, h.Database, h.Storage, h.Version)
			}
			if h.Status != "healthy" {
				return fmt.Errorf("server is %s", h.Status)
			}
			return nil
		},
	}
}
