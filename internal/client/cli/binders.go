package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/compliancebinder/internal/client/api"
)

func jsonFlag(name string, dst *bool) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.BoolVar(dst, "json", false, "print JSON instead of a table")
	return fs
}

func (a *App) bindersCommand() *Command {
	return &Command{
		Name:    "binders",
		Summary: "List, create and show binders",
		Subcommands: []*Command{
			a.bindersListCommand(),
			a.bindersCreateCommand(),
			a.bindersShowCommand(),
		},
	}
}

func (a *App) bindersListCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "list",
		Summary: "List your binders",
		Flags:   func() *pflag.FlagSet { return jsonFlag("list", &asJSON) },
		Run: func(ctx context.Context, args []string) error {
			if err := a.authenticate(); err != nil {
				return err
			}
			binders, err := a.client.ListBinders(ctx)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(binders)
			}
			a.printBinders(binders...)
			return nil
		},
	}
}

func (a *App) bindersCreateCommand() *Command {
	var name, industry string
	return &Command{
		Name:    "create",
		Summary: "Create a binder",
		Usage:   "binderctl binders create --name NAME [--industry INDUSTRY]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("create", pflag.ContinueOnError)
			fs.StringVarP(&name, "name", "n", "", "binder name")
			fs.StringVarP(&industry, "industry", "i", "", "industry (server default when empty)")
			return fs
		},
		Run: func(ctx context.Context, args []string) error {
			if err := a.authenticate(); err != nil {
				return err
			}
			b, err := a.client.CreateBinder(ctx, name, industry)
			if err != nil {
				return err
			}
			a.printBinders(*b)
			return nil
		},
	}
}

func (a *App) bindersShowCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "show",
		Summary: "Show one binder",
		Usage:   "binderctl binders show <binder-id>",
		Flags:   func() *pflag.FlagSet { return jsonFlag("show", &asJSON) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args, "binder id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}
			b, err := a.client.GetBinder(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(b)
			}
			a.printBinders(*b)
			return nil
		},
	}
}

func (a *App) printBinders(binders ...api.Binder) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tINDUSTRY\tCREATED")
	for _, b := range binders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", b.ID, b.Name, b.Industry, b.CreatedAt.Local().Format(time.DateOnly))
	}
	_ = tw.Flush()
}
