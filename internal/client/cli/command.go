package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// ErrUsage marks an error caused by wrong arguments rather than by the
// server.
var ErrUsage = errors.New("usage")

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}

// Command is one node of the command tree.
type Command struct {
	Name    string
	Summary string
	// Usage is shown in help, e.g. "binderctl tasks add <binder-id> [flags]".
	Usage string

	// Flags returns a fresh flag set. Nil means the command takes none.
	Flags func() *pflag.FlagSet

	// Exactly one of Run or Subcommands is set.
	Subcommands []*Command
	Run         func(ctx context.Context, args []string) error

	parent *Command
}

func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

// Execute dispatches args down the tree and runs the matching command.
// Help output goes to w.
func (c *Command) Execute(ctx context.Context, args []string, w io.Writer) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(w)
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) == 0 {
			c.PrintHelp(w)
			return usageError("%s: subcommand required", c.fullName())
		}
		for _, sub := range c.Subcommands {
			if sub.Name == args[0] {
				sub.parent = c
				return sub.Execute(ctx, args[1:], w)
			}
		}
		return usageError("unknown command %q, run '%s help'", args[0], c.fullName())
	}

	rest := args
	if c.Flags != nil {
		fs := c.Flags()
		fs.SetOutput(io.Discard)
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, pflag.ErrHelp) {
				c.PrintHelp(w)
				return nil
			}
			return usageError("%s: %v", c.fullName(), err)
		}
		rest = fs.Args()
	}

	return c.Run(ctx, rest)
}

func (c *Command) PrintHelp(w io.Writer) {
	usage := c.Usage
	if usage == "" {
		usage = c.fullName()
		if len(c.Subcommands) > 0 {
			usage += " <command>"
		}
	}
	fmt.Fprintf(w, "%s\n\nUsage:\n  %s\n", c.Summary, usage)

	if len(c.Subcommands) > 0 {
		fmt.Fprintln(w, "\nCommands:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(tw, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		_ = tw.Flush()
	}

	if c.Flags != nil {
		if fu := c.Flags().FlagUsages(); strings.TrimSpace(fu) != "" {
			fmt.Fprintf(w, "\nFlags:\n%s", fu)
		}
	}
}
