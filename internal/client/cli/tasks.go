package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/dmitrijs2005/compliancebinder/internal/client/api"
)

func (a *App) tasksCommand() *Command {
	return &Command{
		Name:    "tasks",
		Summary: "List, add and complete tasks",
		Subcommands: []*Command{
			a.tasksListCommand(),
			a.tasksAddCommand(),
			a.tasksDoneCommand(),
		},
	}
}

func (a *App) tasksListCommand() *Command {
	var asJSON bool
	return &Command{
		Name:    "list",
		Summary: "List the tasks of a binder",
		Usage:   "binderctl tasks list <binder-id>",
		Flags:   func() *pflag.FlagSet { return jsonFlag("list", &asJSON) },
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args, "binder id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}
			tasks, err := a.client.ListTasks(ctx, id)
			if err != nil {
				return err
			}
			if asJSON {
				return a.printJSON(tasks)
			}
			a.printTasks(tasks...)
			return nil
		},
	}
}

func (a *App) tasksAddCommand() *Command {
	var t api.NewTask
	return &Command{
		Name:    "add",
		Summary: "Add a task to a binder",
		Usage:   "binderctl tasks add <binder-id> --title TITLE [--description TEXT] [--due YYYY-MM-DD]",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("add", pflag.ContinueOnError)
			fs.StringVarP(&t.Title, "title", "t", "", "task title")
			fs.StringVarP(&t.Description, "description", "d", "", "task description")
			fs.StringVar(&t.DueDate, "due", "", "due date, YYYY-MM-DD")
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
			task, err := a.client.CreateTask(ctx, id, t)
			if err != nil {
				return err
			}
			a.printTasks(*task)
			return nil
		},
	}
}

func (a *App) tasksDoneCommand() *Command {
	return &Command{
		Name:    "done",
		Summary: "Mark a task done",
		Usage:   "binderctl tasks done <task-id>",
		Run: func(ctx context.Context, args []string) error {
			id, err := parseID(args, "task id")
			if err != nil {
				return err
			}
			if err := a.authenticate(); err != nil {
				return err
			}
			task, err := a.client.MarkDone(ctx, id)
			if err != nil {
				return err
			}
			a.printTasks(*task)
			return nil
		},
	}
}

func (a *App) printTasks(tasks ...api.Task) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tDUE\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = *t.DueDate
			if t.IsOverdue {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", t.ID, t.Status, due, t.Title)
	}
	_ = tw.Flush()
}
