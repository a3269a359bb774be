package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/tasksync/internal/model"
	"github.com/sandeepkv93/tasksync/internal/storage"
	"github.com/sandeepkv93/tasksync/internal/views"
)

type ListCmd struct {
	flags *Flags

	date string
}

// NewListCmd creates a new list command
func NewListCmd(flags *Flags) *ListCmd {
	return &ListCmd{flags: flags}
}

// Register adds the list, today and show commands to the application
func (cmd *ListCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:      "list",
			Aliases:   []string{"ls"},
			Usage:     "List cached tasks in a view",
			UsageText: "tasksync list <inbox|today|in-progress|completed|overdue> [--date DAY]",
			Description: `Reads the local cache only; run 'tasksync sync' first to pull changes.

Trashed tasks are never listed.`,
			Flags:  []cli.Flag{cmd.dateFlag()},
			Action: cmd.runList,
		},
		&cli.Command{
			Name:      "today",
			Usage:     "Show the to-do, in-progress and completed views for a day",
			UsageText: "tasksync today [--date DAY]",
			Flags:     []cli.Flag{cmd.dateFlag()},
			Action:    cmd.runToday,
		},
		&cli.Command{
			Name:      "show",
			Usage:     "Show every field of one cached task",
			UsageText: "tasksync show <task-id>",
			Action:    cmd.runShow,
		},
	)

	return app
}

func (cmd *ListCmd) dateFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "date",
		Aliases:     []string{"d"},
		Usage:       "day to show (today, tomorrow, yesterday or yyyy-mm-dd)",
		Destination: &cmd.date,
	}
}

func (cmd *ListCmd) runList(ctx context.Context, c *cli.Command) error {
	if c.Args().Len() != 1 {
		return &CommandError{Code: ErrCodeMissingArgument, Message: "list requires one scope: " + scopeNames()}
	}
	scope, err := parseScope(c.Args().First())
	if err != nil {
		return err
	}
	day, err := parseDay(cmd.date, cmd.flags.now())
	if err != nil {
		return err
	}

	tasks, err := cmd.flags.Store.Fetch(ctx, scope, day)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", scope, err)
	}
	_, err = fmt.Fprintln(c.Root().Writer, views.RenderScope(scope, day, tasks))
	return err
}

func (cmd *ListCmd) runToday(ctx context.Context, c *cli.Command) error {
	day, err := parseDay(cmd.date, cmd.flags.now())
	if err != nil {
		return err
	}

	byScope := make(map[model.Scope][]model.Task, 3)
	for _, scope := range []model.Scope{model.ScopeTodayTodo, model.ScopeInProgress, model.ScopeTodayCompleted} {
		tasks, err := cmd.flags.Store.Fetch(ctx, scope, day)
		if err != nil {
			return fmt.Errorf("fetch %s: %w", scope, err)
		}
		byScope[scope] = tasks
	}

	out := views.RenderToday(day, byScope[model.ScopeTodayTodo], byScope[model.ScopeInProgress], byScope[model.ScopeTodayCompleted])
	_, err = fmt.Fprintln(c.Root().Writer, out)
	return err
}

func (cmd *ListCmd) runShow(ctx context.Context, c *cli.Command) error {
	id, err := parseTaskID(c.Args().Slice(), "show")
	if err != nil {
		return err
	}
	task, err := cmd.flags.Store.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("task %s is not cached; run 'tasksync sync'", id)
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", id, err)
	}
	_, err = fmt.Fprintln(c.Root().Writer, views.RenderTask(task))
	return err
}
