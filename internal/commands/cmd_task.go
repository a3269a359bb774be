package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/tasksync/internal/engine"
	"github.com/sandeepkv93/tasksync/internal/model"
)

type TaskCmd struct {
	flags *Flags

	priority string
	timeslot string
}

// NewTaskCmd creates the single-task mutation commands
func NewTaskCmd(flags *Flags) *TaskCmd {
	return &TaskCmd{flags: flags}
}

// Register adds start, complete, cancel, trash, next, assign and forget to
// the application
func (cmd *TaskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		cmd.mutationCommand("start", "Mark a task in progress and record its start time",
			func(e *engine.Engine) mutation { return e.StartTask }),
		cmd.mutationCommand("complete", "Mark a task complete and record its end time",
			func(e *engine.Engine) mutation { return e.CompleteTask }),
		cmd.mutationCommand("cancel", "Clear a task's start and end times",
			func(e *engine.Engine) mutation { return e.CancelTask }),
		cmd.mutationCommand("trash", "Move a task to the trash",
			func(e *engine.Engine) mutation { return e.TrashTask }),
		cmd.mutationCommand("next", "Make a task a next action scheduled no earlier than today",
			func(e *engine.Engine) mutation { return e.ConvertToNextAction }),
		&cli.Command{
			Name:      "assign",
			Usage:     "Triage an inbox task into a next action",
			UsageText: "tasksync assign <task-id> [--priority N] [--timeslot SLOT]",
			Description: `Applies the optional priority and timeslot, then converts the task to a
next action for today. If the first step fails remotely the conversion is
not attempted.`,
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:        "priority",
					Aliases:     []string{"p"},
					Usage:       "priority 1-4",
					Destination: &cmd.priority,
				},
				&cli.StringFlag{
					Name:        "timeslot",
					Aliases:     []string{"t"},
					Usage:       "morning, forenoon, afternoon or evening",
					Destination: &cmd.timeslot,
				},
			},
			Action: cmd.runAssign,
		},
		&cli.Command{
			Name:      "forget",
			Usage:     "Drop a task from the local cache without touching Notion",
			UsageText: "tasksync forget <task-id>",
			Action:    cmd.runForget,
		},
	)

	return app
}

func (cmd *TaskCmd) mutationCommand(name, usage string, pick func(*engine.Engine) mutation) *cli.Command {
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: "tasksync " + name + " <task-id>",
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := parseTaskID(c.Args().Slice(), name)
			if err != nil {
				return err
			}
			return execute(ctx, c.Root().Writer, cmd.flags.Engine, name, id, pick(cmd.flags.Engine))
		},
	}
}

func (cmd *TaskCmd) runAssign(ctx context.Context, c *cli.Command) error {
	id, err := parseTaskID(c.Args().Slice(), "assign")
	if err != nil {
		return err
	}

	var p model.Priority
	if cmd.priority != "" {
		if p, err = parsePriority(cmd.priority); err != nil {
			return err
		}
	}
	var ts model.Timeslot
	if cmd.timeslot != "" {
		if ts, err = parseTimeslot(cmd.timeslot); err != nil {
			return err
		}
	}

	return execute(ctx, c.Root().Writer, cmd.flags.Engine, "assign", id, func(ctx context.Context, id string) (*engine.Pending, error) {
		return cmd.flags.Engine.AssignWith(ctx, id, p, ts)
	})
}

func (cmd *TaskCmd) runForget(ctx context.Context, c *cli.Command) error {
	id, err := parseTaskID(c.Args().Slice(), "forget")
	if err != nil {
		return err
	}
	if err := cmd.flags.Engine.Forget(ctx, id); err != nil {
		return fmt.Errorf("forget %s: %w", id, err)
	}
	_, err = fmt.Fprintf(c.Root().Writer, "forgot %s\n", id)
	return err
}
