package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/tasksync/internal/engine"
	"github.com/sandeepkv93/tasksync/internal/model"
	"github.com/sandeepkv93/tasksync/internal/storage"
)

type EditCmd struct {
	flags *Flags

	name     string
	memo     string
	status   string
	priority string
	timeslot string
	kind     string
	date     string
	deadline string
}

// NewEditCmd creates a new edit command
func NewEditCmd(flags *Flags) *EditCmd {
	return &EditCmd{flags: flags}
}

// Register adds the edit command to the application
func (cmd *EditCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "edit",
		Usage:     "Change fields of a task",
		UsageText: "tasksync edit <task-id> [--name TEXT] [--memo TEXT] [--priority N] ...",
		Description: `Only the flags given are changed. Pass "-" to clear an optional field;
name and status cannot be cleared.

Only fields that differ from the cached task are sent to Notion.`,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "task title", Destination: &cmd.name},
			&cli.StringFlag{Name: "memo", Usage: "markdown memo", Destination: &cmd.memo},
			&cli.StringFlag{Name: "status", Usage: "todo, in-progress or complete", Destination: &cmd.status},
			&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "priority 1-4", Destination: &cmd.priority},
			&cli.StringFlag{Name: "timeslot", Aliases: []string{"t"}, Usage: "morning, forenoon, afternoon or evening", Destination: &cmd.timeslot},
			&cli.StringFlag{Name: "type", Usage: "next, someday, waiting or trash", Destination: &cmd.kind},
			&cli.StringFlag{Name: "date", Aliases: []string{"d"}, Usage: "scheduled day", Destination: &cmd.date},
			&cli.StringFlag{Name: "deadline", Usage: "deadline day or \"yyyy-mm-dd hh:mm\" (JST)", Destination: &cmd.deadline},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *EditCmd) run(ctx context.Context, c *cli.Command) error {
	id, err := parseTaskID(c.Args().Slice(), "edit")
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

	desired, err := cmd.desired(c, model.EditValuesOf(task))
	if err != nil {
		return err
	}
	changes := model.Diff(task, desired)
	if changes.IsEmpty() {
		return &CommandError{Code: ErrCodeNothingToChange, Message: "task " + id + " already has these values"}
	}

	return execute(ctx, c.Root().Writer, cmd.flags.Engine, "edit", id, func(ctx context.Context, id string) (*engine.Pending, error) {
		return cmd.flags.Engine.UpdateTask(ctx, id, changes)
	})
}

// desired overlays the flags that were set onto v.
func (cmd *EditCmd) desired(c *cli.Command, v model.EditValues) (model.EditValues, error) {
	now := cmd.flags.now()
	var err error

	if c.IsSet("name") {
		if cmd.name == clearValue {
			return v, invalid("name cannot be cleared")
		}
		v.Name = cmd.name
	}
	if c.IsSet("memo") {
		v.Memo = cmd.memo
		if cmd.memo == clearValue {
			v.Memo = ""
		}
	}
	if c.IsSet("status") {
		if cmd.status == clearValue {
			return v, invalid("status cannot be cleared")
		}
		if v.Status, err = parseStatus(cmd.status); err != nil {
			return v, err
		}
	}
	if c.IsSet("priority") {
		v.Priority = ""
		if cmd.priority != clearValue {
			if v.Priority, err = parsePriority(cmd.priority); err != nil {
				return v, err
			}
		}
	}
	if c.IsSet("timeslot") {
		v.Timeslot = ""
		if cmd.timeslot != clearValue {
			if v.Timeslot, err = parseTimeslot(cmd.timeslot); err != nil {
				return v, err
			}
		}
	}
	if c.IsSet("type") {
		v.Type = ""
		if cmd.kind != clearValue {
			if v.Type, err = parseType(cmd.kind); err != nil {
				return v, err
			}
		}
	}
	if c.IsSet("date") {
		if v.Timestamp, err = optionalTime(cmd.date, now, parseDay); err != nil {
			return v, err
		}
	}
	if c.IsSet("deadline") {
		if v.Deadline, err = optionalTime(cmd.deadline, now, parseInstant); err != nil {
			return v, err
		}
	}
	return v, nil
}

func optionalTime(raw string, now time.Time, parse func(string, time.Time) (time.Time, error)) (*time.Time, error) {
	if raw == clearValue {
		return nil, nil
	}
	t, err := parse(raw, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
