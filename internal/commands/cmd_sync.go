package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sandeepkv93/tasksync/internal/views"
)

type SyncCmd struct {
	flags *Flags

	date    string
	dayOnly bool
}

// NewSyncCmd creates a new sync command
func NewSyncCmd(flags *Flags) *SyncCmd {
	return &SyncCmd{flags: flags}
}

// Register adds the sync command to the application
func (cmd *SyncCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "sync",
		Usage:     "Refresh the local cache from Notion",
		UsageText: "tasksync sync [--date DAY] [--day-only]",
		Description: `Fetches every task relevant to DAY (default today, JST) and merges it
into the local cache. Cached tasks that Notion no longer returns are removed.

With --day-only only tasks scheduled on DAY are fetched.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "date",
				Aliases:     []string{"d"},
				Usage:       "day to refresh (today, tomorrow, yesterday or yyyy-mm-dd)",
				Destination: &cmd.date,
			},
			&cli.BoolFlag{
				Name:        "day-only",
				Usage:       "only fetch tasks scheduled on the day",
				Destination: &cmd.dayOnly,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *SyncCmd) run(ctx context.Context, c *cli.Command) error {
	day, err := parseDay(cmd.date, cmd.flags.now())
	if err != nil {
		return err
	}

	eng := cmd.flags.Engine
	if cmd.dayOnly {
		err = eng.RefreshDay(ctx, day)
	} else {
		err = eng.Refresh(ctx, day)
	}
	if err != nil {
		return fmt.Errorf("sync %s: %w", day.Format(time.DateOnly), err)
	}

	_, err = fmt.Fprintln(c.Root().Writer, views.RenderStatus(eng.State().LastError))
	return err
}

type WatchCmd struct {
	flags *Flags

	interval time.Duration
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Refresh on an interval until interrupted",
		UsageText: "tasksync watch [--interval DURATION]",
		Description: `Refreshes today's tasks immediately and then every interval, printing
the sync status whenever it changes. Stops on SIGINT or SIGTERM.`,
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:        "interval",
				Aliases:     []string{"i"},
				Usage:       "time between refreshes (defaults to sync.interval)",
				Destination: &cmd.interval,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	interval := cmd.interval
	if interval == 0 && cmd.flags.Config != nil {
		interval = cmd.flags.Config.Sync.Interval
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	states, unsubscribe := cmd.flags.Engine.Subscribe()
	defer unsubscribe()

	w := c.Root().Writer
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-states:
				if st.Syncing {
					continue
				}
				_, _ = fmt.Fprintln(w, views.RenderStatus(st.LastError))
			}
		}
	}()

	return cmd.flags.Engine.Run(ctx, interval, cmd.flags.now)
}
