package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/sandeepkv93/tasksync/internal/engine"
	"github.com/sandeepkv93/tasksync/internal/views"
)

// mutation starts a local-first change and returns its remote leg.
type mutation func(ctx context.Context, id string) (*engine.Pending, error)

// execute runs m for id, waits for the remote leg and prints the resulting
// sync status. A failed leg has already been rolled back by the engine.
func execute(ctx context.Context, w io.Writer, eng *engine.Engine, op, id string, m mutation) error {
	pending, err := m(ctx, id)
	if err == nil {
		if werr := pending.Wait(ctx); werr != nil {
			err = fmt.Errorf("%s %s: %w", op, id, werr)
		}
	}

	last := eng.State().LastError
	if err != nil && last == "" {
		return err
	}
	if _, perr := fmt.Fprintln(w, views.RenderStatus(last)); perr != nil && err == nil {
		return perr
	}
	return err
}
