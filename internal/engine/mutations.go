package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sandeepkv93/tasksync/internal/model"
	"github.com/sandeepkv93/tasksync/internal/notion"
	"github.com/sandeepkv93/tasksync/internal/scheduler"
	"github.com/sandeepkv93/tasksync/internal/storage"
)

const msgTaskNotFound = "failed to locate task"

// Pending is the remote half of a mutation that has already been applied
// locally.
type Pending struct {
	done chan struct{}
	err  error
}

func newPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

func resolved() *Pending {
	p := newPending()
	p.resolve(nil)
	return p
}

func (p *Pending) resolve(err error) {
	p.err = err
	close(p.done)
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait returns the outcome of the remote patch: nil once it is committed,
// scheduler.ErrSkipped when an earlier patch for the same task failed, or
// the failure that caused the rollback.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// localStep writes a mutation into the cache and returns the matching
// property patch.
type localStep func(ctx context.Context, current model.Task) (map[string]notion.Value, error)

func (e *Engine) StartTask(ctx context.Context, id string) (*Pending, error) {
	now := e.now()
	return e.mutate(ctx, "start", id, func(ctx context.Context, current model.Task) (map[string]notion.Value, error) {
		if err := e.store.StartTask(ctx, id, now); err != nil {
			return nil, err
		}
		props := map[string]notion.Value{
			notion.PropStatus:    notion.StatusPatch(model.StatusInProgress),
			notion.PropStartTime: notion.DateTimePatch(now),
		}
		if current.Timestamp == nil {
			props[notion.PropTimestamp] = notion.DayPatch(now)
		}
		return props, nil
	})
}

func (e *Engine) CompleteTask(ctx context.Context, id string) (*Pending, error) {
	now := e.now()
	return e.mutate(ctx, "complete", id, func(ctx context.Context, _ model.Task) (map[string]notion.Value, error) {
		if err := e.store.CompleteTask(ctx, id, now); err != nil {
			return nil, err
		}
		return map[string]notion.Value{
			notion.PropStatus:    notion.StatusPatch(model.StatusComplete),
			notion.PropEndTime:   notion.DateTimePatch(now),
			notion.PropTimestamp: notion.DayPatch(now),
		}, nil
	})
}

func (e *Engine) CancelTask(ctx context.Context, id string) (*Pending, error) {
	return e.mutate(ctx, "cancel", id, func(ctx context.Context, _ model.Task) (map[string]notion.Value, error) {
		if err := e.store.CancelTask(ctx, id); err != nil {
			return nil, err
		}
		return map[string]notion.Value{
			notion.PropStatus:    notion.StatusPatch(model.StatusToDo),
			notion.PropStartTime: notion.NullDatePatch(),
			notion.PropEndTime:   notion.NullDatePatch(),
		}, nil
	})
}

func (e *Engine) TrashTask(ctx context.Context, id string) (*Pending, error) {
	return e.mutate(ctx, "trash", id, func(ctx context.Context, _ model.Task) (map[string]notion.Value, error) {
		err := e.store.Mutate(ctx, id, func(t *model.Task) {
			t.Type = model.TypeTrash
			t.Status = model.StatusToDo
		})
		if err != nil {
			return nil, err
		}
		return map[string]notion.Value{
			notion.PropType:   notion.SelectPatch(string(model.TypeTrash)),
			notion.PropStatus: notion.StatusPatch(model.StatusToDo),
		}, nil
	})
}

// ConvertToNextAction makes the task an actionable to-do. A missing or past
// timestamp is moved to today.
func (e *Engine) ConvertToNextAction(ctx context.Context, id string) (*Pending, error) {
	today := model.StartOfDay(e.now())
	return e.mutate(ctx, "convert", id, func(ctx context.Context, current model.Task) (map[string]notion.Value, error) {
		bump := current.Timestamp == nil || current.Timestamp.Before(today)
		err := e.store.Mutate(ctx, id, func(t *model.Task) {
			t.Type = model.TypeNextAction
			t.Status = model.StatusToDo
			if bump {
				t.Timestamp = model.TimePtr(today)
			}
		})
		if err != nil {
			return nil, err
		}
		props := map[string]notion.Value{
			notion.PropType:   notion.SelectPatch(string(model.TypeNextAction)),
			notion.PropStatus: notion.StatusPatch(model.StatusToDo),
		}
		if bump {
			props[notion.PropTimestamp] = notion.DayPatch(today)
		}
		return props, nil
	})
}

// UpdateTask applies changes locally and patches only the changed
// properties. An empty change-set returns a resolved Pending without touching
// the cache or the network.
func (e *Engine) UpdateTask(ctx context.Context, id string, changes model.Changes) (*Pending, error) {
	props := notion.ChangesPatch(changes)
	if changes.IsEmpty() || len(props) == 0 {
		return resolved(), nil
	}
	return e.mutate(ctx, "update", id, func(ctx context.Context, _ model.Task) (map[string]notion.Value, error) {
		if err := e.store.Update(ctx, id, changes); err != nil {
			return nil, err
		}
		return props, nil
	})
}

// Assign promotes a triaged task to a next action.
func (e *Engine) Assign(ctx context.Context, id string) (*Pending, error) {
	return e.AssignWith(ctx, id, "", "")
}

// AssignWith sets the given priority and timeslot, moves a missing or past
// timestamp to today and waits for that update to be committed remotely
// before converting the task. Empty values are left alone.
func (e *Engine) AssignWith(ctx context.Context, id string, priority model.Priority, timeslot model.Timeslot) (*Pending, error) {
	task, err := e.store.Get(ctx, id)
	if err != nil {
		e.recordLookupFailure(err)
		return nil, fmt.Errorf("assign %s: %w", id, err)
	}

	var changes model.Changes
	if priority != "" {
		changes.Priority = model.SetTo(priority)
	}
	if timeslot != "" {
		changes.Timeslot = model.SetTo(timeslot)
	}
	today := model.StartOfDay(e.now())
	if task.Timestamp == nil || task.Timestamp.Before(today) {
		changes.Timestamp = model.SetTo(today)
	}

	if !changes.IsEmpty() {
		p, err := e.UpdateTask(ctx, id, changes)
		if err != nil {
			return nil, fmt.Errorf("assign %s: %w", id, err)
		}
		if err := p.Wait(ctx); err != nil {
			return nil, fmt.Errorf("assign %s: %w", id, err)
		}
	}
	return e.ConvertToNextAction(ctx, id)
}

// Forget removes a task from the cache only.
func (e *Engine) Forget(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.store.Remove(ctx, id); err != nil {
		e.recordLookupFailure(err)
		return fmt.Errorf("forget %s: %w", id, err)
	}
	return nil
}

// mutate runs the optimistic protocol shared by every mutation: capture a
// checkpoint, apply locally, then queue the remote patch behind earlier
// patches for the same task.
func (e *Engine) mutate(ctx context.Context, op, id string, apply localStep) (*Pending, error) {
	creds, err := e.credentials()
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	checkpoint, err := e.store.Snapshot(ctx, id)
	if err != nil {
		e.recordLookupFailure(err)
		return nil, fmt.Errorf("%s %s: %w", op, id, err)
	}
	props, err := apply(ctx, checkpoint.Task())
	if err != nil {
		e.fail(err)
		return nil, fmt.Errorf("%s %s: %w", op, id, err)
	}

	log := e.log.With().Str("op", op).Str("op_id", uuid.NewString()).Str("task_id", id).Logger()
	p := newPending()
	err = e.legs.Submit(scheduler.Job{
		Key: id,
		Run: func(ctx context.Context) error {
			return e.push(ctx, creds, id, props)
		},
		Done: func(err error) {
			e.settle(log, id, checkpoint, err)
			p.resolve(err)
		},
	})
	if err != nil {
		if restoreErr := e.store.Overwrite(context.WithoutCancel(ctx), id, checkpoint); restoreErr != nil {
			log.Error().Err(restoreErr).Msg("restore after rejected submit failed")
		}
		return nil, fmt.Errorf("%s %s: %w", op, id, err)
	}
	log.Debug().Int("properties", len(props)).Msg("applied locally")
	return p, nil
}

// push unarchives the page, then applies the property patch.
func (e *Engine) push(ctx context.Context, creds notion.Credentials, id string, props map[string]notion.Value) error {
	if _, err := e.client.UpdatePage(ctx, creds, id, notion.Unarchive()); err != nil {
		return fmt.Errorf("unarchive page: %w", err)
	}
	if _, err := e.client.UpdatePage(ctx, creds, id, notion.PageUpdate{Properties: props}); err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

func (e *Engine) settle(log zerolog.Logger, id string, checkpoint model.Snapshot, err error) {
	switch {
	case err == nil:
		e.setLastError("")
		log.Debug().Msg("remote patch committed")
	case errors.Is(err, scheduler.ErrSkipped):
		log.Debug().Msg("remote patch discarded")
	case IsCancellation(err):
		log.Debug().Msg("remote patch cancelled")
	default:
		e.rollback(log, id, checkpoint, err)
	}
}

// rollback restores checkpoint and drops the patches queued after the failed
// one. Their local effects postdate checkpoint, so they are undone too. A task
// removed from the cache in the meantime is left removed.
func (e *Engine) rollback(log zerolog.Logger, id string, checkpoint model.Snapshot, cause error) {
	e.mu.Lock()
	dropped := e.legs.Discard(id)
	restoreErr := e.store.Overwrite(context.Background(), id, checkpoint)
	e.mu.Unlock()

	for _, job := range dropped {
		if job.Done != nil {
			job.Done(scheduler.ErrSkipped)
		}
	}

	e.setLastError(cause.Error())
	ev := log.Warn().Err(cause).Int("discarded", len(dropped))
	switch {
	case errors.Is(restoreErr, storage.ErrNotFound):
		// Forgotten or pruned while the patch was in flight; nothing to restore.
		ev.Bool("restored", false).Msg("remote patch failed, task no longer cached")
		return
	case restoreErr != nil:
		ev = ev.AnErr("restore_error", restoreErr)
	}
	ev.Msg("remote patch failed, local change rolled back")
}

func (e *Engine) recordLookupFailure(err error) {
	if errors.Is(err, storage.ErrNotFound) {
		e.setLastError(msgTaskNotFound)
		return
	}
	e.fail(err)
}
