package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandeepkv93/tasksync/internal/model"
)

var ErrNotFound = errors.New("storage: not found")

// Error reports a rejected read or write of the persistence layer.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// Repository is the local task cache. Every call is atomic: it either
// commits in full or leaves the cache untouched.
type Repository interface {
	// Fetch returns the non-trashed tasks in scope for the JST day of date,
	// in the scope's display order.
	Fetch(ctx context.Context, scope model.Scope, date time.Time) ([]model.Task, error)
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id string) (model.Task, error)

	// Upsert inserts new ids and overwrites every mapped field of known ones.
	Upsert(ctx context.Context, snaps []model.Snapshot) error
	// Prune deletes the tasks matching match whose id is not in keep.
	Prune(ctx context.Context, match func(model.Task) bool, keep map[string]struct{}) (int, error)

	StartTask(ctx context.Context, id string, at time.Time) error
	CompleteTask(ctx context.Context, id string, at time.Time) error
	CancelTask(ctx context.Context, id string) error
	Update(ctx context.Context, id string, changes model.Changes) error
	Mutate(ctx context.Context, id string, fn func(*model.Task)) error
	Remove(ctx context.Context, id string) error

	Snapshot(ctx context.Context, id string) (model.Snapshot, error)
	// Overwrite replaces every field of an existing task with snap. A task
	// removed since the snapshot stays removed and ErrNotFound is returned.
	Overwrite(ctx context.Context, id string, snap model.Snapshot) error
}
