package storage

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sandeepkv93/tasksync/internal/model"
)

var _ Repository = (*SQLiteRepository)(nil)

// SQLiteRepository keeps the cache in one SQLite file. It holds a single
// connection, so transactions never interleave.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	db.SetMaxOpenConns(1)
	return &SQLiteRepository{db: db}, nil
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Fetch(ctx context.Context, scope model.Scope, date time.Time) ([]model.Task, error) {
	if !scope.IsValid() {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidScope, scope)
	}
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := model.FilterScope(all, scope, date)
	sortForScope(out, scope)
	return out, nil
}

// List returns every non-trashed task, oldest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE type <> ? ORDER BY created_at, id`,
		string(model.TypeTrash))
	if err != nil {
		return nil, wrap("list tasks", err)
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		task, scanErr := scanTask(rows)
		if scanErr != nil {
			return nil, wrap("scan task", scanErr)
		}
		out = append(out, task)
	}
	return out, wrap("list tasks", rows.Err())
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (model.Task, error) {
	task, err := getTask(ctx, r.db, id)
	return task, wrap("get task", err)
}

func (r *SQLiteRepository) Snapshot(ctx context.Context, id string) (model.Snapshot, error) {
	task, err := r.Get(ctx, id)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.NewSnapshot(task), nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, snaps []model.Snapshot) error {
	if len(snaps) == 0 {
		return nil
	}
	return r.withTx(ctx, "upsert tasks", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES (`+taskPlaceholders+`)
			ON CONFLICT(id) DO UPDATE SET `+taskUpsertSet)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, snap := range snaps {
			args, err := taskArgs(snap.Task())
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("upsert %s: %w", snap.ID(), err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) Prune(ctx context.Context, match func(model.Task) bool, keep map[string]struct{}) (int, error) {
	var removed int
	err := r.withTx(ctx, "prune tasks", func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+taskColumns+` FROM tasks`)
		if err != nil {
			return err
		}
		var doomed []string
		for rows.Next() {
			task, scanErr := scanTask(rows)
			if scanErr != nil {
				_ = rows.Close()
				return scanErr
			}
			if _, kept := keep[task.ID]; kept {
				continue
			}
			if match(task) {
				doomed = append(doomed, task.ID)
			}
		}
		if err := rows.Close(); err != nil {
			return err
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range doomed {
			if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
				return err
			}
		}
		removed = len(doomed)
		return nil
	})
	return removed, err
}

func (r *SQLiteRepository) StartTask(ctx context.Context, id string, at time.Time) error {
	return r.Mutate(ctx, id, func(t *model.Task) {
		t.Status = model.StatusInProgress
		t.StartTime = model.TimePtr(at)
	})
}

// CompleteTask also moves the task onto the JST day it was completed.
func (r *SQLiteRepository) CompleteTask(ctx context.Context, id string, at time.Time) error {
	return r.Mutate(ctx, id, func(t *model.Task) {
		t.Status = model.StatusComplete
		t.EndTime = model.TimePtr(at)
		t.Timestamp = model.TimePtr(model.StartOfDay(at))
	})
}

func (r *SQLiteRepository) CancelTask(ctx context.Context, id string) error {
	return r.Mutate(ctx, id, func(t *model.Task) {
		t.Status = model.StatusToDo
		t.StartTime = nil
		t.EndTime = nil
	})
}

func (r *SQLiteRepository) Update(ctx context.Context, id string, changes model.Changes) error {
	return r.Mutate(ctx, id, changes.Apply)
}

// Mutate reads the task, applies fn and writes it back in one transaction.
func (r *SQLiteRepository) Mutate(ctx context.Context, id string, fn func(*model.Task)) error {
	return r.withTx(ctx, "update task", func(tx *sql.Tx) error {
		task, err := getTask(ctx, tx, id)
		if err != nil {
			return err
		}
		fn(&task)
		task.ID = id
		return writeTask(ctx, tx, task)
	})
}

func (r *SQLiteRepository) Overwrite(ctx context.Context, id string, snap model.Snapshot) error {
	task := snap.Task()
	task.ID = id
	return r.withTx(ctx, "overwrite task", func(tx *sql.Tx) error {
		return writeTask(ctx, tx, task)
	})
}

func (r *SQLiteRepository) Remove(ctx context.Context, id string) error {
	return r.withTx(ctx, "remove task", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
		if err != nil {
			return err
		}
		return checkRowsAffected(res)
	})
}

func (r *SQLiteRepository) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return wrap(op, err)
	}
	return wrap(op, tx.Commit())
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTask(ctx context.Context, q querier, id string) (model.Task, error) {
	row := q.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Task{}, fmt.Errorf("%w: task %s", ErrNotFound, id)
		}
		return model.Task{}, err
	}
	return task, nil
}

func writeTask(ctx context.Context, tx *sql.Tx, task model.Task) error {
	args, err := taskArgs(task)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `UPDATE tasks SET `+taskAssignments+` WHERE id = ?`,
		append(args[1:], task.ID)...)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// sortForScope orders tasks the way each scope is displayed. Missing times
// sort first.
func sortForScope(tasks []model.Task, scope model.Scope) {
	switch scope {
	case model.ScopeInbox:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	case model.ScopeTodayTodo:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return cmp.Compare(b.Priority.Score(), a.Priority.Score())
		})
	case model.ScopeTodayCompleted:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return compareOptional(b.EndTime, a.EndTime)
		})
	case model.ScopeInProgress:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return compareOptional(a.StartTime, b.StartTime)
		})
	case model.ScopeOverdue:
		slices.SortStableFunc(tasks, func(a, b model.Task) int {
			return compareOptional(a.Timestamp, b.Timestamp)
		})
	}
}

func compareOptional(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
