package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDispatcherRunsSameKeyInSubmissionOrder(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()

	release := make(chan struct{})
	order := make(chan string, 3)
	for _, name := range []string{"first", "second", "third"} {
		name := name
		err := d.Submit(Job{Key: "task-1", Run: func(context.Context) error {
			if name == "first" {
				<-release
			}
			order <- name
			return nil
		}})
		if err != nil {
			t.Fatalf("submit %s: %v", name, err)
		}
	}

	select {
	case got := <-order:
		t.Fatalf("%s ran before the blocked head of the queue", got)
	case <-time.After(30 * time.Millisecond):
	}
	close(release)

	for _, want := range []string{"first", "second", "third"} {
		if got := waitValue(t, order, time.Second); got != want {
			t.Fatalf("unexpected order: got=%s want=%s", got, want)
		}
	}
}

func TestDispatcherRunsDifferentKeysConcurrently(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()

	release := make(chan struct{})
	done := make(chan string, 1)
	_ = d.Submit(Job{Key: "slow", Run: func(context.Context) error {
		<-release
		return nil
	}})
	_ = d.Submit(Job{Key: "fast", Run: func(context.Context) error {
		done <- "fast"
		return nil
	}})

	if got := waitValue(t, done, time.Second); got != "fast" {
		t.Fatalf("unexpected job: %s", got)
	}
	close(release)
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestDiscardDropsQueuedJobsOnly(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()

	started := make(chan struct{})
	release := make(chan struct{})
	results := make(chan error, 1)
	_ = d.Submit(Job{
		Key: "task-1",
		Run: func(context.Context) error {
			close(started)
			<-release
			return nil
		},
		Done: func(err error) { results <- err },
	})
	ran := false
	for i := 0; i < 2; i++ {
		_ = d.Submit(Job{Key: "task-1", Run: func(context.Context) error {
			ran = true
			return nil
		}})
	}
	<-started

	dropped := d.Discard("task-1")
	if len(dropped) != 2 {
		t.Fatalf("expected 2 discarded jobs, got %d", len(dropped))
	}
	close(release)
	if err := waitValue(t, results, time.Second); err != nil {
		t.Fatalf("running job must finish normally, got %v", err)
	}
	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if ran {
		t.Fatalf("discarded job ran")
	}
	if d.Discarded() != 2 {
		t.Fatalf("expected discarded count 2, got %d", d.Discarded())
	}
}

func TestStopCancelsRunningJobs(t *testing.T) {
	d := NewDispatcher()

	started := make(chan struct{})
	results := make(chan error, 1)
	_ = d.Submit(Job{
		Key: "task-1",
		Run: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		},
		Done: func(err error) { results <- err },
	})
	<-started
	d.Stop()

	if err := waitValue(t, results, time.Second); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := d.Submit(Job{Key: "task-1", Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped after stop, got %v", err)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()

	if err := d.Wait(context.Background()); err != nil {
		t.Fatalf("idle wait: %v", err)
	}

	release := make(chan struct{})
	defer close(release)
	_ = d.Submit(Job{Key: "k", Run: func(context.Context) error {
		<-release
		return nil
	}})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestSubmitValidatesJob(t *testing.T) {
	d := NewDispatcher()
	defer d.Stop()
	if err := d.Submit(Job{Key: "k"}); err == nil {
		t.Fatalf("expected error for job without run func")
	}
}

func waitValue[T any](t *testing.T, ch <-chan T, timeout time.Duration) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for value")
	}
	var zero T
	return zero
}
