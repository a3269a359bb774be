// Package engine keeps the local task cache in step with the Notion database.
// Refreshes pull remote pages into the cache; mutations write the cache first
// and push the matching patch in the background, restoring the previous state
// when the push fails.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/sandeepkv93/tasksync/internal/notion"
	"github.com/sandeepkv93/tasksync/internal/scheduler"
	"github.com/sandeepkv93/tasksync/internal/storage"
)

var ErrMissingCredentials = fmt.Errorf("engine: %w", notion.ErrMissingCredentials)

const msgMissingCredentials = "missing credentials"

// CredentialProvider yields the credentials to use for the next remote call.
type CredentialProvider interface {
	Credentials() (notion.Credentials, bool)
}

type CredentialFunc func() (notion.Credentials, bool)

func (f CredentialFunc) Credentials() (notion.Credentials, bool) {
	return f()
}

// State is the observable status of an engine.
type State struct {
	Syncing   bool
	LastError string
}

type Engine struct {
	store  storage.Repository
	client notion.Client
	creds  CredentialProvider
	legs   *scheduler.Dispatcher
	flight singleflight.Group
	log    zerolog.Logger
	now    func() time.Time

	// mu covers checkpoint capture, local apply, enqueue and rollback.
	mu sync.Mutex

	stateMu sync.Mutex
	state   State
	syncing int
	subs    map[int]chan State
	nextSub int
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.log = l.With().Str("component", "engine").Logger() }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(store storage.Repository, client notion.Client, creds CredentialProvider, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		client: client,
		creds:  creds,
		legs:   scheduler.NewDispatcher(),
		log:    zerolog.Nop(),
		now:    time.Now,
		subs:   make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsCancellation reports whether err stems from a cancelled context. Such
// errors are never reported as failures.
func IsCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}

func (e *Engine) State() State {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	return e.state
}

// Subscribe returns a channel that receives the state after every change.
// Only the newest state is buffered. The returned func unsubscribes.
func (e *Engine) Subscribe() (<-chan State, func()) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()

	id := e.nextSub
	e.nextSub++
	ch := make(chan State, 1)
	e.subs[id] = ch
	return ch, func() {
		e.stateMu.Lock()
		defer e.stateMu.Unlock()
		delete(e.subs, id)
	}
}

func (e *Engine) DismissError() {
	e.setLastError("")
}

// Wait blocks until every pending remote patch has finished.
func (e *Engine) Wait(ctx context.Context) error {
	return e.legs.Wait(ctx)
}

// Close cancels pending remote patches and waits for them to return.
func (e *Engine) Close() {
	e.legs.Stop()
}

func (e *Engine) setLastError(msg string) {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if e.state.LastError == msg {
		return
	}
	e.state.LastError = msg
	e.publish()
}

func (e *Engine) beginSync() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.syncing++
	if e.syncing == 1 {
		e.state.Syncing = true
		e.publish()
	}
}

func (e *Engine) endSync() {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	e.syncing--
	if e.syncing == 0 {
		e.state.Syncing = false
		e.publish()
	}
}

// publish must be called with stateMu held.
func (e *Engine) publish() {
	s := e.state
	for _, ch := range e.subs {
		select {
		case ch <- s:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

func (e *Engine) credentials() (notion.Credentials, error) {
	creds, ok := e.creds.Credentials()
	if !ok || !creds.Usable() {
		e.setLastError(msgMissingCredentials)
		return notion.Credentials{}, ErrMissingCredentials
	}
	return creds, nil
}

// fail records err as the last error unless it is a cancellation, which
// clears it instead.
func (e *Engine) fail(err error) {
	if IsCancellation(err) {
		e.setLastError("")
		return
	}
	e.setLastError(err.Error())
}
