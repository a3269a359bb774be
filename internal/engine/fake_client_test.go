package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tasksync/internal/model"
	"github.com/sandeepkv93/tasksync/internal/notion"
	"github.com/sandeepkv93/tasksync/internal/storage"
)

var (
	now       = time.Date(2026, 3, 10, 15, 30, 0, 0, model.Tokyo)
	today     = model.StartOfDay(now)
	yesterday = today.AddDate(0, 0, -1)
	created   = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	goodCreds = notion.Credentials{Token: "secret", DatabaseID: "db-1", APIVersion: notion.DefaultAPIVersion}
)

type pageUpdate struct {
	PageID string
	Body   notion.PageUpdate
}

// fakeClient serves canned query pages and records page updates.
type fakeClient struct {
	mu sync.Mutex

	pages    []notion.QueryResponse
	queryErr error
	// queryGate, when set, holds every query until it is closed.
	queryGate chan struct{}
	queries   []notion.QueryRequest
	queryHits int32

	blocks   map[string][]notion.BlockChildren
	blockErr map[string]error

	updates []pageUpdate
	// updateFunc, when set, decides the outcome of each update.
	updateFunc func(ctx context.Context, pageID string, req notion.PageUpdate) error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		blocks:   make(map[string][]notion.BlockChildren),
		blockErr: make(map[string]error),
	}
}

// serve splits results into query pages chained by cursor-N cursors.
func (f *fakeClient) serve(pages ...[]notion.Page) {
	f.pages = f.pages[:0]
	for i, results := range pages {
		resp := notion.QueryResponse{Results: results}
		if i < len(pages)-1 {
			resp.HasMore = true
			resp.NextCursor = fmt.Sprintf("cursor-%d", i+1)
		}
		f.pages = append(f.pages, resp)
	}
}

func (f *fakeClient) QueryDatabase(ctx context.Context, creds notion.Credentials, req notion.QueryRequest) (notion.QueryResponse, error) {
	atomic.AddInt32(&f.queryHits, 1)
	if f.queryGate != nil {
		select {
		case <-f.queryGate:
		case <-ctx.Done():
			return notion.QueryResponse{}, &notion.TransportError{Op: "query database", Err: ctx.Err()}
		}
	}
	if err := ctx.Err(); err != nil {
		return notion.QueryResponse{}, &notion.TransportError{Op: "query database", Err: err}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, req)
	if f.queryErr != nil {
		return notion.QueryResponse{}, f.queryErr
	}
	idx := 0
	if req.StartCursor != "" {
		n, err := strconv.Atoi(strings.TrimPrefix(req.StartCursor, "cursor-"))
		if err != nil {
			return notion.QueryResponse{}, notion.ErrInvalidResponse
		}
		idx = n
	}
	if idx >= len(f.pages) {
		return notion.QueryResponse{}, nil
	}
	return f.pages[idx], nil
}

func (f *fakeClient) UpdatePage(ctx context.Context, creds notion.Credentials, pageID string, req notion.PageUpdate) (notion.Page, error) {
	if f.updateFunc != nil {
		if err := f.updateFunc(ctx, pageID, req); err != nil {
			return notion.Page{}, err
		}
	}
	if err := ctx.Err(); err != nil {
		return notion.Page{}, &notion.TransportError{Op: "update page", Err: err}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, pageUpdate{PageID: pageID, Body: req})
	return notion.Page{ID: pageID}, nil
}

func (f *fakeClient) BlockChildren(ctx context.Context, creds notion.Credentials, blockID string, pageSize int, cursor string) (notion.BlockChildren, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.blockErr[blockID]; err != nil {
		return notion.BlockChildren{}, err
	}
	pages := f.blocks[blockID]
	idx := 0
	if cursor != "" {
		idx, _ = strconv.Atoi(strings.TrimPrefix(cursor, "blocks-"))
	}
	if idx >= len(pages) {
		return notion.BlockChildren{}, nil
	}
	return pages[idx], nil
}

func (f *fakeClient) recordedUpdates() []pageUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pageUpdate(nil), f.updates...)
}

// patches returns the property patches sent for pageID, skipping unarchive
// calls.
func (f *fakeClient) patches(pageID string) []map[string]notion.Value {
	var out []map[string]notion.Value
	for _, u := range f.recordedUpdates() {
		if u.PageID == pageID && u.Body.Archived == nil {
			out = append(out, u.Body.Properties)
		}
	}
	return out
}

func title(name string) notion.Property {
	return notion.Property{Type: "title", Value: notion.Array(notion.Object(notion.Fields{"plain_text": notion.String(name)}))}
}

func dateProp(start string) notion.Property {
	return notion.Property{Type: "date", Value: notion.Object(notion.Fields{"start": notion.String(start)})}
}

// remotePage builds a page; extra props are name/property pairs.
func remotePage(id, name string, extra map[string]notion.Property) notion.Page {
	props := map[string]notion.Property{notion.PropName: title(name)}
	for k, v := range extra {
		props[k] = v
	}
	return notion.Page{ID: id, CreatedTime: created, LastEditedTime: created, Properties: props}
}

func setupStore(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "engine-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func staticCreds(c notion.Credentials) CredentialProvider {
	return CredentialFunc(func() (notion.Credentials, bool) { return c, c.Usable() })
}

func setupEngine(t *testing.T, client *fakeClient) (*Engine, *storage.SQLiteRepository) {
	t.Helper()
	store := setupStore(t)
	e := New(store, client, staticCreds(goodCreds), WithClock(func() time.Time { return now }))
	t.Cleanup(e.Close)
	return e, store
}

func seed(t *testing.T, store storage.Repository, tasks ...model.Task) {
	t.Helper()
	snaps := make([]model.Snapshot, 0, len(tasks))
	for _, task := range tasks {
		if task.Status == "" {
			task.Status = model.StatusToDo
		}
		task.CreatedAt = created
		task.UpdatedAt = created
		snaps = append(snaps, model.NewSnapshot(task))
	}
	require.NoError(t, store.Upsert(context.Background(), snaps))
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, e.Wait(ctx))
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
