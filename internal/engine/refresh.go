package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sandeepkv93/tasksync/internal/model"
	"github.com/sandeepkv93/tasksync/internal/notion"
)

const (
	queryPageSize       = 100
	blockPageSize       = 50
	bookmarkConcurrency = 4
	bookmarkBlockType   = "bookmark"
)

// Refresh pulls everything the Today, Inbox and Overdue views need for the JST
// day of date, merges it into the cache and prunes tasks that left those
// views remotely. Overdue is relative to date, as in the query, so a past
// date never prunes tasks scheduled after it. Concurrent calls share one run.
// A cancelled run returns nil.
func (e *Engine) Refresh(ctx context.Context, date time.Time) error {
	return e.shared(ctx, "refresh", func(ctx context.Context) error {
		return e.sync(ctx, "full", date, notion.CombinedDailyFilter(model.DayString(date)), func(t model.Task) bool {
			if t.IsTrashed() {
				return false
			}
			return model.IsInboxCandidate(t) ||
				model.IsOverdueCandidate(t, date) ||
				model.SameDay(t.Timestamp, date) ||
				model.SameDay(t.StartTime, date) ||
				model.SameDay(t.EndTime, date)
		})
	})
}

// RefreshDay pulls only the tasks scheduled on the JST day of date.
func (e *Engine) RefreshDay(ctx context.Context, date time.Time) error {
	day := model.DayString(date)
	return e.shared(ctx, "refresh-day:"+day, func(ctx context.Context) error {
		return e.sync(ctx, "day", date, notion.TimestampOnDay(day), func(t model.Task) bool {
			return !t.IsTrashed() && model.SameDay(t.Timestamp, date)
		})
	})
}

// Run refreshes the day returned by dayFunc now and then on every tick until
// ctx is done.
func (e *Engine) Run(ctx context.Context, interval time.Duration, dayFunc func() time.Time) error {
	if interval <= 0 {
		return fmt.Errorf("engine: invalid sync interval %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := e.Refresh(ctx, dayFunc()); err != nil {
			e.log.Error().Err(err).Msg("periodic refresh failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (e *Engine) shared(ctx context.Context, key string, fn func(context.Context) error) error {
	ch := e.flight.DoChan(key, func() (any, error) {
		return nil, fn(ctx)
	})
	select {
	case res := <-ch:
		if IsCancellation(res.Err) {
			return nil
		}
		return res.Err
	case <-ctx.Done():
		return nil
	}
}

func (e *Engine) sync(ctx context.Context, kind string, date time.Time, filter notion.Value, prunable func(model.Task) bool) error {
	creds, err := e.credentials()
	if err != nil {
		return err
	}

	e.beginSync()
	defer e.endSync()

	log := e.log.With().Str("sync", kind).Str("day", model.DayString(date)).Logger()
	log.Info().Msg("refresh started")

	seen := make(map[string]struct{})
	pages := 0
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			e.fail(err)
			return err
		}
		resp, err := e.client.QueryDatabase(ctx, creds, notion.QueryRequest{
			Filter:      filter,
			PageSize:    queryPageSize,
			StartCursor: cursor,
		})
		if err != nil {
			e.fail(err)
			return fmt.Errorf("query database: %w", err)
		}
		pages++

		snaps := mapPages(resp.Results)
		e.attachBookmarks(ctx, creds, snaps)
		if err := e.store.Upsert(ctx, snaps); err != nil {
			e.fail(err)
			return fmt.Errorf("merge page %d: %w", pages, err)
		}
		for _, s := range snaps {
			seen[s.ID()] = struct{}{}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	pruned, err := e.store.Prune(ctx, prunable, seen)
	if err != nil {
		e.fail(err)
		return fmt.Errorf("prune cache: %w", err)
	}

	e.setLastError("")
	log.Info().Int("pages", pages).Int("upserted", len(seen)).Int("pruned", pruned).Msg("refresh finished")
	return nil
}

// mapPages converts a result page, dropping untitled pages. A repeated id
// keeps its last occurrence.
func mapPages(pages []notion.Page) []model.Snapshot {
	out := make([]model.Snapshot, 0, len(pages))
	index := make(map[string]int, len(pages))
	for _, p := range pages {
		snap, ok := notion.ToSnapshot(p)
		if !ok {
			continue
		}
		if i, dup := index[snap.ID()]; dup {
			out[i] = snap
			continue
		}
		index[snap.ID()] = len(out)
		out = append(out, snap)
	}
	return out
}

// attachBookmarks fills in the bookmark of every snapshot that has none.
// Lookups that fail leave the bookmark empty.
func (e *Engine) attachBookmarks(ctx context.Context, creds notion.Credentials, snaps []model.Snapshot) {
	var g errgroup.Group
	g.SetLimit(bookmarkConcurrency)
	for i := range snaps {
		if snaps[i].BookmarkURL() != "" {
			continue
		}
		g.Go(func() error {
			url, err := e.findBookmark(ctx, creds, snaps[i].ID())
			switch {
			case err == nil:
				if url != "" {
					snaps[i] = snaps[i].WithBookmarkURL(url)
				}
			case IsCancellation(err):
			default:
				e.log.Debug().Err(err).Str("task_id", snaps[i].ID()).Msg("bookmark lookup skipped")
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (e *Engine) findBookmark(ctx context.Context, creds notion.Credentials, pageID string) (string, error) {
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		resp, err := e.client.BlockChildren(ctx, creds, pageID, blockPageSize, cursor)
		if err != nil {
			return "", err
		}
		for _, b := range resp.Results {
			if b.Type == bookmarkBlockType && b.Bookmark != nil && b.Bookmark.URL != "" {
				return b.Bookmark.URL, nil
			}
		}
		if !resp.HasMore || resp.NextCursor == "" {
			return "", nil
		}
		cursor = resp.NextCursor
	}
}
