package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/tasksync/internal/model"
)

const sqliteTimeLayout = time.RFC3339Nano

// taskColumnNames is the column order of taskArgs and scanTask. The id comes
// first.
var taskColumnNames = []string{
	"id", "name", "memo", "status", "scheduled_day", "timeslot", "start_time", "end_time", "priority",
	"project_ids", "type", "note_type", "article_genres", "permanent_tags", "deadline", "space_name", "url",
	"bookmark_url", "updated_at", "created_at",
}

var (
	taskColumns      = strings.Join(taskColumnNames, ", ")
	taskPlaceholders = strings.TrimSuffix(strings.Repeat("?, ", len(taskColumnNames)), ", ")
	taskAssignments  = assignments(taskColumnNames[1:], func(string) string { return "?" })
	taskUpsertSet    = assignments(taskColumnNames[1:], func(c string) string { return "excluded." + c })
)

func assignments(cols []string, value func(string) string) string {
	parts := make([]string, 0, len(cols))
	for _, c := range cols {
		parts = append(parts, c+" = "+value(c))
	}
	return strings.Join(parts, ", ")
}

// taskArgs returns the column values of t in taskColumns order.
func taskArgs(t model.Task) ([]any, error) {
	projects, err := encodeList(t.ProjectIDs)
	if err != nil {
		return nil, err
	}
	genres, err := encodeList(t.ArticleGenres)
	if err != nil {
		return nil, err
	}
	tags, err := encodeList(t.PermanentTags)
	if err != nil {
		return nil, err
	}
	return []any{
		t.ID, t.Name, t.Memo, string(t.Status), nullTime(t.Timestamp), string(t.Timeslot),
		nullTime(t.StartTime), nullTime(t.EndTime), string(t.Priority),
		projects, string(t.Type), t.NoteType, genres, tags, nullTime(t.Deadline), t.SpaceName, t.URL,
		t.BookmarkURL, mustTime(t.UpdatedAt), mustTime(t.CreatedAt),
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (model.Task, error) {
	var (
		out                             model.Task
		status, timeslot, priority, typ string
		projects, genres, tags          string
		timestamp, start, end, deadline sql.NullString
		updated, created                string
	)
	if err := s.Scan(&out.ID, &out.Name, &out.Memo, &status, &timestamp, &timeslot, &start, &end, &priority,
		&projects, &typ, &out.NoteType, &genres, &tags, &deadline, &out.SpaceName, &out.URL,
		&out.BookmarkURL, &updated, &created); err != nil {
		return model.Task{}, err
	}
	out.Status = model.Status(status)
	out.Timeslot = model.Timeslot(timeslot)
	out.Priority = model.Priority(priority)
	out.Type = model.Type(typ)

	var err error
	for _, f := range []struct {
		dst **time.Time
		src sql.NullString
	}{{&out.Timestamp, timestamp}, {&out.StartTime, start}, {&out.EndTime, end}, {&out.Deadline, deadline}} {
		if *f.dst, err = parseNullableTime(f.src); err != nil {
			return model.Task{}, err
		}
	}
	if out.UpdatedAt, err = parseRequiredTime(updated); err != nil {
		return model.Task{}, err
	}
	if out.CreatedAt, err = parseRequiredTime(created); err != nil {
		return model.Task{}, err
	}
	if out.ProjectIDs, err = decodeList(projects); err != nil {
		return model.Task{}, err
	}
	if out.ArticleGenres, err = decodeList(genres); err != nil {
		return model.Task{}, err
	}
	if out.PermanentTags, err = decodeList(tags); err != nil {
		return model.Task{}, err
	}
	return out, nil
}

func encodeList(v []string) (string, error) {
	if len(v) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

// decodeList maps an empty array back to nil so round trips are stable.
func decodeList(s string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("decode list %q: %w", s, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return v.UTC().Format(sqliteTimeLayout)
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseNullableTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid || v.String == "" {
		return nil, nil
	}
	tm, err := time.Parse(sqliteTimeLayout, v.String)
	if err != nil {
		return nil, err
	}
	return &tm, nil
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}
