package notion

import (
	"net/url"
	"time"

	"github.com/sandeepkv93/tasksync/internal/model"
)

type extractor func(t *model.Task, v Value)

// taskFields maps a database property to the task field it fills. Name is
// handled separately because a page without a title is dropped.
var taskFields = map[string]extractor{
	PropMemo: func(t *model.Task, v Value) {
		t.Memo, _ = v.PlainText()
	},
	PropStatus: func(t *model.Task, v Value) {
		if name, ok := v.SelectName(); ok && model.Status(name).IsValid() {
			t.Status = model.Status(name)
		}
	},
	PropTimestamp: func(t *model.Task, v Value) { t.Timestamp = parseDate(v) },
	PropStartTime: func(t *model.Task, v Value) { t.StartTime = parseDate(v) },
	PropEndTime:   func(t *model.Task, v Value) { t.EndTime = parseDate(v) },
	PropDeadline:  func(t *model.Task, v Value) { t.Deadline = parseDate(v) },
	PropTimeslot: func(t *model.Task, v Value) {
		if name, ok := v.SelectName(); ok && model.Timeslot(name).IsValid() {
			t.Timeslot = model.Timeslot(name)
		}
	},
	PropPriority: func(t *model.Task, v Value) {
		if name, ok := v.SelectName(); ok && model.Priority(name).IsValid() {
			t.Priority = model.Priority(name)
		}
	},
	PropType: func(t *model.Task, v Value) {
		if name, ok := v.SelectName(); ok && model.Type(name).IsValid() {
			t.Type = model.Type(name)
		}
	},
	PropNoteType: func(t *model.Task, v Value) {
		t.NoteType, _ = v.SelectName()
	},
	PropProject:       func(t *model.Task, v Value) { t.ProjectIDs = v.RelationIDs() },
	PropArticleGenre:  func(t *model.Task, v Value) { t.ArticleGenres = v.MultiSelectNames() },
	PropPermanentTags: func(t *model.Task, v Value) { t.PermanentTags = v.MultiSelectNames() },
	PropSpaceName: func(t *model.Task, v Value) {
		t.SpaceName, _ = v.PlainText()
	},
	PropURL: func(t *model.Task, v Value) {
		if s, ok := v.Str(); ok && validURL(s) {
			t.URL = s
		}
	},
}

// ToSnapshot maps a database page to a task snapshot. It reports false when
// the page has no title. The bookmark is never filled here.
func ToSnapshot(p Page) (model.Snapshot, bool) {
	title, ok := p.Properties[PropName]
	if !ok {
		return model.Snapshot{}, false
	}
	name, ok := title.Value.PlainText()
	if !ok {
		return model.Snapshot{}, false
	}

	task := model.Task{
		ID:        p.ID,
		Name:      name,
		Status:    model.StatusToDo,
		UpdatedAt: p.LastEditedTime,
		CreatedAt: p.CreatedTime,
	}
	for prop, extract := range taskFields {
		if v, ok := p.Properties[prop]; ok {
			extract(&task, v.Value)
		}
	}
	return model.NewSnapshot(task), true
}

// parseDate reads the start of a date property. Datetimes are RFC 3339 with
// optional fractional seconds; bare days are taken as midnight JST.
func parseDate(v Value) *time.Time {
	start, ok := v.DateStart()
	if !ok {
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, start); err == nil {
		return &t
	}
	if t, err := model.ParseDay(start); err == nil {
		return &t
	}
	return nil
}

func validURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}
