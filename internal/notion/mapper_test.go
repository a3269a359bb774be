package notion

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandeepkv93/tasksync/internal/model"
)

func loadPage(t *testing.T) Page {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "page.json"))
	require.NoError(t, err)

	var p Page
	require.NoError(t, json.Unmarshal(data, &p))
	return p
}

func TestToSnapshotMapsEveryField(t *testing.T) {
	snap, ok := ToSnapshot(loadPage(t))
	require.True(t, ok)
	task := snap.Task()

	assert.Equal(t, "1a2b3c4d-0000-4000-8000-000000000001", task.ID)
	assert.Equal(t, "Review pull requests\nand merge", task.Name)
	assert.Equal(t, "check **CI** first", task.Memo)
	assert.Equal(t, model.StatusInProgress, task.Status)
	assert.Equal(t, model.TimeslotForenoon, task.Timeslot)
	assert.Equal(t, model.PriorityThreeAndHalf, task.Priority)
	assert.Equal(t, model.TypeNextAction, task.Type)
	assert.Empty(t, task.NoteType)
	assert.Equal(t, []string{"proj-1", "proj-2"}, task.ProjectIDs)
	assert.Equal(t, []string{"Go", "Infra"}, task.ArticleGenres)
	assert.Empty(t, task.PermanentTags)
	assert.Equal(t, "Work", task.SpaceName)
	assert.Equal(t, "https://github.com/sandeepkv93/tasksync/pulls", task.URL)
	assert.Empty(t, task.BookmarkURL)

	require.NotNil(t, task.Timestamp)
	assert.True(t, task.Timestamp.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, model.Tokyo)))
	require.NotNil(t, task.StartTime)
	assert.True(t, task.StartTime.Equal(time.Date(2026, 3, 10, 0, 30, 0, 0, time.UTC)))
	assert.Nil(t, task.EndTime)
	require.NotNil(t, task.Deadline)
	assert.True(t, task.Deadline.Equal(time.Date(2026, 3, 12, 9, 0, 0, 0, time.UTC)))

	assert.True(t, task.CreatedAt.Equal(time.Date(2026, 3, 1, 2, 15, 0, 0, time.UTC)))
	assert.True(t, task.UpdatedAt.Equal(time.Date(2026, 3, 9, 11, 40, 0, 0, time.UTC)))
}

func TestToSnapshotDropsUntitledPages(t *testing.T) {
	page := loadPage(t)

	empty := page
	empty.Properties = map[string]Property{}
	for k, v := range page.Properties {
		empty.Properties[k] = v
	}
	empty.Properties[PropName] = Property{Type: "title", Value: Array()}
	_, ok := ToSnapshot(empty)
	assert.False(t, ok, "title without fragments")

	delete(empty.Properties, PropName)
	_, ok = ToSnapshot(empty)
	assert.False(t, ok, "missing title property")
}

func TestToSnapshotDefaults(t *testing.T) {
	page := Page{
		ID: "p",
		Properties: map[string]Property{
			PropName:     {Type: "title", Value: Array(Object(Fields{"plain_text": String("bare")}))},
			PropStatus:   {Type: "status", Value: Object(Fields{"name": String("Archived")})},
			PropPriority: {Type: "select", Value: Object(Fields{"name": String("★★★★★")})},
			PropURL:      {Type: "url", Value: String("not a url")},
			PropTimestamp: {Type: "date", Value: Object(Fields{
				"start": String("10/03/2026"),
			})},
		},
	}

	snap, ok := ToSnapshot(page)
	require.True(t, ok)
	task := snap.Task()
	assert.Equal(t, model.StatusToDo, task.Status, "unknown status falls back to To Do")
	assert.Empty(t, task.Priority)
	assert.Empty(t, task.URL)
	assert.Nil(t, task.Timestamp)
	assert.Nil(t, task.ProjectIDs)
}

func TestValueDecodesPropertyShapes(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`{"a":[1,true,null,"x"],"b":{"name":"n"}}`), &v))

	assert.Equal(t, KindObject, v.Kind())
	items := v.Field("a").Items()
	require.Len(t, items, 4)
	n, ok := items[0].Num()
	assert.True(t, ok)
	assert.Equal(t, 1.0, n)
	assert.True(t, items[2].IsNull())

	name, ok := v.Field("b").SelectName()
	assert.True(t, ok)
	assert.Equal(t, "n", name)
	assert.True(t, v.Field("missing").IsNull())
}
