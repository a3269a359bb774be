package notion

import (
	"time"

	"github.com/sandeepkv93/tasksync/internal/model"
)

// dateTimeLayout is ISO 8601 with milliseconds and a colon in the offset.
const dateTimeLayout = "2006-01-02T15:04:05.000Z07:00"

func StatusPatch(s model.Status) Value {
	return Object(Fields{"status": Object(Fields{"name": String(string(s))})})
}

// DateTimePatch sets a date property to an instant, rendered in Tokyo time.
func DateTimePatch(t time.Time) Value {
	return datePatch(t.In(model.Tokyo).Format(dateTimeLayout))
}

// DayPatch sets a date property to the JST calendar day containing t.
func DayPatch(t time.Time) Value {
	return datePatch(model.DayString(t))
}

func datePatch(start string) Value {
	return Object(Fields{"date": Object(Fields{"start": String(start)})})
}

func NullDatePatch() Value {
	return Object(Fields{"date": Null()})
}

// SelectPatch sets a select option; an empty name clears it explicitly.
func SelectPatch(name string) Value {
	if name == "" {
		return Object(Fields{"select": Null()})
	}
	return Object(Fields{"select": Object(Fields{"name": String(name)})})
}

func TitlePatch(content string) Value {
	return Object(Fields{"title": Array(textFragment(content))})
}

// RichTextPatch replaces a rich text property; empty content clears it.
func RichTextPatch(content string) Value {
	if content == "" {
		return Object(Fields{"rich_text": Array()})
	}
	return Object(Fields{"rich_text": Array(textFragment(content))})
}

func textFragment(content string) Value {
	return Object(Fields{
		"type": String("text"),
		"text": Object(Fields{"content": String(content)}),
	})
}

// ChangesPatch returns the property patch for the set and cleared fields of
// c. Unchanged fields are left out; a cleared name or status is not
// expressible and is skipped.
func ChangesPatch(c model.Changes) map[string]Value {
	props := map[string]Value{}

	if v, ok := c.Name.Value(); ok {
		props[PropName] = TitlePatch(v)
	}
	if v, ok := c.Status.Value(); ok {
		props[PropStatus] = StatusPatch(v)
	}
	if c.Memo.Changed() {
		v, _ := c.Memo.Value()
		props[PropMemo] = RichTextPatch(v)
	}
	if c.Priority.Changed() {
		v, _ := c.Priority.Value()
		props[PropPriority] = SelectPatch(string(v))
	}
	if c.Timeslot.Changed() {
		v, _ := c.Timeslot.Value()
		props[PropTimeslot] = SelectPatch(string(v))
	}
	if c.Type.Changed() {
		v, _ := c.Type.Value()
		props[PropType] = SelectPatch(string(v))
	}
	switch c.Timestamp.Op() {
	case model.OpSet:
		v, _ := c.Timestamp.Value()
		props[PropTimestamp] = DayPatch(v)
	case model.OpClear:
		props[PropTimestamp] = NullDatePatch()
	}
	switch c.Deadline.Op() {
	case model.OpSet:
		v, _ := c.Deadline.Value()
		props[PropDeadline] = DateTimePatch(v)
	case model.OpClear:
		props[PropDeadline] = NullDatePatch()
	}
	return props
}
