package model

import (
	"strings"
	"time"
)

// EditValues is the full set of user-editable fields as an edit form holds
// them.
type EditValues struct {
	Name      string
	Memo      string
	Status    Status
	Priority  Priority
	Timeslot  Timeslot
	Type      Type
	Timestamp *time.Time
	Deadline  *time.Time
}

// EditValuesOf returns the current editable values of t.
func EditValuesOf(t Task) EditValues {
	return EditValues{
		Name:      t.Name,
		Memo:      t.Memo,
		Status:    t.Status,
		Priority:  t.Priority,
		Timeslot:  t.Timeslot,
		Type:      t.Type,
		Timestamp: cloneTime(t.Timestamp),
		Deadline:  cloneTime(t.Deadline),
	}
}

// Diff returns the smallest change-set turning current into desired. Text is
// compared after trimming; an empty memo becomes a clear and an empty name
// leaves the title alone.
func Diff(current Task, desired EditValues) Changes {
	var c Changes

	if name := strings.TrimSpace(desired.Name); name != "" && name != strings.TrimSpace(current.Name) {
		c.Name = SetTo(name)
	}

	if memo := strings.TrimSpace(desired.Memo); memo != strings.TrimSpace(current.Memo) {
		if memo == "" {
			c.Memo = Cleared[string]()
		} else {
			c.Memo = SetTo(memo)
		}
	}

	if desired.Status != "" && desired.Status != current.Status {
		c.Status = SetTo(desired.Status)
	}

	c.Priority = diffValue(current.Priority, desired.Priority)
	c.Timeslot = diffValue(current.Timeslot, desired.Timeslot)
	c.Type = diffValue(current.Type, desired.Type)
	c.Timestamp = diffTime(current.Timestamp, desired.Timestamp)
	c.Deadline = diffTime(current.Deadline, desired.Deadline)
	return c
}

func diffValue[T ~string](current, desired T) Field[T] {
	switch {
	case desired == current:
		return Field[T]{}
	case desired == "":
		return Cleared[T]()
	default:
		return SetTo(desired)
	}
}

func diffTime(current, desired *time.Time) Field[time.Time] {
	switch {
	case current == nil && desired == nil:
		return Field[time.Time]{}
	case desired == nil:
		return Cleared[time.Time]()
	case current != nil && current.Equal(*desired):
		return Field[time.Time]{}
	default:
		return SetTo(*desired)
	}
}
