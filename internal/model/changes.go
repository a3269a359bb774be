package model

import "time"

type FieldOp int

const (
	OpUnchanged FieldOp = iota
	OpSet
	OpClear
)

func (o FieldOp) String() string {
	switch o {
	case OpSet:
		return "set"
	case OpClear:
		return "clear"
	default:
		return "unchanged"
	}
}

// Field is one entry of a change-set. The zero value is unchanged.
type Field[T any] struct {
	op    FieldOp
	value T
}

func SetTo[T any](v T) Field[T] {
	return Field[T]{op: OpSet, value: v}
}

func Cleared[T any]() Field[T] {
	return Field[T]{op: OpClear}
}

func (f Field[T]) Op() FieldOp {
	return f.op
}

func (f Field[T]) Changed() bool {
	return f.op != OpUnchanged
}

// Value returns the new value and true when the field is set.
func (f Field[T]) Value() (T, bool) {
	return f.value, f.op == OpSet
}

// Changes is a sparse edit of a task. Name cannot be cleared and Status can
// only be set; a Cleared value for either is ignored.
type Changes struct {
	Name      Field[string]
	Memo      Field[string]
	Status    Field[Status]
	Priority  Field[Priority]
	Timeslot  Field[Timeslot]
	Type      Field[Type]
	Timestamp Field[time.Time]
	Deadline  Field[time.Time]
}

func (c Changes) IsEmpty() bool {
	return !c.Name.Changed() &&
		!c.Memo.Changed() &&
		!c.Status.Changed() &&
		!c.Priority.Changed() &&
		!c.Timeslot.Changed() &&
		!c.Type.Changed() &&
		!c.Timestamp.Changed() &&
		!c.Deadline.Changed()
}

// Apply writes the set and cleared fields into t.
func (c Changes) Apply(t *Task) {
	if v, ok := c.Name.Value(); ok {
		t.Name = v
	}
	if v, ok := c.Status.Value(); ok {
		t.Status = v
	}
	applyValue(c.Memo, &t.Memo)
	applyValue(c.Priority, &t.Priority)
	applyValue(c.Timeslot, &t.Timeslot)
	applyValue(c.Type, &t.Type)
	applyTime(c.Timestamp, &t.Timestamp)
	applyTime(c.Deadline, &t.Deadline)
}

func applyValue[T any](f Field[T], dst *T) {
	switch f.op {
	case OpSet:
		*dst = f.value
	case OpClear:
		var zero T
		*dst = zero
	}
}

func applyTime(f Field[time.Time], dst **time.Time) {
	switch f.op {
	case OpSet:
		*dst = TimePtr(f.value)
	case OpClear:
		*dst = nil
	}
}
