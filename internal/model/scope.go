package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrInvalidScope = errors.New("model: invalid scope")

// Scope is one of the mutually exclusive task buckets computed per date.
type Scope string

const (
	ScopeInbox          Scope = "inbox"
	ScopeTodayTodo      Scope = "today-todo"
	ScopeTodayCompleted Scope = "today-completed"
	ScopeInProgress     Scope = "in-progress"
	ScopeOverdue        Scope = "overdue"
)

// Scopes lists every scope in display order.
var Scopes = []Scope{ScopeInbox, ScopeTodayTodo, ScopeInProgress, ScopeTodayCompleted, ScopeOverdue}

func (s Scope) IsValid() bool {
	switch s {
	case ScopeInbox, ScopeTodayTodo, ScopeTodayCompleted, ScopeInProgress, ScopeOverdue:
		return true
	default:
		return false
	}
}

func ParseScope(s string) (Scope, error) {
	scope := Scope(strings.ToLower(strings.TrimSpace(s)))
	if !scope.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
	return scope, nil
}

// IsInboxCandidate reports an untriaged to-do: no type and no note type.
func IsInboxCandidate(t Task) bool {
	return t.Status == StatusToDo && t.Type == "" && t.NoteType == ""
}

// IsOverdueCandidate reports an open task scheduled before the JST day of now.
func IsOverdueCandidate(t Task, now time.Time) bool {
	return isOpenAndScheduledBefore(t, StartOfDay(now))
}

func isOpenAndScheduledBefore(t Task, day time.Time) bool {
	if t.Status != StatusToDo && t.Status != StatusInProgress {
		return false
	}
	if t.Type == TypeWaiting || t.Type == TypeTrash {
		return false
	}
	return t.Timestamp != nil && t.Timestamp.Before(day)
}

// Matches classifies t against scope for the JST day of date. Trashed tasks
// are expected to be filtered out by the caller.
func Matches(t Task, scope Scope, date time.Time) bool {
	return matchesWithin(t, scope, BoundsFor(date))
}

func matchesWithin(t Task, scope Scope, day DayBounds) bool {
	switch scope {
	case ScopeInbox:
		return IsInboxCandidate(t)
	case ScopeTodayTodo:
		return t.Status == StatusToDo && day.ContainsPtr(t.Timestamp)
	case ScopeTodayCompleted:
		return t.Status == StatusComplete && day.ContainsPtr(t.EndTime)
	case ScopeInProgress:
		return t.Status == StatusInProgress && (day.ContainsPtr(t.Timestamp) || day.ContainsPtr(t.StartTime))
	case ScopeOverdue:
		return isOpenAndScheduledBefore(t, day.Start)
	default:
		return false
	}
}

// FilterScope returns the non-trashed tasks of in that match scope, keeping
// their relative order.
func FilterScope(in []Task, scope Scope, date time.Time) []Task {
	day := BoundsFor(date)
	out := make([]Task, 0, len(in))
	for _, t := range in {
		if t.IsTrashed() {
			continue
		}
		if matchesWithin(t, scope, day) {
			out = append(out, t)
		}
	}
	return out
}
