package model

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrInvalidStatus   = errors.New("model: invalid task status")
	ErrInvalidTimeslot = errors.New("model: invalid task timeslot")
	ErrInvalidPriority = errors.New("model: invalid task priority")
	ErrInvalidType     = errors.New("model: invalid task type")
)

// Status is the workflow state of a task. The string values are the
// option names used by the remote database.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusComplete   Status = "Complete"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusComplete:
		return true
	default:
		return false
	}
}

// Timeslot is an optional part of the day. The zero value means unset.
type Timeslot string

const (
	TimeslotMorning   Timeslot = "Morning"
	TimeslotForenoon  Timeslot = "Forenoon"
	TimeslotAfternoon Timeslot = "Afternoon"
	TimeslotEvening   Timeslot = "Evening"
)

func (s Timeslot) IsValid() bool {
	switch s {
	case TimeslotMorning, TimeslotForenoon, TimeslotAfternoon, TimeslotEvening:
		return true
	default:
		return false
	}
}

// Priority is an optional four level star rating. The zero value means none.
type Priority string

const (
	PriorityFourStars    Priority = "★★★★"
	PriorityThreeAndHalf Priority = "★★★☆"
	PriorityTwoStars     Priority = "★★☆☆"
	PriorityOneStar      Priority = "★☆☆☆"
)

func (p Priority) IsValid() bool {
	return p.Score() > 0
}

// Score orders priorities; none scores zero.
func (p Priority) Score() int {
	switch p {
	case PriorityFourStars:
		return 4
	case PriorityThreeAndHalf:
		return 3
	case PriorityTwoStars:
		return 2
	case PriorityOneStar:
		return 1
	default:
		return 0
	}
}

// Type is the GTD bucket of a task. The zero value means unclassified.
type Type string

const (
	TypeNextAction Type = "NextAction"
	TypeSomeday    Type = "Someday"
	TypeWaiting    Type = "Waiting"
	TypeTrash      Type = "Trash"
)

func (t Type) IsValid() bool {
	switch t {
	case TypeNextAction, TypeSomeday, TypeWaiting, TypeTrash:
		return true
	default:
		return false
	}
}

// Task is the cached copy of one remote database row. ID is the remote page
// id and the only merge key. Optional text and enum fields use the empty
// string for absent values.
type Task struct {
	ID            string
	Name          string
	Memo          string
	Status        Status
	Timestamp     *time.Time
	Timeslot      Timeslot
	StartTime     *time.Time
	EndTime       *time.Time
	Priority      Priority
	ProjectIDs    []string
	Type          Type
	NoteType      string
	ArticleGenres []string
	PermanentTags []string
	Deadline      *time.Time
	SpaceName     string
	URL           string
	BookmarkURL   string
	UpdatedAt     time.Time
	CreatedAt     time.Time
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.Timeslot != "" && !t.Timeslot.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidTimeslot, t.Timeslot)
	}
	if t.Priority != "" && !t.Priority.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.Type != "" && !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	return nil
}

func (t Task) IsTrashed() bool {
	return t.Type == TypeTrash
}

// Clone returns a deep copy; no pointer or slice is shared with t.
func (t Task) Clone() Task {
	out := t
	out.Timestamp = cloneTime(t.Timestamp)
	out.StartTime = cloneTime(t.StartTime)
	out.EndTime = cloneTime(t.EndTime)
	out.Deadline = cloneTime(t.Deadline)
	out.ProjectIDs = slices.Clone(t.ProjectIDs)
	out.ArticleGenres = slices.Clone(t.ArticleGenres)
	out.PermanentTags = slices.Clone(t.PermanentTags)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr returns a pointer to a copy of t.
func TimePtr(t time.Time) *time.Time {
	return &t
}
