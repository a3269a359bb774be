package model

// Snapshot is an immutable copy of every field of a task. It is the output
// of the remote mapper and the rollback checkpoint of optimistic mutations.
type Snapshot struct {
	task Task
}

func NewSnapshot(t Task) Snapshot {
	return Snapshot{task: t.Clone()}
}

func (s Snapshot) ID() string {
	return s.task.ID
}

func (s Snapshot) BookmarkURL() string {
	return s.task.BookmarkURL
}

// Task returns a mutable copy of the captured state.
func (s Snapshot) Task() Task {
	return s.task.Clone()
}

// WithBookmarkURL returns a copy of s carrying the given bookmark.
func (s Snapshot) WithBookmarkURL(url string) Snapshot {
	t := s.task.Clone()
	t.BookmarkURL = url
	return Snapshot{task: t}
}
