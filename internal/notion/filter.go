package notion

import "github.com/sandeepkv93/tasksync/internal/model"

// Database property names.
const (
	PropName          = "Name"
	PropMemo          = "Memo"
	PropStatus        = "Status"
	PropTimestamp     = "Timestamp"
	PropTimeslot      = "Timeslot"
	PropEndTime       = "EndTime"
	PropStartTime     = "StartTime"
	PropPriority      = "Priority"
	PropProject       = "DB_PROJECT"
	PropType          = "Type"
	PropNoteType      = "NoteType"
	PropArticleGenre  = "ArticleGenre"
	PropPermanentTags = "PermanentTags"
	PropDeadline      = "Deadline"
	PropSpaceName     = "Space Name"
	PropURL           = "URL"
)

// CombinedDailyFilter selects in one query everything the Today, Inbox and
// Overdue views need for the given yyyy-MM-dd day.
func CombinedDailyFilter(day string) Value {
	clauses := []Value{
		TimestampOnDay(day),
		and(
			selectEmpty(PropType),
			statusEquals(model.StatusToDo),
			selectEmpty(PropNoteType),
		),
	}
	for _, status := range []model.Status{model.StatusToDo, model.StatusInProgress} {
		for _, typ := range []model.Type{"", model.TypeNextAction, model.TypeSomeday} {
			clauses = append(clauses, and(
				statusEquals(status),
				typeMatches(typ),
				dateCondition(PropTimestamp, "is_not_empty", Bool(true)),
				dateCondition(PropTimestamp, "before", String(day)),
			))
		}
	}
	return Object(Fields{"or": Array(clauses...)})
}

// TimestampOnDay matches pages scheduled on exactly the given day.
func TimestampOnDay(day string) Value {
	return dateCondition(PropTimestamp, "equals", String(day))
}

func and(conds ...Value) Value {
	return Object(Fields{"and": Array(conds...)})
}

func statusEquals(s model.Status) Value {
	return Object(Fields{
		"property": String(PropStatus),
		"status":   Object(Fields{"equals": String(string(s))}),
	})
}

func typeMatches(t model.Type) Value {
	if t == "" {
		return selectEmpty(PropType)
	}
	return Object(Fields{
		"property": String(PropType),
		"select":   Object(Fields{"equals": String(string(t))}),
	})
}

func selectEmpty(prop string) Value {
	return Object(Fields{
		"property": String(prop),
		"select":   Object(Fields{"is_empty": Bool(true)}),
	})
}

func dateCondition(prop, op string, operand Value) Value {
	return Object(Fields{
		"property": String(prop),
		"date":     Object(Fields{op: operand}),
	})
}
