package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/sandeepkv93/tasksync/internal/model"
)

type ErrorCode string

const (
	ErrCodeMissingArgument ErrorCode = "missing_argument"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeNothingToChange ErrorCode = "nothing_to_change"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func invalid(format string, args ...any) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf(format, args...)}
}

// clearValue marks an edit flag that removes the field.
const clearValue = "-"

func parseTaskID(args []string, command string) (string, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return "", &CommandError{Code: ErrCodeMissingArgument, Message: command + " requires a task id"}
	}
	if len(args) > 1 {
		return "", invalid("%s takes one task id, got %d arguments", command, len(args))
	}
	return strings.TrimSpace(args[0]), nil
}

var scopeAliases = map[string]model.Scope{
	"today":     model.ScopeTodayTodo,
	"todo":      model.ScopeTodayTodo,
	"completed": model.ScopeTodayCompleted,
	"done":      model.ScopeTodayCompleted,
}

func parseScope(raw string) (model.Scope, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if scope, ok := scopeAliases[name]; ok {
		return scope, nil
	}
	scope, err := model.ParseScope(name)
	if err != nil {
		return "", invalid("unknown scope %q (want one of %s)", raw, scopeNames())
	}
	return scope, nil
}

func scopeNames() string {
	names := make([]string, 0, len(model.Scopes))
	for _, s := range model.Scopes {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}

// parseDay accepts today, tomorrow, yesterday or yyyy-mm-dd. An empty value
// means today.
func parseDay(raw string, now time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "today":
		return model.StartOfDay(now), nil
	case "tomorrow":
		return model.StartOfDay(now).AddDate(0, 0, 1), nil
	case "yesterday":
		return model.StartOfDay(now).AddDate(0, 0, -1), nil
	}
	day, err := model.ParseDay(strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, invalid("date %q must be today, tomorrow, yesterday or yyyy-mm-dd", raw)
	}
	return day, nil
}

// parseInstant accepts a day or a JST "yyyy-mm-dd hh:mm".
func parseInstant(raw string, now time.Time) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02 15:04", strings.TrimSpace(raw), model.Tokyo); err == nil {
		return t, nil
	}
	return parseDay(raw, now)
}

// parsePriority accepts 1-4 or the star label; 0 means no priority.
func parsePriority(raw string) (model.Priority, error) {
	switch strings.TrimSpace(raw) {
	case "0":
		return "", nil
	case "1":
		return model.PriorityOneStar, nil
	case "2":
		return model.PriorityTwoStars, nil
	case "3":
		return model.PriorityThreeAndHalf, nil
	case "4":
		return model.PriorityFourStars, nil
	}
	p := model.Priority(strings.TrimSpace(raw))
	if !p.IsValid() {
		return "", invalid("priority %q must be 0-4 or a star label", raw)
	}
	return p, nil
}

func parseTimeslot(raw string) (model.Timeslot, error) {
	for _, ts := range []model.Timeslot{model.TimeslotMorning, model.TimeslotForenoon, model.TimeslotAfternoon, model.TimeslotEvening} {
		if strings.EqualFold(strings.TrimSpace(raw), string(ts)) {
			return ts, nil
		}
	}
	return "", invalid("timeslot %q must be morning, forenoon, afternoon or evening", raw)
}

func parseType(raw string) (model.Type, error) {
	switch normalize(raw) {
	case "next", "nextaction":
		return model.TypeNextAction, nil
	case "someday":
		return model.TypeSomeday, nil
	case "waiting":
		return model.TypeWaiting, nil
	case "trash":
		return model.TypeTrash, nil
	}
	return "", invalid("type %q must be next, someday, waiting or trash", raw)
}

func parseStatus(raw string) (model.Status, error) {
	switch normalize(raw) {
	case "todo":
		return model.StatusToDo, nil
	case "inprogress", "started":
		return model.StatusInProgress, nil
	case "complete", "done":
		return model.StatusComplete, nil
	}
	return "", invalid("status %q must be todo, in-progress or complete", raw)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(s)
}
