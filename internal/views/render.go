package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/tasksync/internal/model"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	panelStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	labelStyle  = lipgloss.NewStyle().Bold(true).Width(10)
)

var scopeTitles = map[model.Scope]string{
	model.ScopeInbox:          "Inbox",
	model.ScopeTodayTodo:      "Today",
	model.ScopeTodayCompleted: "Completed",
	model.ScopeInProgress:     "In progress",
	model.ScopeOverdue:        "Overdue",
}

// RenderScope lists tasks under a heading for scope. The Inbox heading has no
// date.
func RenderScope(scope model.Scope, date time.Time, tasks []model.Task) string {
	heading := scopeTitles[scope]
	if scope != model.ScopeInbox {
		heading = fmt.Sprintf("%s · %s", heading, model.DayString(date))
	}
	var b strings.Builder
	b.WriteString(headerStyle.Render(heading))
	b.WriteString("\n")
	renderRows(&b, tasks)
	return strings.TrimSuffix(b.String(), "\n")
}

// RenderToday shows the three day views side by side in one panel.
func RenderToday(date time.Time, todo, inProgress, completed []model.Task) string {
	var b strings.Builder
	renderSection(&b, scopeTitles[model.ScopeTodayTodo], todo)
	renderSection(&b, scopeTitles[model.ScopeInProgress], inProgress)
	renderSection(&b, scopeTitles[model.ScopeTodayCompleted], completed)
	return strings.Join([]string{
		headerStyle.Render(model.DayString(date)),
		panelStyle.Render(strings.TrimSpace(b.String())),
	}, "\n")
}

// RenderTask shows every field of t with the memo rendered as markdown.
func RenderTask(t model.Task) string {
	rows := []string{
		field("id", t.ID),
		field("status", string(t.Status)),
		field("type", orDash(string(t.Type))),
		field("priority", orDash(string(t.Priority))),
		field("timeslot", orDash(string(t.Timeslot))),
		field("scheduled", formatDay(t.Timestamp)),
		field("started", formatInstant(t.StartTime)),
		field("ended", formatInstant(t.EndTime)),
		field("deadline", formatInstant(t.Deadline)),
	}
	if len(t.PermanentTags) > 0 {
		rows = append(rows, field("tags", strings.Join(t.PermanentTags, ", ")))
	}
	if len(t.ArticleGenres) > 0 {
		rows = append(rows, field("genres", strings.Join(t.ArticleGenres, ", ")))
	}
	if t.SpaceName != "" {
		rows = append(rows, field("space", t.SpaceName))
	}
	if t.URL != "" {
		rows = append(rows, field("url", t.URL))
	}
	if t.BookmarkURL != "" {
		rows = append(rows, field("bookmark", t.BookmarkURL))
	}

	lines := []string{
		headerStyle.Render(t.Name),
		panelStyle.Render(strings.Join(rows, "\n")),
	}
	if memo := RenderMarkdown(t.Memo); memo != "" {
		lines = append(lines, memo)
	}
	lines = append(lines, footerStyle.Render("updated "+formatInstant(&t.UpdatedAt)))
	return strings.Join(lines, "\n")
}

// RenderStatus renders the last error, or an ok line when there is none.
func RenderStatus(lastError string) string {
	if lastError == "" {
		return statusStyle.Render("in sync")
	}
	return errorStyle.Render("error: " + lastError)
}

func RenderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func formatDay(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return model.DayString(*t)
}

func formatInstant(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.In(model.Tokyo).Format("2006-01-02 15:04")
}
