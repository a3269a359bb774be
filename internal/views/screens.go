package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sandeepkv93/tasksync/internal/model"
)

var (
	badgeHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	badgeMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	badgeLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func renderSection(b *strings.Builder, title string, tasks []model.Task) {
	b.WriteString(fmt.Sprintf("\n%s:\n", title))
	renderRows(b, tasks)
}

func renderRows(b *strings.Builder, tasks []model.Task) {
	if len(tasks) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, t := range tasks {
		b.WriteString("  " + priorityBadge(t.Priority) + " " + t.Name)
		if t.Timeslot != "" {
			b.WriteString(fmt.Sprintf(" [%s]", t.Timeslot))
		}
		if t.Timestamp != nil {
			b.WriteString(" @" + model.DayString(*t.Timestamp))
		}
		if t.Deadline != nil {
			b.WriteString(" due:" + model.DayString(*t.Deadline))
		}
		b.WriteString(footerStyle.Render("  " + t.ID))
		b.WriteString("\n")
	}
}

// priorityBadge shows the star rating coloured by urgency; unrated tasks get
// a placeholder of the same width.
func priorityBadge(p model.Priority) string {
	switch p.Score() {
	case 4, 3:
		return badgeHigh.Render(string(p))
	case 2:
		return badgeMedium.Render(string(p))
	case 1:
		return badgeLow.Render(string(p))
	default:
		return footerStyle.Render("☆☆☆☆")
	}
}
