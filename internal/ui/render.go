package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nexttodo/internal/config"
	"nexttodo/internal/task"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245"))
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("33"))
	doneStyle      = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("241"))
	noteStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	dueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	bannerStyle    = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("160")).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Align(lipgloss.Center)
)

var priorityMarks = map[task.Priority]string{
	task.PriorityHigh:   "!!!",
	task.PriorityMedium: "!! ",
	task.PriorityLow:    "!  ",
}

func (m Model) View() string {
	if len(m.banners) > 0 {
		return m.renderBanner()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Next Todo"))
	b.WriteString("\n\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")

	if m.mode == modeSearch {
		b.WriteString("Search: " + m.input.View())
	} else if m.query != "" {
		b.WriteString("Search: " + m.query)
	}
	b.WriteString("\n\n")

	if len(m.view) == 0 {
		b.WriteString("No tasks here. Press 'a' to add one.")
	} else {
		b.WriteString(m.renderTaskList())
	}

	b.WriteString("\n---\n")
	if m.form != nil {
		b.WriteString(m.renderForm())
		b.WriteString("\n")
		b.WriteString("Field: " + m.form.currentLabel())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	}

	b.WriteString("\n\n")
	b.WriteString(m.status)
	b.WriteString("\n")
	b.WriteString(renderHelp(m.cfg.Keys))
	return b.String()
}

func (m Model) renderBanner() string {
	ev := m.banners[0]
	msg := ev.Message()
	if more := len(m.banners) - 1; more > 0 {
		msg += fmt.Sprintf("\n\n(+%d more)", more)
	}
	return bannerStyle.Render(msg+"\n\n[enter] OK") + "\n"
}

func (m Model) renderTabs() string {
	tabs := make([]string, 0, len(task.FilterCategories))
	for _, c := range task.FilterCategories {
		label := categoryLabel(c)
		if c == m.category {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderTaskList() string {
	var b strings.Builder
	for i, t := range m.view {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}

		checkbox := "[ ]"
		text := t.Text
		if t.Completed {
			checkbox = "[x]"
			text = doneStyle.Render(text)
		}

		body := fmt.Sprintf("%s %s %s %-8s %s", cursor, checkbox, priorityMarks[t.Priority], t.Category, text)
		if t.DueDate != "" {
			body += "  " + dueStyle.Render(strings.Replace(t.DueDate, "T", " ", 1))
		}
		b.WriteString(body)
		b.WriteString("\n")
		if t.Note != "" {
			b.WriteString("      " + noteStyle.Render(t.Note) + "\n")
		}
	}
	return b.String()
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	values := []string{
		m.form.text,
		m.form.note,
		m.form.priority,
		m.form.due,
		m.form.category,
	}
	var b strings.Builder
	for i, name := range formFields() {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		b.WriteString(fmt.Sprintf("%s %-34s : %s\n", prefix, name, emptyPlaceholder(values[i])))
	}
	return b.String()
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s/%s move • %s add • %s complete • %s search • %s category • %s quit",
		k.Up, k.Down, k.Add, keyName(k.Complete), k.Search, k.Category, k.Quit)
}

func keyName(k string) string {
	if k == " " {
		return "space"
	}
	return k
}

func categoryLabel(c task.Category) string {
	switch c {
	case task.CategoryAll:
		return "All"
	case task.CategoryWork:
		return "Work"
	case task.CategoryPersonal:
		return "Personal"
	case task.CategoryShopping:
		return "Shopping"
	default:
		return string(c)
	}
}
