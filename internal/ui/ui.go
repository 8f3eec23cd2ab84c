package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"nexttodo/internal/alarm"
	"nexttodo/internal/config"
	"nexttodo/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeSearch
)

type formState struct {
	text     string
	note     string
	priority string
	due      string
	category string
	index    int
}

type Model struct {
	ctx      context.Context
	store    *task.Store
	alarms   <-chan alarm.Event
	cfg      config.Config
	view     []task.Task
	cursor   int
	mode     mode
	input    textinput.Model
	status   string
	query    string
	category task.Category
	form     *formState
	banners  []alarm.Event
}

type alarmMsg alarm.Event

// Run shows the to-do list until the user quits or ctx is cancelled. Fired
// alarms arrive on alarms and are shown as a banner.
func Run(ctx context.Context, store *task.Store, alarms <-chan alarm.Event, cfg config.Config) error {
	m := New(ctx, store, alarms, cfg)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func New(ctx context.Context, store *task.Store, alarms <-chan alarm.Event, cfg config.Config) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	category, err := task.ParseFilterCategory(cfg.DefaultCategory)
	if err != nil {
		category = task.CategoryAll
	}

	m := Model{
		ctx:      ctx,
		store:    store,
		alarms:   alarms,
		cfg:      cfg,
		input:    ti,
		mode:     modeList,
		category: category,
		status:   "Press 'a' to add, space to complete, '/' to search.",
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return waitForAlarm(m.alarms)
}

func waitForAlarm(ch <-chan alarm.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return alarmMsg(ev)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case alarmMsg:
		m.banners = append(m.banners, alarm.Event(msg))
		m.refresh()
		return m, waitForAlarm(m.alarms)
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if len(m.banners) > 0 {
			return m.updateBanner(key)
		}
		switch m.mode {
		case modeAdd:
			return m.updateAddMode(key, msg)
		case modeSearch:
			return m.updateSearchMode(key, msg)
		}
		return m.updateListMode(key)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) updateBanner(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Confirm, m.cfg.Keys.Cancel, "enter", "esc":
		m.banners = m.banners[1:]
	}
	return m, nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if len(m.view) == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, len(m.view))
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, len(m.view))
		}
	case m.cfg.Keys.Add:
		return m.startAdd()
	case m.cfg.Keys.Search:
		m.mode = modeSearch
		m.input.SetValue(m.query)
		m.input.Placeholder = "search title or note"
		m.input.Focus()
		m.status = "Search: type to filter, enter to keep, esc to clear"
	case m.cfg.Keys.Category:
		m.category = nextCategory(m.category)
		m.refresh()
		m.status = "Showing " + categoryLabel(m.category)
	case m.cfg.Keys.Complete:
		if len(m.view) == 0 {
			return m, nil
		}
		t := m.view[m.cursor]
		ok, err := m.store.MarkComplete(m.ctx, t.ID)
		switch {
		case err != nil:
			m.status = fmt.Sprintf("save failed: %v", err)
		case ok:
			m.status = fmt.Sprintf("Completed %q", t.Text)
		default:
			m.status = "Already done"
		}
		m.refresh()
	}
	return m, nil
}

func (m Model) updateSearchMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.query = ""
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		m.refresh()
		m.status = "Search cleared"
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.input.Blur()
		m.mode = modeList
		m.status = fmt.Sprintf("%d matching", len(m.view))
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.query = m.input.Value()
		m.refresh()
		return m, cmd
	}
}

func (m Model) startAdd() (tea.Model, tea.Cmd) {
	cat := string(task.CategoryWork)
	if m.category != task.CategoryAll {
		cat = string(m.category)
	}
	m.form = &formState{priority: string(task.PriorityMedium), category: cat}
	m.mode = modeAdd
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.input.Focus()
	m.status = m.formPrompt()
	return m, nil
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Next, "tab", "down":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, len(formFields()))
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		m.status = m.formPrompt()
		return m, nil
	case m.cfg.Keys.Prev, "shift+tab", "up":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, len(formFields()))
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		m.status = m.formPrompt()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.index >= len(formFields())-1 {
			return m.saveForm()
		}
		m.form.index++
		m.input.SetValue(m.form.currentValue())
		m.input.Placeholder = m.form.currentLabel()
		m.status = m.formPrompt()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	f := m.form
	priority, err := task.ParsePriority(f.priority)
	if err != nil {
		m.status = fmt.Sprintf("priority invalid: %v", err)
		return m, nil
	}
	category, err := task.ParseCategory(f.category)
	if err != nil {
		m.status = fmt.Sprintf("category invalid: %v", err)
		return m, nil
	}
	if _, _, err := task.ParseDue(f.due, m.store.Location()); err != nil {
		m.status = fmt.Sprintf("due date invalid: %v", err)
		return m, nil
	}

	added, ok, err := m.store.Append(m.ctx, task.NewTask{
		Text:     f.text,
		Note:     f.note,
		Priority: priority,
		DueDate:  f.due,
		Category: category,
	})
	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	m.refresh()

	switch {
	case err != nil:
		m.status = fmt.Sprintf("save failed: %v", err)
	case ok:
		m.status = "Added task"
		for i, t := range m.view {
			if t.ID == added.ID {
				m.cursor = i
				break
			}
		}
	default:
		m.status = ""
	}
	return m, nil
}

func (m *Model) refresh() {
	m.view = task.View(m.store.Snapshot(), m.query, m.category, m.store.Location())
	m.cursor = clampCursor(m.cursor, len(m.view))
}

func formFields() []string {
	return []string{"title", "note", "priority (high/medium/low)", "due (YYYY-MM-DD HH:MM)", "category (work/personal/shopping)"}
}

func (f formState) currentLabel() string {
	return formFields()[f.index]
}

func (f formState) currentValue() string {
	switch f.index {
	case 0:
		return f.text
	case 1:
		return f.note
	case 2:
		return f.priority
	case 3:
		return f.due
	case 4:
		return f.category
	default:
		return ""
	}
}

func (f *formState) setCurrentValue(v string) {
	switch f.index {
	case 0:
		f.text = v
	case 1:
		f.note = v
	case 2:
		f.priority = v
	case 3:
		f.due = v
	case 4:
		f.category = v
	}
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	return fmt.Sprintf("New task: %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		m.form.currentLabel(), m.form.index+1, len(formFields()))
}

func nextCategory(c task.Category) task.Category {
	for i, fc := range task.FilterCategories {
		if fc == c {
			return task.FilterCategories[wrapIndex(i+1, len(task.FilterCategories))]
		}
	}
	return task.CategoryAll
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}

func emptyPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return "(empty)"
	}
	return v
}
