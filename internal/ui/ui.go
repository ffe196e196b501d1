// Package ui renders the interactive task list.
package ui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"taskpad/internal/config"
	"taskpad/internal/storage"
	"taskpad/internal/task"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeAddCategory
	modeEdit
	modeCategory
	modeReminder
	modeOverdue
	modeGoto
	modeFilter
	modeConfirmDelete
)

type viewKind int

const (
	viewPending viewKind = iota
	viewCompleted
)

const (
	pageSize      = 10
	timeLayout    = "2006-01-02 15:04"
	defaultWidth  = 100
	defaultHeight = 30
)

type Model struct {
	store      storage.Store
	cfg        config.Config
	configPath string

	tasks  []task.Task
	view   viewKind
	filter string
	cursor int
	width  int
	height int

	mode   mode
	input  textinput.Model
	status string

	pendingID  int64
	pendingDel *task.Task

	filterChoices []string
	filterCursor  int
}

// Run loads the current tasks and hands the terminal to Bubble Tea.
func Run(store storage.Store, cfg config.Config, configPath string) error {
	tasks, err := store.Tasks()
	if err != nil {
		return err
	}

	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 60

	m := Model{
		store:      store,
		cfg:        cfg,
		configPath: configPath,
		tasks:      tasks,
		filter:     cfg.DefaultFilter,
		status:     "Press 'n' to add a task.",
		input:      ti,
		width:      defaultWidth,
		height:     defaultHeight,
	}

	program := tea.NewProgram(m, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}
	switch m.mode {
	case modeList:
		return m.updateListMode(key)
	case modeFilter:
		return m.updateFilterMode(key)
	case modeConfirmDelete:
		return m.updateDeleteConfirm(key)
	default:
		return m.updatePromptMode(key, msg)
	}
}

// viewBase is the current view before the category filter: pending or
// completed tasks. Goto item numbers index into this slice.
func (m Model) viewBase() []task.Task {
	pending, completed := task.Split(m.tasks)
	if m.view == viewCompleted {
		return completed
	}
	return pending
}

func (m Model) viewTasks() []task.Task {
	return task.FilterCategory(m.viewBase(), m.filter)
}

func (m Model) selected() (task.Task, bool) {
	tasks := m.viewTasks()
	if len(tasks) == 0 {
		return task.Task{}, false
	}
	return tasks[clampCursor(m.cursor, len(tasks))], true
}

func (m *Model) reload() error {
	tasks, err := m.store.Tasks()
	if err != nil {
		return err
	}
	m.tasks = tasks
	m.cursor = clampCursor(m.cursor, len(m.viewTasks()))
	return nil
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	n := len(m.viewTasks())
	switch {
	case key == m.cfg.Keys.Quit || key == "esc":
		return m, tea.Quit

	case key == "up" || key == m.cfg.Keys.Up:
		if m.cursor > 0 {
			m.cursor--
		}
	case key == "down" || key == m.cfg.Keys.Down:
		m.cursor = clampCursor(m.cursor+1, n)
	case key == "pgup":
		m.cursor = clampCursor(m.cursor-pageSize, n)
	case key == "pgdown":
		m.cursor = clampCursor(m.cursor+pageSize, n)
	case key == "home":
		m.cursor = 0
	case key == "end":
		m.cursor = clampCursor(n-1, n)

	case key == "tab" || key == m.cfg.Keys.SwitchView:
		if m.view == viewPending {
			m.view = viewCompleted
		} else {
			m.view = viewPending
		}
		m.cursor = 0

	case key == m.cfg.Keys.Add:
		return m.startPrompt(modeAdd, "New task", "", 0)

	case key == m.cfg.Keys.Complete:
		return m.completeSelected()

	case key == m.cfg.Keys.Delete:
		if t, ok := m.selected(); ok {
			m.pendingDel = &t
			m.mode = modeConfirmDelete
			m.status = fmt.Sprintf("Delete %q? y/n", t.Text)
		}

	case key == m.cfg.Keys.Edit:
		if t, ok := m.selected(); ok {
			return m.startPrompt(modeEdit, "Edit task", t.Text, t.ID)
		}

	case key == m.cfg.Keys.Category:
		if t, ok := m.selected(); ok {
			return m.startPrompt(modeCategory, "Category", t.Category, t.ID)
		}

	case keyMatchesReminder(key, m.cfg.Keys.Reminder):
		if t, ok := m.selected(); ok {
			return m.startPrompt(modeReminder, "Remind in (e.g. 10m, 2h, 3d; 0 clears)", "", t.ID)
		}

	case key == m.cfg.Keys.Overdue:
		return m.startPrompt(modeOverdue, "Re-notify overdue every (e.g. 30m; 0 off)", m.cfg.OverdueEvery, 0)

	case key == m.cfg.Keys.Goto:
		return m.startPrompt(modeGoto, "Goto item", "", 0)

	case key == m.cfg.Keys.Filter:
		m.filterChoices = task.Categories(m.viewBase())
		m.filterCursor = 0
		for i, c := range m.filterChoices {
			if c == m.filter {
				m.filterCursor = i
			}
		}
		m.mode = modeFilter
		m.status = "Select a category to filter"
	}
	return m, nil
}

// keyMatchesReminder accepts both cases of a single-letter reminder
// binding, matching the original r/R pair.
func keyMatchesReminder(key, binding string) bool {
	if key == binding {
		return true
	}
	return len(key) == 1 && len(binding) == 1 && strings.EqualFold(key, binding)
}

func (m Model) startPrompt(target mode, placeholder, value string, taskID int64) (tea.Model, tea.Cmd) {
	m.mode = target
	m.pendingID = taskID
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	m.status = placeholder
	return m, nil
}

func (m Model) closePrompt() Model {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
	return m
}

func (m Model) updatePromptMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", m.cfg.Keys.Cancel:
		m = m.closePrompt()
		m.status = "Cancelled"
		return m, nil
	case "enter", m.cfg.Keys.Confirm:
		return m.confirmPrompt()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) confirmPrompt() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())

	switch m.mode {
	case modeAdd:
		if value == "" {
			m.status = "Task text cannot be empty"
			return m, nil
		}
		added, err := m.store.AddTask(value, "")
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
			return m.closePrompt(), nil
		}
		m.view = viewPending
		m.cursor = clampCursor(len(m.viewTasks())-1, len(m.viewTasks()))
		// Chain straight into the category prompt, like the original.
		return m.startPrompt(modeAddCategory, "Category (optional)", "", added.ID)

	case modeAddCategory:
		if value != "" {
			if err := m.store.SetCategory(m.pendingID, value); err != nil {
				m.status = fmt.Sprintf("save failed: %v", err)
				return m, nil
			}
		}
		m = m.closePrompt()
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = "Added task"
		}
		return m, nil

	case modeEdit:
		if value == "" {
			m = m.closePrompt()
			m.status = "Edit cancelled"
			return m, nil
		}
		if err := m.store.UpdateText(m.pendingID, value); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m = m.closePrompt()
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = "Task updated"
		}
		return m, nil

	case modeCategory:
		if value == "" {
			m = m.closePrompt()
			m.status = "Category unchanged"
			return m, nil
		}
		if err := m.store.SetCategory(m.pendingID, value); err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		m = m.closePrompt()
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = "Category saved"
		}
		return m, nil

	case modeReminder:
		return m.confirmReminder(value)

	case modeOverdue:
		return m.confirmOverdue(value)

	case modeGoto:
		m = m.closePrompt()
		itemNum, err := strconv.Atoi(value)
		if err != nil {
			m.status = "Not a number"
			return m, nil
		}
		if idx, ok := task.GotoIndex(m.viewBase(), m.filter, itemNum); ok {
			m.cursor = idx
			m.status = fmt.Sprintf("Jumped to item %d", itemNum)
		} else {
			m.status = fmt.Sprintf("No visible item %d", itemNum)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) confirmReminder(value string) (tea.Model, tea.Cmd) {
	span, err := task.ParseSpan(value)
	if err != nil {
		m.status = fmt.Sprintf("invalid offset: %v", err)
		return m, nil
	}

	var at time.Time
	message := ""
	if span > 0 {
		at = time.Now().Add(span)
		for _, t := range m.tasks {
			if t.ID == m.pendingID {
				message = t.Text
				break
			}
		}
	}
	if err := m.store.SetReminder(m.pendingID, at, message); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	m = m.closePrompt()
	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
	} else if span > 0 {
		m.status = "Reminder set for " + at.Format(timeLayout)
	} else {
		m.status = "Reminder cleared"
	}
	return m, nil
}

func (m Model) confirmOverdue(value string) (tea.Model, tea.Cmd) {
	span, err := task.ParseSpan(value)
	if err != nil {
		m.status = fmt.Sprintf("invalid frequency: %v", err)
		return m, nil
	}
	m.cfg.OverdueEvery = task.FormatSpan(span)
	if err := config.Save(m.configPath, m.cfg); err != nil {
		m.status = fmt.Sprintf("config save failed: %v", err)
		return m, nil
	}
	m = m.closePrompt()
	if span > 0 {
		m.status = "Overdue re-notify every " + task.FormatSpan(span)
	} else {
		m.status = "Overdue re-notify off"
	}
	return m, nil
}

func (m Model) completeSelected() (tea.Model, tea.Cmd) {
	if m.view != viewPending {
		m.status = "Already completed"
		return m, nil
	}
	t, ok := m.selected()
	if !ok {
		return m, nil
	}
	if err := m.store.SetDone(t.ID, true); err != nil {
		m.status = fmt.Sprintf("complete failed: %v", err)
		return m, nil
	}
	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
	} else {
		m.status = fmt.Sprintf("Completed %q", t.Text)
	}
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "y", "Y":
		if m.pendingDel == nil {
			m.mode = modeList
			return m, nil
		}
		if err := m.store.DeleteTask(m.pendingDel.ID); err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
		} else if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = "Deleted task"
		}
		m.pendingDel = nil
		m.mode = modeList
		return m, nil
	case "n", "N", "esc":
		m.pendingDel = nil
		m.mode = modeList
		m.status = "Delete cancelled"
		return m, nil
	default:
		return m, nil
	}
}

func (m Model) updateFilterMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", m.cfg.Keys.Up:
		if m.filterCursor > 0 {
			m.filterCursor--
		}
	case "down", m.cfg.Keys.Down:
		if m.filterCursor < len(m.filterChoices)-1 {
			m.filterCursor++
		}
	case "enter", m.cfg.Keys.Confirm:
		if len(m.filterChoices) > 0 {
			m.filter = m.filterChoices[m.filterCursor]
		}
		m.mode = modeList
		m.cursor = 0
		m.status = "Filter: " + m.filter
	case "esc", "q":
		m.mode = modeList
		m.status = "Filter unchanged"
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	pending, completed := task.Split(m.tasks)
	b.WriteString(titleStyle.Render("Taskpad"))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("Current: %d | Completed: %d | Filter: %s",
		len(pending), len(completed), m.filter)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys)))
	b.WriteString("\n\n")

	if m.mode == modeFilter {
		b.WriteString(m.renderFilterOverlay())
	} else {
		b.WriteString(m.renderList())
	}

	b.WriteString("\n")
	if m.inPrompt() {
		b.WriteString(promptStyle.Render(m.input.Placeholder+":") + "\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	return b.String()
}

func (m Model) inPrompt() bool {
	switch m.mode {
	case modeAdd, modeAddCategory, modeEdit, modeCategory, modeReminder, modeOverdue, modeGoto:
		return true
	}
	return false
}

func renderHelp(k config.Keymap) string {
	return fmt.Sprintf("%s add • %s complete • %s delete • %s edit • %s category • %s reminder • %s filter • %s goto • %s overdue • %s switch • %s quit",
		k.Add, k.Complete, k.Delete, k.Edit, k.Category, k.Reminder, k.Filter, k.Goto, k.Overdue, k.SwitchView, k.Quit)
}

func (m Model) listHeight() int {
	// Header takes 5 lines, prompt/status footer up to 4.
	h := m.height - 9
	if h < 5 {
		h = 5
	}
	return h
}

func (m Model) renderList() string {
	tasks := m.viewTasks()
	if len(tasks) == 0 {
		if m.view == viewCompleted {
			return dimStyle.Render("No completed tasks.")
		}
		return dimStyle.Render("No tasks yet. Press 'n' to add one.")
	}

	dateHeader := "Added on"
	if m.view == viewCompleted {
		dateHeader = "Completed on"
	}

	const (
		numW  = 4
		catW  = 12
		remW  = 18
		dateW = 16
	)
	textW := m.width - numW - catW - remW - dateW - 4
	if textW < 20 {
		textW = 20
	}

	var b strings.Builder
	b.WriteString(columnStyle.Render(fmt.Sprintf("%-*s%-*s %-*s %-*s %s",
		numW, "#", textW, taskHeader(m.view), catW, "Category", remW, "Reminder", dateHeader)))
	b.WriteString("\n")

	cursor := clampCursor(m.cursor, len(tasks))
	visible := m.listHeight()
	offset := scrollOffset(cursor, visible)

	linesUsed := 0
	for idx := offset; idx < len(tasks) && linesUsed < visible; idx++ {
		t := tasks[idx]
		rows := m.renderTask(t, idx+1, textW, catW, remW)
		for _, row := range rows {
			if linesUsed >= visible {
				break
			}
			if idx == cursor {
				row = selectedStyle.Render(row)
			}
			b.WriteString(row)
			b.WriteString("\n")
			linesUsed++
		}
	}
	return b.String()
}

func taskHeader(v viewKind) string {
	if v == viewCompleted {
		return "Completed Tasks"
	}
	return "Current Tasks"
}

// renderTask wraps the task text and lays the metadata columns on the
// first line only.
func (m Model) renderTask(t task.Task, itemNum, textW, catW, remW int) []string {
	wrapped := wordwrap.String(t.Text, textW)
	lines := strings.Split(wrapped, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}

	date := t.CreatedAt
	if m.view == viewCompleted {
		date = t.CompletedAt
	}

	rows := make([]string, 0, len(lines))
	rows = append(rows, fmt.Sprintf("%-4d%-*s %-*s %-*s %s",
		itemNum, textW, lines[0], catW, truncate(t.Category, catW), remW, reminderLabel(t.Reminder), formatTime(date)))
	for _, line := range lines[1:] {
		rows = append(rows, fmt.Sprintf("%-4s%-*s", "", textW, line))
	}
	return rows
}

func reminderLabel(r task.Reminder) string {
	if !r.IsSet() {
		return "none"
	}
	label := r.At.Local().Format(timeLayout)
	if r.Triggered {
		label += " *"
	}
	return label
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(timeLayout)
}

func truncate(s string, w int) string {
	if len(s) <= w {
		return s
	}
	if w <= 1 {
		return s[:w]
	}
	return s[:w-1] + "…"
}

func (m Model) renderFilterOverlay() string {
	var b strings.Builder
	b.WriteString(promptStyle.Render("Filter by category:"))
	b.WriteString("\n")
	for i, c := range m.filterChoices {
		row := "  " + c
		if i == m.filterCursor {
			row = selectedStyle.Render("> " + c)
		}
		b.WriteString(row)
		b.WriteString("\n")
	}
	return b.String()
}

// scrollOffset keeps the cursor inside the visible window.
func scrollOffset(cursor, visible int) int {
	if visible <= 0 || cursor < visible {
		return 0
	}
	return cursor - visible + 1
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
