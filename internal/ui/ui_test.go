package ui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpad/internal/config"
	"taskpad/internal/storage"
	"taskpad/internal/task"
)

func newTestModel(t *testing.T) Model {
	dir := t.TempDir()
	store, err := storage.OpenSQLite(filepath.Join(dir, "tasks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ti := textinput.New()
	ti.CharLimit = 1024
	ti.Width = 60

	cfg := config.Default(dir)
	m := Model{
		store:      store,
		cfg:        cfg,
		configPath: filepath.Join(dir, config.DefaultConfigFileName),
		filter:     cfg.DefaultFilter,
		input:      ti,
		width:      defaultWidth,
		height:     defaultHeight,
	}
	require.NoError(t, m.reload())
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			// Deliver text one rune per message, as a terminal would;
			// a multi-rune message whose string form matches a named
			// key (e.g. "home") is otherwise swallowed by textinput's
			// key bindings.
			for _, r := range k {
				next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
				m = next.(Model)
			}
			continue
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestAddFlow(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "n")
	assert.Equal(t, modeAdd, m.mode)

	m = press(t, m, "buy milk", "enter")
	assert.Equal(t, modeAddCategory, m.mode)

	m = press(t, m, "home", "enter")
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "Added task", m.status)

	require.Len(t, m.tasks, 1)
	assert.Equal(t, "buy milk", m.tasks[0].Text)
	assert.Equal(t, "home", m.tasks[0].Category)
	assert.False(t, m.tasks[0].Done)
}

func TestAddEmptyTextRejected(t *testing.T) {
	m := newTestModel(t)
	m = press(t, m, "n", "enter")
	assert.Equal(t, modeAdd, m.mode)
	assert.Equal(t, "Task text cannot be empty", m.status)
	assert.Empty(t, m.tasks)
}

func TestCompleteMovesBetweenViews(t *testing.T) {
	m := newTestModel(t)
	_, err := m.store.AddTask("finish slides", "work")
	require.NoError(t, err)
	require.NoError(t, m.reload())

	m = press(t, m, "c")
	assert.Empty(t, m.viewTasks(), "pending view should be empty after completing")

	m = press(t, m, "tab")
	require.Len(t, m.viewTasks(), 1)
	got := m.viewTasks()[0]
	assert.True(t, got.Done)
	assert.False(t, got.CompletedAt.IsZero())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m := newTestModel(t)
	_, err := m.store.AddTask("throwaway", "")
	require.NoError(t, err)
	require.NoError(t, m.reload())

	m = press(t, m, "d")
	assert.Equal(t, modeConfirmDelete, m.mode)

	// 'n' keeps the task.
	m = press(t, m, "n")
	assert.Equal(t, modeList, m.mode)
	require.Len(t, m.tasks, 1)

	// 'y' deletes it.
	m = press(t, m, "d", "y")
	assert.Empty(t, m.tasks)
}

func TestEditUpdatesText(t *testing.T) {
	m := newTestModel(t)
	_, err := m.store.AddTask("old", "")
	require.NoError(t, err)
	require.NoError(t, m.reload())

	m = press(t, m, "e")
	assert.Equal(t, modeEdit, m.mode)
	assert.Equal(t, "old", m.input.Value())

	m = press(t, m, " but better", "enter")
	require.Len(t, m.tasks, 1)
	assert.Equal(t, "old but better", m.tasks[0].Text)
}

func TestReminderPrompt(t *testing.T) {
	m := newTestModel(t)
	_, err := m.store.AddTask("call mom", "")
	require.NoError(t, err)
	require.NoError(t, m.reload())

	m = press(t, m, "r", "10m", "enter")
	require.Len(t, m.tasks, 1)
	r := m.tasks[0].Reminder
	require.True(t, r.IsSet())
	assert.Equal(t, "call mom", r.Message)
	assert.InDelta(t, time.Now().Add(10*time.Minute).Unix(), r.At.Unix(), 5)

	// "0" clears it again.
	m = press(t, m, "r", "0", "enter")
	assert.False(t, m.tasks[0].Reminder.IsSet())
}

func TestCategoryFilterOverlay(t *testing.T) {
	m := newTestModel(t)
	for _, tc := range [][2]string{{"a", "work"}, {"b", "home"}, {"c", "work"}} {
		_, err := m.store.AddTask(tc[0], tc[1])
		require.NoError(t, err)
	}
	require.NoError(t, m.reload())

	m = press(t, m, "#")
	assert.Equal(t, modeFilter, m.mode)
	assert.Equal(t, []string{task.CategoryAll, "home", "work"}, m.filterChoices)

	m = press(t, m, "down", "enter")
	assert.Equal(t, "home", m.filter)
	require.Len(t, m.viewTasks(), 1)
	assert.Equal(t, "b", m.viewTasks()[0].Text)

	// Esc leaves the filter untouched.
	m = press(t, m, "#", "down", "esc")
	assert.Equal(t, "home", m.filter)
}

func TestGotoPrompt(t *testing.T) {
	m := newTestModel(t)
	for _, text := range []string{"one", "two", "three"} {
		_, err := m.store.AddTask(text, "")
		require.NoError(t, err)
	}
	require.NoError(t, m.reload())

	m = press(t, m, ":", "3", "enter")
	assert.Equal(t, 2, m.cursor)

	m = press(t, m, ":", "99", "enter")
	assert.Equal(t, "No visible item 99", m.status)
}

func TestOverduePromptPersistsConfig(t *testing.T) {
	m := newTestModel(t)

	m = press(t, m, "O", "45m", "enter")
	assert.Equal(t, modeList, m.mode)
	assert.Equal(t, "45m", m.cfg.OverdueEvery)

	loaded, err := config.LoadOrCreate(m.configPath)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, loaded.OverdueDuration())
}

func TestNavigationClamps(t *testing.T) {
	m := newTestModel(t)
	for _, text := range []string{"one", "two", "three"} {
		_, err := m.store.AddTask(text, "")
		require.NoError(t, err)
	}
	require.NoError(t, m.reload())

	m = press(t, m, "up")
	assert.Equal(t, 0, m.cursor)

	m = press(t, m, "down", "down", "down", "down")
	assert.Equal(t, 2, m.cursor)

	m = press(t, m, "k")
	assert.Equal(t, 1, m.cursor)
}

func TestViewShowsWrappedText(t *testing.T) {
	m := newTestModel(t)
	long := strings.Repeat("wrap me please ", 20)
	_, err := m.store.AddTask(long, "misc")
	require.NoError(t, err)
	require.NoError(t, m.reload())

	out := m.View()
	assert.Contains(t, out, "wrap me")
	assert.Contains(t, out, "misc")
	assert.Contains(t, out, "Current Tasks")
}

func TestScrollOffset(t *testing.T) {
	cases := []struct {
		cursor, visible, want int
	}{
		{0, 10, 0},
		{9, 10, 0},
		{10, 10, 1},
		{25, 10, 16},
		{3, 0, 0},
	}
	for _, c := range cases {
		if got := scrollOffset(c.cursor, c.visible); got != c.want {
			t.Errorf("scrollOffset(%d, %d) = %d, want %d", c.cursor, c.visible, got, c.want)
		}
	}
}

func TestClampCursor(t *testing.T) {
	cases := []struct {
		cur, n, want int
	}{
		{0, 0, 0},
		{-1, 5, 0},
		{4, 5, 4},
		{5, 5, 4},
		{2, 3, 2},
	}
	for _, c := range cases {
		if got := clampCursor(c.cur, c.n); got != c.want {
			t.Errorf("clampCursor(%d, %d) = %d, want %d", c.cur, c.n, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 12))
	assert.Equal(t, "exactly12chr", truncate("exactly12chr", 12))
	assert.Equal(t, "longer than…", truncate("longer than that", 12))
}

func TestReminderLabel(t *testing.T) {
	assert.Equal(t, "none", reminderLabel(task.Reminder{}))

	at := time.Date(2026, 4, 1, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-04-01 09:30", reminderLabel(task.Reminder{At: at}))
	assert.Equal(t, "2026-04-01 09:30 *", reminderLabel(task.Reminder{At: at, Triggered: true}))
}
