// Package task holds the domain types shared by the TUI, the stores,
// and the reminder daemon.
package task

import (
	"sort"
	"time"
)

// CategoryAll is the filter value that matches every category.
const CategoryAll = "All"

// Reminder is a scheduled alert attached to a task. A zero At means no
// reminder is set.
type Reminder struct {
	At        time.Time
	Triggered bool
	Message   string
}

func (r Reminder) IsSet() bool {
	return !r.At.IsZero()
}

// Due reports whether the reminder should have fired by now.
func (r Reminder) Due(now time.Time) bool {
	return r.IsSet() && !r.At.After(now)
}

type Task struct {
	ID          int64
	Text        string
	Done        bool
	Category    string
	CreatedAt   time.Time
	CompletedAt time.Time // meaningful only when Done
	Reminder    Reminder
}

// Split partitions tasks into pending and completed, preserving order.
func Split(tasks []Task) (pending, completed []Task) {
	for _, t := range tasks {
		if t.Done {
			completed = append(completed, t)
		} else {
			pending = append(pending, t)
		}
	}
	return pending, completed
}

// Categories returns CategoryAll followed by the distinct non-empty
// categories in tasks, sorted.
func Categories(tasks []Task) []string {
	seen := map[string]struct{}{}
	for _, t := range tasks {
		if t.Category != "" {
			seen[t.Category] = struct{}{}
		}
	}
	cats := make([]string, 0, len(seen)+1)
	for c := range seen {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return append([]string{CategoryAll}, cats...)
}

// FilterCategory returns the tasks whose category matches. CategoryAll
// (or an empty filter) matches everything.
func FilterCategory(tasks []Task, category string) []Task {
	if category == "" || category == CategoryAll {
		return tasks
	}
	var out []Task
	for _, t := range tasks {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// GotoIndex maps a 1-based item number in the unfiltered list to the
// position of that item in the category-filtered list. It reports false
// when the number is out of range or the item is filtered out.
func GotoIndex(tasks []Task, category string, itemNum int) (int, bool) {
	if itemNum < 1 || itemNum > len(tasks) {
		return 0, false
	}
	want := tasks[itemNum-1]
	pos := 0
	for _, t := range tasks {
		if category != "" && category != CategoryAll && t.Category != category {
			continue
		}
		if t.ID == want.ID {
			return pos, true
		}
		pos++
	}
	return 0, false
}
