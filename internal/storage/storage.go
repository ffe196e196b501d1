// Package storage persists tasks and their reminders, either in an
// embedded SQLite database or in the legacy delimited text files.
package storage

import (
	"fmt"
	"time"

	"taskpad/internal/task"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Due is a reminder ready to fire.
type Due struct {
	ReminderID int64
	TaskID     int64
	At         time.Time
	Message    string
}

// Store is the persistence surface shared by the TUI and the daemon.
type Store interface {
	// Tasks returns every task with its next pending reminder attached
	// (or, if all reminders fired, the most recent one).
	Tasks() ([]task.Task, error)
	AddTask(text, category string) (task.Task, error)
	// ImportTask inserts a task preserving its timestamps and reminder.
	ImportTask(t task.Task) error
	UpdateText(id int64, text string) error
	SetCategory(id int64, category string) error
	// SetDone stamps or clears the completion time.
	SetDone(id int64, done bool) error
	// SetReminder replaces the task's pending reminder; a zero time
	// clears it.
	SetReminder(id int64, at time.Time, message string) error
	DeleteTask(id int64) error

	// DueReminders returns untriggered reminders scheduled at or
	// before now, earliest first.
	DueReminders(now time.Time) ([]Due, error)
	// MarkTriggered flips a reminder's triggered flag; it stays set.
	MarkTriggered(reminderID int64) error

	Close() error
}

// Open dispatches on the configured backend name.
func Open(backend, dbPath, tasksPath, notificationsPath string) (Store, error) {
	switch backend {
	case "", BackendSQLite:
		return OpenSQLite(dbPath)
	case BackendFile:
		return OpenFlatFile(tasksPath, notificationsPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

func epochToTime(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func timeToEpoch(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
