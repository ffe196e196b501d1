package storage

import (
	"database/sql"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"taskpad/internal/task"
)

// SQLiteStore keeps tasks and notifications in two joined tables.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		return nil, errors.New("db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, err
	}
	db, err := sql.Open("sqlite", sqliteDSN(dbPath))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func sqliteDSN(path string) string {
	if strings.HasPrefix(path, "file:") {
		return path
	}
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	u := url.URL{
		Scheme: "file",
		Path:   path,
	}
	q := u.Query()
	q.Set("mode", "rwc")
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "foreign_keys(1)")
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *SQLiteStore) ensureSchema() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	text TEXT NOT NULL,
	done INTEGER NOT NULL DEFAULT 0,
	category TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL,
	completed_at INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS notifications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	scheduled_at INTEGER NOT NULL,
	triggered INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_tasks_done ON tasks(done);
CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category);
CREATE INDEX IF NOT EXISTS idx_notifications_scheduled ON notifications(scheduled_at);`
	if _, err := s.db.Exec(ddl); err != nil {
		return err
	}
	return s.ensureTaskColumns()
}

// ensureTaskColumns backfills columns added after the first release so
// older database files keep working.
func (s *SQLiteStore) ensureTaskColumns() error {
	required := map[string]string{
		"category":     "ALTER TABLE tasks ADD COLUMN category TEXT NOT NULL DEFAULT '';",
		"completed_at": "ALTER TABLE tasks ADD COLUMN completed_at INTEGER NOT NULL DEFAULT 0;",
	}
	existing := map[string]struct{}{}
	rows, err := s.db.Query(`PRAGMA table_info(tasks);`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return err
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for col, alter := range required {
		if _, ok := existing[col]; ok {
			continue
		}
		if _, err := s.db.Exec(alter); err != nil {
			return err
		}
	}
	return nil
}

// Tasks joins each task to its earliest untriggered notification, or
// the most recent one when everything already fired.
func (s *SQLiteStore) Tasks() ([]task.Task, error) {
	const q = `
SELECT t.id, t.text, t.done, t.category, t.created_at, t.completed_at,
       n.scheduled_at, n.triggered, n.message
FROM tasks t
LEFT JOIN notifications n ON n.id = COALESCE(
	(SELECT id FROM notifications
	 WHERE task_id = t.id AND triggered = 0
	 ORDER BY scheduled_at ASC, id ASC LIMIT 1),
	(SELECT id FROM notifications
	 WHERE task_id = t.id
	 ORDER BY scheduled_at DESC, id DESC LIMIT 1)
)
ORDER BY t.id;`
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var t task.Task
		var doneInt int
		var created, completed int64
		var schedAt, triggered sql.NullInt64
		var message sql.NullString

		if err := rows.Scan(&t.ID, &t.Text, &doneInt, &t.Category, &created, &completed,
			&schedAt, &triggered, &message); err != nil {
			return nil, err
		}
		t.Done = doneInt == 1
		t.CreatedAt = epochToTime(created)
		t.CompletedAt = epochToTime(completed)
		if schedAt.Valid {
			t.Reminder = task.Reminder{
				At:        epochToTime(schedAt.Int64),
				Triggered: triggered.Int64 == 1,
				Message:   message.String,
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *SQLiteStore) AddTask(text, category string) (task.Task, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(`INSERT INTO tasks (text, done, category, created_at) VALUES (?, 0, ?, ?);`,
		text, category, now.Unix())
	if err != nil {
		return task.Task{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return task.Task{}, err
	}
	return task.Task{ID: id, Text: text, Category: category, CreatedAt: epochToTime(now.Unix())}, nil
}

func (s *SQLiteStore) ImportTask(t task.Task) error {
	done := 0
	if t.Done {
		done = 1
	}
	res, err := s.db.Exec(`INSERT INTO tasks (text, done, category, created_at, completed_at) VALUES (?, ?, ?, ?, ?);`,
		t.Text, done, t.Category, timeToEpoch(t.CreatedAt), timeToEpoch(t.CompletedAt))
	if err != nil {
		return err
	}
	if !t.Reminder.IsSet() {
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	trig := 0
	if t.Reminder.Triggered {
		trig = 1
	}
	msg := t.Reminder.Message
	if msg == "" {
		msg = t.Text
	}
	_, err = s.db.Exec(`INSERT INTO notifications (task_id, scheduled_at, triggered, message) VALUES (?, ?, ?, ?);`,
		id, timeToEpoch(t.Reminder.At), trig, msg)
	return err
}

func (s *SQLiteStore) UpdateText(id int64, text string) error {
	_, err := s.db.Exec(`UPDATE tasks SET text = ? WHERE id = ?;`, text, id)
	return err
}

func (s *SQLiteStore) SetCategory(id int64, category string) error {
	_, err := s.db.Exec(`UPDATE tasks SET category = ? WHERE id = ?;`, category, id)
	return err
}

func (s *SQLiteStore) SetDone(id int64, done bool) error {
	if done {
		_, err := s.db.Exec(`UPDATE tasks SET done = 1, completed_at = ? WHERE id = ?;`,
			time.Now().UTC().Unix(), id)
		return err
	}
	_, err := s.db.Exec(`UPDATE tasks SET done = 0, completed_at = 0 WHERE id = ?;`, id)
	return err
}

func (s *SQLiteStore) SetReminder(id int64, at time.Time, message string) error {
	if _, err := s.db.Exec(`DELETE FROM notifications WHERE task_id = ? AND triggered = 0;`, id); err != nil {
		return err
	}
	if at.IsZero() {
		return nil
	}
	_, err := s.db.Exec(`INSERT INTO notifications (task_id, scheduled_at, triggered, message) VALUES (?, ?, 0, ?);`,
		id, at.Unix(), message)
	return err
}

func (s *SQLiteStore) DeleteTask(id int64) error {
	// Notifications go with the task via ON DELETE CASCADE.
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?;`, id)
	return err
}

func (s *SQLiteStore) DueReminders(now time.Time) ([]Due, error) {
	rows, err := s.db.Query(`
SELECT id, task_id, scheduled_at, message
FROM notifications
WHERE triggered = 0 AND scheduled_at > 0 AND scheduled_at <= ?
ORDER BY scheduled_at ASC, id ASC;`, now.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []Due
	for rows.Next() {
		var d Due
		var at int64
		if err := rows.Scan(&d.ReminderID, &d.TaskID, &at, &d.Message); err != nil {
			return nil, err
		}
		d.At = epochToTime(at)
		due = append(due, d)
	}
	return due, rows.Err()
}

func (s *SQLiteStore) MarkTriggered(reminderID int64) error {
	_, err := s.db.Exec(`UPDATE notifications SET triggered = 1 WHERE id = ?;`, reminderID)
	return err
}
