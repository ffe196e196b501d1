package storage

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"taskpad/internal/task"
)

// FlatFileStore is the original delimited-text backend: one file of
// tasks, one of notifications, rewritten whole on every mutation.
//
// Task lines: created;completed;done;text;category;reminder_epoch
// Notification lines: epoch;triggered;message
//
// The delimiter is not escaped, so a task text containing ';' loses
// its tail on reload. '|' is accepted on read for files written by the
// middle revision of the format.
type FlatFileStore struct {
	tasksPath  string
	notifsPath string
}

var _ Store = (*FlatFileStore)(nil)

type notifRecord struct {
	at        int64
	triggered bool
	message   string
}

func OpenFlatFile(tasksPath, notifsPath string) (*FlatFileStore, error) {
	if tasksPath == "" || notifsPath == "" {
		return nil, errors.New("flat file paths are empty")
	}
	for _, p := range []string{tasksPath, notifsPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, err
		}
	}
	return &FlatFileStore{tasksPath: tasksPath, notifsPath: notifsPath}, nil
}

func (s *FlatFileStore) Close() error { return nil }

// splitLine splits on ';', falling back to the legacy '|' delimiter.
func splitLine(line string) []string {
	if !strings.Contains(line, ";") && strings.Contains(line, "|") {
		return strings.Split(line, "|")
	}
	return strings.Split(line, ";")
}

// parseEpoch reads a unix timestamp, falling back to zero on garbage.
func parseEpoch(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func (s *FlatFileStore) loadNotifications() ([]notifRecord, error) {
	lines, err := readLines(s.notifsPath)
	if err != nil {
		return nil, err
	}
	var recs []notifRecord
	for _, line := range lines {
		parts := splitLine(line)
		if len(parts) < 3 {
			continue // malformed
		}
		recs = append(recs, notifRecord{
			at:        parseEpoch(parts[0]),
			triggered: strings.TrimSpace(parts[1]) == "1",
			message:   parts[2],
		})
	}
	return recs, nil
}

func (s *FlatFileStore) saveNotifications(recs []notifRecord) error {
	var b strings.Builder
	for _, n := range recs {
		flag := "0"
		if n.triggered {
			flag = "1"
		}
		fmt.Fprintf(&b, "%d;%s;%s\n", n.at, flag, n.message)
	}
	return os.WriteFile(s.notifsPath, []byte(b.String()), 0o644)
}

func (s *FlatFileStore) load() ([]task.Task, error) {
	notifs, err := s.loadNotifications()
	if err != nil {
		return nil, err
	}
	lines, err := readLines(s.tasksPath)
	if err != nil {
		return nil, err
	}

	var tasks []task.Task
	for _, line := range lines {
		parts := splitLine(line)
		if len(parts) < 6 {
			continue // malformed
		}
		t := task.Task{
			ID:          int64(len(tasks) + 1),
			CreatedAt:   epochToTime(parseEpoch(parts[0])),
			CompletedAt: epochToTime(parseEpoch(parts[1])),
			Done:        strings.TrimSpace(parts[2]) == "1",
			Text:        parts[3],
			Category:    parts[4],
		}
		if at := parseEpoch(parts[5]); at > 0 {
			t.Reminder = task.Reminder{At: epochToTime(at)}
			// Reminder state lives in the notifications file,
			// matched by equal timestamps (first match wins).
			for _, n := range notifs {
				if n.at == at {
					t.Reminder.Triggered = n.triggered
					t.Reminder.Message = n.message
					break
				}
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func (s *FlatFileStore) save(tasks []task.Task) error {
	var b strings.Builder
	for _, t := range tasks {
		done := "0"
		if t.Done {
			done = "1"
		}
		fmt.Fprintf(&b, "%d;%d;%s;%s;%s;%d\n",
			timeToEpoch(t.CreatedAt), timeToEpoch(t.CompletedAt), done,
			t.Text, t.Category, timeToEpoch(t.Reminder.At))
	}
	return os.WriteFile(s.tasksPath, []byte(b.String()), 0o644)
}

func (s *FlatFileStore) Tasks() ([]task.Task, error) {
	return s.load()
}

func (s *FlatFileStore) AddTask(text, category string) (task.Task, error) {
	tasks, err := s.load()
	if err != nil {
		return task.Task{}, err
	}
	t := task.Task{
		ID:        int64(len(tasks) + 1),
		Text:      text,
		Category:  category,
		CreatedAt: epochToTime(time.Now().UTC().Unix()),
	}
	tasks = append(tasks, t)
	if err := s.save(tasks); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (s *FlatFileStore) ImportTask(t task.Task) error {
	tasks, err := s.load()
	if err != nil {
		return err
	}
	t.ID = int64(len(tasks) + 1)
	tasks = append(tasks, t)
	if err := s.save(tasks); err != nil {
		return err
	}
	if !t.Reminder.IsSet() {
		return nil
	}
	notifs, err := s.loadNotifications()
	if err != nil {
		return err
	}
	msg := t.Reminder.Message
	if msg == "" {
		msg = t.Text
	}
	notifs = append(notifs, notifRecord{
		at:        timeToEpoch(t.Reminder.At),
		triggered: t.Reminder.Triggered,
		message:   msg,
	})
	return s.saveNotifications(notifs)
}

func (s *FlatFileStore) mutate(id int64, fn func(*task.Task)) error {
	tasks, err := s.load()
	if err != nil {
		return err
	}
	if id < 1 || id > int64(len(tasks)) {
		return fmt.Errorf("no task with id %d", id)
	}
	fn(&tasks[id-1])
	return s.save(tasks)
}

func (s *FlatFileStore) UpdateText(id int64, text string) error {
	return s.mutate(id, func(t *task.Task) { t.Text = text })
}

func (s *FlatFileStore) SetCategory(id int64, category string) error {
	return s.mutate(id, func(t *task.Task) { t.Category = category })
}

func (s *FlatFileStore) SetDone(id int64, done bool) error {
	return s.mutate(id, func(t *task.Task) {
		t.Done = done
		if done {
			t.CompletedAt = epochToTime(time.Now().UTC().Unix())
		} else {
			t.CompletedAt = time.Time{}
		}
	})
}

func (s *FlatFileStore) SetReminder(id int64, at time.Time, message string) error {
	tasks, err := s.load()
	if err != nil {
		return err
	}
	if id < 1 || id > int64(len(tasks)) {
		return fmt.Errorf("no task with id %d", id)
	}
	notifs, err := s.loadNotifications()
	if err != nil {
		return err
	}

	// Drop the task's previous pending notification, if any.
	if prev := timeToEpoch(tasks[id-1].Reminder.At); prev > 0 {
		for i, n := range notifs {
			if n.at == prev && !n.triggered {
				notifs = append(notifs[:i], notifs[i+1:]...)
				break
			}
		}
	}

	if at.IsZero() {
		tasks[id-1].Reminder = task.Reminder{}
	} else {
		tasks[id-1].Reminder = task.Reminder{At: epochToTime(at.Unix()), Message: message}
		notifs = append(notifs, notifRecord{at: at.Unix(), message: message})
	}
	if err := s.save(tasks); err != nil {
		return err
	}
	return s.saveNotifications(notifs)
}

func (s *FlatFileStore) DeleteTask(id int64) error {
	tasks, err := s.load()
	if err != nil {
		return err
	}
	if id < 1 || id > int64(len(tasks)) {
		return fmt.Errorf("no task with id %d", id)
	}
	tasks = append(tasks[:id-1], tasks[id:]...)
	return s.save(tasks)
}

func (s *FlatFileStore) DueReminders(now time.Time) ([]Due, error) {
	notifs, err := s.loadNotifications()
	if err != nil {
		return nil, err
	}
	tasks, err := s.load()
	if err != nil {
		return nil, err
	}

	var due []Due
	for i, n := range notifs {
		if n.triggered || n.at <= 0 || n.at > now.Unix() {
			continue
		}
		d := Due{
			ReminderID: int64(i + 1),
			At:         epochToTime(n.at),
			Message:    n.message,
		}
		for _, t := range tasks {
			if timeToEpoch(t.Reminder.At) == n.at {
				d.TaskID = t.ID
				break
			}
		}
		due = append(due, d)
	}
	sort.SliceStable(due, func(i, j int) bool { return due[i].At.Before(due[j].At) })
	return due, nil
}

func (s *FlatFileStore) MarkTriggered(reminderID int64) error {
	notifs, err := s.loadNotifications()
	if err != nil {
		return err
	}
	if reminderID < 1 || reminderID > int64(len(notifs)) {
		return fmt.Errorf("no notification with id %d", reminderID)
	}
	notifs[reminderID-1].triggered = true
	return s.saveNotifications(notifs)
}
