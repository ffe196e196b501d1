package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlatFile(t *testing.T) (*FlatFileStore, string, string) {
	dir := t.TempDir()
	tasksPath := filepath.Join(dir, "todo.db")
	notifsPath := filepath.Join(dir, "notifications.db")
	s, err := OpenFlatFile(tasksPath, notifsPath)
	require.NoError(t, err)
	return s, tasksPath, notifsPath
}

func TestFlatFileMissingFilesMeanEmpty(t *testing.T) {
	s, _, _ := newFlatFile(t)

	tasks, err := s.Tasks()
	require.NoError(t, err)
	assert.Empty(t, tasks)

	due, err := s.DueReminders(time.Now())
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestFlatFileSkipsMalformedLines(t *testing.T) {
	s, tasksPath, _ := newFlatFile(t)
	body := "this is not a task\n" +
		"1700000000;0;0\n" + // too few fields
		"1700000000;0;0;good task;work;0\n"
	require.NoError(t, os.WriteFile(tasksPath, []byte(body), 0o644))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "good task", tasks[0].Text)
	assert.Equal(t, "work", tasks[0].Category)
}

func TestFlatFileBadNumbersFallBackToZero(t *testing.T) {
	s, tasksPath, _ := newFlatFile(t)
	body := "garbage;also garbage;0;odd but loadable;;nope\n"
	require.NoError(t, os.WriteFile(tasksPath, []byte(body), 0o644))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].CreatedAt.IsZero())
	assert.True(t, tasks[0].CompletedAt.IsZero())
	assert.False(t, tasks[0].Reminder.IsSet())
}

func TestFlatFileReadsLegacyPipeDelimiter(t *testing.T) {
	s, tasksPath, _ := newFlatFile(t)
	body := "1700000000|0|1|pipe era task|old|0\n"
	require.NoError(t, os.WriteFile(tasksPath, []byte(body), 0o644))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "pipe era task", tasks[0].Text)
	assert.True(t, tasks[0].Done)
	assert.Equal(t, "old", tasks[0].Category)

	// A rewrite normalizes the file back to ';'.
	require.NoError(t, s.SetCategory(1, "new"))
	data, err := os.ReadFile(tasksPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), ";new;")
	assert.NotContains(t, string(data), "|")
}

func TestFlatFileReminderJoinByTimestamp(t *testing.T) {
	s, tasksPath, notifsPath := newFlatFile(t)
	require.NoError(t, os.WriteFile(tasksPath,
		[]byte("1700000000;0;0;call bank;errands;1700003600\n"), 0o644))
	require.NoError(t, os.WriteFile(notifsPath,
		[]byte("1700003600;1;call bank\n"), 0o644))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	r := tasks[0].Reminder
	require.True(t, r.IsSet())
	assert.True(t, r.Triggered)
	assert.Equal(t, "call bank", r.Message)
	assert.Equal(t, int64(1700003600), r.At.Unix())
}

func TestFlatFileMalformedNotificationSkipped(t *testing.T) {
	s, _, notifsPath := newFlatFile(t)
	body := "justone\n" +
		"garbage;1;never due, epoch zero\n" +
		"100;0;fires\n"
	require.NoError(t, os.WriteFile(notifsPath, []byte(body), 0o644))

	due, err := s.DueReminders(time.Unix(200, 0))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "fires", due[0].Message)
}
