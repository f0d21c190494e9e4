package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/solhaug/microstore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLog_RecordAndList(t *testing.T) {
	l := newTestLog(t)
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, l.Record(Entry{
		JobID:      "job-1",
		Dataset:    "income",
		Operation:  models.OperationAdd,
		Status:     models.JobCompleted,
		FinishedAt: now,
	}))
	require.NoError(t, l.Record(Entry{
		JobID:      "job-2",
		Dataset:    "tax",
		Operation:  models.OperationRemove,
		Status:     models.JobFailed,
		Message:    "dataset is not released",
		FinishedAt: now.Add(time.Minute),
	}))

	entries, err := l.List(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// newest first
	assert.Equal(t, "job-2", entries[0].JobID)
	assert.Equal(t, models.JobFailed, entries[0].Status)
	assert.Equal(t, "dataset is not released", entries[0].Message)
	assert.Equal(t, "job-1", entries[1].JobID)
	assert.Equal(t, models.OperationAdd, entries[1].Operation)
	assert.Equal(t, now, entries[1].FinishedAt.UTC())
}

func TestLog_ListLimit(t *testing.T) {
	l := newTestLog(t)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Record(Entry{
			JobID:      "job",
			Operation:  models.OperationBump,
			Status:     models.JobCompleted,
			FinishedAt: time.Now(),
		}))
	}

	entries, err := l.List(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLog_ListEmpty(t *testing.T) {
	l := newTestLog(t)
	entries, err := l.List(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
