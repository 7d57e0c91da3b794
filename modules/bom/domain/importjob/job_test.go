package importjob

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestJob_Lifecycle(t *testing.T) {
	j := New(uuid.New(), 250, 100)
	require.Equal(t, StatusPending, j.Status())
	require.False(t, j.IsTerminal())

	require.NoError(t, j.Start())
	require.Equal(t, StatusRunning, j.Status())

	require.NoError(t, j.RecordBatch(BatchOutcome{BatchIndex: 0, ImportedCount: 100}))
	require.NoError(t, j.RecordBatch(BatchOutcome{BatchIndex: 1, ImportedCount: 100}))
	require.NoError(t, j.RecordBatch(BatchOutcome{BatchIndex: 2, ImportedCount: 50}))
	require.Equal(t, 250, j.ImportedCount())
	require.Equal(t, 0, j.FailedCount())
	require.Len(t, j.Batches(), 3)

	require.NoError(t, j.Finish())
	require.Equal(t, StatusCompleted, j.Status())
	require.True(t, j.IsTerminal())
}

func TestJob_FinishWithFailuresIsPartiallyFailed(t *testing.T) {
	j := New(uuid.New(), 20, 10)
	require.NoError(t, j.Start())
	require.NoError(t, j.RecordBatch(BatchOutcome{BatchIndex: 0, ImportedCount: 10}))
	require.NoError(t, j.RecordBatch(BatchOutcome{BatchIndex: 1, FailedCount: 10, FirstError: "boom"}))
	require.NoError(t, j.Finish())
	require.Equal(t, StatusPartiallyFailed, j.Status())
}

func TestJob_TerminalIsImmutable(t *testing.T) {
	j := New(uuid.New(), 10, 10)
	require.NoError(t, j.Start())
	require.NoError(t, j.Finish())

	require.ErrorIs(t, j.Fail("late failure"), ErrTerminal)
	require.ErrorIs(t, j.RequestCancel(), ErrTerminal)

	var tErr *InvalidTransitionError
	require.ErrorAs(t, j.Start(), &tErr)
	require.ErrorAs(t, j.RecordBatch(BatchOutcome{}), &tErr)
	require.ErrorAs(t, j.Finish(), &tErr)
}

func TestJob_StartRequiresPending(t *testing.T) {
	j := New(uuid.New(), 1, 1)
	require.NoError(t, j.Start())
	var tErr *InvalidTransitionError
	require.ErrorAs(t, j.Start(), &tErr)
	require.Equal(t, StatusRunning, tErr.From)
}

func TestJob_FailFromRunningKeepsReason(t *testing.T) {
	j := New(uuid.New(), 10, 5)
	require.NoError(t, j.Start())
	require.NoError(t, j.Fail("store unavailable"))
	require.Equal(t, StatusFailed, j.Status())
	require.Equal(t, "store unavailable", j.FailureReason())
}
