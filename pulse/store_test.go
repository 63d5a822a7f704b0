package pulse

import (
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gptest "github.com/teranos/gitpulse/internal/testing"
)

func testStoreOutcome(success, usedAI bool, kind ErrorKind, at time.Time) *Outcome {
	o := &Outcome{
		ID:        uuid.NewString(),
		Timestamp: at,
		Success:   success,
		UsedAI:    usedAI,
		ErrorKind: kind,
	}
	if success {
		o.FilesChanged = 2
		o.Message = "feat: 2 file(s) changed at 2026-08-26 10:00"
		o.CommitHash = "0123456789abcdef0123456789abcdef01234567"
	}
	return o
}

func TestStoreRecordAndLastOutcome(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Second)
	first := testStoreOutcome(true, true, "", base)
	second := testStoreOutcome(false, false, ErrKindCommitFailed, base.Add(time.Second))

	require.NoError(t, store.RecordOutcome(first))
	require.NoError(t, store.RecordOutcome(second))

	last, err := store.LastOutcome()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, second.ID, last.ID)
	assert.False(t, last.Success)
	assert.Equal(t, ErrKindCommitFailed, last.ErrorKind)
	assert.Empty(t, last.Message)
	assert.Empty(t, last.CommitHash)
	assert.True(t, last.Timestamp.Equal(second.Timestamp))
}

func TestStoreOutcomeFieldsRoundtrip(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	o := testStoreOutcome(true, true, "", time.Now().UTC().Truncate(time.Second))
	o.PushFailed = true
	o.ErrorKind = ErrKindPushFailed
	require.NoError(t, store.RecordOutcome(o))

	got, err := store.LastOutcome()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, o.ID, got.ID)
	assert.True(t, got.Success)
	assert.True(t, got.UsedAI)
	assert.True(t, got.PushFailed)
	assert.Equal(t, o.Message, got.Message)
	assert.Equal(t, o.CommitHash, got.CommitHash)
	assert.Equal(t, ErrKindPushFailed, got.ErrorKind)
	assert.Equal(t, 2, got.FilesChanged)
}

func TestStoreLastOutcomeEmpty(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	last, err := store.LastOutcome()
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestStoreRecentOutcomes(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	var ids []string
	for i := 0; i < 5; i++ {
		o := testStoreOutcome(true, false, "", base.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.RecordOutcome(o))
		ids = append(ids, o.ID)
	}

	recent, err := store.RecentOutcomes(3)
	require.NoError(t, err)
	require.Len(t, recent, 3)

	// Newest first
	assert.Equal(t, ids[4], recent[0].ID)
	assert.Equal(t, ids[3], recent[1].ID)
	assert.Equal(t, ids[2], recent[2].ID)
}

func TestStoreCount(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	n, err := store.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, store.RecordOutcome(testStoreOutcome(true, false, "", time.Now().UTC())))

	n, err = store.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreStats(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, store.RecordOutcome(testStoreOutcome(true, true, "", now)))
	require.NoError(t, store.RecordOutcome(testStoreOutcome(true, false, "", now)))
	require.NoError(t, store.RecordOutcome(testStoreOutcome(false, false, ErrKindNoChanges, now)))
	require.NoError(t, store.RecordOutcome(testStoreOutcome(false, false, ErrKindCommitFailed, now)))

	stats, err := store.Stats()
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalAttempts)
	assert.Equal(t, 2, stats.TotalCommits)
	assert.InDelta(t, 0.5, stats.SuccessRate, 0.001)
	assert.InDelta(t, 0.5, stats.AIUsageRate, 0.001)
	assert.Equal(t, 2, stats.CommitsLast24h)
	assert.Equal(t, 1, stats.ByErrorKind[string(ErrKindNoChanges)])
	assert.Equal(t, 1, stats.ByErrorKind[string(ErrKindCommitFailed)])

	require.Len(t, stats.Daily, 1)
	assert.Equal(t, now.Format("2006-01-02"), stats.Daily[0].Day)
	assert.Equal(t, 2, stats.Daily[0].Commits)
}

func TestStoreStatsEmpty(t *testing.T) {
	store := NewStore(gptest.CreateTestDB(t))

	stats, err := store.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalAttempts)
	assert.Zero(t, stats.SuccessRate)
	assert.Zero(t, stats.AIUsageRate)
	assert.Empty(t, stats.ByErrorKind)
	assert.Empty(t, stats.Daily)
}

func TestStoreRecordOutcomeError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectExec("INSERT INTO commit_log").WillReturnError(assert.AnError)

	store := NewStore(mockDB)
	err = store.RecordOutcome(testStoreOutcome(true, false, "", time.Now().UTC()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record commit outcome")
	assert.NoError(t, mock.ExpectationsWereMet())
}
