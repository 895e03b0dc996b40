package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepository_FiltersByTimeAndType(t *testing.T) {
	now := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	repo := NewMemoryRepositoryWithClock(func() time.Time { return now })

	require.NoError(t, repo.RecordEvent(EventSessionCreated, "s1", nil))
	now = now.Add(time.Hour)
	require.NoError(t, repo.RecordEvent(EventYearSimulated, "s1", EventMetadata{"score": 70}))

	all, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 1, all[0].ID)
	assert.Equal(t, "s1", all[1].SessionID)

	recent, err := repo.GetEvents(now, nil)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	created, err := repo.GetEvents(time.Time{}, []EventType{EventSessionCreated})
	require.NoError(t, err)
	assert.Len(t, created, 1)

	require.NoError(t, repo.Clear())
	all, err = repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCalculateStats(t *testing.T) {
	repo := NewMemoryRepository()
	require.NoError(t, repo.RecordEvent(EventSessionCreated, "s1", EventMetadata{"difficulty": "default"}))
	require.NoError(t, repo.RecordEvent(EventYearSimulated, "s1", EventMetadata{
		"score":     80,
		"decisions": map[string]string{"osStrategy": "massMigration", "training": "studentClub"},
	}))
	require.NoError(t, repo.RecordEvent(EventYearSimulated, "s1", EventMetadata{
		"score":     60,
		"decisions": map[string]string{"osStrategy": "statusQuo", "training": "studentClub"},
	}))
	require.NoError(t, repo.RecordEvent(EventSessionReset, "s1", EventMetadata{}))

	events, err := repo.GetEvents(time.Time{}, nil)
	require.NoError(t, err)

	stats, err := CalculateStats(events, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 1, stats.SessionsCreated)
	assert.Equal(t, 2, stats.YearsSimulated)
	assert.Equal(t, 1, stats.Resets)
	assert.Equal(t, 70.0, stats.AverageScore)
	assert.Equal(t, 80, stats.BestScore)
	assert.Equal(t, 2.0, stats.YearsPerSession)
	assert.Equal(t, 2, stats.OptionPicks["training"]["studentClub"])
	assert.Equal(t, 1, stats.OptionPicks["osStrategy"]["massMigration"])
	assert.Equal(t, 2, stats.EventCounts[EventYearSimulated])
}
