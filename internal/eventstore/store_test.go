package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRunID = "run-123"

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(MemoryDatabase)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestEventStoreAppendAndRetrieve(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	event := &BaseEvent{
		EventRunID:    testRunID,
		EventType:     "TestEvent",
		EventPayload:  []byte(`{"test": "data"}`),
		EventMetadata: map[string]string{"key": "value"},
	}
	require.NoError(t, store.Append(ctx, event))

	events, err := store.GetByRunID(ctx, testRunID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Positive(t, got.ID())
	assert.Equal(t, testRunID, got.RunID())
	assert.Equal(t, "TestEvent", got.Type())
	assert.JSONEq(t, `{"test": "data"}`, string(got.Payload()))
	assert.Equal(t, "value", got.Metadata()["key"])
	assert.WithinDuration(t, time.Now(), got.Timestamp(), time.Minute)
}

func TestEventStoreGetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	now := time.Now()

	for i := range 3 {
		require.NoError(t, store.Append(ctx, &BaseEvent{
			EventRunID:     "run-1",
			EventType:      "Event",
			EventTimestamp: now.Add(time.Duration(i) * time.Hour),
		}))
	}

	events, err := store.GetRange(ctx, now.Add(-time.Minute), now.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestEventStoreMultipleRuns(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	for _, id := range []string{"run-1", "run-2", "run-1"} {
		require.NoError(t, store.Append(ctx, &BaseEvent{EventRunID: id, EventType: "Event"}))
	}

	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = store.GetByRunID(ctx, "run-2")
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestEventStorePersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "events.db")
	ctx := t.Context()

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, &BaseEvent{EventRunID: testRunID, EventType: "Event"}))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	events, err := reopened.GetByRunID(ctx, testRunID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
