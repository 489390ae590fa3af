package repository

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/tutordesk/internal/db"
	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/storage"
)

func sampleState() *model.GoalState {
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2026, 10, 20, 9, 0, 0, 0, time.UTC)
	done := time.Date(2026, 10, 10, 17, 30, 0, 0, time.UTC)

	return &model.GoalState{
		Goals: []*model.Goal{
			{
				ID:          "01928f5e-0000-7000-8000-000000000001",
				Title:       "Finish algebra workbook",
				Description: "Chapters **1-6**",
				Target:      "All exercises checked by tutor",
				DueDate:     &due,
				Progress:    40,
				Status:      model.GoalStatusActive,
				Priority:    model.GoalPriorityHigh,
				CreatedAt:   created,
			},
			{
				ID:             "01928f5e-0000-7000-8000-000000000002",
				Title:          "Essay outline",
				Progress:       10,
				Status:         model.GoalStatusSuspended,
				Priority:       model.GoalPriorityLow,
				CreatedAt:      created,
				SuspendedUntil: &until,
			},
		},
		CompletedGoals: []*model.Goal{
			{
				ID:          "01928f5e-0000-7000-8000-000000000003",
				Title:       "Vocabulary list",
				Progress:    100,
				Status:      model.GoalStatusCompleted,
				Priority:    model.GoalPriorityMedium,
				CreatedAt:   created,
				CompletedAt: &done,
			},
		},
		SoundEnabled: false,
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func assertRoundTrip(t *testing.T, repo StateRepository) {
	t.Helper()
	ctx := context.Background()

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, ErrStateNotFound)

	want := sampleState()
	require.NoError(t, repo.Save(ctx, want))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, mustJSON(t, want), mustJSON(t, got))

	// Saving again overwrites every entry
	want.Goals = want.Goals[:1]
	want.SoundEnabled = true
	require.NoError(t, repo.Save(ctx, want))

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, mustJSON(t, want), mustJSON(t, got))

	// Clear wipes the namespace and may run twice
	require.NoError(t, repo.Clear(ctx))
	require.NoError(t, repo.Clear(ctx))
	_, err = repo.Load(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)
}

func TestMemoryStateRepository(t *testing.T) {
	assertRoundTrip(t, NewMemoryStateRepository())
}

func TestSQLStateRepository(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "goals.db")

	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, db.RunMigrations(ctx, database.DB, "sqlite"))

	assertRoundTrip(t, NewSQLStateRepository(database, "student-a"))

	// Namespaces do not see each other
	_, err = NewSQLStateRepository(database, "student-b").Load(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)

	// Clearing one namespace leaves the others alone
	a := NewSQLStateRepository(database, "student-a")
	b := NewSQLStateRepository(database, "student-b")
	require.NoError(t, a.Save(ctx, sampleState()))
	require.NoError(t, b.Save(ctx, sampleState()))
	require.NoError(t, a.Clear(ctx))

	_, err = a.Load(ctx)
	assert.ErrorIs(t, err, ErrStateNotFound)
	_, err = b.Load(ctx)
	assert.NoError(t, err)
}

func TestObjectStateRepository(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assertRoundTrip(t, NewObjectStateRepository(store, "tutordesk"))

	// Clear deletes the entry objects themselves
	repo := NewObjectStateRepository(store, "tutordesk")
	require.NoError(t, repo.Save(context.Background(), sampleState()))
	require.NoError(t, repo.Clear(context.Background()))
	_, err = store.Get(context.Background(), "tutordesk/goals.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestDecodeStateMalformedEntriesFallBack(t *testing.T) {
	repo := NewMemoryStateRepository()
	repo.Put(KeyGoals, []byte(`{not json`))
	repo.Put(KeyCompletedGoals, []byte(`[null, {"id":"x","title":"Done","progress":100,"status":"completed","priority":"low"}]`))
	repo.Put(KeySoundEnabled, []byte(`"maybe"`))

	state, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.Empty(t, state.Goals)
	require.Len(t, state.CompletedGoals, 1)
	assert.Equal(t, "x", state.CompletedGoals[0].ID)
	assert.Equal(t, model.DefaultSoundEnabled, state.SoundEnabled)
}

func TestDecodeStatePartialEntries(t *testing.T) {
	repo := NewMemoryStateRepository()
	repo.Put(KeySoundEnabled, []byte(`false`))

	state, err := repo.Load(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, state.Goals)
	assert.NotNil(t, state.CompletedGoals)
	assert.False(t, state.SoundEnabled)
}

func TestEncodeStateNilListsAsEmptyArrays(t *testing.T) {
	entries, err := encodeState(&model.GoalState{SoundEnabled: true})
	require.NoError(t, err)

	assert.Equal(t, `[]`, string(entries[KeyGoals]))
	assert.Equal(t, `[]`, string(entries[KeyCompletedGoals]))
	assert.Equal(t, `true`, string(entries[KeySoundEnabled]))
}
