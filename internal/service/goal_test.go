package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/tutordesk/internal/ctxkeys"
	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/repository"
	"github.com/templui/tutordesk/internal/validation"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("goal-%d", n)
	}
}

type failingRepo struct {
	repository.StateRepository
}

func (failingRepo) Save(ctx context.Context, state *model.GoalState) error {
	return errors.New("disk full")
}

type fixture struct {
	store *GoalStore
	repo  *repository.MemoryStateRepository
	clock *fakeClock
	rec   *model.FeedbackRecorder
	ctx   context.Context
}

func newFixture(t *testing.T, opts ...GoalStoreOption) *fixture {
	t.Helper()

	f := &fixture{
		repo:  repository.NewMemoryStateRepository(),
		clock: newFakeClock(),
		rec:   &model.FeedbackRecorder{},
	}
	f.ctx = ctxkeys.WithFeedback(context.Background(), f.rec)

	opts = append([]GoalStoreOption{
		WithClock(f.clock.Now),
		WithIDGenerator(sequentialIDs()),
	}, opts...)
	f.store = NewGoalStore(context.Background(), f.repo, opts...)
	return f
}

func (f *fixture) create(t *testing.T, title string) *model.Goal {
	t.Helper()
	goal, err := f.store.Create(f.ctx, GoalInput{Title: title})
	require.NoError(t, err)
	return goal
}

func ids(goals []*model.Goal) []string {
	out := []string{}
	for _, g := range goals {
		out = append(out, g.ID)
	}
	return out
}

// assertInvariants checks the cross-list rules on the current state.
func assertInvariants(t *testing.T, s *GoalStore) {
	t.Helper()

	seen := map[string]bool{}
	state := s.State()
	for _, g := range state.Goals {
		assert.False(t, seen[g.ID], "duplicate id %s", g.ID)
		seen[g.ID] = true
		assert.NotEqual(t, model.GoalStatusCompleted, g.Status)
		assert.Less(t, g.Progress, model.MaxProgress)
		assert.GreaterOrEqual(t, g.Progress, model.MinProgress)
		assert.Nil(t, g.CompletedAt)
		assert.Equal(t, g.Status == model.GoalStatusSuspended, g.SuspendedUntil != nil)
	}
	for _, g := range state.CompletedGoals {
		assert.False(t, seen[g.ID], "duplicate id %s", g.ID)
		seen[g.ID] = true
		assert.Equal(t, model.GoalStatusCompleted, g.Status)
		assert.Equal(t, model.MaxProgress, g.Progress)
		assert.NotNil(t, g.CompletedAt)
		assert.Nil(t, g.SuspendedUntil)
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	due := f.clock.Now().Add(72 * time.Hour)

	goal, err := f.store.Create(f.ctx, GoalInput{
		Title:       "  Read chapter 3  ",
		Description: "Take notes",
		Target:      "Summary page",
		DueDate:     &due,
	})
	require.NoError(t, err)

	assert.Equal(t, "goal-1", goal.ID)
	assert.Equal(t, "Read chapter 3", goal.Title)
	assert.Equal(t, model.GoalStatusActive, goal.Status)
	assert.Equal(t, model.GoalPriorityMedium, goal.Priority)
	assert.Equal(t, 0, goal.Progress)
	assert.Equal(t, f.clock.Now(), goal.CreatedAt)
	assert.Equal(t, due, *goal.DueDate)

	assert.Len(t, f.store.ActiveGoals(), 1)
	assert.Equal(t, 1, f.repo.Saves())
	require.Len(t, f.rec.Notices(), 1)
	assert.Equal(t, model.NoticeSuccess, f.rec.Notices()[0].Severity)
	assertInvariants(t, f.store)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input GoalInput
	}{
		{"empty title", GoalInput{Title: ""}},
		{"blank title", GoalInput{Title: "   "}},
		{"unknown priority", GoalInput{Title: "Essay", Priority: "urgent"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			goal, err := f.store.Create(f.ctx, tt.input)
			require.ErrorIs(t, err, ErrValidation)
			assert.Nil(t, goal)
			assert.Empty(t, f.store.ActiveGoals())
			assert.Equal(t, 0, f.repo.Saves())
		})
	}
}

func TestCreateValidationMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.store.Create(f.ctx, GoalInput{})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title is required", verr.Message)
}

func TestCreateAtFullProgressCompletes(t *testing.T) {
	f := newFixture(t)

	goal, err := f.store.Create(f.ctx, GoalInput{Title: "Already done", Progress: 150})
	require.NoError(t, err)

	assert.Equal(t, model.GoalStatusCompleted, goal.Status)
	assert.Equal(t, 100, goal.Progress)
	require.NotNil(t, goal.CompletedAt)
	assert.Empty(t, f.store.ActiveGoals())
	assert.Len(t, f.store.CompletedGoals(), 1)
	assert.Len(t, f.rec.Celebrations(), 1)
	assertInvariants(t, f.store)
}

func TestUpdateProgress(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Practice scales")

	updated, err := f.store.UpdateProgress(f.ctx, goal.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, 30, updated.Progress)
	assert.Equal(t, model.GoalStatusActive, updated.Status)
	assert.Equal(t, []model.Cue{model.CueProgress}, f.rec.Cues())

	updated, err = f.store.UpdateProgress(f.ctx, goal.ID, -50)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Progress)
	assertInvariants(t, f.store)
}

func TestUpdateProgressCompletesOnce(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Flashcards")
	_, err := f.store.UpdateProgress(f.ctx, goal.ID, 80)
	require.NoError(t, err)

	completed, err := f.store.UpdateProgress(f.ctx, goal.ID, 30)
	require.NoError(t, err)

	assert.Equal(t, model.GoalStatusCompleted, completed.Status)
	assert.Equal(t, 100, completed.Progress)
	assert.Equal(t, f.clock.Now(), *completed.CompletedAt)
	assert.Empty(t, f.store.ActiveGoals())
	assert.Len(t, f.rec.Celebrations(), 1)
	assert.Equal(t, []model.Cue{model.CueProgress, model.CueComplete}, f.rec.Cues())

	_, err = f.store.UpdateProgress(f.ctx, goal.ID, 10)
	assert.ErrorIs(t, err, ErrGoalCompleted)
	assert.Len(t, f.rec.Celebrations(), 1)
	assertInvariants(t, f.store)
}

func TestUpdateProgressExtremeDelta(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A")
	b := f.create(t, "B")

	low, err := f.store.UpdateProgress(f.ctx, a.ID, math.MinInt)
	require.NoError(t, err)
	assert.Equal(t, 0, low.Progress)

	high, err := f.store.UpdateProgress(f.ctx, b.ID, math.MaxInt)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, high.Status)
	assertInvariants(t, f.store)
}

func TestSoundDisabledSkipsCues(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Quiet goal")

	f.store.SetSoundEnabled(f.ctx, false)
	_, err := f.store.UpdateProgress(f.ctx, goal.ID, 100)
	require.NoError(t, err)

	assert.Empty(t, f.rec.Cues())
	assert.Len(t, f.rec.Celebrations(), 1)
	assert.False(t, f.store.State().SoundEnabled)
}

type brokenCues struct{}

func (brokenCues) PlayCue(ctx context.Context, cue model.Cue) error {
	return errors.New("no audio device")
}

func TestCueFailureIsIgnored(t *testing.T) {
	f := newFixture(t, WithCuePlayer(brokenCues{}))
	goal := f.create(t, "Loud goal")

	updated, err := f.store.UpdateProgress(f.ctx, goal.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, updated.Status)
}

func TestComplete(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Lab report")
	_, err := f.store.Suspend(f.ctx, goal.ID, 3)
	require.NoError(t, err)

	completed, err := f.store.Complete(f.ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusCompleted, completed.Status)
	assert.Nil(t, completed.SuspendedUntil)

	_, err = f.store.Complete(f.ctx, goal.ID)
	assert.ErrorIs(t, err, ErrGoalCompleted)

	_, err = f.store.Complete(f.ctx, "missing")
	assert.ErrorIs(t, err, ErrGoalNotFound)
	assertInvariants(t, f.store)
}

func TestSuspendAndResume(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Geometry proofs")

	suspended, err := f.store.Suspend(f.ctx, goal.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusSuspended, suspended.Status)
	assert.Equal(t, f.clock.Now().Add(72*time.Hour), *suspended.SuspendedUntil)

	_, err = f.store.Suspend(f.ctx, goal.ID, 2)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	resumed, err := f.store.Resume(f.ctx, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, resumed.Status)
	assert.Nil(t, resumed.SuspendedUntil)

	_, err = f.store.Resume(f.ctx, goal.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assertInvariants(t, f.store)
}

func TestSuspendRejectsBadDays(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Essay")
	saves := f.repo.Saves()

	for _, days := range []int{0, -1, math.MinInt, validation.MaxSuspendDays + 1} {
		_, err := f.store.Suspend(f.ctx, goal.ID, days)
		assert.ErrorIs(t, err, ErrValidation, "days=%d", days)
	}

	current, err := f.store.Goal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusActive, current.Status)
	assert.Equal(t, saves, f.repo.Saves())
}

func TestSuspendAllowsLongDurations(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Gap year reading")

	suspended, err := f.store.Suspend(f.ctx, goal.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, f.clock.Now().Add(400*24*time.Hour), *suspended.SuspendedUntil)
	assertInvariants(t, f.store)
}

func TestResumeExpired(t *testing.T) {
	f := newFixture(t)
	short := f.create(t, "Short break")
	long := f.create(t, "Long break")
	_, err := f.store.Suspend(f.ctx, short.ID, 1)
	require.NoError(t, err)
	_, err = f.store.Suspend(f.ctx, long.ID, 5)
	require.NoError(t, err)

	assert.Empty(t, f.store.ResumeExpired(f.ctx))

	f.clock.Advance(25 * time.Hour)
	resumed := f.store.ResumeExpired(f.ctx)
	require.Len(t, resumed, 1)
	assert.Equal(t, short.ID, resumed[0].ID)

	still, err := f.store.Goal(long.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusSuspended, still.Status)
	assertInvariants(t, f.store)
}

func TestExtendDeadline(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Chemistry revision")

	past := f.clock.Now().Add(-48 * time.Hour)
	updated, err := f.store.ExtendDeadline(f.ctx, goal.ID, past)
	require.NoError(t, err)
	assert.Equal(t, past, *updated.DueDate)
	assert.True(t, updated.IsOverdue(f.clock.Now()))

	future := f.clock.Now().Add(7 * 24 * time.Hour)
	updated, err = f.store.ExtendDeadline(f.ctx, goal.ID, future)
	require.NoError(t, err)
	assert.Equal(t, future, *updated.DueDate)
}

func TestEdit(t *testing.T) {
	f := newFixture(t)
	due := f.clock.Now().Add(24 * time.Hour)
	goal, err := f.store.Create(f.ctx, GoalInput{Title: "Draft", DueDate: &due})
	require.NoError(t, err)

	title := "Final draft"
	priority := model.GoalPriorityHigh
	progress := 55
	edited, err := f.store.Edit(f.ctx, goal.ID, GoalUpdate{
		Title:        &title,
		Priority:     &priority,
		Progress:     &progress,
		ClearDueDate: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "Final draft", edited.Title)
	assert.Equal(t, model.GoalPriorityHigh, edited.Priority)
	assert.Equal(t, 55, edited.Progress)
	assert.Nil(t, edited.DueDate)
	assert.Equal(t, goal.CreatedAt, edited.CreatedAt)
	assert.Equal(t, goal.ID, edited.ID)
}

func TestEditRejectsInvalidWithoutChange(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Keep me")

	empty := ""
	desc := "changed"
	_, err := f.store.Edit(f.ctx, goal.ID, GoalUpdate{Title: &empty, Description: &desc})
	require.ErrorIs(t, err, ErrValidation)

	current, err := f.store.Goal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Keep me", current.Title)
	assert.Empty(t, current.Description)
}

func TestEditRejectsInvalidPriority(t *testing.T) {
	for _, p := range []model.GoalPriority{"urgent", ""} {
		t.Run(fmt.Sprintf("priority=%q", p), func(t *testing.T) {
			f := newFixture(t)
			goal, err := f.store.Create(f.ctx, GoalInput{Title: "Lab report", Priority: model.GoalPriorityHigh})
			require.NoError(t, err)
			saves := f.repo.Saves()

			priority := p
			_, err = f.store.Edit(f.ctx, goal.ID, GoalUpdate{Priority: &priority})
			require.ErrorIs(t, err, ErrValidation)

			current, err := f.store.Goal(goal.ID)
			require.NoError(t, err)
			assert.Equal(t, model.GoalPriorityHigh, current.Priority)
			assert.Equal(t, saves, f.repo.Saves())
			assert.Equal(t, []string{goal.ID}, ids(f.store.Filter(model.GoalFilterHigh)))
		})
	}
}

func TestEditToFullProgressCompletes(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Poem")

	progress := 100
	edited, err := f.store.Edit(f.ctx, goal.ID, GoalUpdate{Progress: &progress})
	require.NoError(t, err)

	assert.Equal(t, model.GoalStatusCompleted, edited.Status)
	assert.NotNil(t, edited.CompletedAt)
	assert.Len(t, f.rec.Celebrations(), 1)
	assertInvariants(t, f.store)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	active := f.create(t, "Active")
	done := f.create(t, "Done")
	_, err := f.store.Complete(f.ctx, done.ID)
	require.NoError(t, err)

	require.NoError(t, f.store.Delete(f.ctx, active.ID))
	require.NoError(t, f.store.Delete(f.ctx, done.ID))
	assert.Empty(t, f.store.ActiveGoals())
	assert.Empty(t, f.store.CompletedGoals())

	assert.ErrorIs(t, f.store.Delete(f.ctx, active.ID), ErrGoalNotFound)
}

func TestLookupMissLeavesOthersUntouched(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Untouched")
	before := f.store.State()

	_, err := f.store.UpdateProgress(f.ctx, "nope", 10)
	assert.ErrorIs(t, err, ErrGoalNotFound)
	_, err = f.store.Suspend(f.ctx, "nope", 1)
	assert.ErrorIs(t, err, ErrGoalNotFound)

	assert.Equal(t, before, f.store.State())
	_, err = f.store.Goal(goal.ID)
	assert.NoError(t, err)
}

func TestFilter(t *testing.T) {
	f := newFixture(t)
	past := f.clock.Now().Add(-time.Hour)

	overdue, err := f.store.Create(f.ctx, GoalInput{Title: "Late", DueDate: &past, Priority: model.GoalPriorityHigh})
	require.NoError(t, err)
	paused, err := f.store.Create(f.ctx, GoalInput{Title: "Paused", Priority: model.GoalPriorityLow})
	require.NoError(t, err)
	_, err = f.store.Suspend(f.ctx, paused.ID, 2)
	require.NoError(t, err)
	f.create(t, "Plain")

	assert.Len(t, f.store.Filter(model.GoalFilterAll), 3)
	assert.Len(t, f.store.Filter(model.GoalFilterActive), 2)
	assert.Equal(t, []string{paused.ID}, ids(f.store.Filter(model.GoalFilterSuspended)))
	assert.Equal(t, []string{overdue.ID}, ids(f.store.Filter(model.GoalFilterOverdue)))
	assert.Equal(t, []string{overdue.ID}, ids(f.store.Filter(model.GoalFilterHigh)))
	assert.Len(t, f.store.Filter(model.GoalFilterMedium), 1)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	soon := f.clock.Now().Add(24 * time.Hour)
	later := f.clock.Now().Add(96 * time.Hour)
	past := f.clock.Now().Add(-time.Hour)

	_, err := f.store.Create(f.ctx, GoalInput{Title: "Soon", DueDate: &soon, Progress: 20})
	require.NoError(t, err)
	_, err = f.store.Create(f.ctx, GoalInput{Title: "Later", DueDate: &later, Progress: 40})
	require.NoError(t, err)
	late, err := f.store.Create(f.ctx, GoalInput{Title: "Late", DueDate: &past, Progress: 60})
	require.NoError(t, err)
	_, err = f.store.Suspend(f.ctx, late.ID, 1)
	require.NoError(t, err)
	_, err = f.store.Create(f.ctx, GoalInput{Title: "Done", Progress: 100})
	require.NoError(t, err)

	summary := f.store.Summary()
	assert.Equal(t, 2, summary.Active)
	assert.Equal(t, 1, summary.Suspended)
	assert.Equal(t, 1, summary.Completed)
	assert.Equal(t, 1, summary.Overdue)
	assert.Equal(t, 40, summary.AverageProgress)
	require.NotNil(t, summary.NextDeadline)
	assert.Equal(t, soon, *summary.NextDeadline)
	assert.Equal(t, "goal-1", summary.NextDeadlineID)
}

func TestStateSurvivesReload(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "Persisted")
	_, err := f.store.UpdateProgress(f.ctx, a.ID, 25)
	require.NoError(t, err)
	b := f.create(t, "Finished")
	_, err = f.store.Complete(f.ctx, b.ID)
	require.NoError(t, err)
	f.store.SetSoundEnabled(f.ctx, false)

	reloaded := NewGoalStore(context.Background(), f.repo, WithClock(f.clock.Now))

	assert.Equal(t, f.store.State(), reloaded.State())
	assert.False(t, reloaded.SoundEnabled())
}

func TestLoadFallsBackPerEntry(t *testing.T) {
	repo := repository.NewMemoryStateRepository()
	repo.Put(repository.KeyGoals, []byte("{broken"))
	repo.Put(repository.KeyCompletedGoals, []byte(`[{"id":"c1","title":"Old","progress":100,"status":"completed","priority":"low","createdAt":"2026-01-01T00:00:00Z","completedAt":"2026-01-05T00:00:00Z"}]`))

	store := NewGoalStore(context.Background(), repo)

	assert.Empty(t, store.ActiveGoals())
	require.Len(t, store.CompletedGoals(), 1)
	assert.Equal(t, "c1", store.CompletedGoals()[0].ID)
	assert.True(t, store.SoundEnabled())
}

func TestDefaultSoundWhenNothingStored(t *testing.T) {
	store := NewGoalStore(context.Background(), repository.NewMemoryStateRepository(), WithDefaultSound(false))
	assert.False(t, store.SoundEnabled())
}

func TestLoadRepairsInconsistentGoals(t *testing.T) {
	repo := repository.NewMemoryStateRepository()
	repo.Put(repository.KeyGoals, []byte(`[
		{"id":"a","title":"Full","progress":100,"status":"active","priority":"high","createdAt":"2026-01-01T00:00:00Z"},
		{"id":"b","title":"Half","progress":250,"status":"suspended","priority":"bogus","createdAt":"2026-01-01T00:00:00Z"},
		{"id":"b","title":"Duplicate","progress":5,"status":"active","priority":"low","createdAt":"2026-01-01T00:00:00Z"},
		null
	]`))

	store := NewGoalStore(context.Background(), repo, WithClock(newFakeClock().Now))

	assert.Empty(t, store.ActiveGoals())
	completed := store.CompletedGoals()
	require.Len(t, completed, 2)
	assert.Equal(t, model.GoalPriorityMedium, completed[1].Priority)
	assertInvariants(t, store)
}

func TestPersistFailureKeepsState(t *testing.T) {
	repo := failingRepo{StateRepository: repository.NewMemoryStateRepository()}
	store := NewGoalStore(context.Background(), repo)

	goal, err := store.Create(context.Background(), GoalInput{Title: "Unsaved"})
	require.NoError(t, err)

	current, err := store.Goal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Unsaved", current.Title)
}

func TestReturnedGoalsAreCopies(t *testing.T) {
	f := newFixture(t)
	due := f.clock.Now().Add(time.Hour)
	goal, err := f.store.Create(f.ctx, GoalInput{Title: "Original", DueDate: &due})
	require.NoError(t, err)

	goal.Title = "Mutated"
	*goal.DueDate = due.Add(time.Hour)
	f.store.ActiveGoals()[0].Progress = 99

	current, err := f.store.Goal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, "Original", current.Title)
	assert.Equal(t, due, *current.DueDate)
	assert.Equal(t, 0, current.Progress)
}

func TestConcurrentProgressUpdates(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Shared")

	var wg sync.WaitGroup
	for range 9 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.store.UpdateProgress(f.ctx, goal.ID, 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	current, err := f.store.Goal(goal.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, current.Progress)
	assertInvariants(t, f.store)
}
