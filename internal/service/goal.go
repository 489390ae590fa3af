package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/templui/tutordesk/internal/metrics"
	"github.com/templui/tutordesk/internal/model"
	"github.com/templui/tutordesk/internal/repository"
	"github.com/templui/tutordesk/internal/validation"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrGoalNotFound      = errors.New("goal not found")
	ErrGoalCompleted     = errors.New("goal already completed")
	ErrInvalidTransition = errors.New("invalid goal status transition")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(err error) error {
	return &ValidationError{Message: err.Error()}
}

// Notifier shows a transient notice. It must not block.
type Notifier interface {
	Notify(ctx context.Context, notice model.Notice)
}

// CuePlayer attempts to play an audio cue. It must not block; errors are ignored by the store.
type CuePlayer interface {
	PlayCue(ctx context.Context, cue model.Cue) error
}

// Celebrator fires the cosmetic effect for a completed goal.
type Celebrator interface {
	Celebrate(ctx context.Context, goal *model.Goal)
}

type GoalInput struct {
	Title       string
	Description string
	Target      string
	DueDate     *time.Time
	Priority    model.GoalPriority
	Progress    int
}

// GoalUpdate lists the fields an edit overwrites. Nil means not supplied.
type GoalUpdate struct {
	Title        *string
	Description  *string
	Target       *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *model.GoalPriority
	Progress     *int
}

// GoalStore owns the active and completed goal lists and the sound preference.
// It is the only place goal state changes, and it saves the full state after
// every successful mutation.
type GoalStore struct {
	mu sync.RWMutex

	repo       repository.StateRepository
	notifier   Notifier
	cues       CuePlayer
	celebrator Celebrator
	now        func() time.Time
	newID      func() string

	active       []*model.Goal
	completed    []*model.Goal
	soundEnabled bool
	defaultSound bool
}

type GoalStoreOption func(*GoalStore)

func WithClock(now func() time.Time) GoalStoreOption {
	return func(s *GoalStore) { s.now = now }
}

func WithIDGenerator(newID func() string) GoalStoreOption {
	return func(s *GoalStore) { s.newID = newID }
}

func WithNotifier(n Notifier) GoalStoreOption {
	return func(s *GoalStore) { s.notifier = n }
}

func WithCuePlayer(p CuePlayer) GoalStoreOption {
	return func(s *GoalStore) { s.cues = p }
}

func WithCelebrator(c Celebrator) GoalStoreOption {
	return func(s *GoalStore) { s.celebrator = c }
}

// WithDefaultSound sets the sound preference used when nothing is stored yet.
func WithDefaultSound(enabled bool) GoalStoreOption {
	return func(s *GoalStore) { s.defaultSound = enabled }
}

// WithFeedback routes notices, cues and celebrations to one Feedback.
func WithFeedback(f *Feedback) GoalStoreOption {
	return func(s *GoalStore) {
		s.notifier = f
		s.cues = f
		s.celebrator = f
	}
}

// NewGoalStore loads the persisted state once. A missing or unreadable state
// starts an empty board instead of failing.
func NewGoalStore(ctx context.Context, repo repository.StateRepository, opts ...GoalStoreOption) *GoalStore {
	feedback := NewFeedback(nil, "")
	s := &GoalStore{
		repo:       repo,
		notifier:   feedback,
		cues:       feedback,
		celebrator: feedback,
		now:        time.Now,
		newID:      newGoalID,

		defaultSound: model.DefaultSoundEnabled,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.load(ctx)
	return s
}

func newGoalID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

func (s *GoalStore) load(ctx context.Context) {
	state, err := s.repo.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrStateNotFound):
		slog.Info("no saved goal state, starting empty")
		state = model.NewGoalState()
		state.SoundEnabled = s.defaultSound
	case err != nil:
		slog.Error("failed to load goal state, starting empty", "error", err)
		state = model.NewGoalState()
		state.SoundEnabled = s.defaultSound
	}

	s.active, s.completed = normalize(state, s.now())
	s.soundEnabled = state.SoundEnabled
	metrics.SetGoalCounts(s.counts())

	slog.Info("goal state loaded", "active", len(s.active), "completed", len(s.completed))
}

// normalize repairs loaded goals so every invariant holds: unique ids,
// clamped progress, consistent status/timestamps and list membership.
func normalize(state *model.GoalState, now time.Time) (active, completed []*model.Goal) {
	seen := make(map[string]bool)
	active = []*model.Goal{}
	completed = []*model.Goal{}

	markCompleted := func(g *model.Goal) {
		g.Status = model.GoalStatusCompleted
		g.Progress = model.MaxProgress
		g.SuspendedUntil = nil
		if g.CompletedAt == nil {
			g.CompletedAt = copyTime(&now)
		}
		completed = append(completed, g)
	}

	for _, g := range state.CompletedGoals {
		if g.ID == "" || seen[g.ID] {
			slog.Warn("dropping completed goal with duplicate or empty id", "goal_id", g.ID)
			continue
		}
		seen[g.ID] = true
		if !g.Priority.IsValid() {
			g.Priority = model.GoalPriorityMedium
		}
		markCompleted(g)
	}

	for _, g := range state.Goals {
		if g.ID == "" || seen[g.ID] {
			slog.Warn("dropping goal with duplicate or empty id", "goal_id", g.ID)
			continue
		}
		seen[g.ID] = true
		if !g.Priority.IsValid() {
			g.Priority = model.GoalPriorityMedium
		}
		g.Progress = model.ClampProgress(g.Progress)

		if g.Status == model.GoalStatusCompleted || g.Progress == model.MaxProgress {
			markCompleted(g)
			continue
		}

		g.CompletedAt = nil
		if g.Status == model.GoalStatusSuspended && g.SuspendedUntil != nil {
			active = append(active, g)
			continue
		}
		g.Status = model.GoalStatusActive
		g.SuspendedUntil = nil
		active = append(active, g)
	}

	return active, completed
}

// mutate runs fn under the write lock and persists on success.
func (s *GoalStore) mutate(ctx context.Context, op string, fn func(now time.Time) (*model.Goal, error)) (*model.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goal, err := fn(s.now())
	metrics.ObserveOperation(op, err)
	if err != nil {
		return nil, err
	}

	s.persist(ctx)
	return goal.Clone(), nil
}

// persist saves the full state. Failures are logged and never roll back
// the in-memory state. Caller must hold the write lock.
func (s *GoalStore) persist(ctx context.Context) {
	metrics.SetGoalCounts(s.counts())

	// The mutation already happened; a cancelled request must not skip the save.
	err := s.repo.Save(context.WithoutCancel(ctx), s.snapshot())
	if err != nil {
		metrics.PersistFailed()
		slog.Error("failed to persist goal state", "error", err)
	}
}

func (s *GoalStore) snapshot() *model.GoalState {
	return &model.GoalState{
		Goals:          model.CloneGoals(s.active),
		CompletedGoals: model.CloneGoals(s.completed),
		SoundEnabled:   s.soundEnabled,
	}
}

func (s *GoalStore) counts() (active, suspended, completed int) {
	for _, g := range s.active {
		if g.Status == model.GoalStatusSuspended {
			suspended++
		} else {
			active++
		}
	}
	return active, suspended, len(s.completed)
}

func (s *GoalStore) exists(id string) bool {
	return slices.ContainsFunc(s.active, func(g *model.Goal) bool { return g.ID == id }) ||
		slices.ContainsFunc(s.completed, func(g *model.Goal) bool { return g.ID == id })
}

// activeIndex finds a goal that may still change.
func (s *GoalStore) activeIndex(id string) (int, error) {
	idx := slices.IndexFunc(s.active, func(g *model.Goal) bool { return g.ID == id })
	if idx >= 0 {
		return idx, nil
	}
	if slices.ContainsFunc(s.completed, func(g *model.Goal) bool { return g.ID == id }) {
		return -1, ErrGoalCompleted
	}
	return -1, ErrGoalNotFound
}

func (s *GoalStore) notify(ctx context.Context, severity model.NoticeSeverity, format string, args ...any) {
	s.notifier.Notify(ctx, model.Notice{
		Message:  fmt.Sprintf(format, args...),
		Severity: severity,
	})
}

func (s *GoalStore) playCue(ctx context.Context, cue model.Cue) {
	if !s.soundEnabled {
		return
	}
	err := s.cues.PlayCue(ctx, cue)
	if err != nil {
		slog.Warn("audio cue failed", "cue", cue, "error", err)
	}
}

// Create adds a new active goal. An empty title is rejected without any change.
func (s *GoalStore) Create(ctx context.Context, in GoalInput) (*model.Goal, error) {
	return s.mutate(ctx, "create", func(now time.Time) (*model.Goal, error) {
		title := strings.TrimSpace(in.Title)
		priority := in.Priority
		if priority == "" {
			priority = model.GoalPriorityMedium
		}

		err := validation.ValidateGoal(validation.GoalFields{
			Title:       title,
			Description: in.Description,
			Target:      in.Target,
			Priority:    string(priority),
		})
		if err != nil {
			return nil, invalid(err)
		}

		id := s.newID()
		for attempt := 0; s.exists(id); attempt++ {
			if attempt == 3 {
				return nil, fmt.Errorf("failed to allocate goal id")
			}
			id = s.newID()
		}

		goal := &model.Goal{
			ID:          id,
			Title:       title,
			Description: in.Description,
			Target:      in.Target,
			DueDate:     copyTime(in.DueDate),
			Progress:    model.ClampProgress(in.Progress),
			Status:      model.GoalStatusActive,
			Priority:    priority,
			CreatedAt:   now,
		}
		s.active = append(s.active, goal)

		if goal.Progress == model.MaxProgress {
			return s.completeAt(ctx, len(s.active)-1, now), nil
		}

		s.notify(ctx, model.NoticeSuccess, "Goal %q created", goal.Title)
		return goal, nil
	})
}

// Edit overwrites the supplied fields of an active or suspended goal.
// A progress edit that reaches 100 completes the goal.
func (s *GoalStore) Edit(ctx context.Context, id string, upd GoalUpdate) (*model.Goal, error) {
	return s.mutate(ctx, "edit", func(now time.Time) (*model.Goal, error) {
		idx, err := s.activeIndex(id)
		if err != nil {
			return nil, err
		}
		goal := s.active[idx]

		next := *goal
		if upd.Title != nil {
			next.Title = strings.TrimSpace(*upd.Title)
		}
		if upd.Description != nil {
			next.Description = *upd.Description
		}
		if upd.Target != nil {
			next.Target = *upd.Target
		}
		if upd.Priority != nil {
			next.Priority = *upd.Priority
		}
		switch {
		case upd.ClearDueDate:
			next.DueDate = nil
		case upd.DueDate != nil:
			next.DueDate = copyTime(upd.DueDate)
		}

		err = validation.ValidateGoal(validation.GoalFields{
			Title:       next.Title,
			Description: next.Description,
			Target:      next.Target,
			Priority:    string(next.Priority),
		})
		if err != nil {
			return nil, invalid(err)
		}

		goal.Title = next.Title
		goal.Description = next.Description
		goal.Target = next.Target
		goal.Priority = next.Priority
		goal.DueDate = next.DueDate

		if upd.Progress != nil {
			progress := model.ClampProgress(*upd.Progress)
			if progress == model.MaxProgress {
				return s.completeAt(ctx, idx, now), nil
			}
			goal.Progress = progress
		}

		s.notify(ctx, model.NoticeInfo, "Goal %q updated", goal.Title)
		return goal, nil
	})
}

// UpdateProgress adds delta percentage points, clamped to [0, 100].
// Reaching 100 completes the goal.
func (s *GoalStore) UpdateProgress(ctx context.Context, id string, delta int) (*model.Goal, error) {
	return s.mutate(ctx, "update_progress", func(now time.Time) (*model.Goal, error) {
		idx, err := s.activeIndex(id)
		if err != nil {
			return nil, err
		}
		goal := s.active[idx]

		// Bound delta first so current+delta cannot overflow
		delta = max(-model.MaxProgress, min(model.MaxProgress, delta))
		progress := model.ClampProgress(goal.Progress + delta)
		if progress == model.MaxProgress {
			return s.completeAt(ctx, idx, now), nil
		}

		goal.Progress = progress
		s.playCue(ctx, model.CueProgress)
		s.notify(ctx, model.NoticeInfo, "Progress on %q is now %d%%", goal.Title, goal.Progress)
		return goal, nil
	})
}

// Complete finishes an active or suspended goal and moves it to the completed list.
func (s *GoalStore) Complete(ctx context.Context, id string) (*model.Goal, error) {
	return s.mutate(ctx, "complete", func(now time.Time) (*model.Goal, error) {
		idx, err := s.activeIndex(id)
		if err != nil {
			return nil, err
		}
		return s.completeAt(ctx, idx, now), nil
	})
}

// completeAt is the only way a goal reaches the completed list.
// Caller must hold the write lock.
func (s *GoalStore) completeAt(ctx context.Context, idx int, now time.Time) *model.Goal {
	goal := s.active[idx]
	goal.Progress = model.MaxProgress
	goal.Status = model.GoalStatusCompleted
	goal.CompletedAt = copyTime(&now)
	goal.SuspendedUntil = nil

	s.active = slices.Delete(s.active, idx, idx+1)
	s.completed = append(s.completed, goal)

	s.playCue(ctx, model.CueComplete)
	s.notify(ctx, model.NoticeSuccess, "Goal %q completed", goal.Title)
	s.celebrator.Celebrate(ctx, goal.Clone())

	slog.Info("goal completed", "goal_id", goal.ID)
	return goal
}

// Suspend pauses an active goal for a whole number of days.
func (s *GoalStore) Suspend(ctx context.Context, id string, days int) (*model.Goal, error) {
	return s.mutate(ctx, "suspend", func(now time.Time) (*model.Goal, error) {
		err := validation.ValidateSuspendDays(days)
		if err != nil {
			return nil, invalid(err)
		}

		idx, err := s.activeIndex(id)
		if err != nil {
			return nil, err
		}
		goal := s.active[idx]

		if !goal.Status.CanTransitionTo(model.GoalStatusSuspended) {
			return nil, ErrInvalidTransition
		}

		until := now.Add(time.Duration(days) * 24 * time.Hour)
		goal.Status = model.GoalStatusSuspended
		goal.SuspendedUntil = &until

		s.notify(ctx, model.NoticeInfo, "Goal %q suspended until %s", goal.Title, until.Format("Jan 2"))
		return goal, nil
	})
}

// Resume reactivates a suspended goal.
func (s *GoalStore) Resume(ctx context.Context, id string) (*model.Goal, error) {
	return s.mutate(ctx, "resume", func(now time.Time) (*model.Goal, error) {
		idx, err := s.activeIndex(id)
		if err != nil {
			return nil, err
		}
		goal := s.active[idx]

		if goal.Status != model.GoalStatusSuspended {
			return nil, ErrInvalidTransition
		}

		s.resume(ctx, goal)
		return goal, nil
	})
}

func (s *GoalStore) resume(ctx context.Context, goal *model.Goal) {
	goal.Status = model.GoalStatusActive
	goal.SuspendedUntil = nil
	s.notify(ctx, model.NoticeInfo, "Goal %q resumed", goal.Title)
}

// ResumeExpired resumes every suspended goal whose suspension has ended.
func (s *GoalStore) ResumeExpired(ctx context.Context) []*model.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var resumed []*model.Goal
	for _, goal := range s.active {
		if goal.IsSuspensionOver(now) {
			s.resume(ctx, goal)
			resumed = append(resumed, goal.Clone())
		}
	}

	if len(resumed) > 0 {
		metrics.ObserveOperation("resume_expired", nil)
		s.persist(ctx)
	}
	return resumed
}

// ExtendDeadline replaces the due date. Past dates are accepted.
func (s *GoalStore) ExtendDeadline(ctx context.Context, id string, due time.Time) (*model.Goal, error) {
	return s.mutate(ctx, "extend_deadline", func(now time.Time) (*model.Goal, error) {
		idx, err := s.activeIndex(id)
		if err != nil {
			return nil, err
		}
		goal := s.active[idx]
		goal.DueDate = copyTime(&due)

		s.notify(ctx, model.NoticeInfo, "Deadline for %q moved to %s", goal.Title, due.Format("Jan 2, 2006"))
		return goal, nil
	})
}

// Delete removes a goal from whichever list holds it.
func (s *GoalStore) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "delete", func(now time.Time) (*model.Goal, error) {
		if idx := slices.IndexFunc(s.active, func(g *model.Goal) bool { return g.ID == id }); idx >= 0 {
			goal := s.active[idx]
			s.active = slices.Delete(s.active, idx, idx+1)
			s.notify(ctx, model.NoticeInfo, "Goal %q deleted", goal.Title)
			return goal, nil
		}
		if idx := slices.IndexFunc(s.completed, func(g *model.Goal) bool { return g.ID == id }); idx >= 0 {
			goal := s.completed[idx]
			s.completed = slices.Delete(s.completed, idx, idx+1)
			s.notify(ctx, model.NoticeInfo, "Goal %q deleted", goal.Title)
			return goal, nil
		}
		return nil, ErrGoalNotFound
	})
	return err
}

func (s *GoalStore) SetSoundEnabled(ctx context.Context, enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.soundEnabled = enabled
	metrics.ObserveOperation("set_sound", nil)
	s.persist(ctx)
}

func (s *GoalStore) SoundEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.soundEnabled
}

// Goal looks up a goal in either list.
func (s *GoalStore) Goal(id string) (*model.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, list := range [][]*model.Goal{s.active, s.completed} {
		if idx := slices.IndexFunc(list, func(g *model.Goal) bool { return g.ID == id }); idx >= 0 {
			return list[idx].Clone(), nil
		}
	}
	return nil, ErrGoalNotFound
}

func (s *GoalStore) ActiveGoals() []*model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneGoals(s.active)
}

func (s *GoalStore) CompletedGoals() []*model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneGoals(s.completed)
}

// State returns a deep copy of everything the store persists.
func (s *GoalStore) State() *model.GoalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot()
}

// Filter returns the active-list goals matching f. It never mutates.
func (s *GoalStore) Filter(f model.GoalFilter) []*model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := []*model.Goal{}
	for _, g := range s.active {
		if f.Match(g, now) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// DueWithin returns active-list goals whose deadline falls in [now, now+d].
func (s *GoalStore) DueWithin(d time.Duration) []*model.Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	limit := now.Add(d)
	out := []*model.Goal{}
	for _, g := range s.active {
		if g.DueDate != nil && !g.DueDate.Before(now) && !g.DueDate.After(limit) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// Summary aggregates the board for the dashboard.
func (s *GoalStore) Summary() model.GoalSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	var summary model.GoalSummary
	summary.Active, summary.Suspended, summary.Completed = s.counts()

	total := 0
	for _, g := range s.active {
		total += g.Progress
		if g.IsOverdue(now) {
			summary.Overdue++
		}
		if g.DueDate != nil && !g.DueDate.Before(now) &&
			(summary.NextDeadline == nil || g.DueDate.Before(*summary.NextDeadline)) {
			summary.NextDeadline = copyTime(g.DueDate)
			summary.NextDeadlineID = g.ID
		}
	}
	if len(s.active) > 0 {
		summary.AverageProgress = total / len(s.active)
	}

	return summary
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
