package model

import (
	"fmt"
	"time"
)

type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusSuspended GoalStatus = "suspended"
	GoalStatusCompleted GoalStatus = "completed"
)

func (s GoalStatus) IsValid() bool {
	switch s {
	case GoalStatusActive, GoalStatusSuspended, GoalStatusCompleted:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether no transition leaves the status.
func (s GoalStatus) IsTerminal() bool {
	return s == GoalStatusCompleted
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s GoalStatus) CanTransitionTo(target GoalStatus) bool {
	switch s {
	case GoalStatusActive:
		return target == GoalStatusSuspended || target == GoalStatusCompleted
	case GoalStatusSuspended:
		return target == GoalStatusActive || target == GoalStatusCompleted
	default:
		return false
	}
}

type GoalPriority string

const (
	GoalPriorityHigh   GoalPriority = "high"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityLow    GoalPriority = "low"
)

func (p GoalPriority) IsValid() bool {
	switch p {
	case GoalPriorityHigh, GoalPriorityMedium, GoalPriorityLow:
		return true
	default:
		return false
	}
}

// ParseGoalPriority maps user input to a priority. Empty input means medium.
func ParseGoalPriority(s string) (GoalPriority, bool) {
	if s == "" {
		return GoalPriorityMedium, true
	}
	p := GoalPriority(s)
	return p, p.IsValid()
}

const (
	MinProgress = 0
	MaxProgress = 100
)

// ClampProgress bounds a progress value to [MinProgress, MaxProgress].
func ClampProgress(p int) int {
	if p < MinProgress {
		return MinProgress
	}
	if p > MaxProgress {
		return MaxProgress
	}
	return p
}

type Goal struct {
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Target         string       `json:"target,omitempty"`
	DueDate        *time.Time   `json:"dueDate"`
	Progress       int          `json:"progress"`
	Status         GoalStatus   `json:"status"`
	Priority       GoalPriority `json:"priority"`
	CreatedAt      time.Time    `json:"createdAt"`
	SuspendedUntil *time.Time   `json:"suspendedUntil"`
	CompletedAt    *time.Time   `json:"completedAt"`
}

// IsOverdue reports whether the goal has a deadline before now and is not completed.
func (g *Goal) IsOverdue(now time.Time) bool {
	return g.DueDate != nil && g.DueDate.Before(now) && g.Status != GoalStatusCompleted
}

// IsSuspensionOver reports whether a suspended goal has reached its resume time.
func (g *Goal) IsSuspensionOver(now time.Time) bool {
	return g.Status == GoalStatusSuspended && g.SuspendedUntil != nil && !g.SuspendedUntil.After(now)
}

// Clone returns a deep copy, so callers never share time pointers with the store.
func (g *Goal) Clone() *Goal {
	if g == nil {
		return nil
	}
	c := *g
	c.DueDate = cloneTime(g.DueDate)
	c.SuspendedUntil = cloneTime(g.SuspendedUntil)
	c.CompletedAt = cloneTime(g.CompletedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func CloneGoals(goals []*Goal) []*Goal {
	out := make([]*Goal, 0, len(goals))
	for _, g := range goals {
		out = append(out, g.Clone())
	}
	return out
}

// ParseDueDate accepts YYYY-MM-DD (midnight UTC) or RFC 3339.
func ParseDueDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
}
