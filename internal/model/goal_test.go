package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoalStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to GoalStatus
		want     bool
	}{
		{GoalStatusActive, GoalStatusSuspended, true},
		{GoalStatusActive, GoalStatusCompleted, true},
		{GoalStatusSuspended, GoalStatusActive, true},
		{GoalStatusSuspended, GoalStatusCompleted, true},
		{GoalStatusActive, GoalStatusActive, false},
		{GoalStatusSuspended, GoalStatusSuspended, false},
		{GoalStatusCompleted, GoalStatusActive, false},
		{GoalStatusCompleted, GoalStatusSuspended, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
	assert.True(t, GoalStatusCompleted.IsTerminal())
	assert.False(t, GoalStatus("archived").IsValid())
}

func TestClampProgress(t *testing.T) {
	assert.Equal(t, 0, ClampProgress(-5))
	assert.Equal(t, 42, ClampProgress(42))
	assert.Equal(t, 100, ClampProgress(250))
}

func TestParseGoalPriority(t *testing.T) {
	p, ok := ParseGoalPriority("")
	assert.True(t, ok)
	assert.Equal(t, GoalPriorityMedium, p)

	_, ok = ParseGoalPriority("urgent")
	assert.False(t, ok)
}

func TestGoalFilterMatch(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	overdue := &Goal{Status: GoalStatusActive, Priority: GoalPriorityHigh, DueDate: &past}
	suspended := &Goal{Status: GoalStatusSuspended, Priority: GoalPriorityLow}

	assert.True(t, GoalFilterOverdue.Match(overdue, now))
	assert.False(t, GoalFilterOverdue.Match(suspended, now))
	assert.True(t, GoalFilterSuspended.Match(suspended, now))
	assert.True(t, GoalFilterHigh.Match(overdue, now))
	assert.False(t, GoalFilterLow.Match(overdue, now))
	assert.True(t, GoalFilterAll.Match(suspended, now))

	_, ok := ParseGoalFilter("someday")
	assert.False(t, ok)
}

func TestCloneDoesNotShareTimes(t *testing.T) {
	due := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	g := &Goal{ID: "g1", DueDate: &due}

	c := g.Clone()
	*c.DueDate = due.Add(time.Hour)

	assert.Equal(t, due, *g.DueDate)
}

func TestParseDueDate(t *testing.T) {
	d, err := ParseDueDate("2026-11-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 11, 30, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDueDate("2026-11-30T17:00:00+01:00")
	require.NoError(t, err)
	assert.Equal(t, 16, d.UTC().Hour())

	_, err = ParseDueDate("next friday")
	assert.EqualError(t, err, `invalid date "next friday", expected YYYY-MM-DD`)
}
