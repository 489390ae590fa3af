package model

import "time"

type GoalFilter string

const (
	GoalFilterAll       GoalFilter = "all"
	GoalFilterActive    GoalFilter = "active"
	GoalFilterSuspended GoalFilter = "suspended"
	GoalFilterOverdue   GoalFilter = "overdue"
	GoalFilterHigh      GoalFilter = "high"
	GoalFilterMedium    GoalFilter = "medium"
	GoalFilterLow       GoalFilter = "low"
)

func ParseGoalFilter(s string) (GoalFilter, bool) {
	if s == "" {
		return GoalFilterAll, true
	}
	f := GoalFilter(s)
	switch f {
	case GoalFilterAll, GoalFilterActive, GoalFilterSuspended, GoalFilterOverdue,
		GoalFilterHigh, GoalFilterMedium, GoalFilterLow:
		return f, true
	default:
		return "", false
	}
}

// Match evaluates the filter against a single goal at time now.
func (f GoalFilter) Match(g *Goal, now time.Time) bool {
	switch f {
	case GoalFilterAll:
		return true
	case GoalFilterActive:
		return g.Status == GoalStatusActive
	case GoalFilterSuspended:
		return g.Status == GoalStatusSuspended
	case GoalFilterOverdue:
		return g.IsOverdue(now)
	case GoalFilterHigh:
		return g.Priority == GoalPriorityHigh
	case GoalFilterMedium:
		return g.Priority == GoalPriorityMedium
	case GoalFilterLow:
		return g.Priority == GoalPriorityLow
	default:
		return false
	}
}
