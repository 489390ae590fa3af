package model

import "time"

// GoalSummary backs the student dashboard.
type GoalSummary struct {
	Active          int        `json:"active"`
	Suspended       int        `json:"suspended"`
	Completed       int        `json:"completed"`
	Overdue         int        `json:"overdue"`
	AverageProgress int        `json:"averageProgress"`
	NextDeadline    *time.Time `json:"nextDeadline"`
	NextDeadlineID  string     `json:"nextDeadlineId,omitempty"`
}
