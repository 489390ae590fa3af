package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/tutordesk/internal/model"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:00", "0 0 8 * * *", false},
		{"23:59", "0 59 23 * * *", false},
		{"7:05", "0 5 7 * * *", false},
		{"24:00", "", true},
		{"08:60", "", true},
		{"0800", "", true},
		{"aa:bb", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := buildDailySpec(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScheduleInterval(t *testing.T) {
	s := NewSchedulerService(time.UTC)

	_, err := s.ScheduleInterval(0, func() {})
	assert.Error(t, err)

	_, err = s.ScheduleInterval(500*time.Millisecond, func() {})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Entries())
}

func TestGoalJobsRegister(t *testing.T) {
	f := newFixture(t)
	jobs := NewGoalJobs(f.store, NewFeedback(nil, ""), nil, "")
	s := NewSchedulerService(time.UTC)

	require.NoError(t, jobs.Register(s, time.Minute, "08:00"))
	assert.Equal(t, 2, s.Entries())

	assert.Error(t, jobs.Register(NewSchedulerService(time.UTC), time.Minute, "8am"))
}

func TestResumeSweep(t *testing.T) {
	f := newFixture(t)
	goal := f.create(t, "Break")
	_, err := f.store.Suspend(f.ctx, goal.ID, 1)
	require.NoError(t, err)
	jobs := NewGoalJobs(f.store, NewFeedback(nil, ""), nil, "")

	assert.Empty(t, jobs.ResumeSweep(context.Background()))

	f.clock.Advance(24 * time.Hour)
	resumed := jobs.ResumeSweep(context.Background())
	require.Len(t, resumed, 1)
	assert.Equal(t, model.GoalStatusActive, resumed[0].Status)
}

func TestDigest(t *testing.T) {
	f := newFixture(t)
	past := f.clock.Now().Add(-time.Hour)
	soon := f.clock.Now().Add(30 * time.Hour)
	far := f.clock.Now().Add(10 * 24 * time.Hour)
	for _, in := range []GoalInput{
		{Title: "Late", DueDate: &past},
		{Title: "Soon", DueDate: &soon},
		{Title: "Far", DueDate: &far},
	} {
		_, err := f.store.Create(f.ctx, in)
		require.NoError(t, err)
	}

	rec := &model.FeedbackRecorder{}
	mailer := &recordingMailer{}
	jobs := NewGoalJobs(f.store, recorderNotifier{rec}, mailer, "tutor@example.com")

	require.NoError(t, jobs.Digest(context.Background()))

	assert.Equal(t, []string{"tutor@example.com:digest"}, mailer.Sent())
	require.Len(t, mailer.overdue, 1)
	assert.Equal(t, "Late", mailer.overdue[0].Title)
	require.Len(t, mailer.dueSoon, 1)
	assert.Equal(t, "Soon", mailer.dueSoon[0].Title)

	notices := rec.Notices()
	require.Len(t, notices, 2)
	assert.Equal(t, model.NoticeWarning, notices[0].Severity)
}

func TestDigestWithoutMailer(t *testing.T) {
	f := newFixture(t)
	jobs := NewGoalJobs(f.store, NewFeedback(nil, ""), nil, "")
	assert.NoError(t, jobs.Digest(context.Background()))
}

type recorderNotifier struct {
	rec *model.FeedbackRecorder
}

func (n recorderNotifier) Notify(ctx context.Context, notice model.Notice) {
	n.rec.AddNotice(notice)
}
