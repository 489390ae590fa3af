package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/templui/tutordesk/internal/model"
)

// DigestWindow is how far ahead the daily digest looks for deadlines.
const DigestWindow = 48 * time.Hour

// SchedulerService wraps cron-based jobs.
type SchedulerService struct {
	cron *cron.Cron
}

func NewSchedulerService(loc *time.Location) *SchedulerService {
	return &SchedulerService{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleDaily registers a daily job at the given HH:MM time string.
func (s *SchedulerService) ScheduleDaily(timeStr string, job func()) (cron.EntryID, error) {
	spec, err := buildDailySpec(timeStr)
	if err != nil {
		return 0, err
	}
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a periodic job. Sub-second intervals round up to 1s.
func (s *SchedulerService) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := max(int(interval.Seconds()), 1)
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

func (s *SchedulerService) Entries() int {
	return len(s.cron.Entries())
}

func (s *SchedulerService) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *SchedulerService) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func buildDailySpec(timeStr string) (string, error) {
	parts := strings.Split(timeStr, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", timeStr)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", timeStr)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", timeStr)
	}
	// second minute hour dom month dow
	return fmt.Sprintf("0 %d %d * * *", minute, hour), nil
}

// DigestMailer sends the daily deadline overview.
type DigestMailer interface {
	SendDeadlineDigest(ctx context.Context, to string, overdue, dueSoon []*model.Goal) error
}

// GoalJobs holds the background work run against the goal store.
type GoalJobs struct {
	store    *GoalStore
	notifier Notifier
	mailer   DigestMailer
	to       string
}

// NewGoalJobs builds the jobs. mailer may be nil; the digest then only issues notices.
func NewGoalJobs(store *GoalStore, notifier Notifier, mailer DigestMailer, to string) *GoalJobs {
	return &GoalJobs{store: store, notifier: notifier, mailer: mailer, to: to}
}

// Register adds the resume sweep and the daily digest to s.
func (j *GoalJobs) Register(s *SchedulerService, sweepInterval time.Duration, digestAt string) error {
	_, err := s.ScheduleInterval(sweepInterval, func() {
		j.ResumeSweep(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule resume sweep: %w", err)
	}

	_, err = s.ScheduleDaily(digestAt, func() {
		if err := j.Digest(context.Background()); err != nil {
			slog.Error("deadline digest failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule deadline digest: %w", err)
	}

	slog.Info("goal jobs scheduled", "sweep_interval", sweepInterval, "digest_at", digestAt)
	return nil
}

func (j *GoalJobs) ResumeSweep(ctx context.Context) []*model.Goal {
	resumed := j.store.ResumeExpired(ctx)
	if len(resumed) > 0 {
		slog.Info("resumed expired suspensions", "count", len(resumed))
	}
	return resumed
}

// Digest issues a notice per overdue or soon-due goal and emails the overview.
func (j *GoalJobs) Digest(ctx context.Context) error {
	overdue := j.store.Filter(model.GoalFilterOverdue)
	dueSoon := j.store.DueWithin(DigestWindow)

	for _, g := range overdue {
		j.notifier.Notify(ctx, model.Notice{
			Message:  fmt.Sprintf("Goal %q is overdue", g.Title),
			Severity: model.NoticeWarning,
		})
	}
	for _, g := range dueSoon {
		j.notifier.Notify(ctx, model.Notice{
			Message:  fmt.Sprintf("Goal %q is due %s", g.Title, g.DueDate.Format("Mon Jan 2 15:04")),
			Severity: model.NoticeInfo,
		})
	}

	if j.mailer == nil || j.to == "" {
		return nil
	}
	return j.mailer.SendDeadlineDigest(ctx, j.to, overdue, dueSoon)
}
