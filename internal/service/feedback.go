package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/templui/tutordesk/internal/ctxkeys"
	"github.com/templui/tutordesk/internal/model"
)

const completionEmailTimeout = 30 * time.Second

// CompletionMailer sends the "goal completed" email.
type CompletionMailer interface {
	SendGoalCompletedEmail(ctx context.Context, to string, goal *model.Goal) error
}

// Feedback is the default Notifier, CuePlayer and Celebrator. Events go to the
// request's feedback recorder when there is one, and to the log otherwise.
type Feedback struct {
	mailer CompletionMailer
	to     string
	wg     sync.WaitGroup
}

// NewFeedback builds a Feedback. Completion emails are sent only when both
// mailer and to are set.
func NewFeedback(mailer CompletionMailer, to string) *Feedback {
	return &Feedback{mailer: mailer, to: to}
}

func (f *Feedback) Notify(ctx context.Context, notice model.Notice) {
	if rec := ctxkeys.Feedback(ctx); rec != nil {
		rec.AddNotice(notice)
		return
	}
	slog.Info("notice", "severity", notice.Severity, "message", notice.Message)
}

func (f *Feedback) PlayCue(ctx context.Context, cue model.Cue) error {
	if rec := ctxkeys.Feedback(ctx); rec != nil {
		rec.AddCue(cue)
		return nil
	}
	slog.Debug("audio cue", "cue", cue)
	return nil
}

func (f *Feedback) Celebrate(ctx context.Context, goal *model.Goal) {
	if rec := ctxkeys.Feedback(ctx); rec != nil {
		rec.AddCelebration(goal)
	} else {
		slog.Info("goal celebrated", "goal_id", goal.ID, "title", goal.Title)
	}

	if f.mailer == nil || f.to == "" {
		return
	}

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()

		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), completionEmailTimeout)
		defer cancel()

		err := f.mailer.SendGoalCompletedEmail(mailCtx, f.to, goal)
		if err != nil {
			slog.Error("failed to send goal completed email", "error", err, "goal_id", goal.ID)
		}
	}()
}

// Wait blocks until pending completion emails are done.
func (f *Feedback) Wait() {
	f.wg.Wait()
}
