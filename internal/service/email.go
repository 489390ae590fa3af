package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/templui/tutordesk/internal/model"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

func (s *EmailService) SendGoalCompletedEmail(ctx context.Context, to string, goal *model.Goal) error {
	goalURL := fmt.Sprintf("%s/api/goals/%s", s.appURL, goal.ID)
	subject, body := goalCompletedEmailTemplate(goal, goalURL, s.appName)
	return s.send(ctx, "goal_completed", to, subject, body)
}

// SendDeadlineDigest mails the overdue and soon-due goals. Nothing is sent
// when both lists are empty.
func (s *EmailService) SendDeadlineDigest(ctx context.Context, to string, overdue, dueSoon []*model.Goal) error {
	if len(overdue) == 0 && len(dueSoon) == 0 {
		return nil
	}
	subject, body := deadlineDigestEmailTemplate(overdue, dueSoon, s.appURL, s.appName)
	return s.send(ctx, "deadline_digest", to, subject, body)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string) error {
	if s.isDev {
		slog.Info("email sent (dev mode)", "type", kind, "to", to, "subject", subject)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
