package ctxkeys

import (
	"context"

	"github.com/templui/tutordesk/internal/config"
	"github.com/templui/tutordesk/internal/model"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	URLPathKey      contextKey = "url_path"
	ConfigKey       contextKey = "config"
	FeedbackKey     contextKey = "feedback"
	TokenSubjectKey contextKey = "token_subject"
)

func URLPath(ctx context.Context) string {
	path, _ := ctx.Value(URLPathKey).(string)
	return path
}

func WithURLPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, URLPathKey, path)
}

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

// Feedback returns the request's feedback recorder, or nil outside a request.
func Feedback(ctx context.Context) *model.FeedbackRecorder {
	rec, _ := ctx.Value(FeedbackKey).(*model.FeedbackRecorder)
	return rec
}

func WithFeedback(ctx context.Context, rec *model.FeedbackRecorder) context.Context {
	return context.WithValue(ctx, FeedbackKey, rec)
}

// TokenSubject is the subject of the verified API token, if any.
func TokenSubject(ctx context.Context) string {
	sub, _ := ctx.Value(TokenSubjectKey).(string)
	return sub
}

func WithTokenSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, TokenSubjectKey, subject)
}
