package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/templui/tutordesk/internal/ctxkeys"
	"github.com/templui/tutordesk/internal/model"
)

// TriggerHeader carries client-side events, HTMX style.
const TriggerHeader = "HX-Trigger"

type celebration struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// feedbackWriter sets the trigger header right before the response starts.
type feedbackWriter struct {
	http.ResponseWriter
	rec     *model.FeedbackRecorder
	flushed bool
}

func (fw *feedbackWriter) WriteHeader(code int) {
	fw.setTrigger()
	fw.ResponseWriter.WriteHeader(code)
}

func (fw *feedbackWriter) Write(b []byte) (int, error) {
	fw.setTrigger()
	return fw.ResponseWriter.Write(b)
}

func (fw *feedbackWriter) setTrigger() {
	if fw.flushed {
		return
	}
	fw.flushed = true

	if fw.rec.Empty() {
		return
	}

	events := map[string]any{}
	if notices := fw.rec.Notices(); len(notices) > 0 {
		events["notice"] = notices
	}
	if cues := fw.rec.Cues(); len(cues) > 0 {
		events["playCue"] = cues
	}
	if goals := fw.rec.Celebrations(); len(goals) > 0 {
		list := make([]celebration, 0, len(goals))
		for _, g := range goals {
			list = append(list, celebration{ID: g.ID, Title: g.Title})
		}
		events["celebrate"] = list
	}

	raw, err := json.Marshal(events)
	if err != nil {
		slog.Error("failed to encode feedback events", "error", err)
		return
	}
	fw.Header().Set(TriggerHeader, string(raw))
}

// Feedback collects notices, cues and celebrations raised while handling the
// request and sends them to the browser in the HX-Trigger header.
func Feedback(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &model.FeedbackRecorder{}
		fw := &feedbackWriter{ResponseWriter: w, rec: rec}

		ctx := ctxkeys.WithFeedback(r.Context(), rec)
		next.ServeHTTP(fw, r.WithContext(ctx))

		// Handler wrote nothing; net/http still sends headers after we return
		fw.setTrigger()
	})
}
