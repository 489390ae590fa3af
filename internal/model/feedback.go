package model

import "sync"

type NoticeSeverity string

const (
	NoticeSuccess NoticeSeverity = "success"
	NoticeInfo    NoticeSeverity = "info"
	NoticeWarning NoticeSeverity = "warning"
	NoticeError   NoticeSeverity = "error"
)

// Notice is a transient, non-blocking message shown to the student.
type Notice struct {
	Message  string         `json:"message"`
	Severity NoticeSeverity `json:"severity"`
}

// Cue identifies an audio cue the client may play.
type Cue string

const (
	CueProgress Cue = "progress"
	CueComplete Cue = "complete"
)

// FeedbackRecorder collects the feedback produced while serving one request.
type FeedbackRecorder struct {
	mu           sync.Mutex
	notices      []Notice
	cues         []Cue
	celebrations []*Goal
}

func (r *FeedbackRecorder) AddNotice(n Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *FeedbackRecorder) AddCue(c Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, c)
}

func (r *FeedbackRecorder) AddCelebration(g *Goal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.celebrations = append(r.celebrations, g.Clone())
}

func (r *FeedbackRecorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

func (r *FeedbackRecorder) Cues() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

func (r *FeedbackRecorder) Celebrations() []*Goal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return CloneGoals(r.celebrations)
}

func (r *FeedbackRecorder) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notices) == 0 && len(r.cues) == 0 && len(r.celebrations) == 0
}
