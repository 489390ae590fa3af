package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/templui/tutordesk/internal/model"
)

// Entry keys under the application namespace.
const (
	KeyGoals          = "goals"
	KeyCompletedGoals = "completedGoals"
	KeySoundEnabled   = "soundEnabled"
)

var stateKeys = []string{KeyGoals, KeyCompletedGoals, KeySoundEnabled}

var (
	ErrStateNotFound = errors.New("goal state not found")
)

// StateRepository persists the whole goal board as three named entries.
type StateRepository interface {
	Load(ctx context.Context) (*model.GoalState, error)
	Save(ctx context.Context, state *model.GoalState) error
	// Clear removes every entry of the namespace. Clearing an empty namespace is not an error.
	Clear(ctx context.Context) error
}

// encodeState renders each entry as its own JSON document.
func encodeState(state *model.GoalState) (map[string][]byte, error) {
	goals := state.Goals
	if goals == nil {
		goals = []*model.Goal{}
	}
	completed := state.CompletedGoals
	if completed == nil {
		completed = []*model.Goal{}
	}

	entries := make(map[string][]byte, len(stateKeys))
	values := map[string]any{
		KeyGoals:          goals,
		KeyCompletedGoals: completed,
		KeySoundEnabled:   state.SoundEnabled,
	}
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		entries[key] = raw
	}
	return entries, nil
}

// decodeState rebuilds the state from raw entries. Missing entries keep their
// default; malformed entries are logged and also fall back to the default.
// ErrStateNotFound is returned only when no entry exists at all.
func decodeState(entries map[string][]byte) (*model.GoalState, error) {
	state := model.NewGoalState()
	if len(entries) == 0 {
		return state, ErrStateNotFound
	}

	if raw, ok := entries[KeyGoals]; ok {
		var goals []*model.Goal
		if err := json.Unmarshal(raw, &goals); err != nil {
			slog.Warn("discarding malformed goal entry", "key", KeyGoals, "error", err)
		} else {
			state.Goals = compact(goals)
		}
	}

	if raw, ok := entries[KeyCompletedGoals]; ok {
		var goals []*model.Goal
		if err := json.Unmarshal(raw, &goals); err != nil {
			slog.Warn("discarding malformed goal entry", "key", KeyCompletedGoals, "error", err)
		} else {
			state.CompletedGoals = compact(goals)
		}
	}

	if raw, ok := entries[KeySoundEnabled]; ok {
		var enabled bool
		if err := json.Unmarshal(raw, &enabled); err != nil {
			slog.Warn("discarding malformed goal entry", "key", KeySoundEnabled, "error", err)
		} else {
			state.SoundEnabled = enabled
		}
	}

	return state, nil
}

// compact drops null list items.
func compact(goals []*model.Goal) []*model.Goal {
	out := make([]*model.Goal, 0, len(goals))
	for _, g := range goals {
		if g != nil {
			out = append(out, g)
		}
	}
	return out
}
