package model

const DefaultSoundEnabled = true

// GoalState is everything the goal board persists: the active list,
// the completed list and the sound preference.
type GoalState struct {
	Goals          []*Goal `json:"goals"`
	CompletedGoals []*Goal `json:"completedGoals"`
	SoundEnabled   bool    `json:"soundEnabled"`
}

func NewGoalState() *GoalState {
	return &GoalState{
		Goals:          []*Goal{},
		CompletedGoals: []*Goal{},
		SoundEnabled:   DefaultSoundEnabled,
	}
}

func (s *GoalState) Clone() *GoalState {
	return &GoalState{
		Goals:          CloneGoals(s.Goals),
		CompletedGoals: CloneGoals(s.CompletedGoals),
		SoundEnabled:   s.SoundEnabled,
	}
}
