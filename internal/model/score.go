package model

// Score is the persisted gamification state.
type Score struct {
	Points int
	Streak int

	// LastCompletionDate is a "2006-01-02" day string, empty if no task
	// was ever completed.
	LastCompletionDate string
}
