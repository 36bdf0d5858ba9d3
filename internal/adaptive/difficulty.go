// Package adaptive implements the difficulty policy: tier transitions
// driven by answer streaks, and next-question selection.
package adaptive

import (
	"github.com/brightmath/brightmath/internal/questionbank"
)

// Streak thresholds for tier transitions.
const (
	PromoteStreak = 3 // consecutive correct at the current tier
	DemoteStreak  = 2 // consecutive incorrect at the current tier
)

// Decision describes the outcome of one difficulty transition.
type Decision struct {
	Difficulty questionbank.Difficulty
	// ResetCorrect / ResetIncorrect tell the caller to zero the
	// corresponding streak counter after a tier move.
	ResetCorrect   bool
	ResetIncorrect bool
}

// Transition applies the promote/demote policy after a scored answer.
// Promote on PromoteStreak consecutive correct when a harder tier
// exists; demote on DemoteStreak consecutive incorrect when an easier
// tier exists; otherwise hold.
func Transition(current questionbank.Difficulty, consecutiveCorrect, consecutiveIncorrect int) Decision {
	if consecutiveCorrect >= PromoteStreak {
		if harder, ok := current.Harder(); ok {
			return Decision{Difficulty: harder, ResetCorrect: true}
		}
	}
	if consecutiveIncorrect >= DemoteStreak {
		if easier, ok := current.Easier(); ok {
			return Decision{Difficulty: easier, ResetIncorrect: true}
		}
	}
	return Decision{Difficulty: current}
}
