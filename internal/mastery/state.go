// Package mastery tracks per-(student, skill) learning state and applies
// the mastery state machine on every scored answer.
package mastery

import (
	"time"

	"github.com/brightmath/brightmath/internal/questionbank"
)

// Tracker tuning constants.
const (
	// WindowSize is the rolling accuracy window K.
	WindowSize = 20
	// MinSamples is the minimum window fill before mastery can latch.
	MinSamples = 10
	// MasteryStreak is the consecutive-correct run required to latch.
	MasteryStreak = 3
)

// Status reflects where a (student, skill) pair sits in its lifecycle.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusMastered   Status = "mastered"
)

// State is the per-(student, skill) record, created lazily on the first
// answer for the pair. Version backs the gateway's optimistic
// concurrency check.
type State struct {
	StudentID            string                  `db:"student_id" json:"student_id"`
	SkillID              string                  `db:"skill_id" json:"skill_id"`
	Attempts             int                     `db:"attempts" json:"attempts"`
	CorrectCount         int                     `db:"correct_count" json:"correct_count"`
	RollingAccuracy      float64                 `db:"rolling_accuracy" json:"rolling_accuracy"`
	CurrentDifficulty    questionbank.Difficulty `db:"current_difficulty" json:"current_difficulty"`
	ConsecutiveCorrect   int                     `db:"consecutive_correct" json:"consecutive_correct"`
	ConsecutiveIncorrect int                     `db:"consecutive_incorrect" json:"consecutive_incorrect"`
	LastPracticed        time.Time               `db:"last_practiced" json:"last_practiced"`
	MasteryAchieved      bool                    `db:"mastery_achieved" json:"mastery_achieved"`
	MasteryAchievedAt    *time.Time              `db:"mastery_achieved_at" json:"mastery_achieved_at,omitempty"`
	Status               Status                  `db:"status" json:"status"`
	Version              int64                   `db:"version" json:"-"`
}

// Attempt is one entry of the append-only attempt log. The last
// WindowSize attempts for a pair form the rolling window.
type Attempt struct {
	StudentID  string                  `db:"student_id" json:"student_id"`
	SkillID    string                  `db:"skill_id" json:"skill_id"`
	QuestionID string                  `db:"question_id" json:"question_id"`
	Correct    bool                    `db:"correct" json:"correct"`
	Difficulty questionbank.Difficulty `db:"difficulty" json:"difficulty"`
	At         time.Time               `db:"created_at" json:"at"`
}
