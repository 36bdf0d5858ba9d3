// Package events defines the core domain events and the in-process bus
// that fans them out to non-core listeners (gamification, feeds,
// notifiers).
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/brightmath/brightmath/internal/questionbank"
)

// Kind tags an event variant. Subscribers switch on the tag.
type Kind string

const (
	KindAnswerScored        Kind = "answer_scored"
	KindMasteryAchieved     Kind = "mastery_achieved"
	KindAssessmentCompleted Kind = "assessment_completed"
)

// Meta carries the fields common to every event. EventID is the
// idempotency key for at-least-once delivery.
type Meta struct {
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"ts"`
	StudentID string    `json:"student"`
}

// NewMeta stamps a fresh event identity.
func NewMeta(studentID string, now time.Time) Meta {
	return Meta{
		EventID:   uuid.NewString(),
		Timestamp: now,
		StudentID: studentID,
	}
}

// Event is the tagged union over the core event variants.
type Event interface {
	Kind() Kind
	Meta() Meta
}

// AnswerScored is emitted for every scored answer.
type AnswerScored struct {
	Meta_           Meta                    `json:"meta"`
	SkillID         string                  `json:"skill"`
	QuestionID      string                  `json:"question"`
	Difficulty      questionbank.Difficulty `json:"difficulty"`
	IsCorrect       bool                    `json:"is_correct"`
	RollingAccuracy float64                 `json:"rolling_accuracy"`
	Attempts        int                     `json:"attempts"`
}

func (e AnswerScored) Kind() Kind { return KindAnswerScored }
func (e AnswerScored) Meta() Meta { return e.Meta_ }

// MasteryAchieved is emitted once when a (student, skill) latches
// mastery.
type MasteryAchieved struct {
	Meta_     Meta    `json:"meta"`
	SkillID   string  `json:"skill"`
	Threshold float64 `json:"threshold"`
	Attempts  int     `json:"attempts"`
}

func (e MasteryAchieved) Kind() Kind { return KindMasteryAchieved }
func (e MasteryAchieved) Meta() Meta { return e.Meta_ }

// AssessmentCompleted is emitted when an assessment transitions to
// completed.
type AssessmentCompleted struct {
	Meta_          Meta     `json:"meta"`
	AssessmentID   string   `json:"assessment"`
	AssessmentKind string   `json:"kind"`
	Grade          int      `json:"grade"`
	Total          int      `json:"total"`
	Correct        int      `json:"correct"`
	Score          float64  `json:"score"`
	GapSkills      []string `json:"gap_skills"`
}

func (e AssessmentCompleted) Kind() Kind { return KindAssessmentCompleted }
func (e AssessmentCompleted) Meta() Meta { return e.Meta_ }
