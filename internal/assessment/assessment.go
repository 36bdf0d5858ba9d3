// Package assessment manages diagnostic, unit-test, and skill-check
// assessments: question sampling at creation, response recording while
// running, and skill-gap analysis at completion.
package assessment

import (
	"time"

	"github.com/brightmath/brightmath/internal/apperr"
)

// Kind selects an assessment's sampling policy.
type Kind string

const (
	KindDiagnostic Kind = "diagnostic"
	KindUnitTest   Kind = "unit_test"
	KindSkillCheck Kind = "skill_check"
)

// ParseKind validates a client-supplied kind string.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDiagnostic, KindUnitTest, KindSkillCheck:
		return Kind(s), nil
	}
	return "", apperr.E(apperr.KindBadKind, "unknown assessment kind %q", s)
}

// UnitTestSize is the question count a unit test is sampled down to.
const UnitTestSize = 10

// GapThreshold is the per-skill accuracy below which a skill appears in
// the completion gap list.
const GapThreshold = 0.7

// Assessment is one assessment instance. The question set is fixed at
// creation; the record transitions from running to completed exactly
// once.
type Assessment struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"student_id"`
	Kind           Kind       `json:"kind"`
	Grade          int        `json:"grade"`
	StartedAt      time.Time  `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	QuestionIDs    []string   `json:"question_ids"`
	TotalQuestions int        `json:"total_questions"`
	CorrectCount   int        `json:"correct_count"`
	// Score is correct_count / total_questions, set at completion
	// regardless of how many questions were answered.
	Score float64 `json:"score"`
}

// Completed reports whether the assessment has reached its terminal
// state.
func (a *Assessment) Completed() bool {
	return a.CompletedAt != nil
}

// Contains reports whether the question belongs to this assessment's
// fixed set.
func (a *Assessment) Contains(questionID string) bool {
	for _, id := range a.QuestionIDs {
		if id == questionID {
			return true
		}
	}
	return false
}

// Response records one submitted answer. At most one response exists
// per (assessment, question).
type Response struct {
	ID            string    `json:"id"`
	AssessmentID  string    `json:"assessment_id"`
	QuestionID    string    `json:"question_id"`
	Submitted     string    `json:"submitted"`
	IsCorrect     bool      `json:"is_correct"`
	TimeSpentSecs int       `json:"time_spent_secs"`
	CreatedAt     time.Time `json:"created_at"`
}

// SkillGap is one entry of the completion gap list: a skill whose
// accuracy across its answered responses fell below GapThreshold.
type SkillGap struct {
	SkillID  string  `json:"skill_id"`
	Accuracy float64 `json:"accuracy"`
	Answered int     `json:"answered"`
	Correct  int     `json:"correct"`
}
