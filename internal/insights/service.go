// Package insights derives advisory outputs from accumulated mastery
// state: next-skill recommendations, skill-gap analysis, at-risk
// classification, and performance forecasts. It never mutates state.
package insights

import (
	"context"
	"log/slog"
	"time"

	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

// Store is the read-only slice of the persistence gateway the engine
// consumes.
type Store interface {
	StatesByStudent(ctx context.Context, studentID string) ([]mastery.State, error)
	AttemptsSince(ctx context.Context, studentID string, since time.Time) ([]mastery.Attempt, error)
	LastAttemptAt(ctx context.Context, studentID string) (time.Time, error)
}

// AssignmentSource is an optional collaborator supplying overdue
// assignment counts for the at-risk score.
type AssignmentSource interface {
	OverdueAssignments(ctx context.Context, studentID string) (int, error)
}

// Engine computes the advisory outputs.
type Engine struct {
	graph       *skillgraph.Graph
	store       Store
	assignments AssignmentSource // may be nil
	logger      *slog.Logger
	now         func() time.Time
}

// NewEngine wires the engine. assignments may be nil when no assignment
// collaborator is deployed.
func NewEngine(graph *skillgraph.Graph, store Store, assignments AssignmentSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		graph:       graph,
		store:       store,
		assignments: assignments,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary aggregates a student's practice across all skills.
type Summary struct {
	StudentID      string     `json:"student_id"`
	SkillsStarted  int        `json:"skills_started"`
	SkillsMastered int        `json:"skills_mastered"`
	TotalAttempts  int        `json:"total_attempts"`
	TotalCorrect   int        `json:"total_correct"`
	Accuracy       float64    `json:"accuracy"`
	LastPracticed  *time.Time `json:"last_practiced,omitempty"`
}

// Summarize computes the practice summary for one student.
func (e *Engine) Summarize(ctx context.Context, studentID string) (*Summary, error) {
	states, err := e.store.StatesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	s := &Summary{StudentID: studentID}
	var last time.Time
	for _, st := range states {
		s.SkillsStarted++
		if st.MasteryAchieved {
			s.SkillsMastered++
		}
		s.TotalAttempts += st.Attempts
		s.TotalCorrect += st.CorrectCount
		if st.LastPracticed.After(last) {
			last = st.LastPracticed
		}
	}
	if s.TotalAttempts > 0 {
		s.Accuracy = float64(s.TotalCorrect) / float64(s.TotalAttempts)
	}
	if !last.IsZero() {
		s.LastPracticed = &last
	}
	return s, nil
}
