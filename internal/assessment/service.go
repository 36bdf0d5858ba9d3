package assessment

import (
	"context"
	"log/slog"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/events"
	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/scorer"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

// Store is the slice of the persistence gateway the service needs.
// RecordResponse must reject a duplicate (assessment, question) with
// AlreadyAnswered; CompleteAssessment must reject an already completed
// assessment with AssessmentClosed.
type Store interface {
	CreateAssessment(ctx context.Context, a *Assessment) error
	Assessment(ctx context.Context, id string) (*Assessment, error)
	RecordResponse(ctx context.Context, r *Response) error
	Responses(ctx context.Context, assessmentID string) ([]Response, error)
	CompleteAssessment(ctx context.Context, a *Assessment) error
	AssessmentsByStudent(ctx context.Context, studentID string) ([]Assessment, error)
}

// AnswerRecorder advances a student's skill state from a scored
// response. Satisfied by *mastery.Tracker.
type AnswerRecorder interface {
	RecordAnswer(ctx context.Context, in mastery.ScoredAnswer) (*mastery.State, error)
}

// Service drives the assessment lifecycle.
type Service struct {
	graph   *skillgraph.Graph
	bank    *questionbank.Bank
	store   Store
	tracker AnswerRecorder
	bus     *events.Bus
	logger  *slog.Logger
	rng     *rand.Rand // nil uses the process-wide source; tests seed it
	now     func() time.Time
}

// NewService wires the assessment service. A nil bus disables event
// emission; a nil rng uses the process-wide source.
func NewService(graph *skillgraph.Graph, bank *questionbank.Bank, store Store, tracker AnswerRecorder, bus *events.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		graph:   graph,
		bank:    bank,
		store:   store,
		tracker: tracker,
		bus:     bus,
		logger:  logger,
		now:     time.Now,
	}
}

// WithRand sets a seeded random source for reproducible sampling.
func (s *Service) WithRand(rng *rand.Rand) *Service {
	s.rng = rng
	return s
}

// CreateInput is the start_assessment request.
type CreateInput struct {
	StudentID string
	Kind      string
	Grade     int    // required for diagnostic and unit_test
	SkillID   string // required for skill_check
}

// Created is the start_assessment response: the running assessment and
// its questions with expected answers suppressed.
type Created struct {
	Assessment *Assessment             `json:"assessment"`
	Questions  []questionbank.Question `json:"questions"`
}

// Create starts an assessment, fixing its question set.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Created, error) {
	kind, err := ParseKind(in.Kind)
	if err != nil {
		return nil, err
	}
	if in.StudentID == "" {
		return nil, apperr.E(apperr.KindBadArgument, "student is required")
	}

	grade := in.Grade
	var questions []questionbank.Question
	switch kind {
	case KindDiagnostic:
		if grade <= 0 {
			return nil, apperr.E(apperr.KindBadArgument, "grade is required for a diagnostic")
		}
		questions = s.bank.SampleBracket(grade, skillgraph.DefaultBracketWidth, 0, s.rng)
	case KindUnitTest:
		if grade <= 0 {
			return nil, apperr.E(apperr.KindBadArgument, "grade is required for a unit test")
		}
		questions = questionbank.Sample(s.bank.ByGrade(grade), UnitTestSize, s.rng)
	case KindSkillCheck:
		skill, err := s.graph.Get(in.SkillID)
		if err != nil {
			return nil, apperr.E(apperr.KindNotFound, "unknown skill %q", in.SkillID)
		}
		grade = skill.Grade
		questions = s.bank.BySkill(in.SkillID)
	}
	if len(questions) == 0 {
		return nil, apperr.E(apperr.KindEmptyBank, "no questions available for %s at grade %d", kind, grade)
	}

	a := &Assessment{
		ID:             uuid.NewString(),
		StudentID:      in.StudentID,
		Kind:           kind,
		Grade:          grade,
		StartedAt:      s.now(),
		TotalQuestions: len(questions),
	}
	for _, q := range questions {
		a.QuestionIDs = append(a.QuestionIDs, q.ID)
	}

	if err := s.store.CreateAssessment(ctx, a); err != nil {
		return nil, err
	}

	return &Created{Assessment: a, Questions: redact(questions)}, nil
}

// redact clears the fields a running assessment must not reveal.
func redact(questions []questionbank.Question) []questionbank.Question {
	out := make([]questionbank.Question, len(questions))
	for i, q := range questions {
		q.Answer = ""
		q.Explanation = ""
		out[i] = q
	}
	return out
}

// SubmitInput is the submit_response request.
type SubmitInput struct {
	StudentID     string
	AssessmentID  string
	QuestionID    string
	Answer        string
	TimeSpentSecs int
}

// Submitted is the submit_response response. The expected answer and
// explanation are revealed once the response is recorded.
type Submitted struct {
	Response       *Response `json:"response"`
	IsCorrect      bool      `json:"is_correct"`
	ExpectedAnswer string    `json:"expected_answer"`
	Explanation    string    `json:"explanation,omitempty"`
}

// Submit scores and records one response, then forwards the scored
// answer to the mastery tracker so the student's skill state advances.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*Submitted, error) {
	if in.TimeSpentSecs < 0 {
		return nil, apperr.E(apperr.KindBadArgument, "time_spent must be non-negative")
	}

	a, err := s.load(ctx, in.StudentID, in.AssessmentID)
	if err != nil {
		return nil, err
	}
	if a.Completed() {
		return nil, apperr.E(apperr.KindAssessmentClosed, "assessment %s is completed", a.ID)
	}
	if !a.Contains(in.QuestionID) {
		return nil, apperr.E(apperr.KindNotInAssessment, "question %s is not part of assessment %s", in.QuestionID, a.ID)
	}
	q, ok := s.bank.Get(in.QuestionID)
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "question not found: %q", in.QuestionID)
	}

	correct, err := scorer.Score(q, in.Answer)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		ID:            uuid.NewString(),
		AssessmentID:  a.ID,
		QuestionID:    q.ID,
		Submitted:     in.Answer,
		IsCorrect:     correct,
		TimeSpentSecs: in.TimeSpentSecs,
		CreatedAt:     s.now(),
	}
	if err := s.store.RecordResponse(ctx, resp); err != nil {
		return nil, err
	}

	// The response is durable at this point; a tracker failure must not
	// fail the submission, only the skill-state advance.
	_, err = s.tracker.RecordAnswer(ctx, mastery.ScoredAnswer{
		StudentID:  in.StudentID,
		SkillID:    q.SkillID,
		QuestionID: q.ID,
		IsCorrect:  correct,
		Difficulty: q.Difficulty,
		At:         resp.CreatedAt,
	})
	if err != nil {
		s.logger.Error("mastery update failed after response recorded",
			"assessment", a.ID, "question", q.ID, "err", err)
	}

	return &Submitted{
		Response:       resp,
		IsCorrect:      correct,
		ExpectedAnswer: q.Answer,
		Explanation:    q.Explanation,
	}, nil
}

// Completion is the complete_assessment response.
type Completion struct {
	Assessment *Assessment `json:"assessment"`
	Gaps       []SkillGap  `json:"gaps"`
}

// Complete transitions a running assessment to completed, computes
// score = correct_count / total_questions, derives the skill-gap list,
// and emits AssessmentCompleted.
func (s *Service) Complete(ctx context.Context, studentID, assessmentID string) (*Completion, error) {
	a, err := s.load(ctx, studentID, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.Completed() {
		return nil, apperr.E(apperr.KindAssessmentClosed, "assessment %s is already completed", a.ID)
	}

	responses, err := s.store.Responses(ctx, a.ID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	a.CompletedAt = &now
	a.Score = float64(a.CorrectCount) / float64(a.TotalQuestions)
	if err := s.store.CompleteAssessment(ctx, a); err != nil {
		return nil, err
	}

	gaps := s.gapList(responses)

	if s.bus != nil {
		gapIDs := make([]string, 0, len(gaps))
		for _, g := range gaps {
			gapIDs = append(gapIDs, g.SkillID)
		}
		s.bus.Publish(ctx, events.AssessmentCompleted{
			Meta_:          events.NewMeta(a.StudentID, now),
			AssessmentID:   a.ID,
			AssessmentKind: string(a.Kind),
			Grade:          a.Grade,
			Total:          a.TotalQuestions,
			Correct:        a.CorrectCount,
			Score:          a.Score,
			GapSkills:      gapIDs,
		})
	}

	return &Completion{Assessment: a, Gaps: gaps}, nil
}

// gapList computes per-skill accuracy over the answered responses and
// returns skills below GapThreshold, ordered by ascending accuracy.
func (s *Service) gapList(responses []Response) []SkillGap {
	type tally struct {
		answered int
		correct  int
	}
	bySkill := make(map[string]*tally)
	var order []string
	for _, r := range responses {
		q, ok := s.bank.Get(r.QuestionID)
		if !ok {
			continue
		}
		t := bySkill[q.SkillID]
		if t == nil {
			t = &tally{}
			bySkill[q.SkillID] = t
			order = append(order, q.SkillID)
		}
		t.answered++
		if r.IsCorrect {
			t.correct++
		}
	}

	var gaps []SkillGap
	for _, skillID := range order {
		t := bySkill[skillID]
		accuracy := float64(t.correct) / float64(t.answered)
		if accuracy < GapThreshold {
			gaps = append(gaps, SkillGap{
				SkillID:  skillID,
				Accuracy: accuracy,
				Answered: t.answered,
				Correct:  t.correct,
			})
		}
	}
	sort.SliceStable(gaps, func(i, j int) bool { return gaps[i].Accuracy < gaps[j].Accuracy })
	return gaps
}

// History returns the student's assessments, oldest first.
func (s *Service) History(ctx context.Context, studentID string) ([]Assessment, error) {
	return s.store.AssessmentsByStudent(ctx, studentID)
}

// Detail is the get_assessment response: the assessment, its recorded
// responses, and the full questions including correct answers.
type Detail struct {
	Assessment *Assessment             `json:"assessment"`
	Responses  []Response              `json:"responses"`
	Questions  []questionbank.Question `json:"questions"`
}

// Get returns one assessment with responses and unredacted questions.
func (s *Service) Get(ctx context.Context, studentID, assessmentID string) (*Detail, error) {
	a, err := s.load(ctx, studentID, assessmentID)
	if err != nil {
		return nil, err
	}
	responses, err := s.store.Responses(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	questions := make([]questionbank.Question, 0, len(a.QuestionIDs))
	for _, id := range a.QuestionIDs {
		if q, ok := s.bank.Get(id); ok {
			questions = append(questions, q)
		}
	}
	return &Detail{Assessment: a, Responses: responses, Questions: questions}, nil
}

// load fetches an assessment and verifies ownership.
func (s *Service) load(ctx context.Context, studentID, assessmentID string) (*Assessment, error) {
	a, err := s.store.Assessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	if a.StudentID != studentID {
		return nil, apperr.E(apperr.KindUnauthorized, "assessment %s does not belong to student %s", assessmentID, studentID)
	}
	return a, nil
}
