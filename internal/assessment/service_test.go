package assessment

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/events"
	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

func testGraph(t *testing.T) *skillgraph.Graph {
	t.Helper()
	g, err := skillgraph.Load([]skillgraph.Skill{
		{ID: "counting", Name: "Counting", Grade: 3, Subject: skillgraph.SubjectNumberPlace},
		{ID: "addition", Name: "Addition", Grade: 4, Subject: skillgraph.SubjectAddSub, Prerequisites: []string{"counting"}},
		{ID: "fractions", Name: "Fractions", Grade: 5, Subject: skillgraph.SubjectFractions, Prerequisites: []string{"addition"}},
	})
	require.NoError(t, err)
	return g
}

// testBank seeds five questions per skill so diagnostics and unit tests
// have enough to sample from. Answers are the question index as text.
func testBank() *questionbank.Bank {
	skills := []struct {
		id    string
		grade int
	}{
		{"counting", 3},
		{"addition", 4},
		{"fractions", 5},
	}
	var qs []questionbank.Question
	for _, s := range skills {
		for i := 0; i < 5; i++ {
			qs = append(qs, questionbank.Question{
				ID:          fmt.Sprintf("%s-q%d", s.id, i),
				SkillID:     s.id,
				Grade:       s.grade,
				Difficulty:  questionbank.DifficultyMedium,
				Prompt:      fmt.Sprintf("Question %d for %s", i, s.id),
				Answer:      fmt.Sprintf("%d", i),
				Explanation: "because",
			})
		}
	}
	return questionbank.New(qs)
}

type memStore struct {
	assessments map[string]*Assessment
	responses   map[string][]Response
	answered    map[string]bool // assessmentID + "/" + questionID
}

func newMemStore() *memStore {
	return &memStore{
		assessments: make(map[string]*Assessment),
		responses:   make(map[string][]Response),
		answered:    make(map[string]bool),
	}
}

func (m *memStore) CreateAssessment(_ context.Context, a *Assessment) error {
	copied := *a
	m.assessments[a.ID] = &copied
	return nil
}

func (m *memStore) Assessment(_ context.Context, id string) (*Assessment, error) {
	a, ok := m.assessments[id]
	if !ok {
		return nil, apperr.E(apperr.KindNotFound, "assessment not found: %q", id)
	}
	copied := *a
	return &copied, nil
}

func (m *memStore) RecordResponse(_ context.Context, r *Response) error {
	key := r.AssessmentID + "/" + r.QuestionID
	if m.answered[key] {
		return apperr.E(apperr.KindAlreadyAnswered, "question %s already answered", r.QuestionID)
	}
	m.answered[key] = true
	m.responses[r.AssessmentID] = append(m.responses[r.AssessmentID], *r)
	if r.IsCorrect {
		m.assessments[r.AssessmentID].CorrectCount++
	}
	return nil
}

func (m *memStore) Responses(_ context.Context, assessmentID string) ([]Response, error) {
	return m.responses[assessmentID], nil
}

func (m *memStore) CompleteAssessment(_ context.Context, a *Assessment) error {
	stored := m.assessments[a.ID]
	if stored.CompletedAt != nil {
		return apperr.E(apperr.KindAssessmentClosed, "assessment %s is already completed", a.ID)
	}
	stored.CompletedAt = a.CompletedAt
	stored.Score = a.Score
	return nil
}

func (m *memStore) AssessmentsByStudent(_ context.Context, studentID string) ([]Assessment, error) {
	var out []Assessment
	for _, a := range m.assessments {
		if a.StudentID == studentID {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fakeTracker struct {
	answers []mastery.ScoredAnswer
	err     error
}

func (f *fakeTracker) RecordAnswer(_ context.Context, in mastery.ScoredAnswer) (*mastery.State, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.answers = append(f.answers, in)
	return &mastery.State{StudentID: in.StudentID, SkillID: in.SkillID}, nil
}

func newTestService(t *testing.T, store Store, tracker AnswerRecorder, bus *events.Bus) *Service {
	t.Helper()
	svc := NewService(testGraph(t), testBank(), store, tracker, bus, slog.Default())
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc.WithRand(rand.New(rand.NewSource(42)))
}

func TestCreate_DiagnosticSamplesBracketAndRedacts(t *testing.T) {
	svc := newTestService(t, newMemStore(), &fakeTracker{}, nil)

	created, err := svc.Create(context.Background(), CreateInput{
		StudentID: "s1", Kind: "diagnostic", Grade: 5,
	})
	require.NoError(t, err)

	a := created.Assessment
	assert.Equal(t, KindDiagnostic, a.Kind)
	assert.Equal(t, 5, a.Grade)
	// 4 sampled per grade over grades 3..5 gives 12, trimmed to 10.
	assert.Equal(t, 10, a.TotalQuestions)
	assert.Len(t, created.Questions, 10)

	for _, q := range created.Questions {
		assert.Empty(t, q.Answer, "answers must be redacted at creation")
		assert.Empty(t, q.Explanation, "explanations must be redacted at creation")
	}
}

func TestCreate_DiagnosticIsReproducibleWithSeed(t *testing.T) {
	a, err := newTestService(t, newMemStore(), &fakeTracker{}, nil).
		Create(context.Background(), CreateInput{StudentID: "s1", Kind: "diagnostic", Grade: 5})
	require.NoError(t, err)
	b, err := newTestService(t, newMemStore(), &fakeTracker{}, nil).
		Create(context.Background(), CreateInput{StudentID: "s1", Kind: "diagnostic", Grade: 5})
	require.NoError(t, err)

	assert.Equal(t, a.Assessment.QuestionIDs, b.Assessment.QuestionIDs)
}

func TestCreate_UnitTestSampledToSize(t *testing.T) {
	svc := newTestService(t, newMemStore(), &fakeTracker{}, nil)

	// Grade 4 has only five questions, fewer than the unit-test size.
	created, err := svc.Create(context.Background(), CreateInput{
		StudentID: "s1", Kind: "unit_test", Grade: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Assessment.TotalQuestions)
}

func TestCreate_SkillCheckUsesSkillGrade(t *testing.T) {
	svc := newTestService(t, newMemStore(), &fakeTracker{}, nil)

	created, err := svc.Create(context.Background(), CreateInput{
		StudentID: "s1", Kind: "skill_check", SkillID: "fractions",
	})
	require.NoError(t, err)
	assert.Equal(t, 5, created.Assessment.Grade)
	for _, id := range created.Assessment.QuestionIDs {
		assert.Contains(t, id, "fractions-")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := newTestService(t, newMemStore(), &fakeTracker{}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "pop_quiz", Grade: 4})
	assert.True(t, apperr.Is(err, apperr.KindBadKind))

	_, err = svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "diagnostic"})
	assert.True(t, apperr.Is(err, apperr.KindBadArgument))

	_, err = svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "skill_check", SkillID: "calculus"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "unit_test", Grade: 9})
	assert.True(t, apperr.Is(err, apperr.KindEmptyBank))
}

func TestSubmit_ScoresAndForwardsToTracker(t *testing.T) {
	store := newMemStore()
	tracker := &fakeTracker{}
	svc := newTestService(t, store, tracker, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "skill_check", SkillID: "addition"})
	require.NoError(t, err)

	sub, err := svc.Submit(ctx, SubmitInput{
		StudentID:     "s1",
		AssessmentID:  created.Assessment.ID,
		QuestionID:    "addition-q2",
		Answer:        " 2. ",
		TimeSpentSecs: 14,
	})
	require.NoError(t, err)

	assert.True(t, sub.IsCorrect, "canonicalized answer should match")
	assert.Equal(t, "2", sub.ExpectedAnswer)
	assert.Equal(t, "because", sub.Explanation)

	require.Len(t, tracker.answers, 1)
	assert.Equal(t, "addition", tracker.answers[0].SkillID)
	assert.True(t, tracker.answers[0].IsCorrect)
}

func TestSubmit_Guards(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, &fakeTracker{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "skill_check", SkillID: "addition"})
	require.NoError(t, err)
	id := created.Assessment.ID

	_, err = svc.Submit(ctx, SubmitInput{StudentID: "s2", AssessmentID: id, QuestionID: "addition-q0", Answer: "0"})
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))

	_, err = svc.Submit(ctx, SubmitInput{StudentID: "s1", AssessmentID: id, QuestionID: "counting-q0", Answer: "0"})
	assert.True(t, apperr.Is(err, apperr.KindNotInAssessment))

	_, err = svc.Submit(ctx, SubmitInput{StudentID: "s1", AssessmentID: id, QuestionID: "addition-q0", Answer: "0", TimeSpentSecs: -1})
	assert.True(t, apperr.Is(err, apperr.KindBadArgument))

	_, err = svc.Submit(ctx, SubmitInput{StudentID: "s1", AssessmentID: id, QuestionID: "addition-q0", Answer: "   "})
	assert.True(t, apperr.Is(err, apperr.KindInvalidAnswer))

	_, err = svc.Submit(ctx, SubmitInput{StudentID: "s1", AssessmentID: id, QuestionID: "addition-q0", Answer: "0"})
	require.NoError(t, err)
	_, err = svc.Submit(ctx, SubmitInput{StudentID: "s1", AssessmentID: id, QuestionID: "addition-q0", Answer: "0"})
	assert.True(t, apperr.Is(err, apperr.KindAlreadyAnswered))
}

func TestSubmit_TrackerFailureDoesNotFailSubmission(t *testing.T) {
	store := newMemStore()
	tracker := &fakeTracker{err: fmt.Errorf("store offline")}
	svc := newTestService(t, store, tracker, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "skill_check", SkillID: "addition"})
	require.NoError(t, err)

	sub, err := svc.Submit(ctx, SubmitInput{
		StudentID: "s1", AssessmentID: created.Assessment.ID, QuestionID: "addition-q1", Answer: "1",
	})
	require.NoError(t, err, "a recorded response must survive a tracker failure")
	assert.True(t, sub.IsCorrect)
	assert.Len(t, store.responses[created.Assessment.ID], 1)
}

func TestComplete_ScoresOverAllQuestions(t *testing.T) {
	store := newMemStore()
	bus := events.NewBus(nil)
	var completedEvents []events.AssessmentCompleted
	bus.Subscribe(func(_ context.Context, e events.Event) {
		if ev, ok := e.(events.AssessmentCompleted); ok {
			completedEvents = append(completedEvents, ev)
		}
	})
	svc := newTestService(t, store, &fakeTracker{}, bus)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "unit_test", Grade: 4})
	require.NoError(t, err)
	require.Equal(t, 5, created.Assessment.TotalQuestions)

	// Answer three of five: one correct, two wrong. Unanswered
	// questions still count against the score.
	answers := map[string]string{
		"addition-q0": "0",     // correct
		"addition-q1": "wrong", // incorrect
		"addition-q2": "wrong", // incorrect
	}
	for qid, ans := range answers {
		_, err := svc.Submit(ctx, SubmitInput{
			StudentID: "s1", AssessmentID: created.Assessment.ID, QuestionID: qid, Answer: ans,
		})
		require.NoError(t, err)
	}

	completion, err := svc.Complete(ctx, "s1", created.Assessment.ID)
	require.NoError(t, err)

	assert.InDelta(t, 0.2, completion.Assessment.Score, 1e-9)
	require.NotNil(t, completion.Assessment.CompletedAt)

	// One answered skill at 1/3 accuracy, below the gap threshold.
	require.Len(t, completion.Gaps, 1)
	assert.Equal(t, "addition", completion.Gaps[0].SkillID)
	assert.InDelta(t, 1.0/3.0, completion.Gaps[0].Accuracy, 1e-9)

	require.Len(t, completedEvents, 1)
	assert.Equal(t, created.Assessment.ID, completedEvents[0].AssessmentID)
	assert.InDelta(t, 0.2, completedEvents[0].Score, 1e-9)
	assert.Equal(t, []string{"addition"}, completedEvents[0].GapSkills)
}

func TestComplete_TransitionsExactlyOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, &fakeTracker{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "skill_check", SkillID: "counting"})
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "s1", created.Assessment.ID)
	require.NoError(t, err)

	_, err = svc.Complete(ctx, "s1", created.Assessment.ID)
	assert.True(t, apperr.Is(err, apperr.KindAssessmentClosed))

	_, err = svc.Submit(ctx, SubmitInput{
		StudentID: "s1", AssessmentID: created.Assessment.ID, QuestionID: "counting-q0", Answer: "0",
	})
	assert.True(t, apperr.Is(err, apperr.KindAssessmentClosed))
}

func TestGet_RevealsAnswers(t *testing.T) {
	store := newMemStore()
	svc := newTestService(t, store, &fakeTracker{}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateInput{StudentID: "s1", Kind: "skill_check", SkillID: "counting"})
	require.NoError(t, err)

	detail, err := svc.Get(ctx, "s1", created.Assessment.ID)
	require.NoError(t, err)
	require.Len(t, detail.Questions, 5)
	for _, q := range detail.Questions {
		assert.NotEmpty(t, q.Answer, "get_assessment returns unredacted questions")
	}

	_, err = svc.Get(ctx, "s2", created.Assessment.ID)
	assert.True(t, apperr.Is(err, apperr.KindUnauthorized))
}
