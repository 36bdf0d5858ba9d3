package mastery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/brightmath/brightmath/internal/adaptive"
	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/events"
	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

// Gateway is the slice of the persistence layer the tracker needs. All
// three operations run inside the gateway's own transactions;
// ApplyMasteryUpdate must reject a state whose version no longer
// matches the stored row with a Conflict error.
type Gateway interface {
	// SkillState loads the state for a pair, or NotFound if the pair has
	// never been seen.
	SkillState(ctx context.Context, studentID, skillID string) (*State, error)
	// RecentAttempts returns up to limit attempts for the pair, newest
	// first.
	RecentAttempts(ctx context.Context, studentID, skillID string, limit int) ([]Attempt, error)
	// ApplyMasteryUpdate atomically appends the attempt and writes the
	// state, checking st.Version against the stored row. On success the
	// stored version (and st.Version) advance by one.
	ApplyMasteryUpdate(ctx context.Context, att Attempt, st *State) error
	// ResetSkillState clears the mastery latch and rolling window for a
	// pair.
	ResetSkillState(ctx context.Context, studentID, skillID string) error
}

// ScoredAnswer is the input to the tracker: one scored response for a
// (student, skill) pair. Fields beyond these are rejected at the API
// boundary rather than smuggled through.
type ScoredAnswer struct {
	StudentID  string
	SkillID    string
	QuestionID string
	IsCorrect  bool
	Difficulty questionbank.Difficulty
	At         time.Time // zero means now
}

// Tracker is the central mastery state machine. Updates are serialized
// per (student, skill); different pairs proceed in parallel.
type Tracker struct {
	graph  *skillgraph.Graph
	store  Gateway
	bus    *events.Bus
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	locks map[pairKey]*sync.Mutex
}

type pairKey struct {
	studentID string
	skillID   string
}

// NewTracker wires the tracker's collaborators. A nil logger uses the
// default; a nil bus disables event emission (tests).
func NewTracker(graph *skillgraph.Graph, store Gateway, bus *events.Bus, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		graph:  graph,
		store:  store,
		bus:    bus,
		logger: logger,
		now:    time.Now,
		locks:  make(map[pairKey]*sync.Mutex),
	}
}

// pairLock returns the mutex serializing updates for one pair.
func (t *Tracker) pairLock(studentID, skillID string) *sync.Mutex {
	key := pairKey{studentID, skillID}
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.locks[key]
	if !ok {
		l = &sync.Mutex{}
		t.locks[key] = l
	}
	return l
}

// RecordAnswer applies one scored answer to the pair's state, persists
// the result atomically, and publishes AnswerScored (always) and
// MasteryAchieved (on latch) after commit. An optimistic-concurrency
// conflict is retried once; a second conflict surfaces to the caller.
func (t *Tracker) RecordAnswer(ctx context.Context, in ScoredAnswer) (*State, error) {
	skill, err := t.graph.Get(in.SkillID)
	if err != nil {
		return nil, err
	}
	if in.At.IsZero() {
		in.At = t.now()
	}

	lock := t.pairLock(in.StudentID, in.SkillID)
	lock.Lock()
	defer lock.Unlock()

	st, latched, err := t.apply(ctx, in, skill)
	if apperr.Is(err, apperr.KindConflict) {
		t.logger.Warn("mastery update conflict, retrying",
			"student", in.StudentID, "skill", in.SkillID)
		st, latched, err = t.apply(ctx, in, skill)
	}
	if err != nil {
		return nil, err
	}

	t.publish(ctx, in, skill, st, latched)
	return st, nil
}

// apply runs one full update cycle against the current stored state.
// No in-memory state is retained: a persistence failure leaves nothing
// behind and no events are emitted.
func (t *Tracker) apply(ctx context.Context, in ScoredAnswer, skill skillgraph.Skill) (*State, bool, error) {
	st, err := t.store.SkillState(ctx, in.StudentID, in.SkillID)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		st = &State{
			StudentID:         in.StudentID,
			SkillID:           in.SkillID,
			CurrentDifficulty: in.Difficulty,
			Status:            StatusNotStarted,
		}
	case err != nil:
		return nil, false, err
	}

	recent, err := t.store.RecentAttempts(ctx, in.StudentID, in.SkillID, WindowSize-1)
	if err != nil {
		return nil, false, err
	}

	// Rolling window: the last WindowSize-1 stored attempts plus this one.
	windowLen := len(recent) + 1
	correctInWindow := 0
	if in.IsCorrect {
		correctInWindow = 1
	}
	for _, a := range recent {
		if a.Correct {
			correctInWindow++
		}
	}

	st.Attempts++
	if in.IsCorrect {
		st.CorrectCount++
		st.ConsecutiveCorrect++
		st.ConsecutiveIncorrect = 0
	} else {
		st.ConsecutiveIncorrect++
		st.ConsecutiveCorrect = 0
	}
	st.RollingAccuracy = float64(correctInWindow) / float64(windowLen)
	st.LastPracticed = in.At

	// The mastery check reads the streak as it stands after this answer;
	// a promotion in the same cycle resets the stored counter but must
	// not mask the latch.
	streak := st.ConsecutiveCorrect

	decision := adaptive.Transition(st.CurrentDifficulty, st.ConsecutiveCorrect, st.ConsecutiveIncorrect)
	st.CurrentDifficulty = decision.Difficulty
	if decision.ResetCorrect {
		st.ConsecutiveCorrect = 0
	}
	if decision.ResetIncorrect {
		st.ConsecutiveIncorrect = 0
	}

	latched := false
	if !st.MasteryAchieved &&
		windowLen >= MinSamples &&
		st.RollingAccuracy >= skill.Threshold &&
		streak >= MasteryStreak {
		now := in.At
		st.MasteryAchieved = true
		st.MasteryAchievedAt = &now
		latched = true
	}

	switch {
	case st.MasteryAchieved:
		st.Status = StatusMastered
	case st.Attempts > 0:
		st.Status = StatusInProgress
	default:
		st.Status = StatusNotStarted
	}

	att := Attempt{
		StudentID:  in.StudentID,
		SkillID:    in.SkillID,
		QuestionID: in.QuestionID,
		Correct:    in.IsCorrect,
		Difficulty: in.Difficulty,
		At:         in.At,
	}
	if err := t.store.ApplyMasteryUpdate(ctx, att, st); err != nil {
		return nil, false, err
	}
	return st, latched, nil
}

// publish emits post-commit events. Events for one pair leave under the
// pair lock, so subscribers observe them in causal order.
func (t *Tracker) publish(ctx context.Context, in ScoredAnswer, skill skillgraph.Skill, st *State, latched bool) {
	if t.bus == nil {
		return
	}
	evts := []events.Event{
		events.AnswerScored{
			Meta_:           events.NewMeta(in.StudentID, in.At),
			SkillID:         in.SkillID,
			QuestionID:      in.QuestionID,
			Difficulty:      in.Difficulty,
			IsCorrect:       in.IsCorrect,
			RollingAccuracy: st.RollingAccuracy,
			Attempts:        st.Attempts,
		},
	}
	if latched {
		evts = append(evts, events.MasteryAchieved{
			Meta_:     events.NewMeta(in.StudentID, in.At),
			SkillID:   in.SkillID,
			Threshold: skill.Threshold,
			Attempts:  st.Attempts,
		})
	}
	t.bus.Publish(ctx, evts...)
}

// State returns the stored state for a pair, or NotFound when the pair
// has never practiced the skill.
func (t *Tracker) State(ctx context.Context, studentID, skillID string) (*State, error) {
	if !t.graph.Has(skillID) {
		return nil, apperr.E(apperr.KindNotFound, "skill not found: %q", skillID)
	}
	return t.store.SkillState(ctx, studentID, skillID)
}

// Reset clears the mastery latch and rolling window for a pair. This is
// the explicit reset that releases the one-way latch.
func (t *Tracker) Reset(ctx context.Context, studentID, skillID string) error {
	if !t.graph.Has(skillID) {
		return apperr.E(apperr.KindNotFound, "skill not found: %q", skillID)
	}
	lock := t.pairLock(studentID, skillID)
	lock.Lock()
	defer lock.Unlock()
	return t.store.ResetSkillState(ctx, studentID, skillID)
}
