package adaptive

import (
	"context"
	"math/rand"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/questionbank"
)

// RecentExclusion is the number of most recent attempts at a skill whose
// questions are excluded from selection, suppressing short-term repeats.
const RecentExclusion = 10

// AttemptLog supplies the recently answered question ids for a pair,
// newest first.
type AttemptLog interface {
	RecentQuestionIDs(ctx context.Context, studentID, skillID string, limit int) ([]string, error)
}

// Selector picks the next practice question for a (student, skill) pair
// at the pair's current difficulty.
type Selector struct {
	bank *questionbank.Bank
	log  AttemptLog
	rng  *rand.Rand // nil uses the process-wide source
}

// NewSelector builds a selector. rng is only set by tests.
func NewSelector(bank *questionbank.Bank, log AttemptLog, rng *rand.Rand) *Selector {
	return &Selector{bank: bank, log: log, rng: rng}
}

// NextQuestion selects uniformly from the candidate pool at the current
// tier, falling back same tier -> easier tier -> any tier, excluding
// questions the student answered in the last RecentExclusion attempts
// at this skill. Returns ExhaustedBank when nothing remains.
func (s *Selector) NextQuestion(ctx context.Context, studentID, skillID string, current questionbank.Difficulty) (questionbank.Question, error) {
	recent, err := s.log.RecentQuestionIDs(ctx, studentID, skillID, RecentExclusion)
	if err != nil {
		return questionbank.Question{}, err
	}
	exclude := make(map[string]bool, len(recent))
	for _, id := range recent {
		exclude[id] = true
	}

	// BySkillDifficulty already falls back to the nearest non-empty
	// tier, easier preferred; the steps below handle pools emptied by
	// the exclusion window, trying the easier tier before widening to
	// the whole skill.
	pool := filter(s.bank.BySkillDifficulty(skillID, current), exclude)
	if len(pool) == 0 {
		if easier, ok := current.Easier(); ok {
			pool = filter(s.bank.BySkillDifficulty(skillID, easier), exclude)
		}
	}
	if len(pool) == 0 {
		pool = filter(s.bank.BySkill(skillID), exclude)
	}
	if len(pool) == 0 {
		return questionbank.Question{}, apperr.E(apperr.KindExhaustedBank,
			"no more practice available for skill %q", skillID)
	}

	idx := 0
	if len(pool) > 1 {
		if s.rng != nil {
			idx = s.rng.Intn(len(pool))
		} else {
			idx = rand.Intn(len(pool))
		}
	}
	return pool[idx], nil
}

func filter(qs []questionbank.Question, exclude map[string]bool) []questionbank.Question {
	result := qs[:0:0]
	for _, q := range qs {
		if !exclude[q.ID] {
			result = append(result, q)
		}
	}
	return result
}
