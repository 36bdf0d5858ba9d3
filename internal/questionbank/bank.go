package questionbank

import (
	"slices"
)

type skillDifficultyKey struct {
	skillID    string
	difficulty Difficulty
}

// Bank is the in-memory question index. Built once at startup and
// read-only afterwards, so it may be shared without synchronization.
type Bank struct {
	questions []Question
	byID      map[string]*Question
	bySkill   map[string][]Question
	byTier    map[skillDifficultyKey][]Question
	byGrade   map[int][]Question
}

// New builds a bank from the seeded question set, preserving seed order
// within every index.
func New(questions []Question) *Bank {
	b := &Bank{
		questions: slices.Clone(questions),
		byID:      make(map[string]*Question, len(questions)),
		bySkill:   make(map[string][]Question),
		byTier:    make(map[skillDifficultyKey][]Question),
		byGrade:   make(map[int][]Question),
	}
	for i := range b.questions {
		q := b.questions[i]
		b.byID[q.ID] = &b.questions[i]
		b.bySkill[q.SkillID] = append(b.bySkill[q.SkillID], q)
		key := skillDifficultyKey{q.SkillID, q.Difficulty}
		b.byTier[key] = append(b.byTier[key], q)
		b.byGrade[q.Grade] = append(b.byGrade[q.Grade], q)
	}
	return b
}

// Len returns the number of questions in the bank.
func (b *Bank) Len() int { return len(b.questions) }

// Get returns a question by ID.
func (b *Bank) Get(id string) (Question, bool) {
	q, ok := b.byID[id]
	if !ok {
		return Question{}, false
	}
	return *q, true
}

// BySkill returns all questions for a skill, in seed order.
func (b *Bank) BySkill(skillID string) []Question {
	return slices.Clone(b.bySkill[skillID])
}

// BySkillDifficulty returns the questions for (skill, difficulty). When
// that tier is empty it falls back to the nearest non-empty tier,
// preferring easier tiers over harder ones.
func (b *Bank) BySkillDifficulty(skillID string, difficulty Difficulty) []Question {
	if qs := b.byTier[skillDifficultyKey{skillID, difficulty}]; len(qs) > 0 {
		return slices.Clone(qs)
	}
	for _, d := range fallbackOrder(difficulty) {
		if qs := b.byTier[skillDifficultyKey{skillID, d}]; len(qs) > 0 {
			return slices.Clone(qs)
		}
	}
	return nil
}

// fallbackOrder lists the other tiers by distance from d, easier first on
// ties.
func fallbackOrder(d Difficulty) []Difficulty {
	switch d {
	case DifficultyEasy:
		return []Difficulty{DifficultyMedium, DifficultyHard}
	case DifficultyHard:
		return []Difficulty{DifficultyMedium, DifficultyEasy}
	default:
		return []Difficulty{DifficultyEasy, DifficultyHard}
	}
}

// ByGrade returns all questions for a grade, in seed order.
func (b *Bank) ByGrade(grade int) []Question {
	return slices.Clone(b.byGrade[grade])
}
