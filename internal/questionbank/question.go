// Package questionbank indexes the immutable question set by skill,
// difficulty, and grade, and provides the sampling primitives used by
// assessments and the adaptive selector.
package questionbank

import "fmt"

// Difficulty is an ordered question difficulty tier.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// AllDifficulties returns the tiers in ascending order.
func AllDifficulties() []Difficulty {
	return []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}
}

// ParseDifficulty converts a stored string to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), nil
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Easier returns the next tier down, or the same tier at the bottom.
func (d Difficulty) Easier() (Difficulty, bool) {
	switch d {
	case DifficultyHard:
		return DifficultyMedium, true
	case DifficultyMedium:
		return DifficultyEasy, true
	}
	return d, false
}

// Harder returns the next tier up, or the same tier at the top.
func (d Difficulty) Harder() (Difficulty, bool) {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium, true
	case DifficultyMedium:
		return DifficultyHard, true
	}
	return d, false
}

// Question is a single seeded question. Immutable once stored.
type Question struct {
	ID          string     `json:"id" db:"id"`
	SkillID     string     `json:"skill_id" db:"skill_id"`
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	Grade       int        `json:"grade" db:"grade"`
	Prompt      string     `json:"prompt" db:"prompt"`
	Answer      string     `json:"answer" db:"answer"`
	Choices     []string   `json:"choices,omitempty" db:"-"`
	Explanation string     `json:"explanation,omitempty" db:"explanation"`
}
