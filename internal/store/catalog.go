package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

// The catalog is the seeded, immutable half of the store: skills and
// questions. It is written once by the seeding step and only read
// afterwards.

type skillRow struct {
	ID            string  `db:"id"`
	Name          string  `db:"name"`
	Grade         int     `db:"grade"`
	Subject       string  `db:"subject"`
	Prerequisites string  `db:"prerequisites"`
	Threshold     float64 `db:"threshold"`
	Position      int     `db:"position"`
}

type questionRow struct {
	ID          string         `db:"id"`
	SkillID     string         `db:"skill_id"`
	Difficulty  string         `db:"difficulty"`
	Grade       int            `db:"grade"`
	Prompt      string         `db:"prompt"`
	Answer      string         `db:"answer"`
	Choices     sql.NullString `db:"choices"`
	Explanation string         `db:"explanation"`
	Position    int            `db:"position"`
}

// SaveCatalog replaces the stored skill and question catalog in one
// transaction. Position columns preserve seed order across reloads.
func (s *Store) SaveCatalog(ctx context.Context, skills []skillgraph.Skill, questions []questionbank.Question) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM questions"); err != nil {
			return fmt.Errorf("clear questions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM skills"); err != nil {
			return fmt.Errorf("clear skills: %w", err)
		}

		for i, sk := range skills {
			prereqs, err := json.Marshal(sk.Prerequisites)
			if err != nil {
				return fmt.Errorf("marshal prerequisites for %q: %w", sk.ID, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO skills (id, name, grade, subject, prerequisites, threshold, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				sk.ID, sk.Name, sk.Grade, string(sk.Subject), string(prereqs), sk.Threshold, i)
			if err != nil {
				return fmt.Errorf("insert skill %q: %w", sk.ID, err)
			}
		}

		for i, q := range questions {
			var choices any
			if len(q.Choices) > 0 {
				raw, err := json.Marshal(q.Choices)
				if err != nil {
					return fmt.Errorf("marshal choices for %q: %w", q.ID, err)
				}
				choices = string(raw)
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO questions (id, skill_id, difficulty, grade, prompt, answer, choices, explanation, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				q.ID, q.SkillID, string(q.Difficulty), q.Grade, q.Prompt, q.Answer, choices, q.Explanation, i)
			if err != nil {
				return fmt.Errorf("insert question %q: %w", q.ID, err)
			}
		}
		return nil
	})
}

// LoadSkills returns the seeded skills in seed order.
func (s *Store) LoadSkills(ctx context.Context) ([]skillgraph.Skill, error) {
	var rows []skillRow
	if err := s.db.SelectContext(ctx, &rows,
		"SELECT id, name, grade, subject, prerequisites, threshold, position FROM skills ORDER BY position"); err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}

	skills := make([]skillgraph.Skill, 0, len(rows))
	for _, r := range rows {
		var prereqs []string
		if err := json.Unmarshal([]byte(r.Prerequisites), &prereqs); err != nil {
			return nil, fmt.Errorf("unmarshal prerequisites for %q: %w", r.ID, err)
		}
		skills = append(skills, skillgraph.Skill{
			ID:            r.ID,
			Name:          r.Name,
			Grade:         r.Grade,
			Subject:       skillgraph.Subject(r.Subject),
			Prerequisites: prereqs,
			Threshold:     r.Threshold,
		})
	}
	return skills, nil
}

// LoadQuestions returns the seeded questions in seed order.
func (s *Store) LoadQuestions(ctx context.Context) ([]questionbank.Question, error) {
	var rows []questionRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, skill_id, difficulty, grade, prompt, answer, choices, explanation, position
		 FROM questions ORDER BY position`); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	questions := make([]questionbank.Question, 0, len(rows))
	for _, r := range rows {
		difficulty, err := questionbank.ParseDifficulty(r.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("question %q: %w", r.ID, err)
		}
		var choices []string
		if r.Choices.Valid && r.Choices.String != "" {
			if err := json.Unmarshal([]byte(r.Choices.String), &choices); err != nil {
				return nil, fmt.Errorf("unmarshal choices for %q: %w", r.ID, err)
			}
		}
		questions = append(questions, questionbank.Question{
			ID:          r.ID,
			SkillID:     r.SkillID,
			Difficulty:  difficulty,
			Grade:       r.Grade,
			Prompt:      r.Prompt,
			Answer:      r.Answer,
			Choices:     choices,
			Explanation: r.Explanation,
		})
	}
	return questions, nil
}

// Seeded reports whether the catalog has been loaded.
func (s *Store) Seeded(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM skills"); err != nil {
		return false, fmt.Errorf("count skills: %w", err)
	}
	return count > 0, nil
}
