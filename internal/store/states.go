package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/questionbank"
)

type stateRow struct {
	StudentID            string        `db:"student_id"`
	SkillID              string        `db:"skill_id"`
	Attempts             int           `db:"attempts"`
	CorrectCount         int           `db:"correct_count"`
	RollingAccuracy      float64       `db:"rolling_accuracy"`
	CurrentDifficulty    string        `db:"current_difficulty"`
	ConsecutiveCorrect   int           `db:"consecutive_correct"`
	ConsecutiveIncorrect int           `db:"consecutive_incorrect"`
	LastPracticed        sql.NullInt64 `db:"last_practiced"`
	MasteryAchieved      bool          `db:"mastery_achieved"`
	MasteryAchievedAt    sql.NullInt64 `db:"mastery_achieved_at"`
	Status               string        `db:"status"`
	Version              int64         `db:"version"`
}

func (r stateRow) toState() (*mastery.State, error) {
	difficulty, err := questionbank.ParseDifficulty(r.CurrentDifficulty)
	if err != nil {
		return nil, fmt.Errorf("state %s/%s: %w", r.StudentID, r.SkillID, err)
	}
	st := &mastery.State{
		StudentID:            r.StudentID,
		SkillID:              r.SkillID,
		Attempts:             r.Attempts,
		CorrectCount:         r.CorrectCount,
		RollingAccuracy:      r.RollingAccuracy,
		CurrentDifficulty:    difficulty,
		ConsecutiveCorrect:   r.ConsecutiveCorrect,
		ConsecutiveIncorrect: r.ConsecutiveIncorrect,
		MasteryAchieved:      r.MasteryAchieved,
		Status:               mastery.Status(r.Status),
		Version:              r.Version,
	}
	if r.LastPracticed.Valid {
		st.LastPracticed = fromMillis(r.LastPracticed.Int64)
	}
	if r.MasteryAchievedAt.Valid {
		t := fromMillis(r.MasteryAchievedAt.Int64)
		st.MasteryAchievedAt = &t
	}
	return st, nil
}

const stateColumns = `student_id, skill_id, attempts, correct_count, rolling_accuracy,
	current_difficulty, consecutive_correct, consecutive_incorrect, last_practiced,
	mastery_achieved, mastery_achieved_at, status, version`

// SkillState loads the state for one pair. Returns NotFound when the
// pair has never been seen.
func (s *Store) SkillState(ctx context.Context, studentID, skillID string) (*mastery.State, error) {
	var row stateRow
	err := s.db.GetContext(ctx, &row,
		fmt.Sprintf(`SELECT %s FROM student_skill_states WHERE student_id = ? AND skill_id = ?`, stateColumns),
		studentID, skillID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E(apperr.KindNotFound, "no state for %s/%s", studentID, skillID)
	}
	if err != nil {
		return nil, fmt.Errorf("load skill state: %w", err)
	}
	return row.toState()
}

// StatesByStudent returns every skill state for a student.
func (s *Store) StatesByStudent(ctx context.Context, studentID string) ([]mastery.State, error) {
	var rows []stateRow
	err := s.db.SelectContext(ctx, &rows,
		fmt.Sprintf(`SELECT %s FROM student_skill_states WHERE student_id = ? ORDER BY skill_id`, stateColumns),
		studentID)
	if err != nil {
		return nil, fmt.Errorf("load states for %s: %w", studentID, err)
	}
	states := make([]mastery.State, 0, len(rows))
	for _, r := range rows {
		st, err := r.toState()
		if err != nil {
			return nil, err
		}
		states = append(states, *st)
	}
	return states, nil
}

// ApplyMasteryUpdate appends the attempt and writes the state in one
// transaction. The write is guarded by an optimistic version check: a
// mismatch returns Conflict and leaves nothing behind.
func (s *Store) ApplyMasteryUpdate(ctx context.Context, att mastery.Attempt, st *mastery.State) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var lastPracticed, masteredAt any
		if !st.LastPracticed.IsZero() {
			lastPracticed = toMillis(st.LastPracticed)
		}
		if st.MasteryAchievedAt != nil {
			masteredAt = toMillis(*st.MasteryAchievedAt)
		}

		if st.Version == 0 {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO student_skill_states (`+stateColumns+`)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
				st.StudentID, st.SkillID, st.Attempts, st.CorrectCount, st.RollingAccuracy,
				string(st.CurrentDifficulty), st.ConsecutiveCorrect, st.ConsecutiveIncorrect,
				lastPracticed, st.MasteryAchieved, masteredAt, string(st.Status))
			if isUniqueViolation(err) {
				return apperr.E(apperr.KindConflict, "state for %s/%s created concurrently", st.StudentID, st.SkillID)
			}
			if err != nil {
				return fmt.Errorf("insert skill state: %w", err)
			}
		} else {
			res, err := tx.ExecContext(ctx,
				`UPDATE student_skill_states SET
					attempts = ?, correct_count = ?, rolling_accuracy = ?,
					current_difficulty = ?, consecutive_correct = ?, consecutive_incorrect = ?,
					last_practiced = ?, mastery_achieved = ?, mastery_achieved_at = ?,
					status = ?, version = version + 1
				 WHERE student_id = ? AND skill_id = ? AND version = ?`,
				st.Attempts, st.CorrectCount, st.RollingAccuracy,
				string(st.CurrentDifficulty), st.ConsecutiveCorrect, st.ConsecutiveIncorrect,
				lastPracticed, st.MasteryAchieved, masteredAt, string(st.Status),
				st.StudentID, st.SkillID, st.Version)
			if err != nil {
				return fmt.Errorf("update skill state: %w", err)
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			if affected == 0 {
				return apperr.E(apperr.KindConflict, "stale version %d for %s/%s", st.Version, st.StudentID, st.SkillID)
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO skill_attempts (student_id, skill_id, question_id, correct, difficulty, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			att.StudentID, att.SkillID, att.QuestionID, att.Correct, string(att.Difficulty), toMillis(att.At))
		if err != nil {
			return fmt.Errorf("append attempt: %w", err)
		}

		st.Version++
		return nil
	})
}

// ResetSkillState clears the mastery latch and rolling window for a
// pair. The state row is removed so the next answer recreates it fresh.
func (s *Store) ResetSkillState(ctx context.Context, studentID, skillID string) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM student_skill_states WHERE student_id = ? AND skill_id = ?",
			studentID, skillID); err != nil {
			return fmt.Errorf("delete skill state: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM skill_attempts WHERE student_id = ? AND skill_id = ?",
			studentID, skillID); err != nil {
			return fmt.Errorf("delete attempts: %w", err)
		}
		return nil
	})
}

type attemptRow struct {
	StudentID  string `db:"student_id"`
	SkillID    string `db:"skill_id"`
	QuestionID string `db:"question_id"`
	Correct    bool   `db:"correct"`
	Difficulty string `db:"difficulty"`
	CreatedAt  int64  `db:"created_at"`
}

func (r attemptRow) toAttempt() mastery.Attempt {
	return mastery.Attempt{
		StudentID:  r.StudentID,
		SkillID:    r.SkillID,
		QuestionID: r.QuestionID,
		Correct:    r.Correct,
		Difficulty: questionbank.Difficulty(r.Difficulty),
		At:         fromMillis(r.CreatedAt),
	}
}

// RecentAttempts returns up to limit attempts for a pair, newest first.
func (s *Store) RecentAttempts(ctx context.Context, studentID, skillID string, limit int) ([]mastery.Attempt, error) {
	var rows []attemptRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT student_id, skill_id, question_id, correct, difficulty, created_at
		 FROM skill_attempts WHERE student_id = ? AND skill_id = ?
		 ORDER BY id DESC LIMIT ?`,
		studentID, skillID, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent attempts: %w", err)
	}
	attempts := make([]mastery.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.toAttempt())
	}
	return attempts, nil
}

// RecentQuestionIDs returns the question ids of the last limit attempts
// for a pair, newest first. Used by the adaptive selector's repeat
// suppression.
func (s *Store) RecentQuestionIDs(ctx context.Context, studentID, skillID string, limit int) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids,
		`SELECT question_id FROM skill_attempts
		 WHERE student_id = ? AND skill_id = ?
		 ORDER BY id DESC LIMIT ?`,
		studentID, skillID, limit)
	if err != nil {
		return nil, fmt.Errorf("load recent question ids: %w", err)
	}
	return ids, nil
}

// AttemptsSince returns all attempts for a student at or after since,
// oldest first. Feeds the risk and forecast calculations.
func (s *Store) AttemptsSince(ctx context.Context, studentID string, since time.Time) ([]mastery.Attempt, error) {
	var rows []attemptRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT student_id, skill_id, question_id, correct, difficulty, created_at
		 FROM skill_attempts WHERE student_id = ? AND created_at >= ?
		 ORDER BY id`,
		studentID, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("load attempts since: %w", err)
	}
	attempts := make([]mastery.Attempt, 0, len(rows))
	for _, r := range rows {
		attempts = append(attempts, r.toAttempt())
	}
	return attempts, nil
}

// LastAttemptAt returns the time of the student's most recent attempt,
// or a zero time when the student has none.
func (s *Store) LastAttemptAt(ctx context.Context, studentID string) (time.Time, error) {
	var ms sql.NullInt64
	err := s.db.GetContext(ctx, &ms,
		"SELECT MAX(created_at) FROM skill_attempts WHERE student_id = ?", studentID)
	if err != nil {
		return time.Time{}, fmt.Errorf("load last attempt time: %w", err)
	}
	if !ms.Valid {
		return time.Time{}, nil
	}
	return fromMillis(ms.Int64), nil
}
