package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/assessment"
)

type assessmentRow struct {
	ID             string          `db:"id"`
	StudentID      string          `db:"student_id"`
	Kind           string          `db:"kind"`
	Grade          int             `db:"grade"`
	StartedAt      int64           `db:"started_at"`
	CompletedAt    sql.NullInt64   `db:"completed_at"`
	QuestionIDs    string          `db:"question_ids"`
	TotalQuestions int             `db:"total_questions"`
	CorrectCount   int             `db:"correct_count"`
	Score          sql.NullFloat64 `db:"score"`
}

func (r assessmentRow) toAssessment() (*assessment.Assessment, error) {
	var questionIDs []string
	if err := json.Unmarshal([]byte(r.QuestionIDs), &questionIDs); err != nil {
		return nil, fmt.Errorf("unmarshal question ids for %q: %w", r.ID, err)
	}
	a := &assessment.Assessment{
		ID:             r.ID,
		StudentID:      r.StudentID,
		Kind:           assessment.Kind(r.Kind),
		Grade:          r.Grade,
		StartedAt:      fromMillis(r.StartedAt),
		QuestionIDs:    questionIDs,
		TotalQuestions: r.TotalQuestions,
		CorrectCount:   r.CorrectCount,
	}
	if r.CompletedAt.Valid {
		t := fromMillis(r.CompletedAt.Int64)
		a.CompletedAt = &t
	}
	if r.Score.Valid {
		a.Score = r.Score.Float64
	}
	return a, nil
}

const assessmentColumns = `id, student_id, kind, grade, started_at, completed_at,
	question_ids, total_questions, correct_count, score`

// CreateAssessment persists a freshly started assessment.
func (s *Store) CreateAssessment(ctx context.Context, a *assessment.Assessment) error {
	questionIDs, err := json.Marshal(a.QuestionIDs)
	if err != nil {
		return fmt.Errorf("marshal question ids: %w", err)
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO assessments (id, student_id, kind, grade, started_at, question_ids, total_questions, correct_count)
			 VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			a.ID, a.StudentID, string(a.Kind), a.Grade, toMillis(a.StartedAt), string(questionIDs), a.TotalQuestions)
		if err != nil {
			return fmt.Errorf("insert assessment: %w", err)
		}
		return nil
	})
}

// Assessment loads one assessment by id.
func (s *Store) Assessment(ctx context.Context, id string) (*assessment.Assessment, error) {
	var row assessmentRow
	err := s.db.GetContext(ctx, &row,
		fmt.Sprintf("SELECT %s FROM assessments WHERE id = ?", assessmentColumns), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.E(apperr.KindNotFound, "assessment not found: %q", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}
	return row.toAssessment()
}

// AssessmentsByStudent returns a student's assessments, oldest first.
func (s *Store) AssessmentsByStudent(ctx context.Context, studentID string) ([]assessment.Assessment, error) {
	var rows []assessmentRow
	err := s.db.SelectContext(ctx, &rows,
		fmt.Sprintf("SELECT %s FROM assessments WHERE student_id = ? ORDER BY started_at, id", assessmentColumns),
		studentID)
	if err != nil {
		return nil, fmt.Errorf("load assessments for %s: %w", studentID, err)
	}
	result := make([]assessment.Assessment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toAssessment()
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, nil
}

type responseRow struct {
	ID            string `db:"id"`
	AssessmentID  string `db:"assessment_id"`
	QuestionID    string `db:"question_id"`
	Submitted     string `db:"submitted"`
	IsCorrect     bool   `db:"is_correct"`
	TimeSpentSecs int    `db:"time_spent_secs"`
	CreatedAt     int64  `db:"created_at"`
}

// RecordResponse inserts a response and bumps the parent's correct
// count in one transaction. The parent must still be running: the
// completed_at check happens inside the transaction, so a complete
// racing with a submit cannot let a response land on a closed
// assessment. A duplicate (assessment, question) pair fails with
// AlreadyAnswered.
func (s *Store) RecordResponse(ctx context.Context, r *assessment.Response) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var completedAt sql.NullInt64
		err := tx.GetContext(ctx, &completedAt,
			"SELECT completed_at FROM assessments WHERE id = ?", r.AssessmentID)
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.E(apperr.KindNotFound, "assessment not found: %q", r.AssessmentID)
		}
		if err != nil {
			return fmt.Errorf("load assessment for response: %w", err)
		}
		if completedAt.Valid {
			return apperr.E(apperr.KindAssessmentClosed, "assessment %s is already completed", r.AssessmentID)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO assessment_responses (id, assessment_id, question_id, submitted, is_correct, time_spent_secs, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, r.AssessmentID, r.QuestionID, r.Submitted, r.IsCorrect, r.TimeSpentSecs, toMillis(r.CreatedAt))
		if isUniqueViolation(err) {
			return apperr.E(apperr.KindAlreadyAnswered, "question %s already answered in assessment %s", r.QuestionID, r.AssessmentID)
		}
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}

		if r.IsCorrect {
			if _, err := tx.ExecContext(ctx,
				"UPDATE assessments SET correct_count = correct_count + 1 WHERE id = ?",
				r.AssessmentID); err != nil {
				return fmt.Errorf("bump correct count: %w", err)
			}
		}
		return nil
	})
}

// Responses returns an assessment's recorded responses in submission
// order.
func (s *Store) Responses(ctx context.Context, assessmentID string) ([]assessment.Response, error) {
	var rows []responseRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, assessment_id, question_id, submitted, is_correct, time_spent_secs, created_at
		 FROM assessment_responses WHERE assessment_id = ? ORDER BY created_at, id`,
		assessmentID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}
	result := make([]assessment.Response, 0, len(rows))
	for _, r := range rows {
		result = append(result, assessment.Response{
			ID:            r.ID,
			AssessmentID:  r.AssessmentID,
			QuestionID:    r.QuestionID,
			Submitted:     r.Submitted,
			IsCorrect:     r.IsCorrect,
			TimeSpentSecs: r.TimeSpentSecs,
			CreatedAt:     fromMillis(r.CreatedAt),
		})
	}
	return result, nil
}

// CompleteAssessment marks an assessment completed. The guard on
// completed_at makes the transition happen exactly once: a second call
// fails with AssessmentClosed.
func (s *Store) CompleteAssessment(ctx context.Context, a *assessment.Assessment) error {
	if a.CompletedAt == nil {
		return apperr.E(apperr.KindBadArgument, "completed_at is not set")
	}
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE assessments SET completed_at = ?, score = ?
			 WHERE id = ? AND completed_at IS NULL`,
			toMillis(*a.CompletedAt), a.Score, a.ID)
		if err != nil {
			return fmt.Errorf("complete assessment: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return apperr.E(apperr.KindAssessmentClosed, "assessment %s is already completed", a.ID)
		}
		return nil
	})
}
