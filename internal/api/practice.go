package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/scorer"
)

// currentDifficulty resolves the tier the next question should target:
// the pair's stored difficulty, or easy for a fresh pair.
func (s *Server) currentDifficulty(c *gin.Context, studentID, skillID string) (questionbank.Difficulty, error) {
	st, err := s.tracker.State(c.Request.Context(), studentID, skillID)
	if apperr.Is(err, apperr.KindNotFound) {
		if !s.graph.Has(skillID) {
			return "", err
		}
		return questionbank.DifficultyEasy, nil
	}
	if err != nil {
		return "", err
	}
	return st.CurrentDifficulty, nil
}

func (s *Server) nextQuestion(c *gin.Context) {
	studentID, skillID := c.Param("id"), c.Param("skill")

	difficulty, err := s.currentDifficulty(c, studentID, skillID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	q, err := s.selector.NextQuestion(c.Request.Context(), studentID, skillID, difficulty)
	if apperr.Is(err, apperr.KindExhaustedBank) {
		// Running out of fresh questions is a signal, not a failure.
		c.JSON(http.StatusOK, gin.H{"done": true, "reason": "no more practice available"})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	q.Answer = ""
	q.Explanation = ""
	c.JSON(http.StatusOK, gin.H{"question": q})
}

type recordAnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
}

// recordAnswer scores a free practice answer and advances the pair's
// mastery state.
func (s *Server) recordAnswer(c *gin.Context) {
	studentID, skillID := c.Param("id"), c.Param("skill")

	var req recordAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindBadArgument, err, "invalid request body"))
		return
	}

	q, ok := s.bank.Get(req.QuestionID)
	if !ok {
		s.respondError(c, apperr.E(apperr.KindNotFound, "question not found: %q", req.QuestionID))
		return
	}
	if q.SkillID != skillID {
		s.respondError(c, apperr.E(apperr.KindBadArgument,
			"question %s belongs to skill %s, not %s", q.ID, q.SkillID, skillID))
		return
	}

	correct, err := scorer.Score(q, req.Answer)
	if err != nil {
		s.respondError(c, err)
		return
	}

	st, err := s.tracker.RecordAnswer(c.Request.Context(), mastery.ScoredAnswer{
		StudentID:  studentID,
		SkillID:    skillID,
		QuestionID: q.ID,
		IsCorrect:  correct,
		Difficulty: q.Difficulty,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"is_correct":      correct,
		"expected_answer": q.Answer,
		"explanation":     q.Explanation,
		"state":           st,
	})
}

func (s *Server) skillState(c *gin.Context) {
	st, err := s.tracker.State(c.Request.Context(), c.Param("id"), c.Param("skill"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": st})
}

func (s *Server) resetSkill(c *gin.Context) {
	studentID, skillID := c.Param("id"), c.Param("skill")
	if err := s.tracker.Reset(c.Request.Context(), studentID, skillID); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reset": true, "student_id": studentID, "skill_id": skillID})
}
