package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightmath/brightmath/internal/apperr"
	"github.com/brightmath/brightmath/internal/assessment"
)

type startAssessmentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
	Kind      string `json:"kind" binding:"required"`
	Grade     int    `json:"grade"`
	SkillID   string `json:"skill_id"`
}

func (s *Server) startAssessment(c *gin.Context) {
	var req startAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindBadArgument, err, "invalid request body"))
		return
	}

	created, err := s.assessments.Create(c.Request.Context(), assessment.CreateInput{
		StudentID: req.StudentID,
		Kind:      req.Kind,
		Grade:     req.Grade,
		SkillID:   req.SkillID,
	})
	if apperr.Is(err, apperr.KindEmptyBank) {
		// An empty bank is an explicit no-questions signal, not a failure.
		c.JSON(http.StatusOK, gin.H{"empty": true, "reason": "no questions available"})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type submitResponseRequest struct {
	StudentID     string `json:"student_id" binding:"required"`
	QuestionID    string `json:"question_id" binding:"required"`
	Answer        string `json:"answer"`
	TimeSpentSecs int    `json:"time_spent_secs"`
}

func (s *Server) submitResponse(c *gin.Context) {
	var req submitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindBadArgument, err, "invalid request body"))
		return
	}

	submitted, err := s.assessments.Submit(c.Request.Context(), assessment.SubmitInput{
		StudentID:     req.StudentID,
		AssessmentID:  c.Param("id"),
		QuestionID:    req.QuestionID,
		Answer:        req.Answer,
		TimeSpentSecs: req.TimeSpentSecs,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submitted)
}

type completeAssessmentRequest struct {
	StudentID string `json:"student_id" binding:"required"`
}

func (s *Server) completeAssessment(c *gin.Context) {
	var req completeAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindBadArgument, err, "invalid request body"))
		return
	}

	completion, err := s.assessments.Complete(c.Request.Context(), req.StudentID, c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, completion)
}

func (s *Server) assessmentHistory(c *gin.Context) {
	history, err := s.assessments.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": history})
}

func (s *Server) getAssessment(c *gin.Context) {
	detail, err := s.assessments.Get(c.Request.Context(), c.Param("id"), c.Param("assessment"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
