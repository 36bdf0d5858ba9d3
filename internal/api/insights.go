package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/brightmath/brightmath/internal/apperr"
)

func (s *Server) recommendSkills(c *gin.Context) {
	studentID := c.Param("id")

	grade, err := queryInt(c, "grade", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if grade <= 0 {
		s.respondError(c, apperr.E(apperr.KindBadArgument, "grade query parameter is required"))
		return
	}
	k, err := queryInt(c, "k", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}

	recs, err := s.insights.Recommend(c.Request.Context(), studentID, grade, k)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

func (s *Server) analyzeGaps(c *gin.Context) {
	studentID := c.Param("id")

	grade, err := queryInt(c, "grade", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if grade <= 0 {
		s.respondError(c, apperr.E(apperr.KindBadArgument, "grade query parameter is required"))
		return
	}

	gaps, err := s.insights.AnalyzeGaps(c.Request.Context(), studentID, grade)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"gaps": gaps})
}

type detectAtRiskRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required,min=1"`
}

func (s *Server) detectAtRisk(c *gin.Context) {
	var req detectAtRiskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperr.Wrap(apperr.KindBadArgument, err, "invalid request body"))
		return
	}

	atRisk, err := s.insights.DetectAtRisk(c.Request.Context(), req.StudentIDs)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"at_risk": atRisk})
}

func (s *Server) forecast(c *gin.Context) {
	days, err := queryInt(c, "days", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}

	f, err := s.insights.ForecastPerformance(c.Request.Context(), c.Param("id"), days)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, f)
}

func (s *Server) summary(c *gin.Context) {
	sum, err := s.insights.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.E(apperr.KindBadArgument, "%s must be an integer, got %q", name, raw)
	}
	return v, nil
}
