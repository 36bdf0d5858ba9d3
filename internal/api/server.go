// Package api exposes the engine's operations over HTTP/JSON.
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/brightmath/brightmath/internal/adaptive"
	"github.com/brightmath/brightmath/internal/assessment"
	"github.com/brightmath/brightmath/internal/insights"
	"github.com/brightmath/brightmath/internal/mastery"
	"github.com/brightmath/brightmath/internal/questionbank"
	"github.com/brightmath/brightmath/internal/skillgraph"
)

// Server wires the core services behind the HTTP routes.
type Server struct {
	graph       *skillgraph.Graph
	bank        *questionbank.Bank
	assessments *assessment.Service
	tracker     *mastery.Tracker
	selector    *adaptive.Selector
	insights    *insights.Engine
	logger      *slog.Logger
	engine      *gin.Engine
}

// New builds the server and registers all routes.
func New(
	graph *skillgraph.Graph,
	bank *questionbank.Bank,
	assessments *assessment.Service,
	tracker *mastery.Tracker,
	selector *adaptive.Selector,
	engine *insights.Engine,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		graph:       graph,
		bank:        bank,
		assessments: assessments,
		tracker:     tracker,
		selector:    selector,
		insights:    engine,
		logger:      logger,
		engine:      gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.health)

	v1 := s.engine.Group("/v1")
	{
		v1.GET("/skills", s.listSkills)

		v1.POST("/assessments", s.startAssessment)
		v1.POST("/assessments/:id/responses", s.submitResponse)
		v1.POST("/assessments/:id/complete", s.completeAssessment)

		students := v1.Group("/students/:id")
		{
			students.GET("/assessments", s.assessmentHistory)
			students.GET("/assessments/:assessment", s.getAssessment)
			students.GET("/recommendations", s.recommendSkills)
			students.GET("/gaps", s.analyzeGaps)
			students.GET("/forecast", s.forecast)
			students.GET("/summary", s.summary)
			students.GET("/skills/:skill", s.skillState)
			students.GET("/skills/:skill/next", s.nextQuestion)
			students.POST("/skills/:skill/answers", s.recordAnswer)
			students.POST("/skills/:skill/reset", s.resetSkill)
		}

		v1.POST("/at-risk", s.detectAtRisk)
	}
}

// Handler returns the router as an http.Handler for serving and tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
