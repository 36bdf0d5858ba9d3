package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) listSkills(c *gin.Context) {
	grade, err := queryInt(c, "grade", 0)
	if err != nil {
		s.respondError(c, err)
		return
	}

	if grade > 0 {
		c.JSON(http.StatusOK, gin.H{"skills": s.graph.ByGrade(grade)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"skills": s.graph.All()})
}
