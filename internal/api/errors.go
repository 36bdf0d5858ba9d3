package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/brightmath/brightmath/internal/apperr"
)

// StatusClientClosedRequest mirrors nginx's non-standard 499: the
// client abandoned the request before it finished.
const StatusClientClosedRequest = 499

func statusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindUnauthorized:
		return http.StatusForbidden
	case apperr.KindBadKind, apperr.KindBadArgument, apperr.KindInvalidAnswer:
		return http.StatusBadRequest
	case apperr.KindAssessmentClosed, apperr.KindAlreadyAnswered,
		apperr.KindNotInAssessment, apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindCancelled:
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps a kinded error onto a transport status. Anything
// unclassified is Internal: logged with a correlation id and surfaced
// opaquely.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusOf(kind)

	if status == http.StatusInternalServerError {
		correlationID := uuid.NewString()
		s.logger.Error("request failed",
			"correlation_id", correlationID,
			"method", c.Request.Method,
			"path", c.FullPath(),
			"err", err)
		c.JSON(status, gin.H{
			"error":          "internal error",
			"kind":           string(apperr.KindInternal),
			"correlation_id": correlationID,
		})
		return
	}

	msg := err.Error()
	var e *apperr.Error
	if errors.As(err, &e) {
		msg = e.Msg
	}
	c.JSON(status, gin.H{"error": msg, "kind": string(kind)})
}
