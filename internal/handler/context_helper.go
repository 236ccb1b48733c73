package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campusops/deptdesk-api/internal/middleware"
	"github.com/campusops/deptdesk-api/internal/models"
	appErrors "github.com/campusops/deptdesk-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// parseCalendarDate reads a YYYY-MM-DD query param, defaulting to today (UTC)
// when absent.
func parseCalendarDate(c *gin.Context, name string) (time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, name+" must be YYYY-MM-DD")
	}
	return parsed, nil
}
