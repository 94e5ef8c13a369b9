package handler

import (
	"net/http"

	"backend/internal/service"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
)

// statusFor maps a domain error code to its HTTP status.
func statusFor(code service.ErrorCode) int {
	switch code {
	case service.ErrCodeValidation, service.ErrCodeInsufficient:
		return http.StatusBadRequest
	case service.ErrCodeNotFound:
		return http.StatusNotFound
	case service.ErrCodeConflict, service.ErrCodeState:
		return http.StatusConflict
	case service.ErrCodeExpired:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for a service failure. Occupancy
// conflicts carry the occupant's term end in the data field so clients can
// show when the office frees up.
func respondError(c *gin.Context, err error) {
	de, ok := service.AsDomainError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	status := statusFor(de.Code)
	if de.OccupiedUntil != nil {
		c.JSON(status, response.ErrorWithData(status, de.Message, gin.H{
			"code":           de.Code,
			"occupied_until": de.OccupiedUntil,
		}))
		return
	}
	c.JSON(status, response.ErrorWithData(status, de.Message, gin.H{"code": de.Code}))
}

// currentUserID reads the authenticated user set by the auth middleware.
func currentUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "User ID not found in context"))
		return "", false
	}
	id, ok := v.(string)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid User ID format"))
		return "", false
	}
	return id, true
}
