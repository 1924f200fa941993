package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/fitness-backend/internal/interfaces/http/middleware"
	"github.com/your-org/fitness-backend/internal/pkg/apperror"
)

// respondError writes err as {"error": message} with the status its kind maps to.
// Internal errors are logged and their details withheld.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	status := apperror.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
	}
	_ = c.Error(err)

	c.JSON(status, gin.H{
		"error": apperror.PublicMessage(err),
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

// requireUser returns the authenticated user ID or writes a 401
func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
	}
	return userID, ok
}

// uintParam parses a positive numeric path parameter or writes a 400
func uintParam(c *gin.Context, name, label string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label,
		})
		return 0, false
	}
	return uint(v), true
}

// queryInt reads a positive integer query parameter, falling back to def
func queryInt(c *gin.Context, name string, def, maxValue int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 1 {
		return def
	}
	if maxValue > 0 && v > maxValue {
		return maxValue
	}
	return v
}
