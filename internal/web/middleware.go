package web

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kaya95/Autodrop-SaaS-platform/pkg/api"
)

// ErrorHandler is a middleware that turns handler errors into JSON responses
func ErrorHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			logger.Errorf("Error handling request: %v", err)

			c.JSON(statusFor(err), api.ErrorResponse{Error: err.Error()})
		}
	}
}

// RecoveryHandler is a middleware that recovers from panics
func RecoveryHandler(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("Panic recovered: %v\n%s", r, debug.Stack())

				c.JSON(http.StatusInternalServerError, api.ErrorResponse{
					Error: fmt.Sprintf("Internal server error: %v", r),
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}

// LoggingMiddleware is a middleware that logs requests
func LoggingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		entry := logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
			"status": c.Writer.Status(),
			"size":   c.Writer.Size(),
		})

		if len(c.Errors) > 0 {
			entry.Error("Request completed with errors")
		} else {
			entry.Info("Request completed")
		}
	}
}

// statusFor maps the domain error kinds to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, api.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, api.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, api.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, api.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, api.ErrMethodNotAllowed):
		return http.StatusMethodNotAllowed
	case errors.Is(err, api.ErrExtraction):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
