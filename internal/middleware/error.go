package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/render"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

const internalError = "Internal Server Error"

// ErrorHandler recovers panics and turns errors attached with c.Error into a
// response when the handler wrote none. API routes answer with JSON, pages
// with an error banner.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.For(c.Request.Context()).WithField("panic", rec).Error("Error: handler panicked")
				respondError(c, http.StatusInternalServerError, internalError)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		last := c.Errors.Last()
		logger.For(c.Request.Context()).WithError(last.Err).Error("Error: request failed")
		if c.Writer.Written() {
			return
		}
		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			status = http.StatusInternalServerError
		}
		message := internalError
		if last.IsType(gin.ErrorTypePublic) {
			message = last.Error()
		}
		respondError(c, status, message)
	}
}

func respondError(c *gin.Context, status int, message string) {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		c.AbortWithStatusJSON(status, ErrorResponse{Error: message})
		return
	}
	banner, err := render.Error(message)
	if err != nil {
		c.AbortWithStatus(status)
		return
	}
	c.Abort()
	c.Data(status, "text/html; charset=utf-8", []byte(banner))
}
