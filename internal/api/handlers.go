package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/mealbrowser/internal/database"
	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/mealdb"
	"github.com/pageza/mealbrowser/internal/service"
)

// StatusFor maps a service error to the HTTP status of the JSON API
func StatusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrNoCriteria), errors.Is(err, service.ErrInvalidLetter):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, mealdb.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// HealthHandler reports whether the service and its database are usable
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a HealthHandler. db may be nil.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthCheck returns the health status of the service
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.db != nil {
		if err := database.HealthCheck(c.Request.Context(), h.db); err != nil {
			logger.For(c.Request.Context()).WithError(err).Warn("database health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
