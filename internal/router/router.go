package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/pageza/mealbrowser/internal/api"
	"github.com/pageza/mealbrowser/internal/middleware"
	"github.com/pageza/mealbrowser/internal/service"
)

// Dependencies are the services the routes are served from
type Dependencies struct {
	Browser service.IBrowserService
	// History may be nil, pages then show no recent searches
	History service.IHistoryService
	// DB may be nil, the health check then skips the database
	DB          *gorm.DB
	Limiter     middleware.Limiter
	CORSOrigins []string
}

// SetupRouter configures the application routes
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
		middleware.CORS(deps.CORSOrigins),
	)

	router.GET("/health", api.NewHealthHandler(deps.DB).HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.Limiter != nil {
		limit = middleware.RateLimitMiddleware(deps.Limiter)
	}

	// Browser pages and fragments
	pages := router.Group("")
	pages.Use(middleware.Session())
	api.NewPageHandler(deps.Browser, deps.History).RegisterRoutes(pages, limit)

	// API v1 routes
	v1 := router.Group("/api/v1")
	api.NewMealHandler(deps.Browser).RegisterRoutes(v1, limit)

	return router
}
