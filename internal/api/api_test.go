package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealbrowser/internal/mealdb"
	"github.com/pageza/mealbrowser/internal/middleware"
	"github.com/pageza/mealbrowser/internal/mocks"
	"github.com/pageza/mealbrowser/internal/service"
	"github.com/pageza/mealbrowser/internal/types"
)

var (
	teriyaki = types.MealSummary{ID: "52772", Name: "Teriyaki Chicken Casserole", Thumbnail: "https://example.com/t.jpg"}

	reference = &service.ReferenceData{
		Categories:  []types.Category{{Name: "Beef"}, {Name: "Chicken"}},
		Areas:       []types.Area{{Name: "Japanese"}},
		Ingredients: []types.Ingredient{{Name: "Chicken"}},
	}

	errUpstream = fmt.Errorf("%w: search.php: connection refused", mealdb.ErrUpstream)
)

func setupTestRouter(t *testing.T) (*gin.Engine, *mocks.MockBrowserService, *mocks.MockHistoryService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	browser := new(mocks.MockBrowserService)
	history := new(mocks.MockHistoryService)
	t.Cleanup(func() {
		browser.AssertExpectations(t)
		history.AssertExpectations(t)
	})

	noLimit := func(c *gin.Context) { c.Next() }

	router := gin.New()
	router.Use(middleware.ErrorHandler(), middleware.Session())
	NewPageHandler(browser, history).RegisterRoutes(router, noLimit)
	NewMealHandler(browser).RegisterRoutes(router.Group("/api/v1"), noLimit)
	router.GET("/health", NewHealthHandler(nil).HealthCheck)

	// pages list the recent searches of the session
	history.On("Recent", mock.Anything, mock.Anything, recentLimit).Return(nil, nil).Maybe()

	return router, browser, history
}

func performRequest(router http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func document(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(w.Body.String()))
	require.NoError(t, err)
	return doc
}
