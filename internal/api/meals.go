package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/service"
	"github.com/pageza/mealbrowser/internal/types"
)

// MealHandler serves the JSON API
type MealHandler struct {
	browser service.IBrowserService
}

func NewMealHandler(browser service.IBrowserService) *MealHandler {
	return &MealHandler{browser: browser}
}

// RegisterRoutes mounts the JSON routes on group. limit guards the search route.
func (h *MealHandler) RegisterRoutes(group *gin.RouterGroup, limit gin.HandlerFunc) {
	group.GET("/categories", h.ListCategories)
	group.GET("/areas", h.ListAreas)
	group.GET("/ingredients", h.ListIngredients)
	group.GET("/meals", limit, h.SearchMeals)
	group.GET("/meals/:id", h.GetMeal)
}

func (h *MealHandler) ListCategories(c *gin.Context) {
	categories, err := h.browser.Categories(c.Request.Context())
	if err != nil {
		h.fail(c, "Error fetching categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *MealHandler) ListAreas(c *gin.Context) {
	areas, err := h.browser.Areas(c.Request.Context())
	if err != nil {
		h.fail(c, "Error fetching areas", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"areas": areas})
}

func (h *MealHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.browser.Ingredients(c.Request.Context())
	if err != nil {
		h.fail(c, "Error fetching ingredients", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

// SearchMeals dispatches the filter criteria of the query string. Without any
// criterion a letter parameter browses by first letter.
func (h *MealHandler) SearchMeals(c *gin.Context) {
	var filters types.FilterState
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var (
		res *service.MealResult
		err error
	)
	if letter := strings.TrimSpace(c.Query("letter")); filters.IsEmpty() && letter != "" {
		res, err = h.browser.BrowseLetter(ctx, letter)
	} else {
		res, err = h.browser.Search(ctx, filters)
	}
	if err != nil {
		h.fail(c, "Error fetching meals", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MealHandler) GetMeal(c *gin.Context) {
	meal, err := h.browser.Meal(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Error fetching meal details", err)
		return
	}
	c.JSON(http.StatusOK, meal)
}

// fail answers with the status for err. Errors without a user message of
// their own are reported as msg.
func (h *MealHandler) fail(c *gin.Context, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, context.Canceled) {
		logger.For(c.Request.Context()).WithError(err).Error(msg)
	}

	message := msg + ". Please check your internet connection and try again."
	var qe *service.QueryError
	if errors.As(err, &qe) {
		message = qe.Message
	}
	c.JSON(status, gin.H{"error": message})
}
