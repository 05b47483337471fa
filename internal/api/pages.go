package api

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/models"
	"github.com/pageza/mealbrowser/internal/render"
	"github.com/pageza/mealbrowser/internal/service"
	"github.com/pageza/mealbrowser/internal/types"
)

const (
	// ContentTarget is the page container replaced by meal fragments
	ContentTarget = "content"

	RequestTokenHeader  = "X-Request-Token"
	StaleResponseHeader = "X-Stale-Response"

	recentLimit = 8
)

// PageHandler serves the HTML pages and fragments
type PageHandler struct {
	browser service.IBrowserService
	history service.IHistoryService
}

// NewPageHandler creates a PageHandler. history may be nil.
func NewPageHandler(browser service.IBrowserService, history service.IHistoryService) *PageHandler {
	return &PageHandler{
		browser: browser,
		history: history,
	}
}

// RegisterRoutes mounts the page routes. limit guards the fragment route.
func (h *PageHandler) RegisterRoutes(router gin.IRouter, limit gin.HandlerFunc) {
	router.GET("/", h.Index)
	router.GET("/categories", h.CategoriesPage)
	router.GET("/meal/:id", h.MealPage)
	router.GET("/fragments/meals", limit, h.MealsFragment)
}

// Index renders the main page. Text, area and ingredient parameters run a
// search; otherwise the initial view is shown (category or letter browse).
func (h *PageHandler) Index(c *gin.Context) {
	var filters types.FilterState
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Status(http.StatusBadRequest)
		_ = c.Error(err).SetType(gin.ErrorTypePublic)
		return
	}

	ctx := c.Request.Context()
	ref := h.browser.LoadReferenceData(ctx)

	var (
		res    *service.MealResult
		err    error
		letter string
	)
	if filters.Value(types.CriterionText) != "" || filters.Value(types.CriterionArea) != "" || filters.Value(types.CriterionIngredient) != "" {
		res, err = h.browser.Search(ctx, filters)
	} else {
		res, err = h.browser.InitialView(ctx, filters.Category, c.Query("letter"))
		if strings.TrimSpace(filters.Category) == "" {
			letter = service.DefaultLetter
			if l, ok := service.NormalizeLetter(c.Query("letter")); ok {
				letter = l
			}
		}
	}

	content, err := mealsContent(res, err)
	if err != nil {
		h.renderFailed(c, err)
		return
	}

	h.page(c, render.PageData{
		Filters:     filters,
		Letter:      letter,
		Categories:  ref.Categories,
		Areas:       ref.Areas,
		Ingredients: ref.Ingredients,
		Notices:     ref.Messages(),
		Content:     content,
	})
}

// CategoriesPage renders the category grid
func (h *PageHandler) CategoriesPage(c *gin.Context) {
	ctx := c.Request.Context()
	ref := h.browser.LoadReferenceData(ctx)

	var (
		content template.HTML
		err     error
	)
	if ref.CategoriesError != "" {
		content, err = render.Error(ref.CategoriesError)
	} else {
		content, err = render.Categories(ref.Categories)
	}
	if err != nil {
		h.renderFailed(c, err)
		return
	}

	// the category failure is shown in place of the grid
	var notices []string
	for _, m := range []string{ref.AreasError, ref.IngredientsError} {
		if m != "" {
			notices = append(notices, m)
		}
	}

	h.page(c, render.PageData{
		Title:       "Meal Categories",
		Categories:  ref.Categories,
		Areas:       ref.Areas,
		Ingredients: ref.Ingredients,
		Notices:     notices,
		Content:     content,
	})
}

// MealPage renders the full recipe of one meal
func (h *PageHandler) MealPage(c *gin.Context) {
	ctx := c.Request.Context()
	ref := h.browser.LoadReferenceData(ctx)

	var title string
	status := http.StatusOK
	meal, err := h.browser.Meal(ctx, c.Param("id"))

	var content template.HTML
	if err != nil {
		if errors.Is(err, service.ErrNoResults) {
			status = http.StatusNotFound
		}
		content, err = render.Error(service.UserMessage(err))
	} else {
		title = meal.Name
		content, err = render.MealDetail(meal)
	}
	if err != nil {
		h.renderFailed(c, err)
		return
	}

	c.Status(status)
	h.page(c, render.PageData{
		Title:       title,
		Categories:  ref.Categories,
		Areas:       ref.Areas,
		Ingredients: ref.Ingredients,
		Notices:     ref.Messages(),
		Content:     content,
	})
}

// MealsFragment dispatches the filter criteria and returns the content
// fragment. The control parameter names the filter the user changed; the
// other filters are cleared before dispatch. A completion superseded by a
// newer request of the same session answers 204.
func (h *PageHandler) MealsFragment(c *gin.Context) {
	var filters types.FilterState
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.Status(http.StatusBadRequest)
		_ = c.Error(err).SetType(gin.ErrorTypePublic)
		return
	}
	if criterion, ok := types.ParseCriterion(c.Query("control")); ok {
		filters = filters.Focus(criterion)
	}

	ctx := c.Request.Context()
	search := func(ctx context.Context) (*service.MealResult, error) {
		return h.browser.Search(ctx, filters)
	}

	var (
		res *service.MealResult
		err error
	)
	if session := service.SessionFrom(ctx); session != "" {
		var token uint64
		token, res, err = h.browser.Guarded(ctx, session+":"+ContentTarget, search)
		if token > 0 {
			c.Header(RequestTokenHeader, strconv.FormatUint(token, 10))
		}
		if errors.Is(err, service.ErrStale) {
			c.Header(StaleResponseHeader, "true")
			c.Status(http.StatusNoContent)
			return
		}
	} else {
		res, err = search(ctx)
	}

	content, err := mealsContent(res, err)
	if err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(content))
}

// mealsContent renders a query outcome: the meal grid on success, the error
// banner otherwise. The returned error is a rendering failure only.
func mealsContent(res *service.MealResult, queryErr error) (template.HTML, error) {
	if queryErr != nil {
		return render.Error(service.UserMessage(queryErr))
	}
	return render.Meals(res.Meals)
}

func (h *PageHandler) page(c *gin.Context, data render.PageData) {
	data.Recent = h.recent(c)

	var buf bytes.Buffer
	if err := render.Page(&buf, data); err != nil {
		h.renderFailed(c, err)
		return
	}
	c.Data(c.Writer.Status(), "text/html; charset=utf-8", buf.Bytes())
}

func (h *PageHandler) recent(c *gin.Context) []render.Link {
	ctx := c.Request.Context()
	session := service.SessionFrom(ctx)
	if h.history == nil || session == "" {
		return nil
	}
	entries, err := h.history.Recent(ctx, session, recentLimit)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("failed to load search history")
		return nil
	}
	links := make([]render.Link, 0, len(entries))
	for _, e := range entries {
		links = append(links, HistoryLink(e))
	}
	return links
}

func (h *PageHandler) renderFailed(c *gin.Context, err error) {
	c.Status(http.StatusInternalServerError)
	_ = c.Error(err)
}

// HistoryLink turns a search log entry into a link repeating the query
func HistoryLink(entry models.SearchLog) render.Link {
	param := "q"
	label := entry.Value
	switch types.Criterion(entry.Criterion) {
	case types.CriterionCategory:
		param = "category"
	case types.CriterionArea:
		param = "area"
	case types.CriterionIngredient:
		param = "ingredient"
	case types.CriterionLetter:
		param = "letter"
		label = "Letter " + strings.ToUpper(entry.Value)
	}
	query := url.Values{}
	query.Set(param, entry.Value)
	return render.Link{Label: label, Href: "/?" + query.Encode()}
}
