package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pageza/mealbrowser/internal/logger"
	"github.com/pageza/mealbrowser/internal/metrics"
	"github.com/pageza/mealbrowser/internal/models"
	"github.com/pageza/mealbrowser/internal/types"
)

// DefaultLetter is browsed when the page is opened without a category
const DefaultLetter = "a"

// MealResult is the outcome of a meal query with at least one match
type MealResult struct {
	Criterion types.Criterion     `json:"criterion"`
	Value     string              `json:"value"`
	Meals     []types.MealSummary `json:"meals"`
}

// ReferenceData holds the lists that populate the filter controls.
// Each list fails independently; the matching *Error holds the banner text.
type ReferenceData struct {
	Categories       []types.Category   `json:"categories"`
	Areas            []types.Area       `json:"areas"`
	Ingredients      []types.Ingredient `json:"ingredients"`
	CategoriesError  string             `json:"categories_error,omitempty"`
	AreasError       string             `json:"areas_error,omitempty"`
	IngredientsError string             `json:"ingredients_error,omitempty"`
}

// Messages returns the banner texts of the lists that failed to load
func (r *ReferenceData) Messages() []string {
	var out []string
	for _, m := range []string{r.CategoriesError, r.AreasError, r.IngredientsError} {
		if m != "" {
			out = append(out, m)
		}
	}
	return out
}

// BrowserService loads reference data and dispatches meal queries
type BrowserService struct {
	source    MealSource
	sequencer Sequencer
	history   IHistoryService
}

// Ensure BrowserService implements IBrowserService
var _ IBrowserService = (*BrowserService)(nil)

// NewBrowserService creates a BrowserService. history may be nil.
func NewBrowserService(source MealSource, sequencer Sequencer, history IHistoryService) *BrowserService {
	if sequencer == nil {
		sequencer = NewMemorySequencer(DefaultSequencerTTL)
	}
	return &BrowserService{
		source:    source,
		sequencer: sequencer,
		history:   history,
	}
}

// LoadReferenceData fetches categories, areas and ingredients concurrently
func (s *BrowserService) LoadReferenceData(ctx context.Context) *ReferenceData {
	defer logger.Track(ctx, "reference data load")()

	data := &ReferenceData{}
	var g errgroup.Group

	// each list records its own failure, so no goroutine returns an error
	g.Go(func() error {
		data.Categories, data.CategoriesError = loadList(ctx, "categories", s.source.Categories)
		return nil
	})
	g.Go(func() error {
		data.Areas, data.AreasError = loadList(ctx, "areas", s.source.Areas)
		return nil
	})
	g.Go(func() error {
		data.Ingredients, data.IngredientsError = loadList(ctx, "ingredients", s.source.Ingredients)
		return nil
	})
	_ = g.Wait()

	return data
}

func loadList[T any](ctx context.Context, name string, fetch func(context.Context) ([]T, error)) ([]T, string) {
	items, err := fetch(ctx)
	if err != nil {
		logger.For(ctx).WithError(err).Errorf("Error fetching %s", name)
		return nil, "Error fetching " + name + ". Please check your internet connection and try again."
	}
	if len(items) == 0 {
		logger.For(ctx).Errorf("Error fetching %s: empty payload", name)
		return nil, "Error fetching " + name + "."
	}
	logger.For(ctx).Debugf("loaded %d %s", len(items), name)
	return items, ""
}

// Categories returns the category reference list
func (s *BrowserService) Categories(ctx context.Context) ([]types.Category, error) {
	return s.source.Categories(ctx)
}

// Areas returns the area reference list
func (s *BrowserService) Areas(ctx context.Context) ([]types.Area, error) {
	return s.source.Areas(ctx)
}

// Ingredients returns the ingredient reference list
func (s *BrowserService) Ingredients(ctx context.Context) ([]types.Ingredient, error) {
	return s.source.Ingredients(ctx)
}

// Search dispatches exactly one query for the highest-priority criterion
// of the filter state. An empty filter state is rejected without a request.
func (s *BrowserService) Search(ctx context.Context, criteria types.FilterState) (*MealResult, error) {
	criterion, value, ok := criteria.Active()
	if !ok {
		return nil, queryError(msgNoCriteria, ErrNoCriteria)
	}

	var fetch func(context.Context, string) ([]types.MealSummary, error)
	switch criterion {
	case types.CriterionText:
		fetch = s.source.SearchMeals
	case types.CriterionCategory:
		fetch = s.source.MealsByCategory
	case types.CriterionArea:
		fetch = s.source.MealsByArea
	case types.CriterionIngredient:
		fetch = s.source.MealsByIngredient
	}

	logger.For(ctx).WithFields(logrus.Fields{"criterion": criterion, "value": value}).Debug("searching meals")
	return s.query(ctx, criterion, value, fetch, msgNoResults, msgFetchMeals)
}

// BrowseLetter lists meals whose name starts with letter
func (s *BrowserService) BrowseLetter(ctx context.Context, letter string) (*MealResult, error) {
	letter, ok := NormalizeLetter(letter)
	if !ok {
		return nil, queryError(msgInvalidLetter, ErrInvalidLetter)
	}
	return s.query(ctx, types.CriterionLetter, letter, s.source.MealsByLetter, msgNoLetterMeals, msgFetchMeals)
}

// BrowseCategory lists the meals of one category
func (s *BrowserService) BrowseCategory(ctx context.Context, category string) (*MealResult, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, queryError(msgNoCriteria, ErrNoCriteria)
	}
	return s.query(ctx, types.CriterionCategory, category, s.source.MealsByCategory, msgNoCategoryMeal, msgFetchCategory)
}

// InitialView picks the first view of the page: the category given on the
// page URL, otherwise a browse by letter (DefaultLetter unless a valid
// letter is given).
func (s *BrowserService) InitialView(ctx context.Context, category, letter string) (*MealResult, error) {
	if strings.TrimSpace(category) != "" {
		return s.BrowseCategory(ctx, category)
	}
	if l, ok := NormalizeLetter(letter); ok {
		return s.BrowseLetter(ctx, l)
	}
	return s.BrowseLetter(ctx, DefaultLetter)
}

// Meal returns the full recipe for id
func (s *BrowserService) Meal(ctx context.Context, id string) (*types.MealDetail, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, queryError(msgMealNotFound, ErrNoResults)
	}
	meal, err := s.source.LookupMeal(ctx, id)
	if err != nil {
		logger.For(ctx).WithError(err).Error("Error fetching meal details")
		return nil, queryError(msgFetchMeal, err)
	}
	if meal == nil {
		return nil, queryError(msgMealNotFound, ErrNoResults)
	}
	return meal, nil
}

// Guarded runs query under a fresh token for scope. When a newer token was
// issued for the same scope before query returned, the result is dropped and
// ErrStale is returned. Sequencer failures disable the guard for this call.
func (s *BrowserService) Guarded(ctx context.Context, scope string, query func(context.Context) (*MealResult, error)) (uint64, *MealResult, error) {
	token, err := s.sequencer.Next(ctx, scope)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("request sequencer unavailable")
		res, qerr := query(ctx)
		return 0, res, qerr
	}

	res, qerr := query(ctx)

	latest, err := s.sequencer.IsLatest(ctx, scope, token)
	if err != nil {
		logger.For(ctx).WithError(err).Warn("request sequencer unavailable")
		return token, res, qerr
	}
	if !latest {
		metrics.StaleResponsesTotal.Inc()
		logger.For(ctx).WithFields(logrus.Fields{"scope": scope, "token": token}).Debug("discarding stale response")
		return token, nil, ErrStale
	}
	return token, res, qerr
}

func (s *BrowserService) query(
	ctx context.Context,
	criterion types.Criterion,
	value string,
	fetch func(context.Context, string) ([]types.MealSummary, error),
	emptyMsg, failMsg string,
) (*MealResult, error) {
	meals, err := fetch(ctx, value)
	if err != nil {
		logger.For(ctx).WithError(err).WithField("criterion", criterion).Error("Error fetching meals")
		return nil, queryError(failMsg, err)
	}

	s.record(ctx, criterion, value, len(meals))

	if len(meals) == 0 {
		return nil, queryError(emptyMsg, ErrNoResults)
	}
	return &MealResult{Criterion: criterion, Value: value, Meals: meals}, nil
}

// record appends the query to the session history. Failures are only logged.
func (s *BrowserService) record(ctx context.Context, criterion types.Criterion, value string, results int) {
	session := SessionFrom(ctx)
	if s.history == nil || session == "" {
		return
	}
	err := s.history.Record(ctx, &models.SearchLog{
		ID:        uuid.New(),
		SessionID: session,
		Criterion: string(criterion),
		Value:     value,
		Results:   results,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.For(ctx).WithError(err).Warn("failed to record search history")
	}
}

// NormalizeLetter lower-cases letter and reports whether it is a single letter a-z
func NormalizeLetter(letter string) (string, bool) {
	letter = strings.ToLower(strings.TrimSpace(letter))
	if len(letter) != 1 || letter[0] < 'a' || letter[0] > 'z' {
		return "", false
	}
	return letter, true
}

type sessionKey struct{}

// ContextWithSession stores the browser session id in ctx
func ContextWithSession(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionFrom returns the browser session id stored in ctx
func SessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
