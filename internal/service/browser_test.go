package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/mealbrowser/internal/models"
	"github.com/pageza/mealbrowser/internal/types"
)

// MockMealSource is a mock implementation of the MealSource interface
type MockMealSource struct {
	mock.Mock
}

func (m *MockMealSource) Categories(ctx context.Context) ([]types.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockMealSource) Areas(ctx context.Context) ([]types.Area, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Area), args.Error(1)
}

func (m *MockMealSource) Ingredients(ctx context.Context) ([]types.Ingredient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Ingredient), args.Error(1)
}

func (m *MockMealSource) meals(method string, ctx context.Context, value string) ([]types.MealSummary, error) {
	args := m.MethodCalled(method, ctx, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MealSummary), args.Error(1)
}

func (m *MockMealSource) MealsByLetter(ctx context.Context, letter string) ([]types.MealSummary, error) {
	return m.meals("MealsByLetter", ctx, letter)
}

func (m *MockMealSource) SearchMeals(ctx context.Context, text string) ([]types.MealSummary, error) {
	return m.meals("SearchMeals", ctx, text)
}

func (m *MockMealSource) MealsByCategory(ctx context.Context, category string) ([]types.MealSummary, error) {
	return m.meals("MealsByCategory", ctx, category)
}

func (m *MockMealSource) MealsByArea(ctx context.Context, area string) ([]types.MealSummary, error) {
	return m.meals("MealsByArea", ctx, area)
}

func (m *MockMealSource) MealsByIngredient(ctx context.Context, ingredient string) ([]types.MealSummary, error) {
	return m.meals("MealsByIngredient", ctx, ingredient)
}

func (m *MockMealSource) LookupMeal(ctx context.Context, id string) (*types.MealDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MealDetail), args.Error(1)
}

type recordingHistory struct {
	mu      sync.Mutex
	entries []models.SearchLog
}

func (h *recordingHistory) Record(_ context.Context, entry *models.SearchLog) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *recordingHistory) Recent(context.Context, string, int) ([]models.SearchLog, error) {
	return h.entries, nil
}

var (
	errUpstream = errors.New("dial tcp: no such host")
	teriyaki    = []types.MealSummary{{ID: "52772", Name: "Teriyaki Chicken", Thumbnail: "u1", Category: "Chicken", Area: "Japanese"}}
)

func TestSearchRejectsEmptyCriteria(t *testing.T) {
	source := new(MockMealSource)
	svc := NewBrowserService(source, nil, nil)

	for _, criteria := range []types.FilterState{{}, {Text: "   "}} {
		res, err := svc.Search(context.Background(), criteria)
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, ErrNoCriteria))
		assert.Equal(t, "Please provide at least one search criterion.", UserMessage(err))
	}

	// no request was issued
	source.AssertExpectations(t)
	assert.Empty(t, source.Calls)
}

func TestSearchDispatchesOneEndpointByPriority(t *testing.T) {
	tests := []struct {
		name      string
		criteria  types.FilterState
		method    string
		value     string
		criterion types.Criterion
	}{
		{"text only", types.FilterState{Text: "teriyaki"}, "SearchMeals", "teriyaki", types.CriterionText},
		{"category only", types.FilterState{Category: "Chicken"}, "MealsByCategory", "Chicken", types.CriterionCategory},
		{"area only", types.FilterState{Area: "Japanese"}, "MealsByArea", "Japanese", types.CriterionArea},
		{"ingredient only", types.FilterState{Ingredient: "soy sauce"}, "MealsByIngredient", "soy sauce", types.CriterionIngredient},
		{"all set", types.FilterState{Text: "teriyaki", Category: "Chicken", Area: "Japanese", Ingredient: "soy sauce"}, "SearchMeals", "teriyaki", types.CriterionText},
		{"category and ingredient", types.FilterState{Category: "Chicken", Ingredient: "soy sauce"}, "MealsByCategory", "Chicken", types.CriterionCategory},
		{"area and ingredient", types.FilterState{Area: "Japanese", Ingredient: "soy sauce"}, "MealsByArea", "Japanese", types.CriterionArea},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := new(MockMealSource)
			source.On(tt.method, mock.Anything, tt.value).Return(teriyaki, nil).Once()
			svc := NewBrowserService(source, nil, nil)

			res, err := svc.Search(context.Background(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.criterion, res.Criterion)
			assert.Equal(t, tt.value, res.Value)
			assert.Equal(t, teriyaki, res.Meals)

			source.AssertExpectations(t)
			assert.Len(t, source.Calls, 1)
		})
	}
}

func TestSearchEmptyAndFailedResults(t *testing.T) {
	t.Run("no matches", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("SearchMeals", mock.Anything, "zzz").Return([]types.MealSummary{}, nil)
		svc := NewBrowserService(source, nil, nil)

		res, err := svc.Search(context.Background(), types.FilterState{Text: "zzz"})
		assert.Nil(t, res)
		assert.True(t, errors.Is(err, ErrNoResults))
		assert.Equal(t, "No meals found for the selected criteria.", UserMessage(err))
	})

	t.Run("transport failure", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("MealsByArea", mock.Anything, "Japanese").Return(nil, errUpstream)
		svc := NewBrowserService(source, nil, nil)

		_, err := svc.Search(context.Background(), types.FilterState{Area: "Japanese"})
		assert.True(t, errors.Is(err, errUpstream))
		assert.Equal(t, "Error fetching meals. Please check your internet connection and try again.", UserMessage(err))
	})
}

func TestInitialView(t *testing.T) {
	t.Run("category from the page URL", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("MealsByCategory", mock.Anything, "Seafood").Return(teriyaki, nil)
		svc := NewBrowserService(source, nil, nil)

		res, err := svc.InitialView(context.Background(), "Seafood", "")
		require.NoError(t, err)
		assert.Equal(t, types.CriterionCategory, res.Criterion)
		source.AssertExpectations(t)
	})

	t.Run("defaults to letter a", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("MealsByLetter", mock.Anything, "a").Return(teriyaki, nil)
		svc := NewBrowserService(source, nil, nil)

		res, err := svc.InitialView(context.Background(), "", "")
		require.NoError(t, err)
		assert.Equal(t, types.CriterionLetter, res.Criterion)
		assert.Equal(t, "a", res.Value)
		source.AssertExpectations(t)
	})

	t.Run("letter parameter", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("MealsByLetter", mock.Anything, "t").Return(teriyaki, nil)
		svc := NewBrowserService(source, nil, nil)

		_, err := svc.InitialView(context.Background(), "", "T")
		require.NoError(t, err)
		source.AssertExpectations(t)
	})

	t.Run("invalid letter falls back to default", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("MealsByLetter", mock.Anything, "a").Return(teriyaki, nil)
		svc := NewBrowserService(source, nil, nil)

		_, err := svc.InitialView(context.Background(), "", "ab")
		require.NoError(t, err)
		source.AssertExpectations(t)
	})

	t.Run("empty category result", func(t *testing.T) {
		source := new(MockMealSource)
		source.On("MealsByCategory", mock.Anything, "Nothing").Return([]types.MealSummary{}, nil)
		svc := NewBrowserService(source, nil, nil)

		_, err := svc.InitialView(context.Background(), "Nothing", "")
		assert.Equal(t, "No meals found for the selected category.", UserMessage(err))
	})
}

func TestBrowseLetterValidation(t *testing.T) {
	svc := NewBrowserService(new(MockMealSource), nil, nil)

	_, err := svc.BrowseLetter(context.Background(), "7")
	assert.True(t, errors.Is(err, ErrInvalidLetter))
}

func TestLoadReferenceDataIsIndependentPerList(t *testing.T) {
	source := new(MockMealSource)
	source.On("Categories", mock.Anything).Return([]types.Category{{Name: "Beef"}}, nil)
	source.On("Areas", mock.Anything).Return(nil, errUpstream)
	source.On("Ingredients", mock.Anything).Return([]types.Ingredient{}, nil)
	svc := NewBrowserService(source, nil, nil)

	data := svc.LoadReferenceData(context.Background())

	assert.Equal(t, []types.Category{{Name: "Beef"}}, data.Categories)
	assert.Empty(t, data.CategoriesError)
	assert.Nil(t, data.Areas)
	assert.Equal(t, "Error fetching areas. Please check your internet connection and try again.", data.AreasError)
	assert.Equal(t, "Error fetching ingredients.", data.IngredientsError)
	assert.Equal(t, []string{data.AreasError, data.IngredientsError}, data.Messages())
	source.AssertExpectations(t)
}

func TestMeal(t *testing.T) {
	source := new(MockMealSource)
	source.On("LookupMeal", mock.Anything, "52772").Return(&types.MealDetail{MealSummary: teriyaki[0]}, nil)
	source.On("LookupMeal", mock.Anything, "1").Return(nil, nil)
	source.On("LookupMeal", mock.Anything, "2").Return(nil, errUpstream)
	svc := NewBrowserService(source, nil, nil)

	meal, err := svc.Meal(context.Background(), "52772")
	require.NoError(t, err)
	assert.Equal(t, "Teriyaki Chicken", meal.Name)

	_, err = svc.Meal(context.Background(), "1")
	assert.True(t, errors.Is(err, ErrNoResults))
	assert.Equal(t, "Meal not found.", UserMessage(err))

	_, err = svc.Meal(context.Background(), "2")
	assert.True(t, errors.Is(err, errUpstream))
}

func TestGuardedDiscardsStaleCompletions(t *testing.T) {
	ctx := context.Background()
	seq := NewMemorySequencer(time.Minute)
	svc := NewBrowserService(new(MockMealSource), seq, nil)

	fresh := &MealResult{Criterion: types.CriterionArea, Value: "Japanese"}

	// a slow query during which the user triggered another one
	token, res, err := svc.Guarded(ctx, "s1:content", func(ctx context.Context) (*MealResult, error) {
		_, _ = seq.Next(ctx, "s1:content")
		return fresh, nil
	})
	assert.Equal(t, uint64(1), token)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, ErrStale))

	// the newest query is kept
	token, res, err = svc.Guarded(ctx, "s1:content", func(context.Context) (*MealResult, error) {
		return fresh, nil
	})
	assert.Equal(t, uint64(3), token)
	assert.Equal(t, fresh, res)
	assert.NoError(t, err)

	// other sessions are not affected
	token, res, err = svc.Guarded(ctx, "s2:content", func(context.Context) (*MealResult, error) {
		return fresh, nil
	})
	assert.Equal(t, uint64(1), token)
	assert.Equal(t, fresh, res)
	assert.NoError(t, err)
}

func TestSearchRecordsHistoryForSession(t *testing.T) {
	source := new(MockMealSource)
	source.On("MealsByIngredient", mock.Anything, "Garlic").Return(teriyaki, nil)
	history := &recordingHistory{}
	svc := NewBrowserService(source, nil, history)

	// without a session nothing is recorded
	_, err := svc.Search(context.Background(), types.FilterState{Ingredient: "Garlic"})
	require.NoError(t, err)
	assert.Empty(t, history.entries)

	ctx := ContextWithSession(context.Background(), "session-1")
	_, err = svc.Search(ctx, types.FilterState{Ingredient: "Garlic"})
	require.NoError(t, err)
	require.Len(t, history.entries, 1)
	assert.Equal(t, "session-1", history.entries[0].SessionID)
	assert.Equal(t, "ingredient", history.entries[0].Criterion)
	assert.Equal(t, "Garlic", history.entries[0].Value)
	assert.Equal(t, 1, history.entries[0].Results)
}
