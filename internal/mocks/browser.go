package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/mealbrowser/internal/models"
	"github.com/pageza/mealbrowser/internal/service"
	"github.com/pageza/mealbrowser/internal/types"
)

// MockBrowserService is a mock implementation of the IBrowserService interface
type MockBrowserService struct {
	mock.Mock
}

var _ service.IBrowserService = (*MockBrowserService)(nil)

func (m *MockBrowserService) LoadReferenceData(ctx context.Context) *service.ReferenceData {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return &service.ReferenceData{}
	}
	return args.Get(0).(*service.ReferenceData)
}

func (m *MockBrowserService) Search(ctx context.Context, criteria types.FilterState) (*service.MealResult, error) {
	args := m.Called(ctx, criteria)
	return mealResult(args)
}

func (m *MockBrowserService) BrowseLetter(ctx context.Context, letter string) (*service.MealResult, error) {
	args := m.Called(ctx, letter)
	return mealResult(args)
}

func (m *MockBrowserService) BrowseCategory(ctx context.Context, category string) (*service.MealResult, error) {
	args := m.Called(ctx, category)
	return mealResult(args)
}

func (m *MockBrowserService) InitialView(ctx context.Context, category, letter string) (*service.MealResult, error) {
	args := m.Called(ctx, category, letter)
	return mealResult(args)
}

func (m *MockBrowserService) Meal(ctx context.Context, id string) (*types.MealDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.MealDetail), args.Error(1)
}

// Guarded records the scope and returns the configured token. A configured
// error (usually service.ErrStale) is returned as is; otherwise query runs.
func (m *MockBrowserService) Guarded(ctx context.Context, scope string, query func(context.Context) (*service.MealResult, error)) (uint64, *service.MealResult, error) {
	args := m.Called(ctx, scope)
	token := args.Get(0).(uint64)
	if err := args.Error(1); err != nil {
		return token, nil, err
	}
	res, err := query(ctx)
	return token, res, err
}

func (m *MockBrowserService) Categories(ctx context.Context) ([]types.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Category), args.Error(1)
}

func (m *MockBrowserService) Areas(ctx context.Context) ([]types.Area, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Area), args.Error(1)
}

func (m *MockBrowserService) Ingredients(ctx context.Context) ([]types.Ingredient, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Ingredient), args.Error(1)
}

func mealResult(args mock.Arguments) (*service.MealResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.MealResult), args.Error(1)
}

// MockHistoryService is a mock implementation of the IHistoryService interface
type MockHistoryService struct {
	mock.Mock
}

var _ service.IHistoryService = (*MockHistoryService)(nil)

func (m *MockHistoryService) Record(ctx context.Context, entry *models.SearchLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockHistoryService) Recent(ctx context.Context, sessionID string, limit int) ([]models.SearchLog, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchLog), args.Error(1)
}
