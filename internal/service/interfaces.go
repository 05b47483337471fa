package service

import (
	"context"

	"github.com/pageza/mealbrowser/internal/models"
	"github.com/pageza/mealbrowser/internal/types"
)

// MealSource is the upstream recipe API
type MealSource interface {
	Categories(ctx context.Context) ([]types.Category, error)
	Areas(ctx context.Context) ([]types.Area, error)
	Ingredients(ctx context.Context) ([]types.Ingredient, error)
	MealsByLetter(ctx context.Context, letter string) ([]types.MealSummary, error)
	SearchMeals(ctx context.Context, text string) ([]types.MealSummary, error)
	MealsByCategory(ctx context.Context, category string) ([]types.MealSummary, error)
	MealsByArea(ctx context.Context, area string) ([]types.MealSummary, error)
	MealsByIngredient(ctx context.Context, ingredient string) ([]types.MealSummary, error)
	LookupMeal(ctx context.Context, id string) (*types.MealDetail, error)
}

// Sequencer issues strictly increasing tokens per scope so that late
// completions of superseded requests can be recognized
type Sequencer interface {
	Next(ctx context.Context, scope string) (uint64, error)
	IsLatest(ctx context.Context, scope string, token uint64) (bool, error)
}

// IBrowserService defines the operations behind the browser pages and API
type IBrowserService interface {
	LoadReferenceData(ctx context.Context) *ReferenceData
	Search(ctx context.Context, criteria types.FilterState) (*MealResult, error)
	BrowseLetter(ctx context.Context, letter string) (*MealResult, error)
	BrowseCategory(ctx context.Context, category string) (*MealResult, error)
	InitialView(ctx context.Context, category, letter string) (*MealResult, error)
	Meal(ctx context.Context, id string) (*types.MealDetail, error)
	Guarded(ctx context.Context, scope string, query func(context.Context) (*MealResult, error)) (uint64, *MealResult, error)
	Categories(ctx context.Context) ([]types.Category, error)
	Areas(ctx context.Context) ([]types.Area, error)
	Ingredients(ctx context.Context) ([]types.Ingredient, error)
}

// IHistoryService defines the search history operations
type IHistoryService interface {
	Record(ctx context.Context, entry *models.SearchLog) error
	Recent(ctx context.Context, sessionID string, limit int) ([]models.SearchLog, error)
}
