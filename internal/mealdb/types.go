package mealdb

import "github.com/pageza/mealbrowser/internal/types"

// Re-export the payload types decoded by the client
type (
	Category    = types.Category
	Area        = types.Area
	Ingredient  = types.Ingredient
	MealSummary = types.MealSummary
	MealDetail  = types.MealDetail
)
