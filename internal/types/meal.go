package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Category is a meal category with its thumbnail and description
type Category struct {
	Name        string `json:"strCategory"`
	Thumbnail   string `json:"strCategoryThumb"`
	Description string `json:"strCategoryDescription"`
}

// Area is a cuisine area, e.g. "Japanese"
type Area struct {
	Name string `json:"strArea"`
}

// Ingredient is an entry of the ingredient reference list
type Ingredient struct {
	Name        string `json:"strIngredient"`
	Description string `json:"strDescription,omitempty"`
}

// MealSummary is the short form of a meal returned by search and filter
// queries. Filter queries leave Category and Area empty.
type MealSummary struct {
	ID        string `json:"idMeal"`
	Name      string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
	Category  string `json:"strCategory,omitempty"`
	Area      string `json:"strArea,omitempty"`
}

// MeasuredIngredient pairs an ingredient with its measure in a recipe
type MeasuredIngredient struct {
	Name    string `json:"name"`
	Measure string `json:"measure"`
}

// MealDetail is the full recipe returned by a lookup
type MealDetail struct {
	MealSummary
	Instructions string               `json:"strInstructions"`
	Tags         []string             `json:"tags"`
	YouTube      string               `json:"strYoutube"`
	Source       string               `json:"strSource"`
	Ingredients  []MeasuredIngredient `json:"ingredients"`
}

// maxIngredientSlots is the number of strIngredientN/strMeasureN pairs in a lookup payload
const maxIngredientSlots = 20

// UnmarshalJSON decodes the flat upstream lookup record, folding the numbered
// ingredient and measure fields into Ingredients.
func (m *MealDetail) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	get := func(key string) string {
		if v, ok := raw[key]; ok && v != nil {
			return strings.TrimSpace(*v)
		}
		return ""
	}

	*m = MealDetail{
		MealSummary: MealSummary{
			ID:        get("idMeal"),
			Name:      get("strMeal"),
			Thumbnail: get("strMealThumb"),
			Category:  get("strCategory"),
			Area:      get("strArea"),
		},
		Instructions: get("strInstructions"),
		YouTube:      get("strYoutube"),
		Source:       get("strSource"),
	}

	if tags := get("strTags"); tags != "" {
		for _, tag := range strings.Split(tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				m.Tags = append(m.Tags, tag)
			}
		}
	}

	for i := 1; i <= maxIngredientSlots; i++ {
		name := get(fmt.Sprintf("strIngredient%d", i))
		if name == "" {
			continue
		}
		m.Ingredients = append(m.Ingredients, MeasuredIngredient{
			Name:    name,
			Measure: get(fmt.Sprintf("strMeasure%d", i)),
		})
	}

	return nil
}

// MarshalJSON writes the normalized form rather than the upstream layout
func (m MealDetail) MarshalJSON() ([]byte, error) {
	type detail struct {
		ID           string               `json:"id"`
		Name         string               `json:"name"`
		Thumbnail    string               `json:"thumbnail"`
		Category     string               `json:"category"`
		Area         string               `json:"area"`
		Instructions string               `json:"instructions"`
		Tags         []string             `json:"tags"`
		YouTube      string               `json:"youtube,omitempty"`
		Source       string               `json:"source,omitempty"`
		Ingredients  []MeasuredIngredient `json:"ingredients"`
	}
	return json.Marshal(detail{
		ID:           m.ID,
		Name:         m.Name,
		Thumbnail:    m.Thumbnail,
		Category:     m.Category,
		Area:         m.Area,
		Instructions: m.Instructions,
		Tags:         m.Tags,
		YouTube:      m.YouTube,
		Source:       m.Source,
		Ingredients:  m.Ingredients,
	})
}
