// Package render turns meal and category records into HTML fragments and
// pages. Every function works on explicit values only, so the output can be
// tested without a browser.
package render

import (
	"bytes"
	"embed"
	"html"
	"html/template"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"github.com/pageza/mealbrowser/internal/types"
)

// DescriptionLimit is the number of characters of a category description shown on its card
const DescriptionLimit = 100

//go:embed templates/*.html
var templateFS embed.FS

var (
	strict = bluemonday.StrictPolicy()

	templates = template.Must(template.New("render").Funcs(template.FuncMap{
		"summary": Summary,
		"letters": Letters,
		"upper":   strings.ToUpper,
	}).ParseFS(templateFS, "templates/*.html"))
)

// Link is a labelled URL, used for the recent searches list
type Link struct {
	Label string
	Href  string
}

// PageData is everything a full page is rendered from
type PageData struct {
	Title       string
	Filters     types.FilterState
	Letter      string
	Categories  []types.Category
	Areas       []types.Area
	Ingredients []types.Ingredient
	Notices     []string
	Recent      []Link
	Content     template.HTML
}

type pageView struct {
	PageData
	Menu              template.HTML
	CategoryOptions   template.HTML
	AreaOptions       template.HTML
	IngredientOptions template.HTML
	Banners           []template.HTML
}

type optionsView struct {
	Label    string
	Values   []string
	Selected string
}

// Meals renders the meal card grid. An empty list renders the no results banner.
func Meals(meals []types.MealSummary) (template.HTML, error) {
	if len(meals) == 0 {
		return Error("No meals found for the selected criteria.")
	}
	return execute("meals", meals)
}

// Categories renders the category card grid
func Categories(categories []types.Category) (template.HTML, error) {
	return execute("categories", categories)
}

// MealDetail renders the full recipe of one meal
func MealDetail(meal *types.MealDetail) (template.HTML, error) {
	return execute("meal_detail", meal)
}

// Error renders a dismissible alert banner carrying message
func Error(message string) (template.HTML, error) {
	return execute("error", message)
}

// Options renders a select's options: an "All {label}" default followed by
// one option per value, marking selected.
func Options(label string, values []string, selected string) (template.HTML, error) {
	return execute("options", optionsView{Label: label, Values: values, Selected: selected})
}

// CategoryMenu renders the navigation links to each category's meals
func CategoryMenu(categories []types.Category) (template.HTML, error) {
	return execute("category_menu", categories)
}

// Page writes a full HTML document to w
func Page(w io.Writer, data PageData) error {
	view := pageView{PageData: data}

	var err error
	if view.Menu, err = CategoryMenu(data.Categories); err != nil {
		return err
	}
	if view.CategoryOptions, err = Options("Categories", categoryNames(data.Categories), data.Filters.Category); err != nil {
		return err
	}
	if view.AreaOptions, err = Options("Areas", areaNames(data.Areas), data.Filters.Area); err != nil {
		return err
	}
	if view.IngredientOptions, err = Options("Ingredients", ingredientNames(data.Ingredients), data.Filters.Ingredient); err != nil {
		return err
	}
	for _, notice := range data.Notices {
		banner, err := Error(notice)
		if err != nil {
			return err
		}
		view.Banners = append(view.Banners, banner)
	}

	return templates.ExecuteTemplate(w, "page", view)
}

// Summary strips markup from a description and shortens it to DescriptionLimit characters
func Summary(description string) string {
	text := strings.TrimSpace(html.UnescapeString(strict.Sanitize(description)))
	if utf8.RuneCountInString(text) <= DescriptionLimit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:DescriptionLimit])) + "..."
}

// Letters returns the browse-by-letter alphabet
func Letters() []string {
	out := make([]string, 0, 26)
	for c := 'a'; c <= 'z'; c++ {
		out = append(out, string(c))
	}
	return out
}

func execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	// output of html/template is escaped already
	return template.HTML(buf.String()), nil
}

func categoryNames(categories []types.Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

func areaNames(areas []types.Area) []string {
	names := make([]string, 0, len(areas))
	for _, a := range areas {
		names = append(names, a.Name)
	}
	return names
}

func ingredientNames(ingredients []types.Ingredient) []string {
	names := make([]string, 0, len(ingredients))
	for _, i := range ingredients {
		names = append(names, i.Name)
	}
	return names
}
