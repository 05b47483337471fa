package types

import "strings"

// Criterion identifies which filter drives a meal query
type Criterion string

const (
	CriterionText       Criterion = "text"
	CriterionCategory   Criterion = "category"
	CriterionArea       Criterion = "area"
	CriterionIngredient Criterion = "ingredient"
	CriterionLetter     Criterion = "letter"
)

// Priority lists the filter criteria from highest to lowest precedence
var Priority = []Criterion{CriterionText, CriterionCategory, CriterionArea, CriterionIngredient}

// ParseCriterion maps a control name to a criterion
func ParseCriterion(s string) (Criterion, bool) {
	switch c := Criterion(strings.ToLower(strings.TrimSpace(s))); c {
	case CriterionText, CriterionCategory, CriterionArea, CriterionIngredient, CriterionLetter:
		return c, true
	}
	return "", false
}

// FilterState holds the values of the four filter controls.
// At most one field drives a query, see Active.
type FilterState struct {
	Text       string `json:"q" form:"q"`
	Category   string `json:"category" form:"category"`
	Area       string `json:"area" form:"area"`
	Ingredient string `json:"ingredient" form:"ingredient"`
}

// Value returns the trimmed value of the field for c
func (f FilterState) Value(c Criterion) string {
	switch c {
	case CriterionText:
		return strings.TrimSpace(f.Text)
	case CriterionCategory:
		return strings.TrimSpace(f.Category)
	case CriterionArea:
		return strings.TrimSpace(f.Area)
	case CriterionIngredient:
		return strings.TrimSpace(f.Ingredient)
	}
	return ""
}

// Active returns the highest-priority non-empty criterion and its value.
func (f FilterState) Active() (Criterion, string, bool) {
	for _, c := range Priority {
		if v := f.Value(c); v != "" {
			return c, v, true
		}
	}
	return "", "", false
}

// IsEmpty reports whether no criterion is set
func (f FilterState) IsEmpty() bool {
	_, _, ok := f.Active()
	return !ok
}

// Focus keeps only the field of the control the user just changed and
// clears the others.
func (f FilterState) Focus(c Criterion) FilterState {
	var out FilterState
	switch c {
	case CriterionText:
		out.Text = f.Text
	case CriterionCategory:
		out.Category = f.Category
	case CriterionArea:
		out.Area = f.Area
	case CriterionIngredient:
		out.Ingredient = f.Ingredient
	}
	return out
}
