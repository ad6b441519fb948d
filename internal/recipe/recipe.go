package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

var (
	ErrNoIngredients = errors.New("no ingredients provided")
	ErrNotConfigured = errors.New("recipe generation is not configured")
)

// FallbackName titles a recipe whose model output could not be parsed.
const FallbackName = "AI Generated Recipe"

// Generated is a recipe as returned to the caller of the generation endpoint.
type Generated struct {
	Name         string   `json:"name"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	CookingTime  string   `json:"cookingTime,omitempty"`
	Description  string   `json:"description,omitempty"`
	Servings     int      `json:"servings,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
}

// Recipe converts g into a savable recipe.
func (g Generated) Recipe() model.Recipe {
	return model.Recipe{
		Name:         g.Name,
		Ingredients:  g.Ingredients,
		Instructions: g.Instructions,
		CookingTime:  g.CookingTime,
	}
}

// FormatIngredient renders a pantry selection as "<qty> <unit> <name>".
// The requested quantity is clamped to 1..available.
func FormatIngredient(item model.PantryItem, requested int) string {
	qty := requested
	if qty > item.Quantity {
		qty = item.Quantity
	}
	if qty < 1 {
		qty = 1
	}
	return fmt.Sprintf("%d %s %s", qty, item.Unit, item.Name)
}

// CleanIngredients trims entries and drops blanks and case-insensitive
// duplicates, keeping first-seen order.
func CleanIngredients(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
