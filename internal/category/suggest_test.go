package category

import (
	"testing"

	"github.com/dukerupert/larder/internal/model"
)

func TestSuggestExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"milk", model.CategoryDairy},
		{"chicken", model.CategoryMeat},
		{"rice", model.CategoryGrains},
		{"apples", model.CategoryFruits},
		{"carrots", model.CategoryVegetables},
		{"paprika", model.CategorySpices},
		{"beans", model.CategoryCanned},
		{"ice cream", model.CategoryFrozen},
	}
	for _, tt := range tests {
		if got := Suggest(tt.input); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestKeywordMatch(t *testing.T) {
	tests := []struct {
		input string
		want  model.Category
	}{
		{"frozen spinach", model.CategoryFrozen},
		{"canned tomatoes", model.CategoryCanned},
		{"chicken breast", model.CategoryMeat},
		{"whole wheat bread", model.CategoryGrains},
		{"greek yogurt", model.CategoryDairy},
		{"garlic powder", model.CategorySpices},
		{"blueberries", model.CategoryFruits},
		{"baby spinach", model.CategoryVegetables},
		{"green beans", model.CategoryVegetables},
	}
	for _, tt := range tests {
		if got := Suggest(tt.input); got != tt.want {
			t.Errorf("Suggest(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSuggestCaseAndWhitespace(t *testing.T) {
	if got := Suggest("  MILK "); got != model.CategoryDairy {
		t.Errorf("Suggest(MILK) = %q, want %q", got, model.CategoryDairy)
	}
	if got := Suggest("Frozen Peas"); got != model.CategoryFrozen {
		t.Errorf("Suggest(Frozen Peas) = %q, want %q", got, model.CategoryFrozen)
	}
}

func TestSuggestUnknown(t *testing.T) {
	for _, input := range []string{"", "widget", "xyz123"} {
		if got := Suggest(input); got != model.CategoryOther {
			t.Errorf("Suggest(%q) = %q, want %q", input, got, model.CategoryOther)
		}
	}
}
