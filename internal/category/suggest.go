package category

import (
	"strings"

	"github.com/dukerupert/larder/internal/model"
)

// Suggest returns the pantry category for the given item name.
// Matching is case-insensitive: exact name first, then keyword containment.
// Unknown names fall back to CategoryOther.
func Suggest(itemName string) model.Category {
	name := strings.ToLower(strings.TrimSpace(itemName))
	if name == "" {
		return model.CategoryOther
	}

	if cat, ok := exactMatch[name]; ok {
		return cat
	}

	for _, entry := range keywordMatches {
		if strings.Contains(name, entry.keyword) {
			return entry.category
		}
	}

	return model.CategoryOther
}

var exactMatch = map[string]model.Category{
	"apple":        model.CategoryFruits,
	"apples":       model.CategoryFruits,
	"banana":       model.CategoryFruits,
	"bananas":      model.CategoryFruits,
	"orange":       model.CategoryFruits,
	"oranges":      model.CategoryFruits,
	"lemon":        model.CategoryFruits,
	"lemons":       model.CategoryFruits,
	"lime":         model.CategoryFruits,
	"limes":        model.CategoryFruits,
	"pear":         model.CategoryFruits,
	"pears":        model.CategoryFruits,
	"grapes":       model.CategoryFruits,
	"avocado":      model.CategoryFruits,
	"avocados":     model.CategoryFruits,
	"mango":        model.CategoryFruits,
	"kiwi":         model.CategoryFruits,
	"tomato":       model.CategoryVegetables,
	"tomatoes":     model.CategoryVegetables,
	"potato":       model.CategoryVegetables,
	"potatoes":     model.CategoryVegetables,
	"onion":        model.CategoryVegetables,
	"onions":       model.CategoryVegetables,
	"garlic":       model.CategoryVegetables,
	"carrot":       model.CategoryVegetables,
	"carrots":      model.CategoryVegetables,
	"lettuce":      model.CategoryVegetables,
	"spinach":      model.CategoryVegetables,
	"broccoli":     model.CategoryVegetables,
	"cucumber":     model.CategoryVegetables,
	"peppers":      model.CategoryVegetables,
	"mushrooms":    model.CategoryVegetables,
	"corn":         model.CategoryVegetables,
	"milk":         model.CategoryDairy,
	"butter":       model.CategoryDairy,
	"cheese":       model.CategoryDairy,
	"yogurt":       model.CategoryDairy,
	"cream":        model.CategoryDairy,
	"eggs":         model.CategoryDairy,
	"chicken":      model.CategoryMeat,
	"beef":         model.CategoryMeat,
	"pork":         model.CategoryMeat,
	"bacon":        model.CategoryMeat,
	"turkey":       model.CategoryMeat,
	"lamb":         model.CategoryMeat,
	"sausage":      model.CategoryMeat,
	"salmon":       model.CategoryMeat,
	"tuna":         model.CategoryMeat,
	"rice":         model.CategoryGrains,
	"pasta":        model.CategoryGrains,
	"bread":        model.CategoryGrains,
	"flour":        model.CategoryGrains,
	"oats":         model.CategoryGrains,
	"quinoa":       model.CategoryGrains,
	"cereal":       model.CategoryGrains,
	"salt":         model.CategorySpices,
	"pepper":       model.CategorySpices,
	"cumin":        model.CategorySpices,
	"paprika":      model.CategorySpices,
	"cinnamon":     model.CategorySpices,
	"oregano":      model.CategorySpices,
	"basil":        model.CategorySpices,
	"turmeric":     model.CategorySpices,
	"chili flakes": model.CategorySpices,
	"beans":        model.CategoryCanned,
	"chickpeas":    model.CategoryCanned,
	"ice cream":    model.CategoryFrozen,
	"peas":         model.CategoryFrozen,
}

type keywordEntry struct {
	keyword  string
	category model.Category
}

// Ordered with storage-form keywords first so "frozen spinach" and
// "canned tomatoes" land in frozen and canned rather than vegetables.
var keywordMatches = []keywordEntry{
	{"frozen", model.CategoryFrozen},
	{"ice cream", model.CategoryFrozen},
	{"canned", model.CategoryCanned},
	{"tinned", model.CategoryCanned},
	{" can", model.CategoryCanned},
	{"soup", model.CategoryCanned},

	{"chicken", model.CategoryMeat},
	{"beef", model.CategoryMeat},
	{"pork", model.CategoryMeat},
	{"steak", model.CategoryMeat},
	{"mince", model.CategoryMeat},
	{"ham", model.CategoryMeat},
	{"fish", model.CategoryMeat},
	{"salmon", model.CategoryMeat},
	{"shrimp", model.CategoryMeat},

	{"milk", model.CategoryDairy},
	{"cheese", model.CategoryDairy},
	{"yogurt", model.CategoryDairy},
	{"yoghurt", model.CategoryDairy},
	{"butter", model.CategoryDairy},
	{"cream", model.CategoryDairy},

	{"bread", model.CategoryGrains},
	{"rice", model.CategoryGrains},
	{"pasta", model.CategoryGrains},
	{"spaghetti", model.CategoryGrains},
	{"noodle", model.CategoryGrains},
	{"flour", model.CategoryGrains},
	{"oat", model.CategoryGrains},
	{"tortilla", model.CategoryGrains},

	{"powder", model.CategorySpices},
	{"ground ", model.CategorySpices},
	{"seasoning", model.CategorySpices},
	{"spice", model.CategorySpices},
	{"herb", model.CategorySpices},

	{"berr", model.CategoryFruits},
	{"apple", model.CategoryFruits},
	{"banana", model.CategoryFruits},
	{"peach", model.CategoryFruits},
	{"melon", model.CategoryFruits},
	{"grape", model.CategoryFruits},
	{"citrus", model.CategoryFruits},

	{"lettuce", model.CategoryVegetables},
	{"spinach", model.CategoryVegetables},
	{"tomato", model.CategoryVegetables},
	{"potato", model.CategoryVegetables},
	{"onion", model.CategoryVegetables},
	{"carrot", model.CategoryVegetables},
	{"cabbage", model.CategoryVegetables},
	{"bean", model.CategoryVegetables},
	{"squash", model.CategoryVegetables},
	{"mushroom", model.CategoryVegetables},
}
