package model

import (
	"strings"
	"time"
)

type Unit string

const (
	UnitPieces      Unit = "pieces"
	UnitKilograms   Unit = "kilograms"
	UnitGrams       Unit = "grams"
	UnitLitres      Unit = "litres"
	UnitMillilitres Unit = "millilitres"
	UnitCups        Unit = "cups"
	UnitTeaspoons   Unit = "teaspoons"
	UnitTablespoons Unit = "tablespoons"
)

var unitAliases = map[string]Unit{
	"pieces":      UnitPieces,
	"piece":       UnitPieces,
	"pcs":         UnitPieces,
	"kilograms":   UnitKilograms,
	"kilogram":    UnitKilograms,
	"kg":          UnitKilograms,
	"grams":       UnitGrams,
	"gram":        UnitGrams,
	"g":           UnitGrams,
	"litres":      UnitLitres,
	"litre":       UnitLitres,
	"liters":      UnitLitres,
	"liter":       UnitLitres,
	"l":           UnitLitres,
	"millilitres": UnitMillilitres,
	"millilitre":  UnitMillilitres,
	"milliliters": UnitMillilitres,
	"ml":          UnitMillilitres,
	"cups":        UnitCups,
	"cup":         UnitCups,
	"teaspoons":   UnitTeaspoons,
	"teaspoon":    UnitTeaspoons,
	"tsp":         UnitTeaspoons,
	"tablespoons": UnitTablespoons,
	"tablespoon":  UnitTablespoons,
	"tbsp":        UnitTablespoons,
}

// ParseUnit maps a unit name or common abbreviation onto a Unit.
// An empty string yields UnitPieces.
func ParseUnit(s string) (Unit, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return UnitPieces, true
	}
	u, ok := unitAliases[s]
	return u, ok
}

type Category string

const (
	CategoryFruits     Category = "fruits"
	CategoryVegetables Category = "vegetables"
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryGrains     Category = "grains"
	CategorySpices     Category = "spices"
	CategoryCanned     Category = "canned"
	CategoryFrozen     Category = "frozen"
	CategoryOther      Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFruits, CategoryVegetables, CategoryDairy, CategoryMeat,
	CategoryGrains, CategorySpices, CategoryCanned, CategoryFrozen, CategoryOther,
}

func ParseCategory(s string) (Category, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// ExpiringSoonWindow is how close to its expiry date a pantry item is flagged.
const ExpiringSoonWindow = 3 * 24 * time.Hour

// DefaultShelfLife is how long a newly added item keeps when no expiry date
// is given.
const DefaultShelfLife = 14 * 24 * time.Hour

// DefaultExpiry returns the expiry date given to a new item added at now:
// the calendar day DefaultShelfLife later, at midnight UTC.
func DefaultExpiry(now time.Time) time.Time {
	d := now.UTC().Add(DefaultShelfLife)
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

type PantryItem struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Quantity   int        `json:"quantity"`
	Unit       Unit       `json:"unit"`
	Category   Category   `json:"category,omitempty"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ExpiringSoon reports whether the item expires within ExpiringSoonWindow of now.
// Already expired items count as expiring soon.
func (p PantryItem) ExpiringSoon(now time.Time) bool {
	if p.ExpiryDate == nil {
		return false
	}
	return p.ExpiryDate.Sub(now) <= ExpiringSoonWindow
}
