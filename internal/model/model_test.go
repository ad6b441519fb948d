package model

import (
	"testing"
	"time"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"apples", "Apples"},
		{"  green   APPLES ", "Green Apples"},
		{"peanut butter", "Peanut Butter"},
		{"éclair", "Éclair"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := TitleCase(tt.in); got != tt.want {
			t.Errorf("TitleCase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseUnit(t *testing.T) {
	tests := []struct {
		in   string
		want Unit
		ok   bool
	}{
		{"", UnitPieces, true},
		{"kg", UnitKilograms, true},
		{"Litres", UnitLitres, true},
		{"tbsp", UnitTablespoons, true},
		{"bushels", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseUnit(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseUnit(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseCategory(t *testing.T) {
	if c, ok := ParseCategory(" Dairy "); !ok || c != CategoryDairy {
		t.Errorf("ParseCategory(Dairy) = (%q, %v)", c, ok)
	}
	if _, ok := ParseCategory("snacks"); ok {
		t.Error("expected snacks to be rejected")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to ContributionStatus
		want     bool
	}{
		{StatusAvailable, StatusClaimed, true},
		{StatusAvailable, StatusUnavailable, true},
		{StatusAvailable, StatusCollected, false},
		{StatusClaimed, StatusCollected, true},
		{StatusClaimed, StatusAvailable, false},
		{StatusClaimed, StatusClaimed, false},
		{StatusCollected, StatusCollected, false},
		{StatusUnavailable, StatusAvailable, false},
		{StatusUnavailable, StatusUnavailable, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestDefaultExpiry(t *testing.T) {
	now := time.Date(2026, 12, 25, 23, 10, 0, 0, time.UTC)
	want := time.Date(2027, 1, 8, 0, 0, 0, 0, time.UTC)
	if got := DefaultExpiry(now); !got.Equal(want) {
		t.Errorf("DefaultExpiry = %v, want %v", got, want)
	}
}

func TestPantryItemExpiringSoon(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	if (PantryItem{}).ExpiringSoon(now) {
		t.Error("item without expiry should not be expiring")
	}
	if !(PantryItem{ExpiryDate: in(2 * 24 * time.Hour)}).ExpiringSoon(now) {
		t.Error("item expiring in 2 days should be flagged")
	}
	if !(PantryItem{ExpiryDate: in(-time.Hour)}).ExpiringSoon(now) {
		t.Error("expired item should be flagged")
	}
	if (PantryItem{ExpiryDate: in(5 * 24 * time.Hour)}).ExpiringSoon(now) {
		t.Error("item expiring in 5 days should not be flagged")
	}
}

func TestContributionExpiry(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	in := func(d time.Duration) *time.Time { t := now.Add(d); return &t }

	c := Contribution{AvailableUntil: in(-time.Minute)}
	if !c.Expired(now) || c.ExpiringSoon(now) {
		t.Error("past offer should be expired, not expiring")
	}
	c = Contribution{AvailableUntil: in(0)}
	if !c.Expired(now) {
		t.Error("offer ending exactly now should be expired")
	}
	c = Contribution{AvailableUntil: in(6 * time.Hour)}
	if c.Expired(now) || !c.ExpiringSoon(now) {
		t.Error("offer ending in 6h should be expiring soon")
	}
	c = Contribution{}
	if c.Expired(now) || c.ExpiringSoon(now) {
		t.Error("open-ended offer never expires")
	}
}
