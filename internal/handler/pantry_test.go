package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/larder/internal/model"
)

func (e *testEnv) createItem(t *testing.T, user string, body map[string]any) pantryItemResponse {
	t.Helper()
	rec := serve(t, "POST /api/pantry", e.pantry.Create, "POST", "/api/pantry", user, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[pantryItemResponse](t, rec)
}

func TestPantryCreateNormalizes(t *testing.T) {
	env := newTestEnv(t)

	item := env.createItem(t, "alice", map[string]any{"name": "  green APPLES ", "quantity": 4})

	assert.Equal(t, "Green Apples", item.Name)
	assert.Equal(t, model.UnitPieces, item.Unit)
	assert.Equal(t, model.CategoryFruits, item.Category)
	assert.Equal(t, "alice", item.OwnerID)
	assert.Equal(t, []pantryEvent{{"alice", "created", item.ID}}, env.notifier.pantry)
}

func TestPantryCreateExplicitFields(t *testing.T) {
	env := newTestEnv(t)
	expiry := time.Now().Add(24 * time.Hour).Format(time.DateOnly)

	item := env.createItem(t, "alice", map[string]any{
		"name": "milk", "quantity": 2, "unit": "l", "category": "Dairy", "expiry_date": expiry,
	})

	assert.Equal(t, model.UnitLitres, item.Unit)
	assert.Equal(t, model.CategoryDairy, item.Category)
	require.NotNil(t, item.ExpiryDate)
	assert.Equal(t, expiry, item.ExpiryDate.Format(time.DateOnly))
	assert.True(t, item.ExpiringSoon)
}

func TestPantryCreateDefaultsExpiry(t *testing.T) {
	env := newTestEnv(t)
	env.pantry.now = func() time.Time { return time.Date(2026, 3, 10, 18, 30, 0, 0, time.UTC) }

	item := env.createItem(t, "alice", map[string]any{"name": "bread", "quantity": 1})

	require.NotNil(t, item.ExpiryDate)
	assert.Equal(t, "2026-03-24", item.ExpiryDate.UTC().Format(time.DateOnly))
	assert.False(t, item.ExpiringSoon)
}

func TestPantryCreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"bad json", "{", "invalid JSON"},
		{"missing name", map[string]any{"quantity": 1}, "name is required"},
		{"blank name", map[string]any{"name": "   ", "quantity": 1}, "name is required"},
		{"zero quantity", map[string]any{"name": "rice", "quantity": 0}, "quantity must be at least 1"},
		{"unknown unit", map[string]any{"name": "rice", "quantity": 1, "unit": "bushels"}, "unknown unit"},
		{"unknown category", map[string]any{"name": "rice", "quantity": 1, "category": "snacks"}, "unknown category"},
		{"bad expiry", map[string]any{"name": "rice", "quantity": 1, "expiry_date": "soon"}, "expiry_date must be a date like 2006-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, "POST /api/pantry", env.pantry.Create, "POST", "/api/pantry", "alice", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, errorText(t, rec))
		})
	}
}

func TestPantryRequiresCaller(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(t, "GET /api/pantry", env.pantry.List, "GET", "/api/pantry", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPantryListScopedAndFiltered(t *testing.T) {
	env := newTestEnv(t)
	env.createItem(t, "alice", map[string]any{"name": "apples", "quantity": 3})
	env.createItem(t, "alice", map[string]any{"name": "milk", "quantity": 1})
	env.createItem(t, "bob", map[string]any{"name": "pears", "quantity": 2})

	rec := serve(t, "GET /api/pantry", env.pantry.List, "GET", "/api/pantry", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]pantryItemResponse](t, rec)
	require.Len(t, items, 2)
	assert.Equal(t, "Milk", items[0].Name, "newest first")

	rec = serve(t, "GET /api/pantry", env.pantry.List, "GET", "/api/pantry?category=dairy", "alice", nil)
	items = decode[[]pantryItemResponse](t, rec)
	require.Len(t, items, 1)
	assert.Equal(t, "Milk", items[0].Name)

	rec = serve(t, "GET /api/pantry", env.pantry.List, "GET", "/api/pantry?category=toys", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, "GET /api/pantry", env.pantry.List, "GET", "/api/pantry", "carol", nil)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestPantryGetUpdateDelete(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "alice", map[string]any{"name": "rice", "quantity": 1, "unit": "kg"})

	rec := serve(t, "GET /api/pantry/{id}", env.pantry.Get, "GET", "/api/pantry/"+item.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "other owners cannot see the item")

	rec = serve(t, "PUT /api/pantry/{id}", env.pantry.Update, "PUT", "/api/pantry/"+item.ID, "alice",
		map[string]any{"name": "brown rice", "quantity": 3, "unit": "kg", "category": "grains"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[pantryItemResponse](t, rec)
	assert.Equal(t, "Brown Rice", updated.Name)
	assert.Equal(t, 3, updated.Quantity)

	rec = serve(t, "PUT /api/pantry/{id}", env.pantry.Update, "PUT", "/api/pantry/"+item.ID, "bob",
		map[string]any{"name": "stolen", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, "DELETE /api/pantry/{id}", env.pantry.Delete, "DELETE", "/api/pantry/"+item.ID, "bob", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, "DELETE /api/pantry/{id}", env.pantry.Delete, "DELETE", "/api/pantry/"+item.ID, "alice", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = serve(t, "GET /api/pantry/{id}", env.pantry.Get, "GET", "/api/pantry/"+item.ID, "alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "This item no longer exists.", errorText(t, rec))
}

func TestPantryBulkDeleteAndClear(t *testing.T) {
	env := newTestEnv(t)
	a1 := env.createItem(t, "alice", map[string]any{"name": "apples", "quantity": 1})
	a2 := env.createItem(t, "alice", map[string]any{"name": "pears", "quantity": 1})
	env.createItem(t, "alice", map[string]any{"name": "plums", "quantity": 1})
	b1 := env.createItem(t, "bob", map[string]any{"name": "milk", "quantity": 1})

	rec := serve(t, "POST /api/pantry/bulk-delete", env.pantry.BulkDelete, "POST", "/api/pantry/bulk-delete", "alice",
		map[string]any{"ids": []string{a1.ID, a2.ID, b1.ID}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(2), decode[map[string]int64](t, rec)["deleted"])

	rec = serve(t, "POST /api/pantry/bulk-delete", env.pantry.BulkDelete, "POST", "/api/pantry/bulk-delete", "alice",
		map[string]any{"ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Select at least one item", errorText(t, rec))

	rec = serve(t, "DELETE /api/pantry", env.pantry.Clear, "DELETE", "/api/pantry", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[map[string]int64](t, rec)["deleted"])

	rec = serve(t, "GET /api/pantry/{id}", env.pantry.Get, "GET", "/api/pantry/"+b1.ID, "bob", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "bob's item survives alice's bulk operations")
}

func TestPantryShare(t *testing.T) {
	env := newTestEnv(t)
	item := env.createItem(t, "alice", map[string]any{"name": "apples", "quantity": 5})

	rec := serve(t, "POST /api/pantry/{id}/share", env.pantry.Share, "POST", "/api/pantry/"+item.ID+"/share", "alice",
		map[string]any{"quantity": 2, "description": " crisp ", "location": "porch"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	c := decode[contributionResponse](t, rec)
	assert.Equal(t, model.StatusAvailable, c.Status)
	assert.Equal(t, 2, c.Quantity)
	assert.Equal(t, "crisp", c.Description)

	rec = serve(t, "GET /api/pantry/{id}", env.pantry.Get, "GET", "/api/pantry/"+item.ID, "alice", nil)
	assert.Equal(t, 3, decode[pantryItemResponse](t, rec).Quantity)

	rec = serve(t, "POST /api/pantry/{id}/share", env.pantry.Share, "POST", "/api/pantry/"+item.ID+"/share", "alice",
		map[string]any{"quantity": 10})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot share more than what you have in inventory", errorText(t, rec))

	rec = serve(t, "POST /api/pantry/{id}/share", env.pantry.Share, "POST", "/api/pantry/"+item.ID+"/share", "bob",
		map[string]any{"quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, "POST /api/pantry/{id}/share", env.pantry.Share, "POST", "/api/pantry/"+item.ID+"/share", "alice",
		map[string]any{"quantity": 1, "available_until": "2001-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSuggestCategory(t *testing.T) {
	env := newTestEnv(t)

	rec := serve(t, "GET /api/categories/suggest", env.pantry.SuggestCategory, "GET", "/api/categories/suggest?name=frozen+peas", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "frozen", decode[map[string]string](t, rec)["category"])

	rec = serve(t, "GET /api/categories/suggest", env.pantry.SuggestCategory, "GET", "/api/categories/suggest", "alice", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
