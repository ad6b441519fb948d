package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/larder/internal/model"
	"github.com/dukerupert/larder/internal/recipe"
	"github.com/dukerupert/larder/internal/sharing"
	"github.com/dukerupert/larder/internal/store"
)

// RecipeGenerator produces a recipe from ingredient lines.
type RecipeGenerator interface {
	Generate(ctx context.Context, ingredients []string) (*recipe.Generated, error)
}

type RecipeHandler struct {
	generator RecipeGenerator
	pantry    *store.PantryStore
	recipes   *store.RecipeStore
	logger    *slog.Logger
}

// NewRecipeHandler creates a RecipeHandler. A nil generator disables the
// generate endpoint but keeps saved recipes working.
func NewRecipeHandler(gen RecipeGenerator, ps *store.PantryStore, rs *store.RecipeStore, logger *slog.Logger) *RecipeHandler {
	return &RecipeHandler{generator: gen, pantry: ps, recipes: rs, logger: logger}
}

type pantrySelection struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity"`
}

type generateRequest struct {
	Ingredients []string          `json:"ingredients"`
	PantryItems []pantrySelection `json:"pantry_items" validate:"dive"`
}

func (h *RecipeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req generateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	ingredients, ok := h.ingredients(r.Context(), w, userID, req)
	if !ok {
		return
	}
	if len(ingredients) == 0 {
		writeMessage(w, http.StatusBadRequest, "No ingredients provided")
		return
	}

	if h.generator == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Recipe generation is not available right now.")
		return
	}

	generated, err := h.generator.Generate(r.Context(), ingredients)
	switch {
	case errors.Is(err, recipe.ErrNoIngredients):
		writeMessage(w, http.StatusBadRequest, "No ingredients provided")
		return
	case err != nil:
		h.logger.Error("recipe generation failed", "user_id", userID, "error", err)
		writeMessage(w, http.StatusBadGateway, "Could not generate a recipe, please try again.")
		return
	}

	writeJSON(w, http.StatusOK, generateResponse{Recipe: generated})
}

type generateResponse struct {
	Recipe *recipe.Generated `json:"recipe"`
}

// ingredients merges pantry selections, rendered with their clamped
// quantity, with free-text entries.
func (h *RecipeHandler) ingredients(ctx context.Context, w http.ResponseWriter, userID string, req generateRequest) ([]string, bool) {
	lines := make([]string, 0, len(req.PantryItems)+len(req.Ingredients))
	for _, sel := range req.PantryItems {
		item, err := h.pantry.Get(ctx, userID, sel.ID)
		if err != nil {
			h.logger.Error("failed to load pantry selection", "error", err)
			writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
			return nil, false
		}
		if item == nil {
			writeMessage(w, http.StatusNotFound, "This item no longer exists.")
			return nil, false
		}
		lines = append(lines, recipe.FormatIngredient(*item, sel.Quantity))
	}
	lines = append(lines, req.Ingredients...)
	return recipe.CleanIngredients(lines), true
}

type saveRecipeRequest struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Ingredients  []string `json:"ingredients" validate:"min=1"`
	Instructions []string `json:"instructions" validate:"min=1"`
	CookingTime  string   `json:"cooking_time" validate:"max=100"`
}

func (h *RecipeHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	list, err := h.recipes.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list recipes", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	if list == nil {
		list = []model.Recipe{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *RecipeHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req saveRecipeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	saved, err := h.recipes.Create(r.Context(), userID, model.Recipe{
		Name:         name,
		Ingredients:  recipe.CleanIngredients(req.Ingredients),
		Instructions: req.Instructions,
		CookingTime:  strings.TrimSpace(req.CookingTime),
	})
	if err != nil {
		h.logger.Error("failed to save recipe", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (h *RecipeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}

	deleted, err := h.recipes.Delete(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.logger.Error("failed to delete recipe", "error", err)
		writeMessage(w, http.StatusInternalServerError, sharing.GenericMessage)
		return
	}
	if !deleted {
		writeMessage(w, http.StatusNotFound, "Recipe not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
