package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/larder/internal/model"
	"github.com/google/uuid"
)

type RecipeStore struct {
	db DBTX
}

func NewRecipeStore(db DBTX) *RecipeStore {
	return &RecipeStore{db: db}
}

func scanRecipe(s scanner) (*model.Recipe, error) {
	var r model.Recipe
	var ingredients, instructions string

	err := s.Scan(&r.ID, &r.OwnerID, &r.Name, &ingredients, &instructions, &r.CookingTime, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(ingredients), &r.Ingredients); err != nil {
		return nil, fmt.Errorf("decode ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
		return nil, fmt.Errorf("decode instructions: %w", err)
	}
	return &r, nil
}

const recipeCols = `id, owner_id, name, ingredients, instructions, cooking_time, created_at`

// Create saves a recipe for ownerID. Nil slices are stored as empty arrays.
func (s *RecipeStore) Create(ctx context.Context, ownerID string, r model.Recipe) (*model.Recipe, error) {
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}
	if r.Instructions == nil {
		r.Instructions = []string{}
	}
	ingredients, err := json.Marshal(r.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("encode ingredients: %w", err)
	}
	instructions, err := json.Marshal(r.Instructions)
	if err != nil {
		return nil, fmt.Errorf("encode instructions: %w", err)
	}

	id := uuid.NewString()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recipes (`+recipeCols+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, ownerID, r.Name, string(ingredients), string(instructions), r.CookingTime, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	return s.Get(ctx, ownerID, id)
}

func (s *RecipeStore) Get(ctx context.Context, ownerID, id string) (*model.Recipe, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recipeCols+` FROM recipes WHERE id = ? AND owner_id = ?`, id, ownerID)
	r, err := scanRecipe(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get recipe: %w", err)
	}
	return r, nil
}

func (s *RecipeStore) List(ctx context.Context, ownerID string) ([]model.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeCols+` FROM recipes WHERE owner_id = ? ORDER BY created_at DESC, id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list recipes: %w", err)
	}
	defer rows.Close()

	var recipes []model.Recipe
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, *r)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) Delete(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return false, fmt.Errorf("delete recipe: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
