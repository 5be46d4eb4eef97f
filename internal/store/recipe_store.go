package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

type RecipeStore struct {
	db *sql.DB
}

func NewRecipeStore(db *sql.DB) *RecipeStore {
	return &RecipeStore{db: db}
}

// Create inserts the recipe and its ingredient references in one transaction.
// Ingredient ids are stored as given; resolving them is the caller's job.
func (s *RecipeStore) Create(ctx context.Context, in domain.NewRecipe) (*domain.Recipe, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO recipes (id, name, category) VALUES (?, ?, ?)
	`, id, in.Name, string(in.Category)); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: a recipe named %q already exists", domain.ErrConflict, in.Name)
		}
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	for i, foodID := range in.Ingredients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recipe_ingredients (recipe_id, position, food_id) VALUES (?, ?, ?)
		`, id, i, foodID); err != nil {
			return nil, fmt.Errorf("failed to add ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit recipe: %w", err)
	}

	return &domain.Recipe{
		ID:            id,
		Name:          in.Name,
		Category:      in.Category,
		IngredientIDs: append([]string(nil), in.Ingredients...),
	}, nil
}

// GetByID returns (nil, nil) when no recipe has the given id.
func (s *RecipeStore) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	recipe := &domain.Recipe{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, category, wishlist FROM recipes WHERE id = ?
	`, id).Scan(&recipe.ID, &recipe.Name, &recipe.Category, &recipe.Wishlist)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT food_id FROM recipe_ingredients WHERE recipe_id = ? ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredients: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	recipe.IngredientIDs = make([]string, 0)
	for rows.Next() {
		var foodID string
		if err := rows.Scan(&foodID); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		recipe.IngredientIDs = append(recipe.IngredientIDs, foodID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return recipe, nil
}

// List returns every recipe ordered by name, each with its ingredient ids in
// insertion order.
func (s *RecipeStore) List(ctx context.Context) ([]*domain.Recipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, category, wishlist FROM recipes ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	recipes := make([]*domain.Recipe, 0)
	byID := make(map[string]*domain.Recipe)
	for rows.Next() {
		r := &domain.Recipe{IngredientIDs: make([]string, 0)}
		if err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Wishlist); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, r)
		byID[r.ID] = r
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating recipes: %w", err)
	}
	if err := rows.Close(); err != nil {
		slog.Error("failed to close rows", "error", err)
	}

	if len(recipes) == 0 {
		return recipes, nil
	}

	ingRows, err := s.db.QueryContext(ctx, `
		SELECT recipe_id, food_id FROM recipe_ingredients ORDER BY recipe_id, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer func() {
		if err := ingRows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	for ingRows.Next() {
		var recipeID, foodID string
		if err := ingRows.Scan(&recipeID, &foodID); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if r, ok := byID[recipeID]; ok {
			r.IngredientIDs = append(r.IngredientIDs, foodID)
		}
	}
	if err := ingRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}
	return recipes, nil
}

// SetWishlist sets the wishlist flag. Setting it to its current value is not
// an error.
func (s *RecipeStore) SetWishlist(ctx context.Context, id string, wishlist bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE recipes SET wishlist = ? WHERE id = ?
	`, wishlist, id)
	if err != nil {
		return fmt.Errorf("failed to update wishlist: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the recipe; its ingredient references go with it.
func (s *RecipeStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM recipes WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
