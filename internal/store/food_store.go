package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

const foodColumns = `id, name, type, food_group, instock, last_purchased, notes`

type FoodStore struct {
	db *sql.DB
}

func NewFoodStore(db *sql.DB) *FoodStore {
	return &FoodStore{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFood(row rowScanner) (*domain.Food, error) {
	food := &domain.Food{}
	var lastPurchased sql.NullTime
	if err := row.Scan(&food.ID, &food.Name, &food.Type, &food.Group, &food.InStock, &lastPurchased, &food.Notes); err != nil {
		return nil, err
	}
	if lastPurchased.Valid {
		t := lastPurchased.Time.UTC()
		food.LastPurchased = &t
	}
	return food, nil
}

func (s *FoodStore) Create(ctx context.Context, in domain.NewFood, now time.Time) (*domain.Food, error) {
	var lastPurchased any
	if in.InStock {
		lastPurchased = now.UTC()
	}

	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO foods (id, name, type, food_group, instock, last_purchased, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, in.Name, string(in.Type), string(in.Group), in.InStock, lastPurchased, in.Notes)
	if err != nil {
		return nil, classifyFoodWriteError(err, in.Name)
	}

	food, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if food == nil {
		return nil, fmt.Errorf("food %s vanished after insert: %w", id, domain.ErrNotFound)
	}
	return food, nil
}

// GetByID returns (nil, nil) when no food has the given id.
func (s *FoodStore) GetByID(ctx context.Context, id string) (*domain.Food, error) {
	food, err := scanFood(s.db.QueryRowContext(ctx, `
		SELECT `+foodColumns+` FROM foods WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food: %w", err)
	}
	return food, nil
}

// GetByIDs returns the foods that exist among ids, keyed by id. Missing ids
// are simply absent from the map.
func (s *FoodStore) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Food, error) {
	found := make(map[string]*domain.Food, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+foodColumns+` FROM foods WHERE id IN (`+placeholders(len(ids))+`)
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get foods: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		found[food.ID] = food
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foods: %w", err)
	}
	return found, nil
}

func (s *FoodStore) List(ctx context.Context) ([]*domain.Food, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+foodColumns+` FROM foods ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	foods := make([]*domain.Food, 0)
	for rows.Next() {
		food, err := scanFood(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating foods: %w", err)
	}
	return foods, nil
}

// Update applies patch and returns the stored result. instock and
// last_purchased are always written by the same statement.
func (s *FoodStore) Update(ctx context.Context, id string, patch domain.FoodPatch, now time.Time) (*domain.Food, error) {
	var sets []string
	var args []any
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*patch.Type))
	}
	if patch.Group != nil {
		sets = append(sets, "food_group = ?")
		args = append(args, string(*patch.Group))
	}
	if patch.InStock != nil {
		var lastPurchased any
		if *patch.InStock {
			lastPurchased = now.UTC()
		}
		sets = append(sets, "instock = ?", "last_purchased = ?")
		args = append(args, *patch.InStock, lastPurchased)
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(sets) > 0 {
		args = append(args, id)
		result, err := tx.ExecContext(ctx, `UPDATE foods SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			name := ""
			if patch.Name != nil {
				name = *patch.Name
			}
			return nil, classifyFoodWriteError(err, name)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
		}
	}

	food, err := scanFood(tx.QueryRowContext(ctx, `SELECT `+foodColumns+` FROM foods WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read updated food: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit food update: %w", err)
	}
	return food, nil
}

func (s *FoodStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM foods WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete food: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

func classifyFoodWriteError(err error, name string) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: a food named %q already exists", domain.ErrConflict, name)
	case isCheckViolation(err):
		return fmt.Errorf("%w: food type or group outside the allowed set", domain.ErrInvalidInput)
	default:
		return fmt.Errorf("failed to write food: %w", err)
	}
}
