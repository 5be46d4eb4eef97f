package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vbonduro/dinnerplanner/internal/db"
	"github.com/vbonduro/dinnerplanner/internal/domain"
	"github.com/vbonduro/dinnerplanner/internal/metrics"
)

// FoodRepository is the food store contract shared by every backend.
type FoodRepository interface {
	Create(ctx context.Context, in domain.NewFood, now time.Time) (*domain.Food, error)
	GetByID(ctx context.Context, id string) (*domain.Food, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Food, error)
	List(ctx context.Context) ([]*domain.Food, error)
	Update(ctx context.Context, id string, patch domain.FoodPatch, now time.Time) (*domain.Food, error)
	Delete(ctx context.Context, id string) error
}

// RecipeRepository is the recipe store contract shared by every backend.
type RecipeRepository interface {
	Create(ctx context.Context, in domain.NewRecipe) (*domain.Recipe, error)
	GetByID(ctx context.Context, id string) (*domain.Recipe, error)
	List(ctx context.Context) ([]*domain.Recipe, error)
	SetWishlist(ctx context.Context, id string, wishlist bool) error
	Delete(ctx context.Context, id string) error
}

// Stores is one live backend connection as handed out by the connector.
type Stores struct {
	Foods    FoodRepository
	Recipes  RecipeRepository
	Database string
	Ping     func(ctx context.Context) error
	Close    func(ctx context.Context) error
}

// CloseStores adapts Stores.Close to a db.CloseFunc.
func CloseStores(ctx context.Context, s *Stores) error {
	if s == nil || s.Close == nil {
		return nil
	}
	return s.Close(ctx)
}

// FoodListing is the response shape of a food listing.
type FoodListing struct {
	Database   string         `json:"database"`
	FoodsCount int            `json:"foodsCount"`
	Foods      []*domain.Food `json:"foods"`
}

// Planner mediates every read and write over the food and recipe stores. It
// owns the store connection and enforces the invariants that span both
// collections.
type Planner struct {
	conn      *db.Connector[*Stores]
	logger    *slog.Logger
	opTimeout time.Duration
	validate  *validator.Validate
	now       func() time.Time
}

func NewPlanner(conn *db.Connector[*Stores], opTimeout time.Duration, logger *slog.Logger) *Planner {
	return &Planner{
		conn:      conn,
		logger:    logger,
		opTimeout: opTimeout,
		validate:  newValidator(),
		now:       time.Now,
	}
}

// acquire returns the live stores and a context bounded by the per-operation
// timeout. The caller must call cancel.
func (p *Planner) acquire(ctx context.Context) (*Stores, context.Context, context.CancelFunc, error) {
	stores, err := p.conn.Get(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	if p.opTimeout <= 0 {
		opCtx, cancel := context.WithCancel(ctx)
		return stores, opCtx, cancel, nil
	}
	opCtx, cancel := context.WithTimeout(ctx, p.opTimeout)
	return stores, opCtx, cancel, nil
}

func (p *Planner) ListFoods(ctx context.Context, filter domain.FoodFilter) (*FoodListing, error) {
	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	foods, err := stores.Foods.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.Food, 0, len(foods))
	for _, f := range foods {
		if filter.Match(f) {
			matched = append(matched, f)
		}
	}
	return &FoodListing{Database: stores.Database, FoodsCount: len(matched), Foods: matched}, nil
}

func (p *Planner) CreateFood(ctx context.Context, in domain.NewFood) (*domain.Food, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := p.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	food, err := stores.Foods.Create(ctx, in, p.now())
	if err != nil {
		return nil, err
	}
	p.logger.Info("food created", "food_id", food.ID, "name", food.Name)
	return food, nil
}

// UpdateFood applies patch to the food with the given id and returns the
// full updated record. An empty patch returns the current record.
func (p *Planner) UpdateFood(ctx context.Context, id string, patch domain.FoodPatch) (*domain.Food, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		patch.Name = &name
	}
	if err := p.validate.Struct(patch); err != nil {
		return nil, validationError(err)
	}

	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	if patch.Empty() {
		food, err := stores.Foods.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if food == nil {
			return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
		}
		return food, nil
	}

	food, err := stores.Foods.Update(ctx, id, patch, p.now())
	if err != nil {
		return nil, err
	}
	p.logger.Info("food updated", "food_id", food.ID, "instock", food.InStock)
	return food, nil
}

// DeleteFood removes the food. Recipes that reference it keep the reference;
// it is dropped when recipes are listed.
func (p *Planner) DeleteFood(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}

	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := stores.Foods.Delete(ctx, id); err != nil {
		return err
	}
	p.logger.Info("food deleted", "food_id", id)
	return nil
}

// ListRecipes returns the recipes matching filter with their ingredients
// expanded to full foods. References to foods that no longer exist are
// dropped from the result.
func (p *Planner) ListRecipes(ctx context.Context, filter domain.RecipeFilter) ([]*domain.RecipeDetail, error) {
	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	recipes, err := stores.Recipes.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]*domain.Recipe, 0, len(recipes))
	seen := make(map[string]struct{})
	var ids []string
	for _, r := range recipes {
		if !filter.Match(r) {
			continue
		}
		matched = append(matched, r)
		for _, id := range r.IngredientIDs {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
	}

	foods, err := stores.Foods.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	details := make([]*domain.RecipeDetail, 0, len(matched))
	for _, r := range matched {
		details = append(details, p.expand(r, foods))
	}
	return details, nil
}

func (p *Planner) expand(r *domain.Recipe, foods map[string]*domain.Food) *domain.RecipeDetail {
	detail := &domain.RecipeDetail{
		ID:          r.ID,
		Name:        r.Name,
		Category:    r.Category,
		Ingredients: make([]*domain.Food, 0, len(r.IngredientIDs)),
		Wishlist:    r.Wishlist,
	}
	for _, id := range r.IngredientIDs {
		food, ok := foods[id]
		if !ok {
			metrics.DanglingIngredientRefs.Inc()
			p.logger.Warn("recipe references missing food", "recipe_id", r.ID, "food_id", id)
			continue
		}
		detail.Ingredients = append(detail.Ingredients, food)
	}
	return detail
}

// CreateRecipe stores a new recipe. Every ingredient id must resolve to an
// existing food at creation time.
func (p *Planner) CreateRecipe(ctx context.Context, in domain.NewRecipe) (*domain.RecipeDetail, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := p.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	foods, err := stores.Foods.GetByIDs(ctx, in.Ingredients)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range in.Ingredients {
		if _, ok := foods[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: unknown ingredient ids: %s", domain.ErrInvalidInput, strings.Join(missing, ", "))
	}

	recipe, err := stores.Recipes.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	p.logger.Info("recipe created", "recipe_id", recipe.ID, "name", recipe.Name, "ingredients", len(recipe.IngredientIDs))
	return p.expand(recipe, foods), nil
}

// UpdateWishlist sets the wishlist flag. Repeating the same value succeeds.
func (p *Planner) UpdateWishlist(ctx context.Context, id string, wishlist bool) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}

	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := stores.Recipes.SetWishlist(ctx, id, wishlist); err != nil {
		return err
	}
	p.logger.Info("recipe wishlist updated", "recipe_id", id, "wishlist", wishlist)
	return nil
}

func (p *Planner) DeleteRecipe(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}

	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if err := stores.Recipes.Delete(ctx, id); err != nil {
		return err
	}
	p.logger.Info("recipe deleted", "recipe_id", id)
	return nil
}

// Ping reports whether the store connection can be established and answers.
func (p *Planner) Ping(ctx context.Context) error {
	stores, ctx, cancel, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	if stores.Ping == nil {
		return nil
	}
	if err := stores.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUnavailable, err)
	}
	return nil
}

// Close releases the store connection. Only called at shutdown.
func (p *Planner) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}
