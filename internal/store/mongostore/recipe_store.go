package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

type recipeDoc struct {
	ID          primitive.ObjectID   `bson:"_id"`
	Name        string               `bson:"name"`
	Category    string               `bson:"category"`
	Ingredients []primitive.ObjectID `bson:"ingredients"`
	Wishlist    bool                 `bson:"wishlist"`
}

func (d *recipeDoc) toDomain() *domain.Recipe {
	ids := make([]string, 0, len(d.Ingredients))
	for _, oid := range d.Ingredients {
		ids = append(ids, oid.Hex())
	}
	return &domain.Recipe{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		Category:      domain.Category(d.Category),
		IngredientIDs: ids,
		Wishlist:      d.Wishlist,
	}
}

type RecipeStore struct {
	coll *mongo.Collection
}

func (s *RecipeStore) Create(ctx context.Context, in domain.NewRecipe) (*domain.Recipe, error) {
	oids := make([]primitive.ObjectID, 0, len(in.Ingredients))
	for _, id := range in.Ingredients {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("%w: ingredient %q is not a valid food id", domain.ErrInvalidInput, id)
		}
		oids = append(oids, oid)
	}

	doc := recipeDoc{
		ID:          primitive.NewObjectID(),
		Name:        in.Name,
		Category:    string(in.Category),
		Ingredients: oids,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a recipe named %q already exists", domain.ErrConflict, in.Name)
		}
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByID returns (nil, nil) when no recipe has the given id.
func (s *RecipeStore) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc recipeDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *RecipeStore) List(ctx context.Context) ([]*domain.Recipe, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	var docs []recipeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode recipes: %w", err)
	}

	recipes := make([]*domain.Recipe, 0, len(docs))
	for i := range docs {
		recipes = append(recipes, docs[i].toDomain())
	}
	return recipes, nil
}

// SetWishlist sets the wishlist flag. A matched document that already has the
// value counts as success.
func (s *RecipeStore) SetWishlist(ctx context.Context, id string, wishlist bool) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}

	result, err := s.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"wishlist": wishlist}})
	if err != nil {
		return fmt.Errorf("failed to update wishlist: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *RecipeStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete recipe: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("recipe %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
