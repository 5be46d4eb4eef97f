package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

type foodDoc struct {
	ID            primitive.ObjectID `bson:"_id"`
	Name          string             `bson:"name"`
	Type          string             `bson:"type"`
	Group         string             `bson:"group"`
	InStock       bool               `bson:"instock"`
	LastPurchased *time.Time         `bson:"lastPurchased,omitempty"`
	Notes         string             `bson:"notes,omitempty"`
}

func (d *foodDoc) toDomain() *domain.Food {
	food := &domain.Food{
		ID:      d.ID.Hex(),
		Name:    d.Name,
		Type:    domain.FoodType(d.Type),
		Group:   domain.FoodGroup(d.Group),
		InStock: d.InStock,
		Notes:   d.Notes,
	}
	if d.LastPurchased != nil {
		t := d.LastPurchased.UTC()
		food.LastPurchased = &t
	}
	return food
}

type FoodStore struct {
	coll *mongo.Collection
}

func (s *FoodStore) Create(ctx context.Context, in domain.NewFood, now time.Time) (*domain.Food, error) {
	doc := foodDoc{
		ID:      primitive.NewObjectID(),
		Name:    in.Name,
		Type:    string(in.Type),
		Group:   string(in.Group),
		InStock: in.InStock,
		Notes:   in.Notes,
	}
	if in.InStock {
		t := now.UTC()
		doc.LastPurchased = &t
	}

	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: a food named %q already exists", domain.ErrConflict, in.Name)
		}
		return nil, fmt.Errorf("failed to create food: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByID returns (nil, nil) when no food has the given id, including when id
// is not a valid ObjectID.
func (s *FoodStore) GetByID(ctx context.Context, id string) (*domain.Food, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc foodDoc
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get food: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByIDs returns the foods that exist among ids, keyed by id. Ids that are
// not valid ObjectIDs cannot exist and are skipped.
func (s *FoodStore) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Food, error) {
	found := make(map[string]*domain.Food, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return found, nil
	}

	cur, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("failed to get foods: %w", err)
	}
	var docs []foodDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode foods: %w", err)
	}
	for i := range docs {
		food := docs[i].toDomain()
		found[food.ID] = food
	}
	return found, nil
}

func (s *FoodStore) List(ctx context.Context) ([]*domain.Food, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list foods: %w", err)
	}
	var docs []foodDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode foods: %w", err)
	}

	foods := make([]*domain.Food, 0, len(docs))
	for i := range docs {
		foods = append(foods, docs[i].toDomain())
	}
	return foods, nil
}

// Update applies patch in a single findOneAndUpdate and returns the stored
// result. instock and lastPurchased are always set together.
func (s *FoodStore) Update(ctx context.Context, id string, patch domain.FoodPatch, now time.Time) (*domain.Food, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
	}

	set := bson.M{}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Type != nil {
		set["type"] = string(*patch.Type)
	}
	if patch.Group != nil {
		set["group"] = string(*patch.Group)
	}
	if patch.InStock != nil {
		set["instock"] = *patch.InStock
		if *patch.InStock {
			set["lastPurchased"] = now.UTC()
		} else {
			set["lastPurchased"] = nil
		}
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}

	if len(set) == 0 {
		food, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if food == nil {
			return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
		}
		return food, nil
	}

	var doc foodDoc
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return nil, fmt.Errorf("%w: a food named %q already exists", domain.ErrConflict, *patch.Name)
	case err != nil:
		return nil, fmt.Errorf("failed to update food: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *FoodStore) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
	}

	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete food: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("food %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
