// Package mongostore persists foods and recipes in MongoDB using the
// collection layout of the legacy deployment: foods and recipes collections,
// recipe ingredients stored as an array of food ObjectIDs.
package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	foodsCollection   = "foods"
	recipesCollection = "recipes"
)

// Client owns the MongoDB connection and hands out stores bound to it.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, verifies the server answers, and prepares the named
// database: unique name indexes on both collections and a wishlist=false
// backfill for recipes written before the field existed.
func Connect(ctx context.Context, uri, dbName string) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	c := &Client{client: client, db: client.Database(dbName)}
	if err := c.prepare(ctx); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	return c, nil
}

func (c *Client) prepare(ctx context.Context) error {
	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	for _, name := range []string{foodsCollection, recipesCollection} {
		if _, err := c.db.Collection(name).Indexes().CreateOne(ctx, unique); err != nil {
			return fmt.Errorf("failed to create %s name index: %w", name, err)
		}
	}

	_, err := c.db.Collection(recipesCollection).UpdateMany(ctx,
		bson.M{"wishlist": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"wishlist": false}},
	)
	if err != nil {
		return fmt.Errorf("failed to backfill recipe wishlist: %w", err)
	}
	return nil
}

func (c *Client) Foods() *FoodStore {
	return &FoodStore{coll: c.db.Collection(foodsCollection)}
}

func (c *Client) Recipes() *RecipeStore {
	return &RecipeStore{coll: c.db.Collection(recipesCollection)}
}

// DatabaseName is the name of the database the stores write to.
func (c *Client) DatabaseName() string {
	return c.db.Name()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
