package mongostore

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vbonduro/dinnerplanner/internal/domain"
)

var testMongoURI string

func TestMain(m *testing.M) {
	flag.Parse()

	var terminate func()
	if !testing.Short() {
		testMongoURI, terminate = setupContainer(context.Background())
	}

	code := m.Run()

	if terminate != nil {
		terminate()
	}
	os.Exit(code)
}

func setupContainer(ctx context.Context) (string, func()) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic in setupContainer: %v\n", r)
		}
	}()

	container, err := mongodb.Run(ctx, "mongo:7")
	if err != nil {
		fmt.Printf("WARNING: Failed to start mongodb container: %v\n", err)
		return "", func() {}
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		fmt.Printf("WARNING: Failed to get connection string: %v\n", err)
		_ = container.Terminate(ctx)
		return "", func() {}
	}

	return uri, func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate container: %v\n", err)
		}
	}
}

// connectTestClient connects to a fresh database so tests do not share state.
func connectTestClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if testMongoURI == "" {
		t.Skip("Skipping integration test: mongodb not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Connect(ctx, testMongoURI, "test_"+primitive.NewObjectID().Hex())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.db.Drop(context.Background())
		_ = c.Close(context.Background())
	})
	return c
}

func ptr[T any](v T) *T { return &v }

var testNow = time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)

func TestFoodStoreLifecycle(t *testing.T) {
	c := connectTestClient(t)
	foods := c.Foods()
	ctx := context.Background()

	chicken, err := foods.Create(ctx, domain.NewFood{Name: "Chicken", Type: domain.FoodTypeMain, Group: domain.FoodGroupProtein}, testNow)
	require.NoError(t, err)
	assert.Len(t, chicken.ID, 24)
	assert.Nil(t, chicken.LastPurchased)

	_, err = foods.Create(ctx, domain.NewFood{Name: "Chicken", Type: domain.FoodTypeMain, Group: domain.FoodGroupProtein}, testNow)
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = foods.Create(ctx, domain.NewFood{Name: "Basil", Type: domain.FoodTypePantry, Group: domain.FoodGroupVeggie}, testNow)
	require.NoError(t, err)

	list, err := foods.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Basil", list[0].Name)
	assert.Equal(t, "Chicken", list[1].Name)

	updated, err := foods.Update(ctx, chicken.ID, domain.FoodPatch{InStock: ptr(true)}, testNow)
	require.NoError(t, err)
	assert.True(t, updated.InStock)
	require.NotNil(t, updated.LastPurchased)
	assert.WithinDuration(t, testNow, *updated.LastPurchased, time.Millisecond)

	updated, err = foods.Update(ctx, chicken.ID, domain.FoodPatch{InStock: ptr(false)}, testNow)
	require.NoError(t, err)
	assert.False(t, updated.InStock)
	assert.Nil(t, updated.LastPurchased)

	_, err = foods.Update(ctx, chicken.ID, domain.FoodPatch{Name: ptr("Basil")}, testNow)
	assert.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, foods.Delete(ctx, chicken.ID))
	assert.ErrorIs(t, foods.Delete(ctx, chicken.ID), domain.ErrNotFound)
	assert.ErrorIs(t, foods.Delete(ctx, "not-an-object-id"), domain.ErrNotFound)

	gone, err := foods.GetByID(ctx, chicken.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestFoodStoreGetByIDs(t *testing.T) {
	c := connectTestClient(t)
	foods := c.Foods()
	ctx := context.Background()

	rice, err := foods.Create(ctx, domain.NewFood{Name: "Rice", Type: domain.FoodTypePantry, Group: domain.FoodGroupOther}, testNow)
	require.NoError(t, err)

	found, err := foods.GetByIDs(ctx, []string{rice.ID, primitive.NewObjectID().Hex(), "garbage"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "Rice", found[rice.ID].Name)
}

func TestRecipeStoreLifecycle(t *testing.T) {
	c := connectTestClient(t)
	foods := c.Foods()
	recipes := c.Recipes()
	ctx := context.Background()

	chicken, err := foods.Create(ctx, domain.NewFood{Name: "Chicken", Type: domain.FoodTypeMain, Group: domain.FoodGroupProtein}, testNow)
	require.NoError(t, err)
	carrot, err := foods.Create(ctx, domain.NewFood{Name: "Carrot", Type: domain.FoodTypeSecondary, Group: domain.FoodGroupVeggie}, testNow)
	require.NoError(t, err)

	soup, err := recipes.Create(ctx, domain.NewRecipe{Name: "Chicken Soup", Category: "Soup", Ingredients: []string{chicken.ID, carrot.ID}})
	require.NoError(t, err)
	assert.Equal(t, []string{chicken.ID, carrot.ID}, soup.IngredientIDs)

	_, err = recipes.Create(ctx, domain.NewRecipe{Name: "Chicken Soup", Category: "Soup", Ingredients: []string{chicken.ID}})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = recipes.Create(ctx, domain.NewRecipe{Name: "Bad", Category: "Soup", Ingredients: []string{"xyz"}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	require.NoError(t, recipes.SetWishlist(ctx, soup.ID, true))
	require.NoError(t, recipes.SetWishlist(ctx, soup.ID, true))
	assert.ErrorIs(t, recipes.SetWishlist(ctx, primitive.NewObjectID().Hex(), true), domain.ErrNotFound)

	list, err := recipes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Wishlist)

	require.NoError(t, recipes.Delete(ctx, soup.ID))
	assert.ErrorIs(t, recipes.Delete(ctx, soup.ID), domain.ErrNotFound)
}

func TestConnectBackfillsWishlist(t *testing.T) {
	c := connectTestClient(t)
	ctx := context.Background()

	// A recipe written before the wishlist field existed.
	_, err := c.db.Collection(recipesCollection).InsertOne(ctx, bson.M{
		"_id":         primitive.NewObjectID(),
		"name":        "Old Recipe",
		"category":    "Main",
		"ingredients": bson.A{},
	})
	require.NoError(t, err)

	require.NoError(t, c.prepare(ctx))

	var doc bson.M
	require.NoError(t, c.db.Collection(recipesCollection).FindOne(ctx, bson.M{"name": "Old Recipe"}).Decode(&doc))
	assert.Equal(t, false, doc["wishlist"])
}
