package domain

import "time"

type FoodType string

const (
	FoodTypeMain      FoodType = "main"
	FoodTypeSecondary FoodType = "secondary"
	FoodTypePantry    FoodType = "pantry"
)

// FoodTypes lists every accepted FoodType.
var FoodTypes = []FoodType{FoodTypeMain, FoodTypeSecondary, FoodTypePantry}

func (t FoodType) Valid() bool {
	for _, v := range FoodTypes {
		if t == v {
			return true
		}
	}
	return false
}

type FoodGroup string

const (
	FoodGroupProtein FoodGroup = "protein"
	FoodGroupVeggie  FoodGroup = "veggie"
	FoodGroupDairy   FoodGroup = "dairy"
	FoodGroupOther   FoodGroup = "other"
)

// FoodGroups lists every accepted FoodGroup.
var FoodGroups = []FoodGroup{FoodGroupProtein, FoodGroupVeggie, FoodGroupDairy, FoodGroupOther}

func (g FoodGroup) Valid() bool {
	for _, v := range FoodGroups {
		if g == v {
			return true
		}
	}
	return false
}

type Category string

// Categories is the closed set of recipe categories.
var Categories = []Category{
	"Entrees - Asian",
	"Entrees - Middle Eastern",
	"Entrees - European",
	"Entrees - Indian",
	"Salad",
	"Main",
	"Italian Main",
	"Soup",
	"Pastry",
	"Veggies",
	"Desserts",
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Food is an ingredient record. LastPurchased is nil whenever InStock is false.
type Food struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Type          FoodType   `json:"type"`
	Group         FoodGroup  `json:"group"`
	InStock       bool       `json:"instock"`
	LastPurchased *time.Time `json:"lastPurchased"`
	Notes         string     `json:"notes"`
}

// NewFood is the input for creating a Food.
type NewFood struct {
	Name    string    `json:"name" validate:"required,max=200"`
	Type    FoodType  `json:"type" validate:"required,foodtype"`
	Group   FoodGroup `json:"group" validate:"required,foodgroup"`
	InStock bool      `json:"instock"`
	Notes   string    `json:"notes" validate:"max=2000"`
}

// FoodPatch lists the mutable Food fields. Nil fields are left unchanged.
// Setting InStock also sets or clears LastPurchased in the same write.
type FoodPatch struct {
	Name    *string    `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Type    *FoodType  `json:"type,omitempty" validate:"omitempty,foodtype"`
	Group   *FoodGroup `json:"group,omitempty" validate:"omitempty,foodgroup"`
	InStock *bool      `json:"instock,omitempty"`
	Notes   *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// Empty reports whether the patch changes nothing.
func (p FoodPatch) Empty() bool {
	return p.Name == nil && p.Type == nil && p.Group == nil && p.InStock == nil && p.Notes == nil
}

// Recipe is the stored form of a recipe: ingredients are Food ids in order.
type Recipe struct {
	ID            string
	Name          string
	Category      Category
	IngredientIDs []string
	Wishlist      bool
}

// NewRecipe is the input for creating a Recipe.
type NewRecipe struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Category    Category `json:"category" validate:"required,category"`
	Ingredients []string `json:"ingredients" validate:"required,min=1,dive,required"`
}

// RecipeDetail is a Recipe with its ingredient references expanded.
type RecipeDetail struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    Category `json:"category"`
	Ingredients []*Food  `json:"ingredients"`
	Wishlist    bool     `json:"wishlist"`
}

// FoodFilter narrows a food listing. Zero values match everything.
type FoodFilter struct {
	Group   FoodGroup
	Type    FoodType
	InStock *bool
}

func (f FoodFilter) Match(food *Food) bool {
	if f.Group != "" && food.Group != f.Group {
		return false
	}
	if f.Type != "" && food.Type != f.Type {
		return false
	}
	if f.InStock != nil && food.InStock != *f.InStock {
		return false
	}
	return true
}

// RecipeFilter narrows a recipe listing. Zero values match everything.
type RecipeFilter struct {
	Category Category
	Wishlist *bool
}

func (f RecipeFilter) Match(r *Recipe) bool {
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Wishlist != nil && r.Wishlist != *f.Wishlist {
		return false
	}
	return true
}
