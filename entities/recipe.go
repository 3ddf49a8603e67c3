package entities

import (
	"time"

	"github.com/google/uuid"
)

type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	AuthorID    uuid.UUID `gorm:"index" json:"author_id"`
	Name        string    `gorm:"index" json:"name"`
	Text        string    `gorm:"type:text" json:"text"`
	CookingTime int       `json:"cooking_time"`
	ImageURL    string    `json:"image_url"`
	CreatedAt   time.Time `gorm:"type:timestamp;index" json:"created_at"`

	Author      *User              `gorm:"foreignKey:AuthorID"`
	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID"`
	Tags        []Tag              `gorm:"many2many:recipe_tags"`
}

// RecipeIngredient states "this recipe needs Amount units of this ingredient
// in its unit". Rows are owned by the recipe: on update the whole set is
// deleted and recreated, never patched row by row.
type RecipeIngredient struct {
	RecipeID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"recipe_id"`
	IngredientID uuid.UUID `gorm:"type:uuid;primaryKey" json:"ingredient_id"`
	Amount       int       `json:"amount"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID"`
}

const (
	UserRecipeKindFavorite = "favorite"
	UserRecipeKindCart     = "cart"
)

// UserRecipe is the generic user-recipe association behind both favorites and
// the shopping cart, distinguished by Kind. (user, recipe, kind) is unique.
type UserRecipe struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID    uuid.UUID `gorm:"uniqueIndex:idx_user_recipe_kind" json:"user_id"`
	RecipeID  uuid.UUID `gorm:"uniqueIndex:idx_user_recipe_kind" json:"recipe_id"`
	Kind      string    `gorm:"uniqueIndex:idx_user_recipe_kind" json:"kind"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID"`
}
