package entities

import (
	"github.com/google/uuid"
)

type Tag struct {
	ID   uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name string    `gorm:"uniqueIndex" json:"name"`
	Slug string    `gorm:"uniqueIndex" json:"slug"`
}

// RecipeTag maps the recipe_tags join table that backs Recipe.Tags. Writes go
// through this type directly so tag replacement is an explicit
// delete-then-insert inside the recipe transaction.
type RecipeTag struct {
	RecipeID uuid.UUID `gorm:"primaryKey"`
	TagID    uuid.UUID `gorm:"primaryKey"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}
