package cart

import (
	"context"

	"Foodgram-Backend/entities"

	"gorm.io/gorm"
)

type (
	// IngredientRow is one raw requirement of one cart recipe, already joined
	// to its catalog ingredient for the display identity.
	IngredientRow struct {
		Name            string
		MeasurementUnit string
		Amount          int
	}

	CartRepository interface {
		GetCartIngredientRows(ctx context.Context, userID string) ([]IngredientRow, error)
	}

	cartRepository struct {
		db *gorm.DB
	}
)

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// GetCartIngredientRows collects every recipe ingredient row belonging to any
// recipe in the user's cart. Each row is committed data; the aggregation over
// them needs no locking.
func (r *cartRepository) GetCartIngredientRows(ctx context.Context, userID string) ([]IngredientRow, error) {
	var rows []IngredientRow

	if err := r.db.WithContext(ctx).
		Model(&entities.RecipeIngredient{}).
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, recipe_ingredients.amount AS amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Joins("JOIN user_recipes ON user_recipes.recipe_id = recipe_ingredients.recipe_id").
		Where("user_recipes.user_id = ? AND user_recipes.kind = ?", userID, entities.UserRecipeKindCart).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
