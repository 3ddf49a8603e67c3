package recipe

import (
	"context"
	"errors"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)
		DeleteRecipe(ctx context.Context, id string) error

		AddUserRecipe(ctx context.Context, userID, recipeID uuid.UUID, kind string) error
		RemoveUserRecipe(ctx context.Context, userID, recipeID uuid.UUID, kind string) (int64, error)
		IsUserRecipe(ctx context.Context, userID, recipeID uuid.UUID, kind string) (bool, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe row, its full ingredient set and its tag
// associations as one transaction; readers never observe a recipe without
// its associations.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		return createRecipeTags(tx, recipe.ID, tagIDs)
	})
}

// UpdateRecipe saves the recipe's scalar fields and, for whichever of the
// ingredient and tag sets is non-nil, replaces the whole set: delete every
// join row keyed by the recipe id, then bulk-insert the new rows, inside the
// same transaction. A nil set is left untouched.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, items []entities.RecipeIngredient, tagIDs []uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entities.Recipe{}).
			Where("id = ?", recipe.ID).
			Updates(map[string]interface{}{
				"name":         recipe.Name,
				"text":         recipe.Text,
				"cooking_time": recipe.CookingTime,
				"image_url":    recipe.ImageURL,
			}).Error; err != nil {
			return err
		}

		if items != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).
				Delete(&entities.RecipeIngredient{}).Error; err != nil {
				return err
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return err
				}
			}
		}

		if tagIDs != nil {
			if err := tx.Where("recipe_id = ?", recipe.ID).
				Delete(&entities.RecipeTag{}).Error; err != nil {
				return err
			}
			if err := createRecipeTags(tx, recipe.ID, tagIDs); err != nil {
				return err
			}
		}

		return nil
	})
}

func createRecipeTags(tx *gorm.DB, recipeID uuid.UUID, tagIDs []uuid.UUID) error {
	if len(tagIDs) == 0 {
		return nil
	}
	recipeTags := make([]entities.RecipeTag, 0, len(tagIDs))
	for _, tagID := range tagIDs {
		recipeTags = append(recipeTags, entities.RecipeTag{
			RecipeID: recipeID,
			TagID:    tagID,
		})
	}
	return tx.Create(&recipeTags).Error
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	buildQuery := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&entities.Recipe{})
		if filter.AuthorID != "" {
			query = query.Where("recipes.author_id = ?", filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			query = query.
				Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
				Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs)
		}
		if filter.FavoritedBy != "" {
			query = query.
				Joins("JOIN user_recipes favorites ON favorites.recipe_id = recipes.id AND favorites.kind = ?", entities.UserRecipeKindFavorite).
				Where("favorites.user_id = ?", filter.FavoritedBy)
		}
		if filter.InShoppingCartOf != "" {
			query = query.
				Joins("JOIN user_recipes cart ON cart.recipe_id = recipes.id AND cart.kind = ?", entities.UserRecipeKindCart).
				Where("cart.user_id = ?", filter.InShoppingCartOf)
		}
		return query
	}

	if err := buildQuery().Distinct("recipes.id").Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := buildQuery().
		Distinct("recipes.*").
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Offset(offset).
		Limit(limit).
		Order("recipes.created_at desc").
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// DeleteRecipe removes the recipe and everything it owns: its ingredient
// rows, its tag associations and every favorite/cart association.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeTag{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.UserRecipe{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) AddUserRecipe(ctx context.Context, userID, recipeID uuid.UUID, kind string) error {
	// The unique index on (user_id, recipe_id, kind) is the real guard;
	// concurrent duplicate adds surface as gorm.ErrDuplicatedKey.
	var existing entities.UserRecipe
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ? AND kind = ?", userID, recipeID, kind).
		First(&existing).Error
	if err == nil {
		return gorm.ErrDuplicatedKey
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	association := entities.UserRecipe{
		ID:        uuid.New(),
		UserID:    userID,
		RecipeID:  recipeID,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Create(&association).Error
}

func (r *recipeRepository) RemoveUserRecipe(ctx context.Context, userID, recipeID uuid.UUID, kind string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ? AND kind = ?", userID, recipeID, kind).
		Delete(&entities.UserRecipe{})
	return result.RowsAffected, result.Error
}

func (r *recipeRepository) IsUserRecipe(ctx context.Context, userID, recipeID uuid.UUID, kind string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.UserRecipe{}).
		Where("user_id = ? AND recipe_id = ? AND kind = ?", userID, recipeID, kind).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
