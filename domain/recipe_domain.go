package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessFavoriteRecipe  = "recipe added to favorites"
	MessageSuccessUnfavorite      = "recipe removed from favorites"
	MessageSuccessAddToCart       = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart  = "recipe removed from shopping cart"

	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedDeleteRecipe    = "failed to delete recipe"
	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedFavoriteRecipe  = "failed to update favorites"
	MessageFailedCartRecipe      = "failed to update shopping cart"

	ErrRecipeNotFound     = errors.New("recipe not found")
	ErrNotRecipeAuthor    = errors.New("only the author can modify this recipe")
	ErrAlreadyFavorited   = errors.New("recipe already in favorites")
	ErrNotFavorited       = errors.New("recipe not in favorites")
	ErrAlreadyInCart      = errors.New("recipe already in shopping cart")
	ErrNotInCart          = errors.New("recipe not in shopping cart")
	ErrInvalidRecipeImage = errors.New("invalid recipe image encoding")
)

type (
	// IngredientAmount references a catalog ingredient by id together with
	// the amount this recipe needs.
	IngredientAmount struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount"`
	}

	CreateRecipeRequest struct {
		Name              string             `json:"name" validate:"required,max=256"`
		Text              string             `json:"text" validate:"required"`
		CookingTime       int                `json:"cooking_time"`
		Image             string             `json:"image"`
		TagIDs            []string           `json:"tags"`
		IngredientAmounts []IngredientAmount `json:"ingredients"`
	}

	UpdateRecipeRequest struct {
		Name              string             `json:"name" validate:"omitempty,max=256"`
		Text              string             `json:"text" validate:"omitempty"`
		CookingTime       int                `json:"cooking_time" validate:"omitempty"`
		Image             string             `json:"image" validate:"omitempty"`
		TagIDs            []string           `json:"tags"`
		IngredientAmounts []IngredientAmount `json:"ingredients"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeTagResponse struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
	}

	RecipeAuthorResponse struct {
		ID        string `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Author           RecipeAuthorResponse       `json:"author"`
		Name             string                     `json:"name"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		ImageURL         string                     `json:"image_url"`
		CreatedAt        time.Time                  `json:"created_at"`
		Tags             []RecipeTagResponse        `json:"tags"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	}

	RecipeListResponse struct {
		Recipes []RecipeResponse `json:"recipes"`
		Total   int64            `json:"total"`
	}

	// RecipeFilter narrows the recipe listing; zero values mean "no filter".
	RecipeFilter struct {
		AuthorID         string
		TagSlugs         []string
		FavoritedBy      string
		InShoppingCartOf string
	}
)
