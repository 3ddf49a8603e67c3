package recipe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/internal/utils/storage"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/tag"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID string) error
		GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, userID string) (domain.RecipeListResponse, error)

		FavoriteRecipe(ctx context.Context, recipeID string, userID string) error
		UnfavoriteRecipe(ctx context.Context, recipeID string, userID string) error
		AddToCart(ctx context.Context, recipeID string, userID string) error
		RemoveFromCart(ctx context.Context, recipeID string, userID string) error
	}

	// Limits caps recipe composition values; both default to the catalog
	// import bound when left zero.
	Limits struct {
		MaxCookingTime      int
		MaxIngredientAmount int
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		ingredientRepository ingredient.IngredientRepository
		tagRepository        tag.TagRepository
		s3                   storage.AwsS3
		limits               Limits
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	tagRepository tag.TagRepository,
	s3 storage.AwsS3,
	limits Limits,
) RecipeService {
	if limits.MaxCookingTime <= 0 {
		limits.MaxCookingTime = 32000
	}
	if limits.MaxIngredientAmount <= 0 {
		limits.MaxIngredientAmount = 32000
	}
	return &recipeService{
		recipeRepository:     recipeRepository,
		ingredientRepository: ingredientRepository,
		tagRepository:        tagRepository,
		s3:                   s3,
		limits:               limits,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	authorID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	// Every precondition is checked before any write, and every violated
	// field is reported in one error.
	validation := domain.NewValidationError()
	tagIDs := s.validateTags(req.TagIDs, validation)
	amounts := s.validateIngredientAmounts(req.IngredientAmounts, validation)
	if req.CookingTime < 1 || req.CookingTime > s.limits.MaxCookingTime {
		validation.Add("cooking_time", fmt.Sprintf("must be between 1 and %d minutes", s.limits.MaxCookingTime))
	}
	if req.Image == "" {
		validation.Add("image", "required field")
	}
	if validation.HasErrors() {
		return domain.RecipeResponse{}, validation
	}

	if err := s.resolveTags(ctx, tagIDs); err != nil {
		return domain.RecipeResponse{}, err
	}
	if err := s.resolveIngredients(ctx, amounts); err != nil {
		return domain.RecipeResponse{}, err
	}

	recipeID := uuid.New()
	imageURL, err := s.uploadImage(recipeID, req.Image)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		ImageURL:    imageURL,
		CreatedAt:   time.Now(),
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, buildItems(recipeID, amounts), tagIDs); err != nil {
		return domain.RecipeResponse{}, translateWriteError(err)
	}

	return s.GetRecipeDetail(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if recipe.AuthorID.String() != userID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	// Tags and ingredients are whole-or-untouched: a nil slice means "leave
	// the current set alone", anything else is validated like create and
	// replaces the set wholesale.
	validation := domain.NewValidationError()
	var tagIDs []uuid.UUID
	if req.TagIDs != nil {
		tagIDs = s.validateTags(req.TagIDs, validation)
	}
	var amounts []parsedAmount
	if req.IngredientAmounts != nil {
		amounts = s.validateIngredientAmounts(req.IngredientAmounts, validation)
	}
	if req.CookingTime != 0 && (req.CookingTime < 1 || req.CookingTime > s.limits.MaxCookingTime) {
		validation.Add("cooking_time", fmt.Sprintf("must be between 1 and %d minutes", s.limits.MaxCookingTime))
	}
	if validation.HasErrors() {
		return domain.RecipeResponse{}, validation
	}

	if req.TagIDs != nil {
		if err := s.resolveTags(ctx, tagIDs); err != nil {
			return domain.RecipeResponse{}, err
		}
	}
	if req.IngredientAmounts != nil {
		if err := s.resolveIngredients(ctx, amounts); err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}
	if req.CookingTime != 0 {
		recipe.CookingTime = req.CookingTime
	}
	if req.Image != "" {
		imageURL, err := s.uploadImage(recipe.ID, req.Image)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.ImageURL = imageURL
	}

	var items []entities.RecipeIngredient
	if req.IngredientAmounts != nil {
		items = buildItems(recipe.ID, amounts)
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, items, tagIDs); err != nil {
		return domain.RecipeResponse{}, translateWriteError(err)
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if recipe.AuthorID.String() != userID {
		return domain.ErrNotRecipeAuthor
	}

	if err := s.recipeRepository.DeleteRecipe(ctx, recipeID); err != nil {
		return err
	}

	if recipe.ImageURL != "" {
		_ = s.s3.DeleteFile(s.s3.GetObjectKeyFromLink(recipe.ImageURL))
	}
	return nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, userID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	return s.toRecipeResponse(ctx, recipe, userID)
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int, userID string) (domain.RecipeListResponse, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, page, limit)
	if err != nil {
		return domain.RecipeListResponse{}, err
	}

	res := domain.RecipeListResponse{
		Recipes: make([]domain.RecipeResponse, 0, len(recipes)),
		Total:   count,
	}
	for _, recipe := range recipes {
		response, err := s.toRecipeResponse(ctx, recipe, userID)
		if err != nil {
			return domain.RecipeListResponse{}, err
		}
		res.Recipes = append(res.Recipes, response)
	}
	return res, nil
}

func (s *recipeService) FavoriteRecipe(ctx context.Context, recipeID string, userID string) error {
	return s.addAssociation(ctx, recipeID, userID, entities.UserRecipeKindFavorite, domain.ErrAlreadyFavorited)
}

func (s *recipeService) UnfavoriteRecipe(ctx context.Context, recipeID string, userID string) error {
	return s.removeAssociation(ctx, recipeID, userID, entities.UserRecipeKindFavorite, domain.ErrNotFavorited)
}

func (s *recipeService) AddToCart(ctx context.Context, recipeID string, userID string) error {
	return s.addAssociation(ctx, recipeID, userID, entities.UserRecipeKindCart, domain.ErrAlreadyInCart)
}

func (s *recipeService) RemoveFromCart(ctx context.Context, recipeID string, userID string) error {
	return s.removeAssociation(ctx, recipeID, userID, entities.UserRecipeKindCart, domain.ErrNotInCart)
}

func (s *recipeService) addAssociation(ctx context.Context, recipeID, userID, kind string, conflictErr error) error {
	userUUID, recipeUUID, err := s.parseAssociationIDs(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	if err := s.recipeRepository.AddUserRecipe(ctx, userUUID, recipeUUID, kind); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return conflictErr
		}
		return err
	}
	return nil
}

func (s *recipeService) removeAssociation(ctx context.Context, recipeID, userID, kind string, missingErr error) error {
	userUUID, recipeUUID, err := s.parseAssociationIDs(ctx, recipeID, userID)
	if err != nil {
		return err
	}

	removed, err := s.recipeRepository.RemoveUserRecipe(ctx, userUUID, recipeUUID, kind)
	if err != nil {
		return err
	}
	if removed == 0 {
		return missingErr
	}
	return nil
}

func (s *recipeService) parseAssociationIDs(ctx context.Context, recipeID, userID string) (uuid.UUID, uuid.UUID, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}
	recipeUUID, err := uuid.Parse(recipeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, domain.ErrParseUUID
	}

	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, uuid.Nil, domain.ErrRecipeNotFound
		}
		return uuid.Nil, uuid.Nil, err
	}
	return userUUID, recipeUUID, nil
}

type parsedAmount struct {
	ingredientID uuid.UUID
	amount       int
}

func (s *recipeService) validateTags(tagIDs []string, validation *domain.ValidationError) []uuid.UUID {
	if len(tagIDs) == 0 {
		validation.Add("tags", "at least one tag is required")
		return nil
	}

	parsed := make([]uuid.UUID, 0, len(tagIDs))
	seen := make(map[uuid.UUID]bool, len(tagIDs))
	for _, raw := range tagIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			validation.Add("tags", "tag ids must be valid UUIDs")
			return nil
		}
		if seen[id] {
			validation.Add("tags", "tags must not repeat")
			return nil
		}
		seen[id] = true
		parsed = append(parsed, id)
	}
	return parsed
}

func (s *recipeService) validateIngredientAmounts(ingredientAmounts []domain.IngredientAmount, validation *domain.ValidationError) []parsedAmount {
	if len(ingredientAmounts) == 0 {
		validation.Add("ingredients", "at least one ingredient is required")
		return nil
	}

	parsed := make([]parsedAmount, 0, len(ingredientAmounts))
	seen := make(map[uuid.UUID]bool, len(ingredientAmounts))
	for _, ingredientAmount := range ingredientAmounts {
		id, err := uuid.Parse(ingredientAmount.ID)
		if err != nil {
			validation.Add("ingredients", "ingredient ids must be valid UUIDs")
			return nil
		}
		if seen[id] {
			validation.Add("ingredients", "ingredients must not repeat")
			return nil
		}
		seen[id] = true

		if ingredientAmount.Amount < 1 || ingredientAmount.Amount > s.limits.MaxIngredientAmount {
			validation.Add("ingredients", fmt.Sprintf("amount must be between 1 and %d", s.limits.MaxIngredientAmount))
			return nil
		}
		parsed = append(parsed, parsedAmount{ingredientID: id, amount: ingredientAmount.Amount})
	}
	return parsed
}

func (s *recipeService) resolveTags(ctx context.Context, tagIDs []uuid.UUID) error {
	tags, err := s.tagRepository.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return err
	}
	if len(tags) != len(tagIDs) {
		return domain.ErrTagNotFound
	}
	return nil
}

func (s *recipeService) resolveIngredients(ctx context.Context, amounts []parsedAmount) error {
	ids := make([]uuid.UUID, 0, len(amounts))
	for _, amount := range amounts {
		ids = append(ids, amount.ingredientID)
	}

	ingredients, err := s.ingredientRepository.GetIngredientsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(ingredients) != len(ids) {
		return domain.ErrIngredientNotFound
	}
	return nil
}

func buildItems(recipeID uuid.UUID, amounts []parsedAmount) []entities.RecipeIngredient {
	items := make([]entities.RecipeIngredient, 0, len(amounts))
	for _, amount := range amounts {
		items = append(items, entities.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: amount.ingredientID,
			Amount:       amount.amount,
		})
	}
	return items
}

// uploadImage decodes a base64 payload (optionally a full data URI) and
// stores it, returning the public URL.
func (s *recipeService) uploadImage(recipeID uuid.UUID, image string) (string, error) {
	contentType := "image/png"
	payload := image
	if strings.HasPrefix(image, "data:") {
		parts := strings.SplitN(image, ";base64,", 2)
		if len(parts) != 2 {
			return "", domain.ErrInvalidRecipeImage
		}
		contentType = strings.TrimPrefix(parts[0], "data:")
		payload = parts[1]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", domain.ErrInvalidRecipeImage
	}

	objectKey, err := s.s3.UploadFile(
		fmt.Sprintf("recipe-%s", recipeID.String()),
		data,
		contentType,
		"recipes",
		storage.AllowImage...,
	)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

// translateWriteError maps transaction failures onto the caller-facing
// taxonomy: a referenced row vanishing mid-transaction is a not-found, a
// uniqueness violation is a conflict. Nothing is retried.
func translateWriteError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.ErrIngredientConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return domain.ErrIngredientNotFound
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.ErrRecipeNotFound
	default:
		return err
	}
}

func (s *recipeService) toRecipeResponse(ctx context.Context, recipe *entities.Recipe, userID string) (domain.RecipeResponse, error) {
	res := domain.RecipeResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		ImageURL:    recipe.ImageURL,
		CreatedAt:   recipe.CreatedAt,
		Tags:        make([]domain.RecipeTagResponse, 0, len(recipe.Tags)),
		Ingredients: make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients)),
	}

	if recipe.Author != nil {
		res.Author = domain.RecipeAuthorResponse{
			ID:        recipe.Author.ID.String(),
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
		}
	} else {
		res.Author = domain.RecipeAuthorResponse{ID: recipe.AuthorID.String()}
	}

	for _, recipeTag := range recipe.Tags {
		res.Tags = append(res.Tags, domain.RecipeTagResponse{
			ID:   recipeTag.ID.String(),
			Name: recipeTag.Name,
			Slug: recipeTag.Slug,
		})
	}

	for _, item := range recipe.Ingredients {
		ingredientResponse := domain.RecipeIngredientResponse{
			ID:     item.IngredientID.String(),
			Amount: item.Amount,
		}
		if item.Ingredient != nil {
			ingredientResponse.Name = item.Ingredient.Name
			ingredientResponse.MeasurementUnit = item.Ingredient.MeasurementUnit
		}
		res.Ingredients = append(res.Ingredients, ingredientResponse)
	}

	if userID != "" {
		if userUUID, err := uuid.Parse(userID); err == nil {
			isFavorited, err := s.recipeRepository.IsUserRecipe(ctx, userUUID, recipe.ID, entities.UserRecipeKindFavorite)
			if err != nil {
				return domain.RecipeResponse{}, err
			}
			res.IsFavorited = isFavorited

			inCart, err := s.recipeRepository.IsUserRecipe(ctx, userUUID, recipe.ID, entities.UserRecipeKindCart)
			if err != nil {
				return domain.RecipeResponse{}, err
			}
			res.IsInShoppingCart = inCart
		}
	}

	return res, nil
}
