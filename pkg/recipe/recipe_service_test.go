package recipe_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/ingredient"
	"Foodgram-Backend/pkg/recipe"
	"Foodgram-Backend/pkg/tag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeStorage struct {
	deleted []string
}

func (f *fakeStorage) UploadFile(fileName string, data []byte, contentType string, dir string, allowedTypes ...string) (string, error) {
	return dir + "/" + fileName, nil
}

func (f *fakeStorage) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeStorage) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (f *fakeStorage) GetObjectKeyFromLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.UserRecipe{},
	))
	return db
}

type fixture struct {
	db      *gorm.DB
	service recipe.RecipeService
	storage *fakeStorage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)
	s3 := &fakeStorage{}
	service := recipe.NewRecipeService(
		recipe.NewRecipeRepository(db),
		ingredient.NewIngredientRepository(db),
		tag.NewTagRepository(db),
		s3,
		recipe.Limits{},
	)
	return &fixture{db: db, service: service, storage: s3}
}

func (f *fixture) createUser(t *testing.T, username string) *entities.User {
	t.Helper()
	user := &entities.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		CreatedAt: time.Now(),
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) createTag(t *testing.T, name string) *entities.Tag {
	t.Helper()
	tagRow := &entities.Tag{ID: uuid.New(), Name: name, Slug: name}
	require.NoError(t, f.db.Create(tagRow).Error)
	return tagRow
}

func (f *fixture) createIngredient(t *testing.T, name, unit string) *entities.Ingredient {
	t.Helper()
	row := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, f.db.Create(row).Error)
	return row
}

const testImagePayload = "fake png bytes"

func testImage() string {
	return base64.StdEncoding.EncodeToString([]byte(testImagePayload))
}

func validCreateRequest(f *fixture, t *testing.T) domain.CreateRecipeRequest {
	t.Helper()
	breakfast := f.createTag(t, "breakfast-"+uuid.NewString()[:8])
	flour := f.createIngredient(t, "flour-"+uuid.NewString()[:8], "g")
	return domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 30,
		Image:       testImage(),
		TagIDs:      []string{breakfast.ID.String()},
		IngredientAmounts: []domain.IngredientAmount{
			{ID: flour.ID.String(), Amount: 200},
		},
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	author := f.createUser(t, "author")
	breakfast := f.createTag(t, "breakfast")
	dinner := f.createTag(t, "dinner")
	flour := f.createIngredient(t, "flour", "g")
	sugar := f.createIngredient(t, "sugar", "g")

	res, err := f.service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix everything, fry on both sides.",
		CookingTime: 30,
		Image:       testImage(),
		TagIDs:      []string{breakfast.ID.String(), dinner.ID.String()},
		IngredientAmounts: []domain.IngredientAmount{
			{ID: flour.ID.String(), Amount: 200},
			{ID: sugar.ID.String(), Amount: 50},
		},
	}, author.ID.String())
	require.NoError(t, err)

	require.Equal(t, "Pancakes", res.Name)
	require.Equal(t, 30, res.CookingTime)
	require.Equal(t, author.ID.String(), res.Author.ID)
	require.True(t, strings.HasPrefix(res.ImageURL, "https://cdn.test/recipes/recipe-"))
	require.Len(t, res.Tags, 2)
	require.Len(t, res.Ingredients, 2)

	amounts := make(map[string]int, 2)
	for _, item := range res.Ingredients {
		amounts[item.ID] = item.Amount
	}
	require.Equal(t, 200, amounts[flour.ID.String()])
	require.Equal(t, 50, amounts[sugar.ID.String()])

	require.False(t, res.IsFavorited)
	require.False(t, res.IsInShoppingCart)
}

func TestCreateRecipeReportsEveryViolation(t *testing.T) {
	f := newFixture(t)
	author := f.createUser(t, "author")

	_, err := f.service.CreateRecipe(context.Background(), domain.CreateRecipeRequest{
		Name:        "Empty",
		Text:        "No parts at all.",
		CookingTime: 0,
	}, author.ID.String())
	require.Error(t, err)

	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Contains(t, validation.Fields, "tags")
	require.Contains(t, validation.Fields, "ingredients")
	require.Contains(t, validation.Fields, "cooking_time")
	require.Contains(t, validation.Fields, "image")
	require.Len(t, validation.Fields, 4)
}

func TestCreateRecipeCookingTimeLowerBound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")

	req := validCreateRequest(f, t)
	req.CookingTime = 1
	_, err := f.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	req = validCreateRequest(f, t)
	req.CookingTime = 0
	_, err = f.service.CreateRecipe(ctx, req, author.ID.String())

	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Contains(t, validation.Fields, "cooking_time")
}

func TestCreateRecipeRejectsRepeatedIngredients(t *testing.T) {
	f := newFixture(t)
	author := f.createUser(t, "author")

	req := validCreateRequest(f, t)
	req.IngredientAmounts = append(req.IngredientAmounts, req.IngredientAmounts[0])
	_, err := f.service.CreateRecipe(context.Background(), req, author.ID.String())

	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Contains(t, validation.Fields, "ingredients")
}

func TestCreateRecipeRejectsOutOfRangeAmount(t *testing.T) {
	f := newFixture(t)
	author := f.createUser(t, "author")

	req := validCreateRequest(f, t)
	req.IngredientAmounts[0].Amount = 0
	_, err := f.service.CreateRecipe(context.Background(), req, author.ID.String())

	var validation *domain.ValidationError
	require.True(t, errors.As(err, &validation))
	require.Contains(t, validation.Fields, "ingredients")
}

func TestCreateRecipeUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")

	req := validCreateRequest(f, t)
	req.TagIDs = []string{uuid.NewString()}
	_, err := f.service.CreateRecipe(ctx, req, author.ID.String())
	require.ErrorIs(t, err, domain.ErrTagNotFound)

	req = validCreateRequest(f, t)
	req.IngredientAmounts = []domain.IngredientAmount{{ID: uuid.NewString(), Amount: 5}}
	_, err = f.service.CreateRecipe(ctx, req, author.ID.String())
	require.ErrorIs(t, err, domain.ErrIngredientNotFound)
}

func TestUpdateRecipeReplacesIngredientSet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")

	breakfast := f.createTag(t, "breakfast")
	flour := f.createIngredient(t, "flour", "g")
	sugar := f.createIngredient(t, "sugar", "g")
	milk := f.createIngredient(t, "milk", "ml")

	created, err := f.service.CreateRecipe(ctx, domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Original.",
		CookingTime: 30,
		Image:       testImage(),
		TagIDs:      []string{breakfast.ID.String()},
		IngredientAmounts: []domain.IngredientAmount{
			{ID: flour.ID.String(), Amount: 2},
			{ID: sugar.ID.String(), Amount: 3},
		},
	}, author.ID.String())
	require.NoError(t, err)

	updated, err := f.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		IngredientAmounts: []domain.IngredientAmount{
			{ID: milk.ID.String(), Amount: 5},
		},
	}, author.ID.String())
	require.NoError(t, err)

	require.Len(t, updated.Ingredients, 1)
	require.Equal(t, milk.ID.String(), updated.Ingredients[0].ID)
	require.Equal(t, 5, updated.Ingredients[0].Amount)

	// No residue from the old set may survive the replacement.
	var count int64
	require.NoError(t, f.db.Model(&entities.RecipeIngredient{}).
		Where("recipe_id = ?", created.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestUpdateRecipeNilSetsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")

	req := validCreateRequest(f, t)
	created, err := f.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	updated, err := f.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		Name: "Renamed",
	}, author.ID.String())
	require.NoError(t, err)

	require.Equal(t, "Renamed", updated.Name)
	require.Equal(t, created.Text, updated.Text)
	require.Equal(t, created.CookingTime, updated.CookingTime)
	require.Len(t, updated.Tags, len(created.Tags))
	require.Len(t, updated.Ingredients, len(created.Ingredients))
	require.Equal(t, created.Ingredients[0].ID, updated.Ingredients[0].ID)
	require.Equal(t, created.Ingredients[0].Amount, updated.Ingredients[0].Amount)
}

func TestUpdateRecipeSameSetsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")

	req := validCreateRequest(f, t)
	created, err := f.service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)

	var before []entities.RecipeIngredient
	require.NoError(t, f.db.Where("recipe_id = ?", created.ID).Order("ingredient_id").Find(&before).Error)
	var tagsBefore []entities.RecipeTag
	require.NoError(t, f.db.Where("recipe_id = ?", created.ID).Order("tag_id").Find(&tagsBefore).Error)

	_, err = f.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{
		TagIDs:            req.TagIDs,
		IngredientAmounts: req.IngredientAmounts,
	}, author.ID.String())
	require.NoError(t, err)

	var after []entities.RecipeIngredient
	require.NoError(t, f.db.Where("recipe_id = ?", created.ID).Order("ingredient_id").Find(&after).Error)
	var tagsAfter []entities.RecipeTag
	require.NoError(t, f.db.Where("recipe_id = ?", created.ID).Order("tag_id").Find(&tagsAfter).Error)

	require.Equal(t, before, after)
	require.Equal(t, tagsBefore, tagsAfter)
}

func TestUpdateRecipeNotAuthor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")
	intruder := f.createUser(t, "intruder")

	created, err := f.service.CreateRecipe(ctx, validCreateRequest(f, t), author.ID.String())
	require.NoError(t, err)

	_, err = f.service.UpdateRecipe(ctx, created.ID, domain.UpdateRecipeRequest{Name: "Stolen"}, intruder.ID.String())
	require.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
}

func TestUpdateRecipeNotFound(t *testing.T) {
	f := newFixture(t)
	author := f.createUser(t, "author")

	_, err := f.service.UpdateRecipe(context.Background(), uuid.NewString(), domain.UpdateRecipeRequest{Name: "Ghost"}, author.ID.String())
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestFavoriteRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")
	reader := f.createUser(t, "reader")

	created, err := f.service.CreateRecipe(ctx, validCreateRequest(f, t), author.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.service.FavoriteRecipe(ctx, created.ID, reader.ID.String()))
	require.ErrorIs(t, f.service.FavoriteRecipe(ctx, created.ID, reader.ID.String()), domain.ErrAlreadyFavorited)

	var count int64
	require.NoError(t, f.db.Model(&entities.UserRecipe{}).
		Where("user_id = ? AND recipe_id = ? AND kind = ?", reader.ID, created.ID, entities.UserRecipeKindFavorite).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	detail, err := f.service.GetRecipeDetail(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	require.True(t, detail.IsFavorited)
	require.False(t, detail.IsInShoppingCart)

	require.NoError(t, f.service.UnfavoriteRecipe(ctx, created.ID, reader.ID.String()))
	require.ErrorIs(t, f.service.UnfavoriteRecipe(ctx, created.ID, reader.ID.String()), domain.ErrNotFavorited)
}

func TestShoppingCartAssociations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")
	reader := f.createUser(t, "reader")

	created, err := f.service.CreateRecipe(ctx, validCreateRequest(f, t), author.ID.String())
	require.NoError(t, err)

	require.NoError(t, f.service.AddToCart(ctx, created.ID, reader.ID.String()))
	require.ErrorIs(t, f.service.AddToCart(ctx, created.ID, reader.ID.String()), domain.ErrAlreadyInCart)

	detail, err := f.service.GetRecipeDetail(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	require.True(t, detail.IsInShoppingCart)
	require.False(t, detail.IsFavorited)

	require.NoError(t, f.service.RemoveFromCart(ctx, created.ID, reader.ID.String()))
	require.ErrorIs(t, f.service.RemoveFromCart(ctx, created.ID, reader.ID.String()), domain.ErrNotInCart)
}

func TestFavoriteUnknownRecipe(t *testing.T) {
	f := newFixture(t)
	reader := f.createUser(t, "reader")

	err := f.service.FavoriteRecipe(context.Background(), uuid.NewString(), reader.ID.String())
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestDeleteRecipe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")
	reader := f.createUser(t, "reader")

	created, err := f.service.CreateRecipe(ctx, validCreateRequest(f, t), author.ID.String())
	require.NoError(t, err)
	require.NoError(t, f.service.FavoriteRecipe(ctx, created.ID, reader.ID.String()))

	require.ErrorIs(t, f.service.DeleteRecipe(ctx, created.ID, reader.ID.String()), domain.ErrNotRecipeAuthor)
	require.NoError(t, f.service.DeleteRecipe(ctx, created.ID, author.ID.String()))

	_, err = f.service.GetRecipeDetail(ctx, created.ID, author.ID.String())
	require.ErrorIs(t, err, domain.ErrRecipeNotFound)

	var count int64
	require.NoError(t, f.db.Model(&entities.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)
	require.NoError(t, f.db.Model(&entities.UserRecipe{}).Where("recipe_id = ?", created.ID).Count(&count).Error)
	require.EqualValues(t, 0, count)

	require.Len(t, f.storage.deleted, 1)
}

func TestGetRecipesFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	author := f.createUser(t, "author")
	reader := f.createUser(t, "reader")

	breakfast := f.createTag(t, "breakfast")
	dinner := f.createTag(t, "dinner")
	flour := f.createIngredient(t, "flour", "g")

	makeRecipe := func(name string, tagID uuid.UUID) domain.RecipeResponse {
		res, err := f.service.CreateRecipe(ctx, domain.CreateRecipeRequest{
			Name:        name,
			Text:        "Some text.",
			CookingTime: 10,
			Image:       testImage(),
			TagIDs:      []string{tagID.String()},
			IngredientAmounts: []domain.IngredientAmount{
				{ID: flour.ID.String(), Amount: 100},
			},
		}, author.ID.String())
		require.NoError(t, err)
		return res
	}

	pancakes := makeRecipe("Pancakes", breakfast.ID)
	makeRecipe("Stew", dinner.ID)

	require.NoError(t, f.service.FavoriteRecipe(ctx, pancakes.ID, reader.ID.String()))

	byTag, err := f.service.GetRecipes(ctx, domain.RecipeFilter{TagSlugs: []string{"breakfast"}}, 1, 10, "")
	require.NoError(t, err)
	require.EqualValues(t, 1, byTag.Total)
	require.Equal(t, "Pancakes", byTag.Recipes[0].Name)

	byFavorite, err := f.service.GetRecipes(ctx, domain.RecipeFilter{FavoritedBy: reader.ID.String()}, 1, 10, reader.ID.String())
	require.NoError(t, err)
	require.EqualValues(t, 1, byFavorite.Total)
	require.True(t, byFavorite.Recipes[0].IsFavorited)

	all, err := f.service.GetRecipes(ctx, domain.RecipeFilter{}, 1, 10, "")
	require.NoError(t, err)
	require.EqualValues(t, 2, all.Total)
}
