package ingredient_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/ingredient"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (ingredient.IngredientService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
	))
	return ingredient.NewIngredientService(ingredient.NewIngredientRepository(db)), db
}

func TestCreateIngredient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "g"})
	require.NoError(t, err)
	require.Equal(t, "Flour", created.Name)
	require.Equal(t, "g", created.MeasurementUnit)

	got, err := svc.GetIngredient(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCreateIngredientConflictIsCaseInsensitive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "g"})
	require.NoError(t, err)

	_, err = svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "FLOUR", MeasurementUnit: "G"})
	require.ErrorIs(t, err, domain.ErrIngredientConflict)

	// Same name under another unit is a different catalog row.
	_, err = svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "kg"})
	require.NoError(t, err)
}

func TestAssertUniqueExcludesSelf(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Salt", MeasurementUnit: "g"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.AssertUnique(ctx, "salt", "G", nil), domain.ErrIngredientConflict)

	id := uuid.MustParse(created.ID)
	require.NoError(t, svc.AssertUnique(ctx, "salt", "G", &id))
}

func TestGetIngredientsByNamePrefix(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Salt", "Sugar", "Pepper"} {
		_, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: name, MeasurementUnit: "g"})
		require.NoError(t, err)
	}

	matches, err := svc.GetIngredients(ctx, "s")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, match := range matches {
		require.True(t, strings.HasPrefix(strings.ToLower(match.Name), "s"))
	}

	all, err := svc.GetIngredients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestDeleteIngredient(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "g"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteIngredient(ctx, created.ID))
	_, err = svc.GetIngredient(ctx, created.ID)
	require.ErrorIs(t, err, domain.ErrIngredientNotFound)

	require.NoError(t, db.Error)
}

func TestDeleteIngredientReferencedByRecipe(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "g"})
	require.NoError(t, err)

	recipe := &entities.Recipe{ID: uuid.New(), AuthorID: uuid.New(), Name: "Bread", CookingTime: 60}
	require.NoError(t, db.Create(recipe).Error)
	require.NoError(t, db.Create(&entities.RecipeIngredient{
		RecipeID:     recipe.ID,
		IngredientID: uuid.MustParse(created.ID),
		Amount:       500,
	}).Error)

	require.ErrorIs(t, svc.DeleteIngredient(ctx, created.ID), domain.ErrIngredientInUse)

	// The row must survive the rejected delete.
	_, err = svc.GetIngredient(ctx, created.ID)
	require.NoError(t, err)
}

func TestImportIngredients(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateIngredient(ctx, domain.CreateIngredientRequest{Name: "Flour", MeasurementUnit: "g"})
	require.NoError(t, err)

	created, err := svc.ImportIngredients(ctx, []domain.CreateIngredientRequest{
		{Name: "flour", MeasurementUnit: "G"}, // conflicts with the existing row
		{Name: "Sugar", MeasurementUnit: "g"},
		{Name: "sugar", MeasurementUnit: "G"}, // duplicate within the batch
		{Name: "Milk", MeasurementUnit: "ml"},
	})
	require.NoError(t, err)
	require.Equal(t, 2, created)

	all, err := svc.GetIngredients(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}
