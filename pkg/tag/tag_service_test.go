package tag_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"Foodgram-Backend/domain"
	"Foodgram-Backend/entities"
	"Foodgram-Backend/pkg/tag"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) tag.TagService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Tag{}))
	return tag.NewTagService(tag.NewTagRepository(db))
}

func TestCreateTag(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Breakfast", Slug: "breakfast"})
	require.NoError(t, err)
	require.Equal(t, "Breakfast", created.Name)
	require.Equal(t, "breakfast", created.Slug)

	got, err := svc.GetTag(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created, got)
}

func TestCreateTagInvalidSlug(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, slug := range []string{"brunch time", "café", "sn@cks", ""} {
		_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Brunch", Slug: slug})
		require.ErrorIs(t, err, domain.ErrInvalidSlug, "slug %q", slug)
	}

	_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Brunch", Slug: "brunch_time-2"})
	require.NoError(t, err)
}

func TestCreateTagConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Breakfast", Slug: "breakfast"})
	require.NoError(t, err)

	_, err = svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Breakfast", Slug: "morning"})
	require.ErrorIs(t, err, domain.ErrTagConflict)

	_, err = svc.CreateTag(ctx, domain.CreateTagRequest{Name: "Morning meal", Slug: "breakfast"})
	require.ErrorIs(t, err, domain.ErrTagConflict)
}

func TestGetTagErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetTag(ctx, "not-a-uuid")
	require.ErrorIs(t, err, domain.ErrParseUUID)

	_, err = svc.GetTag(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrTagNotFound)
}

func TestGetTags(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"Breakfast", "Lunch", "Dinner"} {
		_, err := svc.CreateTag(ctx, domain.CreateTagRequest{Name: name, Slug: strings.ToLower(name)})
		require.NoError(t, err)
	}

	tags, err := svc.GetTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 3)
}
