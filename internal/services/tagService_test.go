package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"tagly/internal/models"
)

func newTagFixture() (TagService, *fakeTagRepo, *fakeUserRepo) {
	tagRepo := newFakeTagRepo()
	userRepo := newFakeUserRepo()
	return NewTagService(tagRepo, userRepo), tagRepo, userRepo
}

func TestCreateTag(t *testing.T) {
	svc, _, _ := newTagFixture()
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, models.TagCreate{Name: "golang", Description: "the language"})
	require.NoError(t, err)
	assert.Equal(t, "golang", tag.Name)
	assert.True(t, tag.IsActive, "is_active should default to true")
	assert.False(t, tag.CreatedAt.IsZero())

	_, err = svc.CreateTag(ctx, models.TagCreate{Name: "golang"})
	assert.ErrorIs(t, err, ErrDuplicateTagName)

	_, err = svc.CreateTag(ctx, models.TagCreate{})
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestCreateTagExplicitInactive(t *testing.T) {
	svc, _, _ := newTagFixture()

	inactive := false
	tag, err := svc.CreateTag(context.Background(), models.TagCreate{Name: "retired", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, tag.IsActive)
}

func TestGetTagAbsent(t *testing.T) {
	svc, _, _ := newTagFixture()

	tag, err := svc.GetTag(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, tag, "absent tag is a nil result, not an error")
}

func TestListTagsPagination(t *testing.T) {
	svc, _, _ := newTagFixture()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := svc.CreateTag(ctx, models.TagCreate{Name: fmt.Sprintf("tag-%02d", i)})
		require.NoError(t, err)
	}

	page, err := svc.ListTags(ctx, 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Tags, 5)
	assert.Equal(t, int64(15), page.TotalTags)
	assert.Equal(t, int64(2), page.TotalPages)
	assert.Equal(t, int64(2), page.CurrentPage)
}

func TestListTagsExcludesInactive(t *testing.T) {
	svc, _, _ := newTagFixture()
	ctx := context.Background()

	inactive := false
	_, err := svc.CreateTag(ctx, models.TagCreate{Name: "visible"})
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, models.TagCreate{Name: "hidden", IsActive: &inactive})
	require.NoError(t, err)

	page, err := svc.ListTags(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Tags, 1)
	assert.Equal(t, "visible", page.Tags[0].Name)
}

func TestUpdateTag(t *testing.T) {
	svc, _, _ := newTagFixture()
	ctx := context.Background()

	first, err := svc.CreateTag(ctx, models.TagCreate{Name: "first"})
	require.NoError(t, err)
	second, err := svc.CreateTag(ctx, models.TagCreate{Name: "second"})
	require.NoError(t, err)

	// Renaming onto another tag's name is rejected.
	name := "first"
	_, err = svc.UpdateTag(ctx, second.ID, models.TagUpdate{Name: &name})
	assert.ErrorIs(t, err, ErrDuplicateTagName)

	// Renaming to one's own name is fine.
	own := "first"
	updated, err := svc.UpdateTag(ctx, first.ID, models.TagUpdate{Name: &own})
	require.NoError(t, err)
	assert.Equal(t, "first", updated.Name)

	desc := "renamed"
	updated, err = svc.UpdateTag(ctx, second.ID, models.TagUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Description)

	_, err = svc.UpdateTag(ctx, second.ID, models.TagUpdate{})
	assert.ErrorIs(t, err, ErrNoFieldsToUpdate)

	missing, err := svc.UpdateTag(ctx, primitive.NewObjectID(), models.TagUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteTagSoftWhenReferenced(t *testing.T) {
	svc, tagRepo, userRepo := newTagFixture()
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, models.TagCreate{Name: "referenced"})
	require.NoError(t, err)

	userRepo.users = append(userRepo.users, models.User{
		ID:   primitive.NewObjectID(),
		Name: "holder",
		Tags: []primitive.ObjectID{tag.ID},
	})

	deleted, err := svc.DeleteTag(ctx, tag.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.False(t, deleted.IsActive)

	// Record still exists, just inactive.
	stored, err := tagRepo.FindByID(ctx, tag.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
}

func TestDeleteTagHardWhenUnreferenced(t *testing.T) {
	svc, _, _ := newTagFixture()
	ctx := context.Background()

	tag, err := svc.CreateTag(ctx, models.TagCreate{Name: "orphan"})
	require.NoError(t, err)

	deleted, err := svc.DeleteTag(ctx, tag.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)

	gone, err := svc.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestDeleteTagAbsent(t *testing.T) {
	svc, _, _ := newTagFixture()

	deleted, err := svc.DeleteTag(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestSearchTags(t *testing.T) {
	svc, _, _ := newTagFixture()
	ctx := context.Background()

	_, err := svc.CreateTag(ctx, models.TagCreate{Name: "golang", Description: "systems"})
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, models.TagCreate{Name: "python", Description: "Go-to scripting"})
	require.NoError(t, err)
	_, err = svc.CreateTag(ctx, models.TagCreate{Name: "rust", Category: "lang"})
	require.NoError(t, err)

	// Case-insensitive, matches name or description.
	page, err := svc.SearchTags(ctx, "GO", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Tags, 2)
	assert.Equal(t, "golang", page.Tags[0].Name)
	assert.Equal(t, "python", page.Tags[1].Name)

	// Matches category too.
	page, err = svc.SearchTags(ctx, "lang", 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Tags, 2)

	page, err = svc.SearchTags(ctx, "nothing-here", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, page.Tags)
	assert.Equal(t, int64(0), page.TotalPages)
}
