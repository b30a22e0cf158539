package services_test

import (
	"context"
	"strings"
	"testing"

	"movierama/internal/apperr"
	"movierama/internal/models"
	"movierama/internal/services"
	"movierama/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, f.db, "owner")

	// Warm the listing so creation has something to invalidate.
	empty, err := f.pager.GetPage(ctx, services.PageRequest{Size: 10})
	require.NoError(t, err)
	require.Empty(t, empty.Content)

	item, err := f.items.CreateItem(ctx, owner.ID, services.NewItem{
		Title:       "  <i>Heat</i> ",
		Description: "A **classic** heist.<script>alert(1)</script>",
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "Heat", item.Title)
	assert.NotContains(t, item.Description, "script")

	summary := services.Summary(item)
	assert.Equal(t, "owner Tester", summary.UserName)
	assert.Contains(t, summary.DescriptionHTML, "<strong>classic</strong>")

	page, err := f.pager.GetPage(ctx, services.PageRequest{Size: 10})
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, item.ID, page.Content[0].ID)
}

func TestCreateItem_DuplicateTitleIgnoresCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := testutil.SeedUser(t, f.db, "alice")
	bob := testutil.SeedUser(t, f.db, "bob")

	_, err := f.items.CreateItem(ctx, alice.ID, services.NewItem{Title: "The Thing", Description: "cold"})
	require.NoError(t, err)

	_, err = f.items.CreateItem(ctx, bob.ID, services.NewItem{Title: "THE THING", Description: "colder"})
	assert.ErrorIs(t, err, apperr.ErrDuplicateTitle)
}

func TestCreateItem_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := testutil.SeedUser(t, f.db, "owner")

	tests := []struct {
		name string
		in   services.NewItem
	}{
		{"empty title", services.NewItem{Title: "  ", Description: "x"}},
		{"markup-only title", services.NewItem{Title: "<b></b>", Description: "x"}},
		{"long title", services.NewItem{Title: strings.Repeat("a", 256), Description: "x"}},
		{"empty description", services.NewItem{Title: "Ok"}},
		{"long description", services.NewItem{Title: "Ok", Description: strings.Repeat("d", 5001)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.items.CreateItem(ctx, owner.ID, tt.in)
			assert.ErrorIs(t, err, apperr.ErrInvalidItem)
		})
	}

	var count int64
	require.NoError(t, f.db.Model(&models.Item{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateItem_UnknownOwner(t *testing.T) {
	f := newFixture(t)

	_, err := f.items.CreateItem(context.Background(), 77, services.NewItem{Title: "Orphan", Description: "x"})
	assert.ErrorIs(t, err, apperr.ErrUserNotFound)
}

func TestCreateItem_InvalidatesAfterCallerCancels(t *testing.T) {
	f, ctx := newCancellingFixture(t)
	owner := testutil.SeedUser(t, f.db, "owner")
	req := services.PageRequest{Size: 10}

	before, err := f.pager.GetPage(context.Background(), req)
	require.NoError(t, err)
	require.Empty(t, before.Content)

	item, err := f.items.CreateItem(ctx, owner.ID, services.NewItem{Title: "Heat", Description: "Two men."})
	require.NoError(t, err)
	require.Error(t, ctx.Err())

	after, err := f.pager.GetPage(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, after.Content, 1)
	assert.Equal(t, item.ID, after.Content[0].ID)
}
