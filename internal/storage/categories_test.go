package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kakeibo-go/kakeibo/internal/common"
	"github.com/kakeibo-go/kakeibo/internal/model"
)

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects duplicate active name", func(t *testing.T) {
		store := createTestStore(t)

		first := model.Category{Name: "食費", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &first))

		dup := model.Category{Name: "食費", Type: model.CategoryTypeExpense, IsVisible: true}
		err := store.CreateCategory(ctx, &dup)
		require.ErrorIs(t, err, common.ErrDuplicateName)

		// Active count unchanged at one.
		categories, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		count := 0
		for _, cat := range categories {
			if cat.Name == "食費" {
				count++
			}
		}
		assert.Equal(t, 1, count)
	})

	t.Run("purges inactive row when reclaiming a name", func(t *testing.T) {
		store := createTestStore(t)

		first := model.Category{Name: "食費", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &first))
		require.NoError(t, store.DeactivateCategory(ctx, first.ID))

		second := model.Category{Name: "食費", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &second))
		assert.NotEqual(t, first.ID, second.ID)

		// The deactivated row of the same name is gone, not just shadowed.
		old, err := store.GetCategoryByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Nil(t, old)
	})

	t.Run("validates input", func(t *testing.T) {
		store := createTestStore(t)

		err := store.CreateCategory(ctx, &model.Category{Name: "   "})
		require.ErrorIs(t, err, ErrInvalidCategory)

		err = store.CreateCategory(ctx, nil)
		require.ErrorIs(t, err, ErrNilParameter)
	})
}

func TestDeactivateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("keeps the row fetchable by id", func(t *testing.T) {
		store := createTestStore(t)

		cat := model.Category{Name: "Hobbies", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &cat))
		require.NoError(t, store.DeactivateCategory(ctx, cat.ID))

		got, err := store.GetCategoryByID(ctx, cat.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.False(t, got.IsActive)

		// And out of the active listing.
		active, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		for _, c := range active {
			assert.NotEqual(t, cat.ID, c.ID)
		}
	})

	t.Run("refuses default categories", func(t *testing.T) {
		store := createTestStore(t)

		active, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, active)
		def := active[0]
		require.True(t, def.IsDefault)

		err = store.DeactivateCategory(ctx, def.ID)
		require.ErrorIs(t, err, common.ErrDefaultCategory)

		// Active set unchanged.
		after, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, after, len(active))
	})

	t.Run("referenced category still deactivates", func(t *testing.T) {
		store := createTestStore(t)

		cat := model.Category{Name: "Travel", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &cat))
		require.NoError(t, store.CreateTransactions(ctx, createTestTransactions(3, cat.ID)))

		// Usage is informational only; it never blocks deletion.
		require.NoError(t, store.DeactivateCategory(ctx, cat.ID))
	})

	t.Run("missing id", func(t *testing.T) {
		store := createTestStore(t)
		err := store.DeactivateCategory(ctx, 9999)
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("rename checks uniqueness against active rows", func(t *testing.T) {
		store := createTestStore(t)

		a := model.Category{Name: "Rent", Type: model.CategoryTypeExpense, IsVisible: true}
		b := model.Category{Name: "Utilities", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &a))
		require.NoError(t, store.CreateCategory(ctx, &b))

		b.Name = "Rent"
		err := store.UpdateCategory(ctx, &b)
		require.ErrorIs(t, err, common.ErrDuplicateName)
	})

	t.Run("update keeping own name is not a conflict", func(t *testing.T) {
		store := createTestStore(t)

		cat := model.Category{Name: "Rent", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &cat))

		cat.Color = "#123456"
		require.NoError(t, store.UpdateCategory(ctx, &cat))

		got, err := store.GetCategoryByID(ctx, cat.ID)
		require.NoError(t, err)
		assert.Equal(t, "#123456", got.Color)
	})

	t.Run("rename purges inactive duplicate of the new name", func(t *testing.T) {
		store := createTestStore(t)

		old := model.Category{Name: "Dining", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &old))
		require.NoError(t, store.DeactivateCategory(ctx, old.ID))

		cat := model.Category{Name: "Eating out", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &cat))

		cat.Name = "Dining"
		require.NoError(t, store.UpdateCategory(ctx, &cat))

		gone, err := store.GetCategoryByID(ctx, old.ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("missing id", func(t *testing.T) {
		store := createTestStore(t)
		err := store.UpdateCategory(ctx, &model.Category{ID: 9999, Name: "Ghost", Type: model.CategoryTypeExpense})
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestReorderCategories(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	before, err := store.GetActiveCategories(ctx)
	require.NoError(t, err)
	require.Len(t, before, 4)

	// Reverse the display order.
	reordered := make([]model.Category, len(before))
	for i, cat := range before {
		reordered[i] = cat
		reordered[i].SortOrder = len(before) - i
	}
	require.NoError(t, store.ReorderCategories(ctx, reordered))

	after, err := store.GetActiveCategories(ctx)
	require.NoError(t, err)
	require.Len(t, after, 4)

	// Order reversed; every other field untouched.
	for i := range after {
		assert.Equal(t, before[len(before)-1-i].Name, after[i].Name)
		assert.Equal(t, before[len(before)-1-i].Icon, after[i].Icon)
		assert.Equal(t, before[len(before)-1-i].Color, after[i].Color)
		assert.Equal(t, before[len(before)-1-i].ID, after[i].ID)
	}
}

func TestResetDefaultCategories(t *testing.T) {
	ctx := context.Background()

	t.Run("from seeded state yields fresh defaults", func(t *testing.T) {
		store := createTestStore(t)

		before, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		beforeIDs := make(map[int64]bool)
		for _, cat := range before {
			beforeIDs[cat.ID] = true
		}

		require.NoError(t, store.ResetDefaultCategories(ctx))

		after, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(model.DefaultCategories()))
		for _, cat := range after {
			assert.True(t, cat.IsDefault)
			assert.True(t, cat.IsVisible)
			assert.True(t, cat.IsActive)
			assert.False(t, beforeIDs[cat.ID], "reset must assign new ids")
		}
	})

	t.Run("from zero categories", func(t *testing.T) {
		store := createTestStore(t)

		// Wipe everything, defaults included.
		_, err := store.db.ExecContext(ctx, `DELETE FROM categories`)
		require.NoError(t, err)

		require.NoError(t, store.ResetDefaultCategories(ctx))

		after, err := store.GetActiveCategories(ctx)
		require.NoError(t, err)
		assert.Len(t, after, 4)
	})

	t.Run("non-default categories survive", func(t *testing.T) {
		store := createTestStore(t)

		custom := model.Category{Name: "Pets", Type: model.CategoryTypeExpense, IsVisible: true}
		require.NoError(t, store.CreateCategory(ctx, &custom))

		require.NoError(t, store.ResetDefaultCategories(ctx))

		got, err := store.GetCategoryByID(ctx, custom.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, got.IsActive)
	})
}

func TestGetOrCreateCategory(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	id, err := store.GetOrCreateCategory(ctx, "Imported", "download", "#A8A8A8", 99)
	require.NoError(t, err)
	require.NotZero(t, id)

	again, err := store.GetOrCreateCategory(ctx, "Imported", "download", "#A8A8A8", 99)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	// Existing seeded categories resolve without inserting.
	foodID, err := store.GetOrCreateCategory(ctx, "Food", "", "", 0)
	require.NoError(t, err)
	food, err := store.GetCategoryByID(ctx, foodID)
	require.NoError(t, err)
	assert.True(t, food.IsDefault)
}

func TestGetVisibleCategories(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	hidden := model.Category{Name: "Secret", Type: model.CategoryTypeExpense, IsVisible: false}
	require.NoError(t, store.CreateCategory(ctx, &hidden))

	visible, err := store.GetVisibleCategories(ctx)
	require.NoError(t, err)
	for _, cat := range visible {
		assert.NotEqual(t, hidden.ID, cat.ID)
	}

	active, err := store.GetActiveCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, active, len(visible)+1)
}
