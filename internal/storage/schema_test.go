package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kakeibo-go/kakeibo/internal/model"
)

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	// Running the whole migration again must change nothing and fail
	// nowhere.
	require.NoError(t, store.Migrate(ctx))

	categories, err := store.GetActiveCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, categories, len(model.DefaultCategories()))
}

func TestMigrateSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	categories, err := store.GetActiveCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 4)

	wantNames := map[string]bool{}
	for _, cat := range model.DefaultCategories() {
		wantNames[cat.Name] = true
	}
	for _, cat := range categories {
		assert.True(t, wantNames[cat.Name], "unexpected seeded category %q", cat.Name)
		assert.True(t, cat.IsDefault)
		assert.True(t, cat.IsVisible)
		assert.True(t, cat.IsActive)
	}
}

func TestMigrateAddsColumnsToLegacySchema(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	store, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	// Simulate a database created before the column migrations by
	// building only the baseline shape and a pre-type row.
	require.NoError(t, ensureBaselineTables(ctx, store.db))
	_, err = store.db.ExecContext(ctx, `INSERT INTO categories (name) VALUES ('Legacy')`)
	require.NoError(t, err)

	require.NoError(t, store.Migrate(ctx))

	// The legacy row picked up defaults for every added column and a
	// normalized type.
	cat, err := store.GetCategoryByID(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, cat)
	assert.Equal(t, "Legacy", cat.Name)
	assert.Equal(t, model.CategoryTypeExpense, cat.Type)
	assert.True(t, cat.IsActive)
}

func TestNormalizeLegacyTypesIsRepeatable(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	_, err := store.db.ExecContext(ctx,
		`INSERT INTO categories (name, is_active, type) VALUES ('Untyped', 1, NULL)`)
	require.NoError(t, err)

	require.NoError(t, normalizeLegacyTypes(ctx, store.db))
	require.NoError(t, normalizeLegacyTypes(ctx, store.db))

	var catType string
	err = store.db.QueryRowContext(ctx,
		`SELECT type FROM categories WHERE name = 'Untyped'`).Scan(&catType)
	require.NoError(t, err)
	assert.Equal(t, string(model.CategoryTypeExpense), catType)
}

func TestPartialUniqueIndexAllowsNameReuse(t *testing.T) {
	ctx := context.Background()
	store := createTestStore(t)

	first := model.Category{Name: "Groceries", Type: model.CategoryTypeExpense, IsVisible: true}
	require.NoError(t, store.CreateCategory(ctx, &first))

	// A second active row with the name is blocked by the index even
	// if the application-level check were bypassed.
	_, err := store.db.ExecContext(ctx, `
		INSERT INTO categories (name, is_active, type) VALUES ('Groceries', 1, 'expense')`)
	require.Error(t, err)

	// After logical deletion the name is free again.
	require.NoError(t, store.DeactivateCategory(ctx, first.ID))
	second := model.Category{Name: "Groceries", Type: model.CategoryTypeExpense, IsVisible: true}
	require.NoError(t, store.CreateCategory(ctx, &second))
	assert.NotEqual(t, first.ID, second.ID)
}
