package coordinator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kakeibo-go/kakeibo/internal/common"
	"github.com/kakeibo-go/kakeibo/internal/model"
)

func testTransaction(categoryID int64) model.Transaction {
	return model.Transaction{
		Date:       time.Now(),
		Note:       "coffee",
		Type:       model.TypeExpense,
		Amount:     480,
		CategoryID: categoryID,
	}
}

func TestCoordinatorRefreshAndSnapshots(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	coord := New(store)

	cat := model.Category{Name: "Food", Type: model.CategoryTypeExpense, IsVisible: true}
	require.NoError(t, store.CreateCategory(ctx, &cat))
	hidden := model.Category{Name: "Buffer", Type: model.CategoryTypeExpense, IsVisible: false}
	require.NoError(t, store.CreateCategory(ctx, &hidden))
	require.NoError(t, store.CreateTransaction(ctx, &model.Transaction{
		Date: time.Now(), Type: model.TypeExpense, Amount: 1200, CategoryID: cat.ID,
	}))

	require.NoError(t, coord.RefreshAll(ctx))

	assert.Len(t, coord.Categories(), 2)
	assert.Len(t, coord.VisibleCategories(), 1)
	assert.Len(t, coord.Transactions(), 1)
	assert.Equal(t, "Food", coord.CategoryNameFor(cat.ID))
}

func TestCoordinatorMutationsRefreshCaches(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	coord := New(store)
	require.NoError(t, coord.RefreshAll(ctx))

	cat := model.Category{Name: "Food", Type: model.CategoryTypeExpense, IsVisible: true}
	require.NoError(t, coord.AddCategory(ctx, &cat))
	assert.Len(t, coord.Categories(), 1)

	txn := testTransaction(cat.ID)
	require.NoError(t, coord.AddTransaction(ctx, &txn))
	assert.Len(t, coord.Transactions(), 1)

	txn.Amount = 520
	require.NoError(t, coord.UpdateTransaction(ctx, &txn))
	assert.Equal(t, 520.0, coord.Transactions()[0].Amount)

	require.NoError(t, coord.DeleteTransaction(ctx, txn.ID))
	assert.Empty(t, coord.Transactions())
}

func TestCoordinatorBusyRejection(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	store.Entered = make(chan struct{})
	store.Release = make(chan struct{})
	coord := New(store)

	errCh := make(chan error, 1)
	go func() {
		cat := model.Category{Name: "Food", Type: model.CategoryTypeExpense, IsVisible: true}
		errCh <- coord.AddCategory(ctx, &cat)
	}()

	// Hold the first mutation inside the store call.
	<-store.Entered

	// A second mutation issued while the first is in flight is
	// rejected and leaves the caches untouched.
	txn := testTransaction(1)
	err := coord.AddTransaction(ctx, &txn)
	require.ErrorIs(t, err, common.ErrBusy)
	assert.Empty(t, coord.Transactions())
	assert.Empty(t, coord.Categories())

	close(store.Release)
	require.NoError(t, <-errCh)
	assert.Len(t, coord.Categories(), 1)
}

func TestCoordinatorShadowCache(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	coord := New(store)

	cat := model.Category{Name: "Hobbies", Type: model.CategoryTypeExpense, IsVisible: true}
	require.NoError(t, store.CreateCategory(ctx, &cat))
	require.NoError(t, store.CreateTransaction(ctx, &model.Transaction{
		Date: time.Now(), Type: model.TypeExpense, Amount: 1500, CategoryID: cat.ID,
	}))
	require.NoError(t, coord.RefreshAll(ctx))
	require.Equal(t, "Hobbies", coord.CategoryNameFor(cat.ID))

	// Deactivate the referenced category: the transaction's lookup now
	// resolves through the shadow cache, never failing.
	require.NoError(t, coord.DeleteCategory(ctx, cat.ID))

	shadow := coord.CategoryFor(cat.ID)
	assert.Equal(t, model.ShadowCategory(cat.ID).Name, shadow.Name)
	assert.False(t, shadow.IsVisible)
	assert.NotEmpty(t, coord.CategoryIconFor(cat.ID))
	assert.NotEmpty(t, coord.CategoryColorFor(cat.ID))
}

func TestCoordinatorLookupFallback(t *testing.T) {
	store := NewMockStorage()
	coord := New(store)
	require.NoError(t, coord.RefreshAll(context.Background()))

	// An id referenced by no transaction and no category still resolves.
	got := coord.CategoryFor(777)
	assert.Equal(t, model.UncategorizedPlaceholder(777).Name, got.Name)
	assert.NotEmpty(t, got.Icon)
	assert.NotEmpty(t, got.Color)
}

func TestCoordinatorOptimisticDeleteReconciles(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	coord := New(store)

	txn := testTransaction(1)
	require.NoError(t, store.CreateTransaction(ctx, &txn))
	require.NoError(t, coord.RefreshAll(ctx))
	require.Len(t, coord.Transactions(), 1)

	// The store refuses the delete; the optimistic cache edit must not
	// stick.
	store.FailWith = errors.New("disk I/O error")
	err := coord.DeleteTransaction(ctx, txn.ID)
	require.Error(t, err)

	assert.Len(t, coord.Transactions(), 1, "failed delete must not lose the cached row")
}

func TestCoordinatorDeleteTransactionsSequential(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	coord := New(store)

	batch := []model.Transaction{testTransaction(1), testTransaction(1), testTransaction(1)}
	require.NoError(t, store.CreateTransactions(ctx, batch))
	require.NoError(t, coord.RefreshAll(ctx))
	require.Len(t, coord.Transactions(), 3)

	require.NoError(t, coord.DeleteTransactions(ctx, []int64{batch[0].ID, batch[2].ID}))
	remaining := coord.Transactions()
	require.Len(t, remaining, 1)
	assert.Equal(t, batch[1].ID, remaining[0].ID)
}

func TestCoordinatorResetDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	coord := New(store)
	require.NoError(t, coord.RefreshAll(ctx))

	require.NoError(t, coord.ResetDefaultCategories(ctx))

	cats := coord.Categories()
	require.Len(t, cats, len(model.DefaultCategories()))
	for _, cat := range cats {
		assert.True(t, cat.IsDefault)
		assert.True(t, cat.IsActive)
	}
}

func TestBuildShadow(t *testing.T) {
	active := []model.Category{{ID: 1, Name: "Food"}}
	txns := []model.Transaction{
		{ID: 10, CategoryID: 1},
		{ID: 11, CategoryID: 2},
		{ID: 12, CategoryID: 2},
		{ID: 13, CategoryID: 3},
	}

	shadow := buildShadow(active, txns)

	assert.Len(t, shadow, 2)
	assert.NotContains(t, shadow, int64(1))
	assert.Contains(t, shadow, int64(2))
	assert.Contains(t, shadow, int64(3))
}
