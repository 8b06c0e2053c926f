// Package coordinator maintains the in-memory view of the ledger and
// serializes all mutations against the persistence layer.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kakeibo-go/kakeibo/internal/common"
	"github.com/kakeibo-go/kakeibo/internal/model"
	"github.com/kakeibo-go/kakeibo/internal/service"
)

// Coordinator is the single in-memory source of truth consumers read.
// Snapshots are served from caches that are refreshed in full after
// every successful mutation; a shadow map resolves transactions whose
// category has since been deactivated.
//
// Mutations are serialized by a busy gate: a call issued while another
// is in flight is rejected with common.ErrBusy and leaves the caches
// untouched. Rejected callers must retry; nothing is queued.
type Coordinator struct {
	store service.Storage

	gate sync.Mutex

	mu           sync.RWMutex
	active       []model.Category
	visible      []model.Category
	transactions []model.Transaction
	shadow       map[int64]model.Category
}

// New creates a coordinator over the given storage. Caches start empty
// until the first refresh.
func New(store service.Storage) *Coordinator {
	return &Coordinator{
		store:  store,
		shadow: make(map[int64]model.Category),
	}
}

// mutate runs op under the busy gate and refreshes every cache on
// success. A failed op surfaces its error with the caches unchanged.
func (c *Coordinator) mutate(ctx context.Context, name string, op func(context.Context) error) error {
	if !c.gate.TryLock() {
		slog.Debug("rejected concurrent mutation", "op", name)
		return fmt.Errorf("%w: %s", common.ErrBusy, name)
	}
	defer c.gate.Unlock()

	if err := op(ctx); err != nil {
		return err
	}
	return c.refresh(ctx)
}

// refresh re-reads every cached collection from storage and rebuilds
// the shadow map. All three caches swap together or not at all.
func (c *Coordinator) refresh(ctx context.Context) error {
	var (
		active  []model.Category
		visible []model.Category
		txns    []model.Transaction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		active, err = c.store.GetActiveCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		visible, err = c.store.GetVisibleCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = c.store.GetTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to refresh caches: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = active
	c.visible = visible
	c.transactions = txns
	c.shadow = buildShadow(active, txns)
	return nil
}

// buildShadow derives placeholder entries for every category id that
// appears in a transaction but has no active category row. It is a
// pure function of its two inputs so the map can never drift from the
// collections it is derived from.
func buildShadow(active []model.Category, txns []model.Transaction) map[int64]model.Category {
	activeIDs := make(map[int64]struct{}, len(active))
	for _, cat := range active {
		activeIDs[cat.ID] = struct{}{}
	}

	shadow := make(map[int64]model.Category)
	for _, txn := range txns {
		if _, ok := activeIDs[txn.CategoryID]; ok {
			continue
		}
		if _, ok := shadow[txn.CategoryID]; ok {
			continue
		}
		shadow[txn.CategoryID] = model.ShadowCategory(txn.CategoryID)
	}
	return shadow
}

// RefreshAll reloads every cache from storage. Like any other
// operation it is rejected while a mutation is in flight.
func (c *Coordinator) RefreshAll(ctx context.Context) error {
	if !c.gate.TryLock() {
		return fmt.Errorf("%w: refresh", common.ErrBusy)
	}
	defer c.gate.Unlock()
	return c.refresh(ctx)
}

// Categories returns a snapshot of the active categories.
func (c *Coordinator) Categories() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Category, len(c.active))
	copy(out, c.active)
	return out
}

// VisibleCategories returns a snapshot of the active, visible categories.
func (c *Coordinator) VisibleCategories() []model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Category, len(c.visible))
	copy(out, c.visible)
	return out
}

// Transactions returns a snapshot of all transactions, newest first.
func (c *Coordinator) Transactions() []model.Transaction {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]model.Transaction, len(c.transactions))
	copy(out, c.transactions)
	return out
}

// CategoryFor resolves a category id for display. It checks the active
// cache, then the shadow map, and finally falls back to the fixed
// placeholder. It never fails.
func (c *Coordinator) CategoryFor(id int64) model.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.active {
		if cat.ID == id {
			return cat
		}
	}
	if cat, ok := c.shadow[id]; ok {
		return cat
	}
	return model.UncategorizedPlaceholder(id)
}

// CategoryNameFor resolves the display name for a category id.
func (c *Coordinator) CategoryNameFor(id int64) string {
	return c.CategoryFor(id).Name
}

// CategoryIconFor resolves the icon token for a category id.
func (c *Coordinator) CategoryIconFor(id int64) string {
	return c.CategoryFor(id).Icon
}

// CategoryColorFor resolves the color token for a category id.
func (c *Coordinator) CategoryColorFor(id int64) string {
	return c.CategoryFor(id).Color
}

// AddCategory creates a new category and refreshes the caches.
func (c *Coordinator) AddCategory(ctx context.Context, cat *model.Category) error {
	return c.mutate(ctx, "add category", func(ctx context.Context) error {
		return c.store.CreateCategory(ctx, cat)
	})
}

// UpdateCategory applies a full-field category update.
func (c *Coordinator) UpdateCategory(ctx context.Context, cat *model.Category) error {
	return c.mutate(ctx, "update category", func(ctx context.Context) error {
		return c.store.UpdateCategory(ctx, cat)
	})
}

// ReorderCategories persists a new sort order for the given set.
func (c *Coordinator) ReorderCategories(ctx context.Context, cats []model.Category) error {
	return c.mutate(ctx, "reorder categories", func(ctx context.Context) error {
		return c.store.ReorderCategories(ctx, cats)
	})
}

// DeleteCategory logically deletes a category. Default categories are
// refused with common.ErrDefaultCategory.
func (c *Coordinator) DeleteCategory(ctx context.Context, id int64) error {
	return c.mutate(ctx, "delete category", func(ctx context.Context) error {
		return c.store.DeactivateCategory(ctx, id)
	})
}

// ResetDefaultCategories restores the canonical default set.
func (c *Coordinator) ResetDefaultCategories(ctx context.Context) error {
	return c.mutate(ctx, "reset default categories", func(ctx context.Context) error {
		return c.store.ResetDefaultCategories(ctx)
	})
}

// AddTransaction records a single money movement.
func (c *Coordinator) AddTransaction(ctx context.Context, txn *model.Transaction) error {
	return c.mutate(ctx, "add transaction", func(ctx context.Context) error {
		return c.store.CreateTransaction(ctx, txn)
	})
}

// AddTransactions records a batch of movements atomically.
func (c *Coordinator) AddTransactions(ctx context.Context, txns []model.Transaction) error {
	return c.mutate(ctx, "add transactions", func(ctx context.Context) error {
		return c.store.CreateTransactions(ctx, txns)
	})
}

// UpdateTransaction replaces a transaction row keyed by id.
func (c *Coordinator) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	return c.mutate(ctx, "update transaction", func(ctx context.Context) error {
		return c.store.UpdateTransaction(ctx, txn)
	})
}

// DeleteTransaction removes a transaction. The cached row disappears
// optimistically before the store call; if the store fails, the caches
// are reconciled against storage (or restored when even that fails)
// and the error is surfaced.
func (c *Coordinator) DeleteTransaction(ctx context.Context, id int64) error {
	return c.deleteTransactions(ctx, []int64{id})
}

// DeleteTransactions removes several transactions. Storage deletes run
// sequentially and are not atomic as a group: a mid-loop failure
// leaves earlier rows deleted, which the reconciling refresh reflects.
func (c *Coordinator) DeleteTransactions(ctx context.Context, ids []int64) error {
	return c.deleteTransactions(ctx, ids)
}

func (c *Coordinator) deleteTransactions(ctx context.Context, ids []int64) error {
	if !c.gate.TryLock() {
		return fmt.Errorf("%w: delete transactions", common.ErrBusy)
	}
	defer c.gate.Unlock()

	prev := c.removeCached(ids)

	for _, id := range ids {
		if err := c.store.DeleteTransaction(ctx, id); err != nil {
			if refreshErr := c.refresh(ctx); refreshErr != nil {
				c.restoreCached(prev)
				slog.Error("failed to reconcile caches after delete failure",
					"error", refreshErr)
			}
			return fmt.Errorf("failed to delete transaction %d: %w", id, err)
		}
	}

	return c.refresh(ctx)
}

// removeCached drops the given ids from the transaction cache and
// returns the previous cache contents for restoration.
func (c *Coordinator) removeCached(ids []int64) []model.Transaction {
	doomed := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		doomed[id] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev := c.transactions
	kept := make([]model.Transaction, 0, len(prev))
	for _, txn := range prev {
		if _, ok := doomed[txn.ID]; !ok {
			kept = append(kept, txn)
		}
	}
	c.transactions = kept
	c.shadow = buildShadow(c.active, kept)
	return prev
}

// restoreCached puts a previously captured transaction cache back.
func (c *Coordinator) restoreCached(prev []model.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transactions = prev
	c.shadow = buildShadow(c.active, prev)
}
