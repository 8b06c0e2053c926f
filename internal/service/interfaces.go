// Package service defines the interfaces for all application services.
package service

import (
	"context"

	"github.com/kakeibo-go/kakeibo/internal/model"
)

// Storage defines the contract for our persistence layer. The
// coordinator is constructed against this interface so tests can
// substitute an in-memory implementation for the SQLite store.
type Storage interface {
	// Category operations
	GetActiveCategories(ctx context.Context) ([]model.Category, error)
	GetVisibleCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetOrCreateCategory(ctx context.Context, name, icon, color string, sortOrder int) (int64, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	ReorderCategories(ctx context.Context, categories []model.Category) error
	DeactivateCategory(ctx context.Context, id int64) error
	ResetDefaultCategories(ctx context.Context) error

	// Transaction operations
	GetTransactions(ctx context.Context) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	CreateTransactions(ctx context.Context, txns []model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id int64) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
