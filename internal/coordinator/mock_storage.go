package coordinator

import (
	"context"
	"sync"

	"github.com/kakeibo-go/kakeibo/internal/model"
	"github.com/kakeibo-go/kakeibo/internal/service"
)

// MockStorage is an in-memory test implementation of service.Storage.
// Error injection and a blocking hook make coordinator failure paths
// and the busy gate testable without a real database.
type MockStorage struct {
	// FailWith, when set, is returned by every mutating method.
	FailWith error
	// Entered, when non-nil, is sent to at the start of every mutating
	// method so a test can observe an operation in flight.
	Entered chan struct{}
	// Release, when non-nil, is received from before a mutating method
	// proceeds, letting a test hold the operation open.
	Release chan struct{}

	mu           sync.Mutex
	categories   []model.Category
	transactions []model.Transaction
	nextCatID    int64
	nextTxnID    int64
}

// NewMockStorage creates an empty in-memory storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{nextCatID: 1, nextTxnID: 1}
}

var _ service.Storage = (*MockStorage)(nil)

func (m *MockStorage) enter() error {
	if m.Entered != nil {
		m.Entered <- struct{}{}
	}
	if m.Release != nil {
		<-m.Release
	}
	return m.FailWith
}

// Migrate is a no-op for the in-memory store.
func (m *MockStorage) Migrate(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (m *MockStorage) Close() error { return nil }

// GetActiveCategories returns all active categories.
func (m *MockStorage) GetActiveCategories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Category
	for _, cat := range m.categories {
		if cat.IsActive {
			out = append(out, cat)
		}
	}
	return out, nil
}

// GetVisibleCategories returns active categories that are visible.
func (m *MockStorage) GetVisibleCategories(_ context.Context) ([]model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Category
	for _, cat := range m.categories {
		if cat.IsActive && cat.IsVisible {
			out = append(out, cat)
		}
	}
	return out, nil
}

// GetCategoryByID returns a category by id, active or not.
func (m *MockStorage) GetCategoryByID(_ context.Context, id int64) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cat := range m.categories {
		if cat.ID == id {
			c := cat
			return &c, nil
		}
	}
	return nil, nil
}

// GetOrCreateCategory returns the active category with the name,
// creating it when absent.
func (m *MockStorage) GetOrCreateCategory(ctx context.Context, name, icon, color string, sortOrder int) (int64, error) {
	m.mu.Lock()
	for _, cat := range m.categories {
		if cat.IsActive && cat.Name == name {
			m.mu.Unlock()
			return cat.ID, nil
		}
	}
	m.mu.Unlock()

	cat := model.Category{
		Name: name, Icon: icon, Color: color,
		Type: model.CategoryTypeExpense, SortOrder: sortOrder,
		IsVisible: true, IsActive: true,
	}
	if err := m.CreateCategory(ctx, &cat); err != nil {
		return 0, err
	}
	return cat.ID, nil
}

// CreateCategory appends a new active category.
func (m *MockStorage) CreateCategory(_ context.Context, cat *model.Category) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cat.ID = m.nextCatID
	m.nextCatID++
	cat.IsActive = true
	m.categories = append(m.categories, *cat)
	return nil
}

// UpdateCategory replaces the stored category with the same id.
func (m *MockStorage) UpdateCategory(_ context.Context, cat *model.Category) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == cat.ID {
			m.categories[i] = *cat
			return nil
		}
	}
	return nil
}

// ReorderCategories rewrites sort order only.
func (m *MockStorage) ReorderCategories(_ context.Context, cats []model.Category) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, cat := range cats {
		for i := range m.categories {
			if m.categories[i].ID == cat.ID {
				m.categories[i].SortOrder = cat.SortOrder
			}
		}
	}
	return nil
}

// DeactivateCategory flips is_active off.
func (m *MockStorage) DeactivateCategory(_ context.Context, id int64) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].ID == id {
			m.categories[i].IsActive = false
		}
	}
	return nil
}

// ResetDefaultCategories deactivates defaults and seeds the canonical set.
func (m *MockStorage) ResetDefaultCategories(_ context.Context) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.categories {
		if m.categories[i].IsDefault {
			m.categories[i].IsActive = false
		}
	}
	for _, cat := range model.DefaultCategories() {
		cat.ID = m.nextCatID
		m.nextCatID++
		m.categories = append(m.categories, cat)
	}
	return nil
}

// GetTransactions returns all transactions.
func (m *MockStorage) GetTransactions(_ context.Context) ([]model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Transaction, len(m.transactions))
	copy(out, m.transactions)
	return out, nil
}

// CreateTransaction appends a transaction.
func (m *MockStorage) CreateTransaction(_ context.Context, txn *model.Transaction) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	txn.ID = m.nextTxnID
	m.nextTxnID++
	m.transactions = append(m.transactions, *txn)
	return nil
}

// CreateTransactions appends a whole batch.
func (m *MockStorage) CreateTransactions(_ context.Context, txns []model.Transaction) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range txns {
		txns[i].ID = m.nextTxnID
		m.nextTxnID++
		m.transactions = append(m.transactions, txns[i])
	}
	return nil
}

// UpdateTransaction replaces the stored transaction with the same id.
func (m *MockStorage) UpdateTransaction(_ context.Context, txn *model.Transaction) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == txn.ID {
			m.transactions[i] = *txn
			return nil
		}
	}
	return nil
}

// DeleteTransaction removes the transaction with the given id.
func (m *MockStorage) DeleteTransaction(_ context.Context, id int64) error {
	if err := m.enter(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == id {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return nil
}
