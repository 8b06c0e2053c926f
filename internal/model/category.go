package model

import "time"

// CategoryType indicates whether a category groups expense or income records.
type CategoryType string

const (
	// CategoryTypeExpense represents categories for money going out.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeIncome represents categories for money coming in.
	CategoryTypeIncome CategoryType = "income"
)

// Category represents a user-defined grouping for transactions.
// Among rows with IsActive set, Name is unique; deactivated rows keep
// their id so historical transactions stay resolvable.
type Category struct {
	CreatedAt time.Time
	Name      string
	Icon      string
	Color     string
	Type      CategoryType
	ID        int64
	SortOrder int
	IsDefault bool
	IsVisible bool
	IsActive  bool
}

// DefaultCategories returns the canonical set seeded at first launch
// and restored by the reset operation.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food", Icon: "restaurant", Color: "#FF6B6B", Type: CategoryTypeExpense, SortOrder: 1, IsDefault: true, IsVisible: true, IsActive: true},
		{Name: "Transport", Icon: "train", Color: "#4ECDC4", Type: CategoryTypeExpense, SortOrder: 2, IsDefault: true, IsVisible: true, IsActive: true},
		{Name: "Entertainment", Icon: "gamepad", Color: "#FFE66D", Type: CategoryTypeExpense, SortOrder: 3, IsDefault: true, IsVisible: true, IsActive: true},
		{Name: "Other", Icon: "dots", Color: "#95E1D3", Type: CategoryTypeExpense, SortOrder: 4, IsDefault: true, IsVisible: true, IsActive: true},
	}
}

// ShadowCategory synthesizes a display stand-in for a category id that
// is referenced by at least one transaction but has no active row.
// Shadow entries are derived, never persisted.
func ShadowCategory(id int64) Category {
	return Category{
		ID:        id,
		Name:      "Deleted",
		Icon:      "archive",
		Color:     "#BDBDBD",
		Type:      CategoryTypeExpense,
		IsVisible: false,
	}
}

// UncategorizedPlaceholder is the fallback category for a transaction
// whose category id no longer resolves to any row, active or shadowed.
func UncategorizedPlaceholder(id int64) Category {
	return Category{
		ID:        id,
		Name:      "Uncategorized",
		Icon:      "help",
		Color:     "#9E9E9E",
		Type:      CategoryTypeExpense,
		IsVisible: false,
	}
}
