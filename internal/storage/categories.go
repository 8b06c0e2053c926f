package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kakeibo-go/kakeibo/internal/common"
	"github.com/kakeibo-go/kakeibo/internal/model"
)

const categoryColumns = `id, name, icon, color, is_default, is_visible, is_active, sort_order, created_at, type`

// scanCategory reads one category row. Legacy rows may carry NULL
// created_at or type; type normalizes to expense.
func scanCategory(scanner interface{ Scan(...any) error }) (model.Category, error) {
	var (
		cat       model.Category
		createdAt sql.NullTime
		catType   sql.NullString
	)
	if err := scanner.Scan(
		&cat.ID, &cat.Name, &cat.Icon, &cat.Color,
		&cat.IsDefault, &cat.IsVisible, &cat.IsActive,
		&cat.SortOrder, &createdAt, &catType,
	); err != nil {
		return model.Category{}, fmt.Errorf("failed to scan category: %w", err)
	}
	if createdAt.Valid {
		cat.CreatedAt = createdAt.Time
	}
	if catType.Valid && catType.String != "" {
		cat.Type = model.CategoryType(catType.String)
	} else {
		cat.Type = model.CategoryTypeExpense
	}
	return cat, nil
}

func (s *SQLiteStore) queryCategories(ctx context.Context, query string, args ...any) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var categories []model.Category
	for rows.Next() {
		cat, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetActiveCategories returns all active categories ordered for display.
func (s *SQLiteStore) GetActiveCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE is_active = 1
		ORDER BY sort_order, id`)
}

// GetVisibleCategories returns active categories not hidden from listings.
func (s *SQLiteStore) GetVisibleCategories(ctx context.Context) ([]model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryCategories(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE is_active = 1 AND is_visible = 1
		ORDER BY sort_order, id`)
}

// GetCategoryByID returns a category by id, including deactivated rows.
func (s *SQLiteStore) GetCategoryByID(ctx context.Context, id int64) (*model.Category, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories
		WHERE id = ?`, id)

	cat, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // Category not found
	}
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetOrCreateCategory returns the id of the active category with the
// given name, inserting a new row when none exists. Used when
// migrating freeform category names.
func (s *SQLiteStore) GetOrCreateCategory(ctx context.Context, name, icon, color string, sortOrder int) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(name, "name"); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM categories WHERE name = ? AND is_active = 1`, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to look up category: %w", err)
	}

	cat := model.Category{
		Name:      name,
		Icon:      icon,
		Color:     color,
		Type:      model.CategoryTypeExpense,
		SortOrder: sortOrder,
		IsVisible: true,
		IsActive:  true,
	}
	if err := s.CreateCategory(ctx, &cat); err != nil {
		return 0, err
	}
	return cat.ID, nil
}

// CreateCategory inserts a new category, assigning its id. It rejects
// the insert with common.ErrDuplicateName when an active row already
// holds the name, and first purges any inactive row of the exact same
// name so ids don't accumulate for re-created categories.
func (s *SQLiteStore) CreateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories WHERE name = ? AND is_active = 1`,
			cat.Name).Scan(&count); err != nil {
			return fmt.Errorf("failed to check existing category: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", common.ErrDuplicateName, cat.Name)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE name = ? AND is_active = 0`,
			cat.Name); err != nil {
			return fmt.Errorf("failed to purge inactive duplicates: %w", err)
		}

		now := time.Now()
		result, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, icon, color, is_default, is_visible, is_active, sort_order, created_at, type)
			VALUES (?, ?, ?, ?, ?, 1, ?, ?, ?)`,
			cat.Name, cat.Icon, cat.Color, cat.IsDefault, cat.IsVisible,
			cat.SortOrder, now, string(cat.Type))
		if err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get category ID: %w", err)
		}
		cat.ID = id
		cat.CreatedAt = now
		cat.IsActive = true

		slog.Info("created category", "name", cat.Name, "id", id)
		return nil
	})
}

// UpdateCategory applies a full-field update. When the name changes it
// re-checks the uniqueness invariant against active rows excluding the
// row itself, purging stale inactive duplicates of the new name.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, cat *model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateCategory(cat); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM categories WHERE name = ? AND is_active = 1 AND id <> ?`,
			cat.Name, cat.ID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check existing category: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %q", common.ErrDuplicateName, cat.Name)
		}

		if _, err := tx.ExecContext(ctx,
			`DELETE FROM categories WHERE name = ? AND is_active = 0 AND id <> ?`,
			cat.Name, cat.ID); err != nil {
			return fmt.Errorf("failed to purge inactive duplicates: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE categories
			SET name = ?, icon = ?, color = ?, is_visible = ?, sort_order = ?, type = ?
			WHERE id = ?`,
			cat.Name, cat.Icon, cat.Color, cat.IsVisible, cat.SortOrder,
			string(cat.Type), cat.ID)
		if err != nil {
			return fmt.Errorf("failed to update category: %w", err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("%w: category %d", common.ErrNotFound, cat.ID)
		}
		return nil
	})
}

// ReorderCategories bulk-updates sort order, one update per id, inside
// a single transaction. No other field is touched.
func (s *SQLiteStore) ReorderCategories(ctx context.Context, categories []model.Category) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("%w: categories", ErrEmptySlice)
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`UPDATE categories SET sort_order = ? WHERE id = ?`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, cat := range categories {
			if _, err := stmt.ExecContext(ctx, cat.SortOrder, cat.ID); err != nil {
				return fmt.Errorf("failed to reorder category %d: %w", cat.ID, err)
			}
		}
		return nil
	})
}

// DeactivateCategory performs a logical delete, refusing default rows
// with common.ErrDefaultCategory. The reference count is computed only
// for logging; it never blocks the deactivation.
func (s *SQLiteStore) DeactivateCategory(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var isDefault bool
	err := s.db.QueryRowContext(ctx,
		`SELECT is_default FROM categories WHERE id = ?`, id).Scan(&isDefault)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: category %d", common.ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("failed to look up category: %w", err)
	}
	if isDefault {
		slog.Warn("refused to deactivate default category", "id", id)
		return fmt.Errorf("%w: category %d", common.ErrDefaultCategory, id)
	}

	var refs int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, id).Scan(&refs); err == nil && refs > 0 {
		slog.Info("deactivating referenced category", "id", id, "transactions", refs)
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE categories SET is_active = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to deactivate category: %w", err)
	}
	return nil
}

// ResetDefaultCategories deactivates every default row and re-inserts
// the canonical set fresh, with new ids. Transactions referencing the
// old ids become orphaned and resolve through the shadow cache.
func (s *SQLiteStore) ResetDefaultCategories(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE categories SET is_active = 0 WHERE is_default = 1`); err != nil {
			return fmt.Errorf("failed to deactivate default categories: %w", err)
		}

		for _, cat := range model.DefaultCategories() {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM categories WHERE name = ? AND is_active = 0`,
				cat.Name); err != nil {
				return fmt.Errorf("failed to purge inactive duplicates: %w", err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO categories (name, icon, color, is_default, is_visible, is_active, sort_order, created_at, type)
				SELECT ?, ?, ?, 1, 1, 1, ?, CURRENT_TIMESTAMP, ?
				WHERE NOT EXISTS (
					SELECT 1 FROM categories WHERE name = ? AND is_active = 1
				)`,
				cat.Name, cat.Icon, cat.Color, cat.SortOrder, string(cat.Type), cat.Name); err != nil {
				return fmt.Errorf("failed to re-insert default %q: %w", cat.Name, err)
			}
		}

		slog.Info("reset default categories")
		return nil
	})
}
