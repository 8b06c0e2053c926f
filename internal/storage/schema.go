package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kakeibo-go/kakeibo/internal/model"
)

// schemaStep is one independently idempotent piece of the schema
// migration. Steps never drop or rename; they only add, repair, or
// re-create what is missing, so the whole list is safe to re-run on
// every launch.
type schemaStep struct {
	Run         func(context.Context, *sql.DB) error
	Description string
}

var schemaSteps = []schemaStep{
	{Description: "ensure baseline tables", Run: ensureBaselineTables},
	{Description: "add missing columns", Run: addMissingColumns},
	{Description: "normalize legacy category types", Run: normalizeLegacyTypes},
	{Description: "rebuild partial unique name index", Run: rebuildNameUniqueIndex},
	{Description: "seed default categories", Run: seedDefaultCategories},
}

// Migrate brings the database to the shape the stores expect. Each
// step is independently idempotent; a failed step is logged and the
// remaining steps still run (best effort, no whole-run rollback).
// Only a failure of the baseline tables is fatal, since nothing later
// can work without them.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	for i, step := range schemaSteps {
		if err := step.Run(ctx, s.db); err != nil {
			if i == 0 {
				return fmt.Errorf("schema step %q failed: %w", step.Description, err)
			}
			slog.Error("schema step failed, continuing",
				"step", step.Description,
				"error", err)
			continue
		}
		slog.Debug("applied schema step", "step", step.Description)
	}

	return nil
}

func ensureBaselineTables(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			amount REAL NOT NULL,
			date DATETIME NOT NULL,
			note TEXT DEFAULT '',
			category_id INTEGER NOT NULL,
			user_id INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_category ON transactions(category_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// columnAdds is the fixed list of additive column migrations. Each is
// guarded by schema introspection, never by a version flag.
var columnAdds = []struct {
	table  string
	column string
	ddl    string
}{
	{"categories", "icon", `ALTER TABLE categories ADD COLUMN icon TEXT DEFAULT ''`},
	{"categories", "color", `ALTER TABLE categories ADD COLUMN color TEXT DEFAULT ''`},
	{"categories", "is_default", `ALTER TABLE categories ADD COLUMN is_default BOOLEAN DEFAULT 0`},
	{"categories", "is_visible", `ALTER TABLE categories ADD COLUMN is_visible BOOLEAN DEFAULT 1`},
	{"categories", "is_active", `ALTER TABLE categories ADD COLUMN is_active BOOLEAN DEFAULT 1`},
	{"categories", "sort_order", `ALTER TABLE categories ADD COLUMN sort_order INTEGER DEFAULT 0`},
	{"categories", "created_at", `ALTER TABLE categories ADD COLUMN created_at DATETIME`},
	{"categories", "type", `ALTER TABLE categories ADD COLUMN type TEXT`},
	{"transactions", "type", `ALTER TABLE transactions ADD COLUMN type TEXT`},
}

func addMissingColumns(ctx context.Context, db *sql.DB) error {
	for _, add := range columnAdds {
		exists, err := columnExists(ctx, db, add.table, add.column)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, add.ddl); err != nil {
			return fmt.Errorf("failed to add column %s.%s: %w", add.table, add.column, err)
		}
		slog.Info("added column", "table", add.table, "column", add.column)
	}
	return nil
}

// columnExists checks for a column via PRAGMA table_info.
func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("failed to introspect table %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			dfltValue  sql.NullString
			primaryKey int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &primaryKey); err != nil {
			return false, fmt.Errorf("failed to scan table_info row: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// normalizeLegacyTypes repairs category rows created before the type
// column existed. Guarded by re-checking column existence rather than
// a one-time flag, so repeating it is harmless.
func normalizeLegacyTypes(ctx context.Context, db *sql.DB) error {
	exists, err := columnExists(ctx, db, "categories", "type")
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	result, err := db.ExecContext(ctx,
		`UPDATE categories SET type = ? WHERE type IS NULL`,
		string(model.CategoryTypeExpense))
	if err != nil {
		return fmt.Errorf("failed to normalize category types: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n > 0 {
		slog.Info("normalized legacy category types", "rows", n)
	}
	return nil
}

// rebuildNameUniqueIndex replaces any plain unique index on name with
// a partial one scoped to active rows. A plain unique index would
// block reusing a name after logical deletion.
func rebuildNameUniqueIndex(ctx context.Context, db *sql.DB) error {
	queries := []string{
		`DROP INDEX IF EXISTS idx_categories_name`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_active_name
			ON categories(name) WHERE is_active = 1`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to rebuild name index: %w", err)
		}
	}
	return nil
}

// seedDefaultCategories inserts the canonical default set. Each insert
// is guarded by a not-exists check against active rows with the same
// name, so repeated launches never duplicate them.
func seedDefaultCategories(ctx context.Context, db *sql.DB) error {
	for _, cat := range model.DefaultCategories() {
		_, err := db.ExecContext(ctx, `
			INSERT INTO categories (name, icon, color, is_default, is_visible, is_active, sort_order, created_at, type)
			SELECT ?, ?, ?, 1, 1, 1, ?, CURRENT_TIMESTAMP, ?
			WHERE NOT EXISTS (
				SELECT 1 FROM categories WHERE name = ? AND is_active = 1
			)`,
			cat.Name, cat.Icon, cat.Color, cat.SortOrder, string(cat.Type), cat.Name)
		if err != nil {
			return fmt.Errorf("failed to seed category %q: %w", cat.Name, err)
		}
	}
	return nil
}
