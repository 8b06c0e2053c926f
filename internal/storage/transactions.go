package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/kakeibo-go/kakeibo/internal/common"
	"github.com/kakeibo-go/kakeibo/internal/model"
)

const transactionColumns = `id, amount, type, date, note, category_id, user_id`

func scanTransaction(scanner interface{ Scan(...any) error }) (model.Transaction, error) {
	var (
		txn     model.Transaction
		txnType sql.NullString
	)
	if err := scanner.Scan(
		&txn.ID, &txn.Amount, &txnType, &txn.Date, &txn.Note,
		&txn.CategoryID, &txn.UserID,
	); err != nil {
		return model.Transaction{}, fmt.Errorf("failed to scan transaction: %w", err)
	}
	if txnType.Valid {
		txn.Type = model.TransactionType(txnType.String)
	}
	return txn, nil
}

// GetTransactions returns all transactions, newest first.
func (s *SQLiteStore) GetTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return txns, nil
}

// CreateTransaction inserts a single transaction, assigning its id.
// The category reference is not checked against the categories table;
// orphaned references are resolved by the coordinator's shadow cache.
func (s *SQLiteStore) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (amount, type, date, note, category_id, user_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		txn.Amount, string(txn.Type), txn.Date, txn.Note, txn.CategoryID, txn.UserID)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction ID: %w", err)
	}
	txn.ID = id
	return nil
}

// CreateTransactions inserts the whole batch atomically: any row that
// fails validation or insertion rolls back everything already written.
func (s *SQLiteStore) CreateTransactions(ctx context.Context, txns []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransactions(txns); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO transactions (amount, type, date, note, category_id, user_id)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, txn := range txns {
			if _, err := stmt.ExecContext(ctx,
				txn.Amount, string(txn.Type), txn.Date, txn.Note,
				txn.CategoryID, txn.UserID); err != nil {
				return fmt.Errorf("failed to insert transaction %d of %d: %w", i+1, len(txns), err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("saved transaction batch", "count", len(txns))
	return nil
}

// UpdateTransaction applies a full-row replace keyed by id. A missing
// id is reported as common.ErrNotFound, never silently ignored.
func (s *SQLiteStore) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount = ?, type = ?, date = ?, note = ?, category_id = ?, user_id = ?
		WHERE id = ?`,
		txn.Amount, string(txn.Type), txn.Date, txn.Note, txn.CategoryID,
		txn.UserID, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, txn.ID)
	}
	return nil
}

// DeleteTransaction physically removes a row. Transactions are never
// soft-deleted.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %d", common.ErrNotFound, id)
	}
	return nil
}
