package model

import "time"

// TransactionType marks a record as money going out or coming in.
type TransactionType string

const (
	// TypeExpense is a money movement out of the ledger.
	TypeExpense TransactionType = "expense"
	// TypeIncome is a money movement into the ledger.
	TypeIncome TransactionType = "income"
)

// Transaction represents a single dated money movement.
//
// CategoryID is not enforced by a database constraint: it may point at
// a category that has since been deactivated. Display metadata for such
// rows resolves through the coordinator's shadow cache.
type Transaction struct {
	Date       time.Time
	Note       string
	Type       TransactionType
	Amount     float64
	ID         int64
	CategoryID int64
	UserID     int64
}
