package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is the database representation of a transaction header row.
// Its entries live in their own table, one row per share.
type Transaction struct {
	TransactionID string
	Date          time.Time
	Description   string
	Value         decimal.Decimal
	Tags          []string
	AuditFields
}

// Entry is the database representation of one share of a transaction.
// Position preserves the ordering of a side; the first position absorbs
// rounding remainders.
type Entry struct {
	TransactionID string
	Side          string // SOURCE or RECEIVER
	Position      int
	EntityID      string
	EntityKind    string // ACCOUNT or BUDGET
	Amount        decimal.Decimal
}
