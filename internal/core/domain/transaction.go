package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntrySide indicates whether a transaction entry debits (source) or credits
// (receiver) its entity.
type EntrySide string

const (
	SideSource   EntrySide = "SOURCE"
	SideReceiver EntrySide = "RECEIVER"
)

// Entry is one entity's share of a transaction's value on one side. Shares
// are materialized when the transaction is applied and carried through
// rebooking, so the sum of source amounts and the sum of receiver amounts
// each equal the transaction value at all times.
type Entry struct {
	EntityID string          `json:"entityID"`
	Kind     EntityKind      `json:"kind"`
	Amount   decimal.Decimal `json:"amount"`
}

// Transaction moves Value from the source entities to the receiver entities
// at a calendar date. Sources and Receivers are ordered; the first entity of
// a side absorbs any rounding remainder of the even split.
type Transaction struct {
	TransactionID string          `json:"uuid"`
	Date          time.Time       `json:"date"` // calendar date, time part zero, UTC
	Description   string          `json:"description"`
	Value         decimal.Decimal `json:"value"` // always positive
	Sources       []Entry         `json:"sources"`
	Receivers     []Entry         `json:"receivers"`
	Tags          []string        `json:"tags"`
	AuditFields
}

// SourceIDs returns the ordered entity ids of the source side.
func (t Transaction) SourceIDs() []string {
	return entryIDs(t.Sources)
}

// ReceiverIDs returns the ordered entity ids of the receiver side.
func (t Transaction) ReceiverIDs() []string {
	return entryIDs(t.Receivers)
}

// References reports whether entityID appears on either side.
func (t Transaction) References(entityID string) bool {
	for _, e := range t.Sources {
		if e.EntityID == entityID {
			return true
		}
	}
	for _, e := range t.Receivers {
		if e.EntityID == entityID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so rebooking can rewrite entries without
// mutating the stored transaction.
func (t Transaction) Clone() Transaction {
	c := t
	c.Sources = append([]Entry(nil), t.Sources...)
	c.Receivers = append([]Entry(nil), t.Receivers...)
	c.Tags = append([]string(nil), t.Tags...)
	return c
}

func entryIDs(entries []Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.EntityID
	}
	return ids
}

// BalanceChange is the net balance delta a mutation applies to one entity.
type BalanceChange struct {
	Kind  EntityKind
	Delta decimal.Decimal
}

// RebookPlan is the precomputed, conservation-preserving outcome of deleting
// a bookable entity. The entity store applies it atomically: rewrite the
// listed transactions, remove the emptied ones, adjust the remaining
// entities' balances and drop the entity record itself.
type RebookPlan struct {
	Entity    EntityRef
	Rewritten []Transaction
	Removed   []string // transaction ids left with an empty side
	Changes   map[string]BalanceChange
}
