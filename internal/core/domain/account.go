package domain

import (
	"github.com/shopspring/decimal"
)

// Account represents a real-world holding (bank account, wallet, or an
// external counterparty) within the core domain. This is the primary
// representation used by services.
//
// Balance is derived from the transaction set and maintained incrementally by
// the entity store; it is never set directly by a client.
type Account struct {
	AccountID string          `json:"uuid"`
	Name      string          `json:"name"`
	Extern    bool            `json:"extern"` // counterparty outside the user's controlled finances
	Balance   decimal.Decimal `json:"balance"`
	AuditFields
}

// Ref returns the account's entity reference.
func (a Account) Ref() EntityRef {
	return EntityRef{EntityID: a.AccountID, Kind: KindAccount}
}
