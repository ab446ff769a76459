package dto

import (
	"github.com/shopspring/decimal"
)

// HistoryParams defines the optional date range of a balance history query.
type HistoryParams struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// HistoryPoint is the entity's balance after one transaction was booked.
type HistoryPoint struct {
	Date    string          `json:"date"`
	Balance decimal.Decimal `json:"balance"`
}

// HistoryResponse is the ordered balance history of one entity.
type HistoryResponse struct {
	UUID   string         `json:"uuid"`
	Points []HistoryPoint `json:"points"`
}
