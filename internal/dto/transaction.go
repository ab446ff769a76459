package dto

import (
	"time"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// CreateTransactionRequest defines the data needed to book a transaction.
// Sources and receivers are ordered id sequences; the value is divided
// evenly across each side with the remainder going to the first entity.
type CreateTransactionRequest struct {
	Date        string          `json:"date" binding:"required,datetime=2006-01-02"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value" binding:"required,decimalpositive"`
	Sources     []string        `json:"sources" binding:"required,min=1,dive,required"`
	Receivers   []string        `json:"receivers" binding:"required,min=1,dive,required"`
	Tags        []string        `json:"tags"`
}

// ParsedDate returns the request date as a UTC calendar date.
func (r CreateTransactionRequest) ParsedDate() (time.Time, error) {
	return time.ParseInLocation(DateLayout, r.Date, time.UTC)
}

// TransactionResponse defines the data returned for a transaction. The
// sources/receivers keep the id-sequence schema; per-entity shares stay
// internal to the engine.
type TransactionResponse struct {
	UUID        string          `json:"uuid"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Sources     []string        `json:"sources"`
	Receivers   []string        `json:"receivers"`
	Tags        []string        `json:"tags"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return TransactionResponse{
		UUID:        t.TransactionID,
		Date:        t.Date.Format(DateLayout),
		Description: t.Description,
		Value:       t.Value,
		Sources:     t.SourceIDs(),
		Receivers:   t.ReceiverIDs(),
		Tags:        tags,
	}
}

// ToListTransactionResponse converts a slice of domain.Transaction to DTOs.
func ToListTransactionResponse(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i, t := range txns {
		res[i] = ToTransactionResponse(&t)
	}
	return res
}

// ListTransactionsResponse wraps the list of transactions.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

// ImportStatementOptions control how a bank CSV export is parsed and which
// pair of entities the imported rows are booked between. Negative row values
// book account -> counterparty, positive ones the other way around.
type ImportStatementOptions struct {
	AccountID      string `form:"accountID" binding:"required"`
	CounterpartyID string `form:"counterpartyID" binding:"required"`
	SkipRows       int    `form:"skipRows"`
	Delimiter      string `form:"delimiter"`
	Thousands      string `form:"thousands"`
	DecimalSep     string `form:"decimalSep"`
	DateLayout     string `form:"dateLayout"`
	ValueColumn    int    `form:"valueColumn"`
	DateColumn     int    `form:"dateColumn"`
	DescColumn     int    `form:"descColumn"`
}

// ImportStatementResponse reports how many transactions an import booked.
type ImportStatementResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []TransactionResponse `json:"transactions"`
}
