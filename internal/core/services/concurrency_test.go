package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/mkbook/bookkeeping_backend/internal/dto"
	"github.com/mkbook/bookkeeping_backend/internal/utils/accounting"
)

// TestConcurrentBookingKeepsBookConserved hammers the container from several
// writer goroutines while readers pull the full book, intended to run under
// the race detector. Every observed book must be internally consistent: the
// account balances sum to zero and equal a replay of the transactions the
// same read returned, so a reader can never see a half-applied booking.
func TestConcurrentBookingKeepsBookConserved(t *testing.T) {
	svc := newTestContainer(t)
	ctx := context.Background()

	const writers = 4
	const readers = 4
	const rounds = 25

	// One source/receiver pair per writer, so each goroutine only deletes
	// transactions it booked itself.
	ids := make([]string, writers*2)
	for i := range ids {
		ids[i] = mustCreateAccount(t, svc, fmt.Sprintf("Account %d", i), i%2 == 0).AccountID
	}

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			src, dst := ids[2*w], ids[2*w+1]
			for i := 0; i < rounds; i++ {
				txn, err := svc.Transaction.CreateTransaction(ctx, dto.CreateTransactionRequest{
					Date:      "2024-06-01",
					Value:     decimal.NewFromInt(int64(i%7 + 1)),
					Sources:   []string{src},
					Receivers: []string{dst},
				})
				if !assert.NoError(t, err) {
					return
				}
				if i%3 == 0 {
					if !assert.NoError(t, svc.Transaction.DeleteTransaction(ctx, txn.TransactionID)) {
						return
					}
				}
			}
		}(w)
	}

	checkBook := func() bool {
		book, err := svc.Book.GetBook(ctx, true)
		if !assert.NoError(t, err) {
			return false
		}
		total := decimal.Zero
		for _, account := range book.Accounts {
			total = total.Add(account.Balance)
		}
		if !assert.True(t, total.IsZero(), "account balances sum to %s, want 0", total) {
			return false
		}
		for _, account := range book.Accounts {
			replayed := decimal.Zero
			for _, txn := range book.Transactions {
				replayed = replayed.Add(accounting.NetChange(txn, account.AccountID))
			}
			if !assert.True(t, replayed.Equal(account.Balance),
				"account %s: balance %s does not match replay %s", account.AccountID, account.Balance, replayed) {
				return false
			}
		}
		return true
	}

	for r := 0; r < readers; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				if !checkBook() {
					return
				}
			}
		}()
	}

	wg.Wait()
	checkBook()
}
