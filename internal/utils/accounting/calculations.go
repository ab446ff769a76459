package accounting

import (
	"fmt"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ShareScale is the number of decimal places a single share is quantized to.
// Any remainder below this scale goes to the first entity of the side, so the
// shares of a side always sum exactly to the transaction value.
const ShareScale = 2

// SplitEvenly divides total across n slots. Slots 1..n-1 receive
// total/n truncated to ShareScale; slot 0 receives the rest.
func SplitEvenly(total decimal.Decimal, n int) []decimal.Decimal {
	shares := make([]decimal.Decimal, n)
	if n == 0 {
		return shares
	}
	part := total.Div(decimal.NewFromInt(int64(n))).RoundDown(ShareScale)
	rest := total
	for i := 1; i < n; i++ {
		shares[i] = part
		rest = rest.Sub(part)
	}
	shares[0] = rest
	return shares
}

// Allocate distributes total across slots in proportion to weights, with the
// rounding remainder assigned to the first slot. A zero weight sum falls back
// to an even split so the total is still conserved.
func Allocate(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	n := len(weights)
	shares := make([]decimal.Decimal, n)
	if n == 0 {
		return shares
	}

	weightSum := decimal.Zero
	for _, w := range weights {
		weightSum = weightSum.Add(w)
	}
	if weightSum.IsZero() {
		return SplitEvenly(total, n)
	}

	rest := total
	for i := 1; i < n; i++ {
		shares[i] = total.Mul(weights[i]).Div(weightSum).RoundDown(ShareScale)
		rest = rest.Sub(shares[i])
	}
	shares[0] = rest
	return shares
}

// NetChange returns the net balance effect of the transaction on entityID:
// credits received as a receiver minus debits paid as a source. An entity
// appearing on both sides nets out accordingly.
func NetChange(t domain.Transaction, entityID string) decimal.Decimal {
	net := decimal.Zero
	for _, e := range t.Sources {
		if e.EntityID == entityID {
			net = net.Sub(e.Amount)
		}
	}
	for _, e := range t.Receivers {
		if e.EntityID == entityID {
			net = net.Add(e.Amount)
		}
	}
	return net
}

// SideSum returns the sum of the entry amounts of one side.
func SideSum(entries []domain.Entry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Amount)
	}
	return sum
}

// ValidateConservation checks that the transaction's source shares and
// receiver shares each sum exactly to its value.
func ValidateConservation(t domain.Transaction) error {
	if !t.Value.IsPositive() {
		return fmt.Errorf("transaction %s value must be positive, got %s", t.TransactionID, t.Value.String())
	}
	if debits := SideSum(t.Sources); !debits.Equal(t.Value) {
		return fmt.Errorf("transaction %s debits sum to %s, want %s", t.TransactionID, debits.String(), t.Value.String())
	}
	if credits := SideSum(t.Receivers); !credits.Equal(t.Value) {
		return fmt.Errorf("transaction %s credits sum to %s, want %s", t.TransactionID, credits.String(), t.Value.String())
	}
	return nil
}
