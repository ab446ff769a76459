package accounting_test

import (
	"testing"

	"github.com/mkbook/bookkeeping_backend/internal/core/domain"
	"github.com/mkbook/bookkeeping_backend/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSplitEvenly(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"single slot", "100", 1, []string{"100"}},
		{"clean halves", "90", 2, []string{"45", "45"}},
		{"remainder to first", "100", 3, []string{"33.34", "33.33", "33.33"}},
		{"sub-cent total", "0.01", 2, []string{"0.01", "0"}},
		{"four way", "10", 4, []string{"2.5", "2.5", "2.5", "2.5"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			shares := accounting.SplitEvenly(dec(tc.total), tc.n)
			require.Len(t, shares, tc.n)

			sum := decimal.Zero
			for i, s := range shares {
				assert.True(t, s.Equal(dec(tc.want[i])), "share %d: got %s want %s", i, s, tc.want[i])
				sum = sum.Add(s)
			}
			assert.True(t, sum.Equal(dec(tc.total)), "shares must sum to total, got %s", sum)
		})
	}
}

func TestAllocate(t *testing.T) {
	t.Run("proportional rescale", func(t *testing.T) {
		// 90 shrinking to 45 across two equal weights.
		shares := accounting.Allocate(dec("45"), []decimal.Decimal{dec("45"), dec("45")})
		assert.True(t, shares[0].Equal(dec("22.5")))
		assert.True(t, shares[1].Equal(dec("22.5")))
	})

	t.Run("remainder goes to first slot", func(t *testing.T) {
		shares := accounting.Allocate(dec("100"), []decimal.Decimal{dec("1"), dec("1"), dec("1")})
		assert.True(t, shares[0].Equal(dec("33.34")))
		assert.True(t, shares[1].Equal(dec("33.33")))
		assert.True(t, shares[2].Equal(dec("33.33")))
	})

	t.Run("uneven weights conserve the total", func(t *testing.T) {
		weights := []decimal.Decimal{dec("60"), dec("30"), dec("10")}
		shares := accounting.Allocate(dec("70"), weights)
		sum := decimal.Zero
		for _, s := range shares {
			sum = sum.Add(s)
		}
		assert.True(t, sum.Equal(dec("70")), "got %s", sum)
		assert.True(t, shares[1].Equal(dec("21")))
		assert.True(t, shares[2].Equal(dec("7")))
	})

	t.Run("zero weights fall back to even split", func(t *testing.T) {
		shares := accounting.Allocate(dec("10"), []decimal.Decimal{decimal.Zero, decimal.Zero})
		assert.True(t, shares[0].Equal(dec("5")))
		assert.True(t, shares[1].Equal(dec("5")))
	})
}

func TestNetChange(t *testing.T) {
	txn := domain.Transaction{
		Value: dec("100"),
		Sources: []domain.Entry{
			{EntityID: "a", Kind: domain.KindAccount, Amount: dec("60")},
			{EntityID: "b", Kind: domain.KindAccount, Amount: dec("40")},
		},
		Receivers: []domain.Entry{
			{EntityID: "c", Kind: domain.KindBudget, Amount: dec("100")},
		},
	}

	assert.True(t, accounting.NetChange(txn, "a").Equal(dec("-60")))
	assert.True(t, accounting.NetChange(txn, "b").Equal(dec("-40")))
	assert.True(t, accounting.NetChange(txn, "c").Equal(dec("100")))
	assert.True(t, accounting.NetChange(txn, "unknown").IsZero())
}

func TestNetChangeSelfTransfer(t *testing.T) {
	txn := domain.Transaction{
		Value:     dec("10"),
		Sources:   []domain.Entry{{EntityID: "a", Amount: dec("10")}},
		Receivers: []domain.Entry{{EntityID: "a", Amount: dec("10")}},
	}
	assert.True(t, accounting.NetChange(txn, "a").IsZero())
}

func TestValidateConservation(t *testing.T) {
	good := domain.Transaction{
		TransactionID: "t1",
		Value:         dec("90"),
		Sources: []domain.Entry{
			{EntityID: "a", Amount: dec("45")},
			{EntityID: "b", Amount: dec("45")},
		},
		Receivers: []domain.Entry{{EntityID: "c", Amount: dec("90")}},
	}
	assert.NoError(t, accounting.ValidateConservation(good))

	bad := good.Clone()
	bad.Sources[0].Amount = dec("44")
	assert.Error(t, accounting.ValidateConservation(bad))

	nonPositive := good.Clone()
	nonPositive.Value = decimal.Zero
	assert.Error(t, accounting.ValidateConservation(nonPositive))
}
