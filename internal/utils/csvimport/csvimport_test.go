package csvimport_test

import (
	"strings"
	"testing"
	"time"

	"github.com/mkbook/bookkeeping_backend/internal/utils/csvimport"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	data := "-4.50,2024-03-01,Coffee\n120.00,2024-03-02,Refund\n"

	rows, err := csvimport.Parse(strings.NewReader(data), csvimport.Options{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].Value.Equal(decimal.RequireFromString("-4.5")))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "Coffee", rows[0].Description)
	assert.True(t, rows[1].Value.Equal(decimal.RequireFromString("120")))
}

func TestParseGermanBankExport(t *testing.T) {
	// Semicolon delimited, dotted thousands, comma decimals, dd.mm.yyyy dates
	// and two header rows, as common in German bank exports.
	data := "Umsatzanzeige;;\nBetrag;Datum;Verwendungszweck\n-1.234,56;01.03.2024;Miete\n"

	rows, err := csvimport.Parse(strings.NewReader(data), csvimport.Options{
		SkipRows:   2,
		Delimiter:  ";",
		Thousands:  ".",
		DecimalSep: ",",
		DateLayout: "02.01.2006",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.True(t, rows[0].Value.Equal(decimal.RequireFromString("-1234.56")))
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "Miete", rows[0].Description)
}

func TestParseColumnSelection(t *testing.T) {
	data := "ignored,Groceries,2024-04-01,-55.10\n"

	rows, err := csvimport.Parse(strings.NewReader(data), csvimport.Options{
		ValueColumn: 3,
		DateColumn:  2,
		DescColumn:  1,
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Groceries", rows[0].Description)
	assert.True(t, rows[0].Value.Equal(decimal.RequireFromString("-55.1")))
}

func TestParseErrors(t *testing.T) {
	t.Run("bad value", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("abc,2024-01-01,x\n"), csvimport.Options{})
		assert.Error(t, err)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("1.00,01/01/2024,x\n"), csvimport.Options{})
		assert.Error(t, err)
	})

	t.Run("missing columns", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("1.00\n"), csvimport.Options{})
		assert.Error(t, err)
	})

	t.Run("skip beyond data", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("1.00,2024-01-01,x\n"), csvimport.Options{SkipRows: 5})
		assert.Error(t, err)
	})

	t.Run("multi-char delimiter", func(t *testing.T) {
		_, err := csvimport.Parse(strings.NewReader("1.00,2024-01-01,x\n"), csvimport.Options{Delimiter: ";;"})
		assert.Error(t, err)
	})
}
