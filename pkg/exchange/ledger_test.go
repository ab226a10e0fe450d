package exchange

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func nd(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d(s), Valid: true}
}

func TestLedgerLongRoundTrip(t *testing.T) {
	l := NewLedger()

	l.ApplyFill(Buy, d("100"), 10)
	assert.Equal(t, int64(10), l.Position())
	assert.True(t, l.avgCost.Equal(d("100")), "avg cost %s", l.avgCost)

	l.ApplyFill(Buy, d("110"), 10)
	assert.Equal(t, int64(20), l.Position())
	assert.True(t, l.avgCost.Equal(d("105")), "avg cost %s", l.avgCost)

	l.ApplyFill(Sell, d("120"), 15)
	assert.Equal(t, int64(5), l.Position())
	assert.True(t, l.Realized().Equal(d("225")), "realized %s", l.Realized())
	assert.True(t, l.avgCost.Equal(d("105")), "avg cost must not move on a sell")
}

func TestLedgerSellThroughFlat(t *testing.T) {
	l := NewLedger()
	l.ApplyFill(Buy, d("100"), 3)

	// sell 10 while long 3: realizes only the closed 3, the rest opens a short
	l.ApplyFill(Sell, d("110"), 10)

	assert.Equal(t, int64(-7), l.Position())
	assert.True(t, l.Realized().Equal(d("30")), "realized %s", l.Realized())
}

func TestLedgerShortSideHasNoBasis(t *testing.T) {
	l := NewLedger()

	// opening a short while flat establishes no cost basis and realizes nothing
	l.ApplyFill(Sell, d("100"), 10)
	assert.Equal(t, int64(-10), l.Position())
	assert.True(t, l.Realized().IsZero())
	assert.True(t, l.avgCost.IsZero())

	// extending the short behaves the same
	l.ApplyFill(Sell, d("105"), 5)
	assert.Equal(t, int64(-15), l.Position())
	assert.True(t, l.Realized().IsZero())
}

func TestLedgerBuyClosingShortToFlatResetsAvgCost(t *testing.T) {
	l := NewLedger()
	l.ApplyFill(Buy, d("100"), 10)
	l.ApplyFill(Sell, d("100"), 20) // long 10 -> short 10
	require.Equal(t, int64(-10), l.Position())

	l.ApplyFill(Buy, d("90"), 10) // exactly back to flat

	assert.Equal(t, int64(0), l.Position())
	assert.True(t, l.avgCost.IsZero(), "avg cost is undefined at zero position, stored as zero")
	rep := l.Report(nd("95"))
	assert.False(t, rep.AvgCost.Valid)
	assert.True(t, rep.Unrealized.IsZero())
}

func TestLedgerReport(t *testing.T) {
	l := NewLedger()
	l.ApplyFill(Buy, d("100"), 10)

	rep := l.Report(nd("103"))

	assert.Equal(t, int64(10), rep.Position)
	require.True(t, rep.AvgCost.Valid)
	assert.True(t, rep.AvgCost.Decimal.Equal(d("100")))
	assert.True(t, rep.Unrealized.Equal(d("30")), "unrealized %s", rep.Unrealized)
	assert.True(t, rep.Total.Equal(d("30")))
}

func TestLedgerReportWithoutMarkPrice(t *testing.T) {
	l := NewLedger()
	l.ApplyFill(Buy, d("100"), 10)

	rep := l.Report(decimal.NullDecimal{})

	assert.True(t, rep.Unrealized.IsZero(), "no mark price, no mark-to-market")
	assert.True(t, rep.Total.IsZero())
}

func TestLedgerReportFlat(t *testing.T) {
	l := NewLedger()

	rep := l.Report(nd("100"))

	assert.Equal(t, int64(0), rep.Position)
	assert.False(t, rep.AvgCost.Valid, "avg cost is absent while flat, never zero-for-unknown")
	assert.True(t, rep.Unrealized.IsZero())
}

func TestLedgerReportIsPure(t *testing.T) {
	l := NewLedger()
	l.ApplyFill(Buy, d("100"), 10)

	before := *l
	_ = l.Report(nd("120"))
	_ = l.Report(decimal.NullDecimal{})

	assert.Equal(t, before.position, l.position)
	assert.True(t, before.avgCost.Equal(l.avgCost))
	assert.True(t, before.realized.Equal(l.realized))
}
