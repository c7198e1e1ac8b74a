package aggregate

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracker/internal/core"
)

func tx(amount float64, category string) core.Transaction {
	return core.Transaction{Amount: amount, Category: category}
}

func TestScenarioA(t *testing.T) {
	txs := []core.Transaction{
		tx(1000, "Salary"),
		tx(-200, "Food"),
		tx(-50, "Food"),
		tx(-100, "Transport"),
	}

	totals := Aggregate(txs)
	assert.Equal(t, core.Totals{Income: 1000, Expense: 350, Net: 650}, totals)

	b := ByCategory(txs)
	assert.Equal(t, core.Breakdown{{Name: "Food", Amount: 250}, {Name: "Transport", Amount: 100}}, b)
	assert.Equal(t, 35.0, UsageRatio(totals))
}

func TestScenarioBZeroTotals(t *testing.T) {
	totals := Aggregate(nil)
	assert.Equal(t, core.Totals{}, totals)
	assert.Zero(t, UsageRatio(totals))
	assert.Empty(t, ByCategory(nil))
}

func TestUsageRatioBounds(t *testing.T) {
	cases := []struct {
		name   string
		totals core.Totals
		want   float64
	}{
		{"no income", core.Totals{Expense: 500}, 0},
		{"negative income guard", core.Totals{Income: -1, Expense: 5}, 0},
		{"half spent", core.Totals{Income: 200, Expense: 100}, 50},
		{"overspent capped", core.Totals{Income: 100, Expense: 150}, 100},
		{"hugely overspent", core.Totals{Income: 1, Expense: 1e12}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UsageRatio(tc.totals))
		})
	}
}

func TestDecimalSummation(t *testing.T) {
	totals := Aggregate([]core.Transaction{tx(0.1, ""), tx(0.2, ""), tx(-0.3, "x")})
	assert.Equal(t, 0.3, totals.Income)
	assert.Equal(t, 0.3, totals.Expense)
	assert.Equal(t, 0.0, totals.Net)
}

func TestByCategoryDefaultsAndOrder(t *testing.T) {
	b := ByCategory([]core.Transaction{
		tx(-5, "Zeta"),
		tx(-1, ""),
		tx(10, "Alpha"),
		tx(-2, "  "),
		tx(-3, "Zeta"),
	})
	require.Len(t, b, 2)
	assert.Equal(t, "Zeta", b[0].Name)
	assert.Equal(t, 8.0, b[0].Amount)
	assert.Equal(t, core.DefaultCategory, b[1].Name)
	assert.Equal(t, 3.0, b[1].Amount)
	_, ok := b.Get("Alpha")
	assert.False(t, ok, "income must not contribute to the breakdown")
}

func TestTotalsInvariantsRandomized(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		n := r.Intn(40)
		txs := make([]core.Transaction, n)
		for j := range txs {
			txs[j] = tx(float64(r.Intn(200000)-100000)/100, "c")
		}
		totals := Aggregate(txs)
		require.GreaterOrEqual(t, totals.Income, 0.0)
		require.GreaterOrEqual(t, totals.Expense, 0.0)
		require.InDelta(t, totals.Income-totals.Expense, totals.Net, 1e-6)

		u := UsageRatio(totals)
		require.GreaterOrEqual(t, u, 0.0)
		require.LessOrEqual(t, u, 100.0)

		require.InDelta(t, totals.Expense, ByCategory(txs).Total(), 1e-6)

		// determinism
		require.Equal(t, totals, Aggregate(txs))
		require.Equal(t, ByCategory(txs), ByCategory(txs))
	}
}

func TestPercent(t *testing.T) {
	assert.Zero(t, Percent(10, 0))
	assert.Equal(t, 25.0, Percent(25, 100))
}
