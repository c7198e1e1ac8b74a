// Package aggregate computes month totals, budget usage and the per-category
// expense breakdown. Everything here is pure: identical input always yields
// identical output, so results can be cached by the caller.
package aggregate

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

// Aggregate sums income (amount >= 0) and expense magnitude (amount < 0).
// Sums are accumulated as decimals so 0.1+0.2 stays 0.3.
func Aggregate(txs []core.Transaction) core.Totals {
	income, expense := decimal.Zero, decimal.Zero
	for _, t := range txs {
		if t.Amount >= 0 {
			income = income.Add(decimal.NewFromFloat(t.Amount))
		} else {
			expense = expense.Add(decimal.NewFromFloat(-t.Amount))
		}
	}
	in, _ := income.Float64()
	ex, _ := expense.Float64()
	net, _ := income.Sub(expense).Float64()
	return core.Totals{Income: in, Expense: ex, Net: net}
}

// UsageRatio is the share of income already spent, in percent, capped at 100.
func UsageRatio(t core.Totals) float64 {
	if t.Income <= 0 {
		return 0
	}
	return math.Min(t.Expense/t.Income*100, 100)
}

// ByCategory groups expenses by category. Income never contributes.
func ByCategory(txs []core.Transaction) core.Breakdown {
	index := make(map[string]int)
	sums := make([]decimal.Decimal, 0)
	var out core.Breakdown

	for _, t := range txs {
		if t.Amount >= 0 {
			continue
		}
		name := strings.TrimSpace(t.Category)
		if name == "" {
			name = core.DefaultCategory
		}
		i, ok := index[name]
		if !ok {
			i = len(out)
			index[name] = i
			out = append(out, core.CategoryAmount{Name: name})
			sums = append(sums, decimal.Zero)
		}
		sums[i] = sums[i].Add(decimal.NewFromFloat(-t.Amount))
	}
	for i := range out {
		out[i].Amount, _ = sums[i].Float64()
	}
	return out
}

// Percent is amount's share of total, 0 when there is no total.
func Percent(amount, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return amount / total * 100
}
