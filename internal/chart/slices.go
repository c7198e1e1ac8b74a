// Package chart maps month totals and the category breakdown onto the arcs
// of a donut chart.
//
// The ring always shows one of two things: how income was allocated,
// including what is left ("Remaining" first), or, when expenses exceed
// income, how expenses break down. A negative remaining slice is never
// emitted; callers show OverBudget separately.
package chart

import (
	"math"

	"tracker/internal/core"
)

const (
	RemainingName  = "Remaining"
	RemainingColor = "#16A34A"
	NoDataName     = "No Data"
	NoDataColor    = "#D1D5DB"
)

// Palette colors category slices by position, cycling.
var Palette = []string{
	"#2563EB", "#F59E0B", "#EF4444", "#8B5CF6", "#EC4899",
	"#06B6D4", "#22C55E", "#F97316", "#A855F7", "#14B8A6",
	"#EAB308", "#F43F5E", "#3B82F6", "#84CC16", "#0EA5E9",
}

// ColorAt returns the palette color for category index i.
func ColorAt(i int) string {
	return Palette[i%len(Palette)]
}

// Remaining is income left after expenses, never negative.
func Remaining(t core.Totals) float64 {
	return math.Max(0, t.Income-t.Expense)
}

// OverBudget reports whether expenses exceed income.
func OverBudget(t core.Totals) bool {
	return t.Expense > t.Income
}

// Denominator is the amount a full turn represents: income while there is
// something left, otherwise the expenses.
func Denominator(t core.Totals) float64 {
	if Remaining(t) > 0 {
		return t.Income
	}
	return t.Expense
}

// BuildSlices lays out the ring. Slices are contiguous: the first starts at
// 0, each next one starts where the previous ended, and the last ends at 2π
// whenever the denominator is positive. With a zero denominator every angle
// is 0.
func BuildSlices(t core.Totals, b core.Breakdown) []core.Slice {
	slices := make([]core.Slice, 0, len(b)+1)
	if r := Remaining(t); r > 0 {
		slices = append(slices, core.Slice{Name: RemainingName, Amount: r, Color: RemainingColor})
	}
	for i, c := range b {
		slices = append(slices, core.Slice{Name: c.Name, Amount: c.Amount, Color: ColorAt(i)})
	}
	if len(slices) == 0 {
		slices = append(slices, core.Slice{Name: NoDataName, Amount: 1, Color: NoDataColor})
	}

	total := Denominator(t)
	if total <= 0 {
		return slices
	}

	var sum float64
	for i := range slices {
		slices[i].StartAngle = 2 * math.Pi * sum / total
		sum += slices[i].Amount
		slices[i].EndAngle = 2 * math.Pi * sum / total
	}
	return slices
}
