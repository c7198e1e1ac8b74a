// Package dashboard turns a month's transactions into the view models served
// by the HTTP layer: the home summary, the breakdown pie and the history
// list. Money is formatted here and nowhere else.
package dashboard

import (
	"math"
	"time"

	"tracker/internal/aggregate"
	"tracker/internal/chart"
	"tracker/internal/core"
	"tracker/internal/month"
)

const (
	recentCount      = 5
	historyFallback  = "Transaction"
	overBudgetNote   = "Expenses exceed income. The chart shows expenses only."
	centerRemaining  = "Remaining"
	centerExpenses   = "Expenses"
	defaultChartSize = 340
)

// Snapshot is one owner's month as loaded from the store.
type Snapshot struct {
	OwnerID      string
	Window       core.Window
	Transactions []core.Transaction
	Totals       core.Totals
	Breakdown    core.Breakdown
}

// NewSnapshot aggregates txs, which must already be scoped to window.
func NewSnapshot(ownerID string, window core.Window, txs []core.Transaction) Snapshot {
	return Snapshot{
		OwnerID:      ownerID,
		Window:       window,
		Transactions: txs,
		Totals:       aggregate.Aggregate(txs),
		Breakdown:    aggregate.ByCategory(txs),
	}
}

type Money struct {
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

func money(v float64) Money {
	return Money{Value: v, Display: core.FormatMoney(v)}
}

type MonthInfo struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Prev  string `json:"prev"`
	Next  string `json:"next"`
}

func monthInfo(w core.Window) MonthInfo {
	return MonthInfo{
		Key:   w.Key(),
		Label: month.Label(w.Start),
		Prev:  month.Step(w.Start, -1).Format("2006-01"),
		Next:  month.Step(w.Start, 1).Format("2006-01"),
	}
}

type TransactionRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Amount      Money     `json:"amount"`
	Signed      string    `json:"signed"`
	Income      bool      `json:"income"`
}

// Row renders t for lists. The title falls back to the category, then to
// "Transaction".
func Row(t core.Transaction) TransactionRow {
	title := t.Title
	if title == "" {
		title = t.Category
	}
	if title == "" {
		title = historyFallback
	}
	signed := "+" + core.FormatMoney(math.Abs(t.Amount))
	if !t.IsIncome() {
		signed = "-" + core.FormatMoney(math.Abs(t.Amount))
	}
	return TransactionRow{
		ID:          t.ID,
		Title:       title,
		Category:    t.DisplayCategory(),
		Description: t.Description,
		Date:        t.OccurredAt,
		Amount:      money(t.Amount),
		Signed:      signed,
		Income:      t.IsIncome(),
	}
}

type Home struct {
	Month        MonthInfo        `json:"month"`
	Income       Money            `json:"income"`
	Expense      Money            `json:"expense"`
	Net          Money            `json:"net"`
	Remaining    Money            `json:"remaining"`
	UsagePercent float64          `json:"usage_percent"`
	UsageRounded int              `json:"usage_rounded"`
	Recent       []TransactionRow `json:"recent"`
}

// HomeView summarizes the month. Remaining is the net, so it goes negative
// when the month is over budget.
func HomeView(s Snapshot) Home {
	usage := aggregate.UsageRatio(s.Totals)
	n := len(s.Transactions)
	if n > recentCount {
		n = recentCount
	}
	recent := make([]TransactionRow, 0, n)
	for _, t := range s.Transactions[:n] {
		recent = append(recent, Row(t))
	}
	return Home{
		Month:        monthInfo(s.Window),
		Income:       money(s.Totals.Income),
		Expense:      money(s.Totals.Expense),
		Net:          money(s.Totals.Net),
		Remaining:    money(s.Totals.Net),
		UsagePercent: usage,
		UsageRounded: int(math.Round(usage)),
		Recent:       recent,
	}
}

type PieSlice struct {
	Name       string  `json:"name"`
	Color      string  `json:"color"`
	Amount     Money   `json:"amount"`
	Percent    float64 `json:"percent"`
	StartAngle float64 `json:"start_angle"`
	EndAngle   float64 `json:"end_angle"`
}

type Pie struct {
	Month       MonthInfo  `json:"month"`
	Slices      []PieSlice `json:"slices"`
	CenterLabel string     `json:"center_label"`
	CenterValue Money      `json:"center_value"`
	OverBudget  bool       `json:"over_budget"`
	Note        string     `json:"note,omitempty"`
}

// PieView lays out the breakdown ring. Percentages are of the ring's
// denominator, so they add up to 100 whenever there is data.
func PieView(s Snapshot) Pie {
	slices := chart.BuildSlices(s.Totals, s.Breakdown)
	total := chart.Denominator(s.Totals)

	out := make([]PieSlice, 0, len(slices))
	for _, sl := range slices {
		out = append(out, PieSlice{
			Name:       sl.Name,
			Color:      sl.Color,
			Amount:     money(sl.Amount),
			Percent:    aggregate.Percent(sl.Amount, total),
			StartAngle: sl.StartAngle,
			EndAngle:   sl.EndAngle,
		})
	}

	p := Pie{
		Month:      monthInfo(s.Window),
		Slices:     out,
		OverBudget: chart.OverBudget(s.Totals),
	}
	if r := chart.Remaining(s.Totals); r > 0 {
		p.CenterLabel, p.CenterValue = centerRemaining, money(r)
	} else {
		p.CenterLabel, p.CenterValue = centerExpenses, money(s.Totals.Expense)
	}
	if p.OverBudget {
		p.Note = overBudgetNote
	}
	return p
}

// ChartSVG renders the ring for s at size pixels; size <= 0 uses the
// default.
func ChartSVG(s Snapshot, size float64) string {
	if size <= 0 {
		size = defaultChartSize
	}
	return chart.RenderSVG(chart.BuildSlices(s.Totals, s.Breakdown), size)
}

type History struct {
	Month MonthInfo        `json:"month"`
	Rows  []TransactionRow `json:"rows"`
}

func HistoryView(s Snapshot) History {
	rows := make([]TransactionRow, 0, len(s.Transactions))
	for _, t := range s.Transactions {
		rows = append(rows, Row(t))
	}
	return History{Month: monthInfo(s.Window), Rows: rows}
}
