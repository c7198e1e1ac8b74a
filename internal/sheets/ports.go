// Package sheets defines where monthly reports are exported to.
package sheets

import (
	"context"

	"tracker/internal/core"
)

// MonthReport is one owner's month, ready to be written out.
type MonthReport struct {
	OwnerID      string
	Month        string // YYYY-MM
	Label        string // "March 2025"
	Totals       core.Totals
	UsagePercent float64
	Breakdown    core.Breakdown
	Transactions []core.Transaction
}

// ReportWriter persists month reports outside the tracker.
type ReportWriter interface {
	WriteMonthReport(ctx context.Context, r MonthReport) (ref string, err error)
}
