// Package worker exports month reports: it handles export jobs from the
// queue and enqueues last month's export for every owner on a schedule.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"tracker/internal/aggregate"
	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/dashboard"
	"tracker/internal/feed"
	"tracker/internal/metrics"
	"tracker/internal/month"
	"tracker/internal/sheets"
	"tracker/internal/store"
)

// JobPublisher enqueues an export of ownerID's month ("YYYY-MM").
type JobPublisher interface {
	PublishExportJob(ctx context.Context, ownerID, month string) error
}

type ExportWorker struct {
	lister store.Lister
	writer sheets.ReportWriter
	loc    *time.Location
	now    func() time.Time
}

var _ JobPublisher = (*ExportWorker)(nil)

func NewExportWorker(lister store.Lister, writer sheets.ReportWriter, loc *time.Location) *ExportWorker {
	if loc == nil {
		loc = time.Local
	}
	return &ExportWorker{lister: lister, writer: writer, loc: loc, now: time.Now}
}

// HandleExportJob builds and writes one month report.
func (w *ExportWorker) HandleExportJob(ctx context.Context, job *amqp.ExportJob) error {
	slog.InfoContext(ctx, "Processing export job",
		"owner_id", job.OwnerID,
		"month", job.Month,
		"requested_at", job.RequestedAt)

	report, err := w.BuildReport(ctx, job.OwnerID, job.Month)
	if err != nil {
		metrics.ExportRuns.WithLabelValues("error").Inc()
		return err
	}
	ref, err := w.writer.WriteMonthReport(ctx, report)
	if err != nil {
		metrics.ExportRuns.WithLabelValues("error").Inc()
		return fmt.Errorf("write month report: %w", err)
	}
	metrics.ExportRuns.WithLabelValues("success").Inc()

	slog.InfoContext(ctx, "Exported month report",
		"owner_id", job.OwnerID,
		"month", job.Month,
		"transactions", len(report.Transactions),
		"ref", ref)
	return nil
}

// PublishExportJob runs the export inline. It lets the scheduler work
// without a broker.
func (w *ExportWorker) PublishExportJob(ctx context.Context, ownerID, monthKey string) error {
	return w.HandleExportJob(ctx, amqp.NewExportJob(ownerID, monthKey))
}

// BuildReport loads ownerID's transactions for monthKey and aggregates them.
func (w *ExportWorker) BuildReport(ctx context.Context, ownerID, monthKey string) (sheets.MonthReport, error) {
	if ownerID == "" {
		return sheets.MonthReport{}, core.ErrEmptyOwner
	}
	ref, err := month.Parse(monthKey, w.loc)
	if err != nil {
		return sheets.MonthReport{}, fmt.Errorf("parse month %q: %w", monthKey, err)
	}
	window := month.Window(ref)

	recs, err := w.lister.List(ctx, store.QueryFor(ownerID, window))
	if err != nil {
		return sheets.MonthReport{}, fmt.Errorf("list transactions: %w", err)
	}
	snap := dashboard.NewSnapshot(ownerID, window, feed.Scope(core.NormalizeAll(recs), ownerID, window))

	return sheets.MonthReport{
		OwnerID:      ownerID,
		Month:        window.Key(),
		Label:        month.Label(window.Start),
		Totals:       snap.Totals,
		UsagePercent: aggregate.UsageRatio(snap.Totals),
		Breakdown:    snap.Breakdown,
		Transactions: snap.Transactions,
	}, nil
}

// EnqueuePreviousMonth publishes an export of last month for every owner
// that has transactions in it. It keeps going past individual failures and
// returns how many jobs were published.
func (w *ExportWorker) EnqueuePreviousMonth(ctx context.Context, pub JobPublisher) (int, error) {
	window := month.Window(month.Step(w.now().In(w.loc), -1))
	owners, err := w.lister.Owners(ctx, window.Start, window.End)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	var errs []error
	published := 0
	for _, owner := range owners {
		if err := pub.PublishExportJob(ctx, owner, window.Key()); err != nil {
			slog.ErrorContext(ctx, "Failed to enqueue export",
				"owner_id", owner,
				"month", window.Key(),
				"error", err)
			errs = append(errs, err)
			continue
		}
		published++
	}
	slog.InfoContext(ctx, "Scheduled month exports",
		"month", window.Key(),
		"owners", len(owners),
		"published", published)
	return published, errors.Join(errs...)
}

// Schedule runs EnqueuePreviousMonth on spec (standard five-field cron) until
// the returned cron is stopped.
func (w *ExportWorker) Schedule(ctx context.Context, spec string, pub JobPublisher) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(w.loc))
	_, err := c.AddFunc(spec, func() {
		if _, err := w.EnqueuePreviousMonth(ctx, pub); err != nil {
			slog.ErrorContext(ctx, "Scheduled export failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse export schedule %q: %w", spec, err)
	}
	c.Start()
	slog.InfoContext(ctx, "Export schedule started", "cron", spec)
	return c, nil
}
