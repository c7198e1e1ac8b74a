package worker

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"tracker/internal/amqp"
	"tracker/internal/core"
	"tracker/internal/sheets"
	reports "tracker/internal/sheets/memory"
	"tracker/internal/store/memory"
)

func seed(t *testing.T, s *memory.Store, owner string, date time.Time, amount float64, category string) {
	t.Helper()
	_, err := s.Create(context.Background(), core.NewTransaction{
		OwnerID:    owner,
		Title:      category,
		Amount:     amount,
		OccurredAt: date,
		Category:   category,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
}

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 12, 0, 0, 0, time.UTC)
}

func TestHandleExportJobWritesReport(t *testing.T) {
	st := memory.New()
	defer st.Close()
	seed(t, st, "u1", day(3, 1), 1000, "Salary")
	seed(t, st, "u1", day(3, 4), -300, "Food")
	seed(t, st, "u1", day(3, 9), -100, "Transport")
	seed(t, st, "u1", day(4, 1), -999, "Food")
	seed(t, st, "u2", day(3, 5), -50, "Food")

	sink := reports.New()
	w := NewExportWorker(st, sink, time.UTC)

	if err := w.HandleExportJob(context.Background(), amqp.NewExportJob("u1", "2025-03")); err != nil {
		t.Fatalf("HandleExportJob: %v", err)
	}

	r, ok := sink.Report("u1", "2025-03")
	if !ok {
		t.Fatalf("no report written")
	}
	if r.Totals != (core.Totals{Income: 1000, Expense: 400, Net: 600}) {
		t.Errorf("totals = %+v", r.Totals)
	}
	if r.UsagePercent != 40 {
		t.Errorf("usage = %v, want 40", r.UsagePercent)
	}
	if r.Label != "March 2025" || len(r.Transactions) != 3 {
		t.Errorf("report = %+v", r)
	}
	if food, _ := r.Breakdown.Get("Food"); food != 300 {
		t.Errorf("food = %v, want 300", food)
	}
}

func TestBuildReportRejectsBadInput(t *testing.T) {
	w := NewExportWorker(memory.New(), reports.New(), time.UTC)
	if _, err := w.BuildReport(context.Background(), "", "2025-03"); !errors.Is(err, core.ErrEmptyOwner) {
		t.Fatalf("err = %v, want ErrEmptyOwner", err)
	}
	if _, err := w.BuildReport(context.Background(), "u1", "March"); err == nil {
		t.Fatalf("expected error for malformed month")
	}
}

type failingWriter struct{}

func (failingWriter) WriteMonthReport(context.Context, sheets.MonthReport) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestHandleExportJobWriterError(t *testing.T) {
	w := NewExportWorker(memory.New(), failingWriter{}, time.UTC)
	if err := w.HandleExportJob(context.Background(), amqp.NewExportJob("u1", "2025-03")); err == nil {
		t.Fatalf("expected writer error")
	}
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []string
	fail string
}

func (p *recordingPublisher) PublishExportJob(_ context.Context, ownerID, month string) error {
	if ownerID == p.fail {
		return errors.New("broker down")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, ownerID+"|"+month)
	return nil
}

func TestEnqueuePreviousMonth(t *testing.T) {
	st := memory.New()
	defer st.Close()
	seed(t, st, "u1", day(3, 2), -10, "Food")
	seed(t, st, "u2", day(3, 30), 20, "Gift")
	seed(t, st, "u3", day(4, 2), -5, "Food")

	w := NewExportWorker(st, reports.New(), time.UTC)
	w.now = func() time.Time { return day(4, 1) }

	pub := &recordingPublisher{}
	n, err := w.EnqueuePreviousMonth(context.Background(), pub)
	if err != nil || n != 2 {
		t.Fatalf("published %d, err %v", n, err)
	}
	sort.Strings(pub.jobs)
	if pub.jobs[0] != "u1|2025-03" || pub.jobs[1] != "u2|2025-03" {
		t.Fatalf("jobs = %v", pub.jobs)
	}

	pub = &recordingPublisher{fail: "u1"}
	n, err = w.EnqueuePreviousMonth(context.Background(), pub)
	if err == nil || n != 1 {
		t.Fatalf("published %d, err %v; want 1 and an error", n, err)
	}
}

func TestEnqueueInlineWritesReports(t *testing.T) {
	st := memory.New()
	defer st.Close()
	seed(t, st, "u1", day(3, 2), -10, "Food")

	sink := reports.New()
	w := NewExportWorker(st, sink, time.UTC)
	w.now = func() time.Time { return day(4, 15) }

	if _, err := w.EnqueuePreviousMonth(context.Background(), w); err != nil {
		t.Fatalf("EnqueuePreviousMonth: %v", err)
	}
	if keys := sink.Keys(); len(keys) != 1 || keys[0] != "u1|2025-03" {
		t.Fatalf("keys = %v", keys)
	}
}

func TestScheduleRejectsBadSpec(t *testing.T) {
	w := NewExportWorker(memory.New(), reports.New(), time.UTC)
	if _, err := w.Schedule(context.Background(), "not a cron", w); err == nil {
		t.Fatalf("expected error for bad cron spec")
	}
	c, err := w.Schedule(context.Background(), "0 6 1 * *", w)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	<-c.Stop().Done()
}
