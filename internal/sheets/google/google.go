// Package google writes month reports to a Google Sheets spreadsheet with a
// service account.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tracker/internal/aggregate"
	"tracker/internal/sheets"
)

type Config struct {
	SpreadsheetID   string
	SheetName       string
	CredentialsFile string
	CredentialsJSON string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ sheets.ReportWriter = (*Client)(nil)

var ErrMissingCredentials = errors.New("missing service account credentials")

// New builds a Sheets client. Extra options are applied after the
// credentials; with no configured credentials opts must carry their own.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Reports"
	}

	var clientOpts []goption.ClientOption
	creds, err := credentials(cfg)
	switch {
	case err == nil:
		clientOpts = append(clientOpts,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	case errors.Is(err, ErrMissingCredentials) && len(opts) > 0:
	default:
		return nil, err
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := gsheet.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	slog.InfoContext(ctx, "Google Sheets exporter ready",
		"spreadsheet_id", cfg.SpreadsheetID,
		"sheet", sheet)

	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetName: sheet}, nil
}

func credentials(cfg Config) ([]byte, error) {
	if j := strings.TrimSpace(cfg.CredentialsJSON); j != "" {
		return []byte(j), nil
	}
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, ErrMissingCredentials
}

// WriteMonthReport appends the report's rows below whatever the sheet
// already holds and returns the updated range.
func (c *Client) WriteMonthReport(ctx context.Context, r sheets.MonthReport) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	vr := &gsheet.ValueRange{Values: reportRows(r)}
	rng := fmt.Sprintf("%s!A:G", c.sheetName)

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("append report rows: %w", err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Wrote month report",
		"owner_id", r.OwnerID,
		"month", r.Month,
		"rows", len(vr.Values),
		"range", ref)
	return ref, nil
}

// reportRows lays out one summary row followed by one row per expense
// category: month, owner, label, income, expense, net, percent.
func reportRows(r sheets.MonthReport) [][]interface{} {
	rows := make([][]interface{}, 0, 1+len(r.Breakdown))
	rows = append(rows, []interface{}{
		r.Month,
		r.OwnerID,
		"TOTAL",
		money(r.Totals.Income),
		money(r.Totals.Expense),
		money(r.Totals.Net),
		money(r.UsagePercent),
	})
	total := r.Breakdown.Total()
	for _, c := range r.Breakdown {
		rows = append(rows, []interface{}{
			r.Month,
			r.OwnerID,
			c.Name,
			"",
			money(c.Amount),
			"",
			money(aggregate.Percent(c.Amount, total)),
		})
	}
	return rows
}

func money(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(2)
}
