package core

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field names of a raw transaction record.
const (
	FieldOwnerID     = "owner_id"
	FieldTitle       = "title"
	FieldAmount      = "amount"
	FieldOccurredAt  = "occurred_at"
	FieldCategory    = "category"
	FieldDescription = "description"
	FieldCreatedAt   = "created_at"
)

// Normalize turns a loosely typed store record into a Transaction.
//
// Every field has a default so one malformed record never rejects a whole
// snapshot:
//
//	owner_id     string                                  -> ""
//	title        string                                  -> ""
//	amount       number, json.Number, decimal, string    -> 0 (also NaN/Inf/unparseable)
//	occurred_at  time.Time, RFC3339, YYYY-MM-DD, unix s  -> zero time
//	category     string, trimmed                         -> "Other"
//	description  string                                  -> ""
func Normalize(rec Record) Transaction {
	f := rec.Fields
	t := Transaction{
		ID:          rec.ID,
		OwnerID:     stringField(f, FieldOwnerID),
		Title:       stringField(f, FieldTitle),
		Amount:      amountField(f[FieldAmount]),
		OccurredAt:  timeField(f[FieldOccurredAt]),
		Category:    strings.TrimSpace(stringField(f, FieldCategory)),
		Description: stringField(f, FieldDescription),
	}
	if t.Category == "" {
		t.Category = DefaultCategory
	}
	return t
}

// NormalizeAll normalizes a snapshot, preserving order.
func NormalizeAll(recs []Record) []Transaction {
	out := make([]Transaction, 0, len(recs))
	for _, r := range recs {
		out = append(out, Normalize(r))
	}
	return out
}

// ToRecord is the inverse used by stores that hold typed rows.
func ToRecord(t Transaction) Record {
	return Record{
		ID: t.ID,
		Fields: map[string]any{
			FieldOwnerID:     t.OwnerID,
			FieldTitle:       t.Title,
			FieldAmount:      t.Amount,
			FieldOccurredAt:  t.OccurredAt,
			FieldCategory:    t.Category,
			FieldDescription: t.Description,
		},
	}
}

func stringField(f map[string]any, key string) string {
	if s, ok := f[key].(string); ok {
		return s
	}
	return ""
}

func amountField(v any) float64 {
	var out float64
	switch x := v.(type) {
	case float64:
		out = x
	case float32:
		out = float64(x)
	case int:
		out = float64(x)
	case int32:
		out = float64(x)
	case int64:
		out = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0
		}
		out = f
	case decimal.Decimal:
		out, _ = x.Float64()
	case string:
		f, err := ParseAmount(x)
		if err != nil {
			return 0
		}
		out = f
	default:
		return 0
	}
	if !isFinite(out) {
		return 0
	}
	return out
}

func timeField(v any) time.Time {
	switch x := v.(type) {
	case time.Time:
		return x
	case *time.Time:
		if x != nil {
			return *x
		}
	case string:
		s := strings.TrimSpace(x)
		if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return ts
		}
		// Date-only values are calendar days in the local zone.
		if ts, err := time.ParseInLocation("2006-01-02", s, time.Local); err == nil {
			return ts
		}
	case int64:
		return time.Unix(x, 0)
	case float64:
		if isFinite(x) {
			return time.Unix(int64(x), 0)
		}
	}
	return time.Time{}
}
