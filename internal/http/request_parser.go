package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker/internal/core"
	"tracker/internal/month"
)

const maxBodyBytes = 64 << 10

var (
	errBadRequest = errors.New("bad request")
	errValidation = errors.New("validation failed")
)

// parseMonth reads ?month=YYYY-MM (default: the month of now) and applies
// an optional ?step=±N.
func parseMonth(q url.Values, now time.Time) (time.Time, error) {
	ref := now
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		t, err := month.Parse(v, now.Location())
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: month must be YYYY-MM", errBadRequest)
		}
		ref = t
	}
	if v := strings.TrimSpace(q.Get("step")); v != "" {
		step, err := strconv.Atoi(v)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: step must be an integer", errBadRequest)
		}
		ref = month.Step(ref, step)
	}
	return ref, nil
}

// RequestBodyParser reads a JSON or form-encoded body once.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]interface{}
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body as JSON when it looks like JSON and as a form
// otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}
	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}
	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed, sanitized value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Bool reads a flag; "true", "1" and "on" are true.
func (p *RequestBodyParser) Bool(key string) bool {
	switch strings.ToLower(p.Get(key)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab and newlines, then
// trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s))
}

// parseNewTransaction builds a create request for ownerID. The date is
// "YYYY-MM-DD" in loc and defaults to today. With is_income present the
// amount's sign follows the flag; without it the amount is taken as signed.
func parseNewTransaction(p *RequestBodyParser, ownerID string, now time.Time) (core.NewTransaction, error) {
	if err := p.Parse(); err != nil {
		return core.NewTransaction{}, fmt.Errorf("%w: malformed body", errBadRequest)
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.NewTransaction{}, err
	}
	if raw := p.Get("is_income"); raw != "" {
		amount = core.SignedAmount(amount, p.Bool("is_income"))
	}

	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if v := p.Get("date"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, now.Location())
		if err != nil {
			return core.NewTransaction{}, core.ErrInvalidDate
		}
		date = d
	}

	nt := core.NewTransaction{
		OwnerID:     ownerID,
		Title:       p.Get("title"),
		Amount:      amount,
		OccurredAt:  date,
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
	if err := nt.Validate(); err != nil {
		if isSentinel(err) {
			return core.NewTransaction{}, err
		}
		return core.NewTransaction{}, fmt.Errorf("%w: %v", errValidation, err)
	}
	return nt, nil
}

func isSentinel(err error) bool {
	for _, s := range []error{core.ErrInvalidAmount, core.ErrInvalidDate, core.ErrEmptyTitle, core.ErrEmptyCategory, core.ErrEmptyOwner} {
		if errors.Is(err, s) {
			return true
		}
	}
	return false
}
