package amqp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChangeRoutingKey carries ChangeNotice messages to every tracker process.
const ChangeRoutingKey = "transactions.changed"

// ChangeNotice says an owner's transactions changed in another process.
type ChangeNotice struct {
	OwnerID   string    `json:"owner_id"`
	Origin    string    `json:"origin"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeNotice(ownerID, origin string) *ChangeNotice {
	return &ChangeNotice{OwnerID: ownerID, Origin: origin, Timestamp: time.Now()}
}

func (m *ChangeNotice) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeNoticeFromJSON(data []byte) (*ChangeNotice, error) {
	var msg ChangeNotice
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.OwnerID) == "" {
		return nil, fmt.Errorf("change notice without owner_id")
	}
	return &msg, nil
}

// ExportJob asks the worker to write one owner's month report.
type ExportJob struct {
	OwnerID     string    `json:"owner_id"`
	Month       string    `json:"month"` // YYYY-MM
	RequestedAt time.Time `json:"requested_at"`
}

func NewExportJob(ownerID, month string) *ExportJob {
	return &ExportJob{OwnerID: ownerID, Month: month, RequestedAt: time.Now()}
}

func (m *ExportJob) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExportJobFromJSON decodes and validates an export job.
func ExportJobFromJSON(data []byte) (*ExportJob, error) {
	var msg ExportJob
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(msg.OwnerID) == "" {
		return nil, fmt.Errorf("export job without owner_id")
	}
	if _, err := time.Parse("2006-01", msg.Month); err != nil {
		return nil, fmt.Errorf("export job month %q: %w", msg.Month, err)
	}
	return &msg, nil
}
