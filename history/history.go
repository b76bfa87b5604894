// Package history keeps completed audits so they can be fetched by ID
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/store-auditor/backend/audit"
)

// ErrNotFound is returned for unknown or expired records
var ErrNotFound = errors.New("audit record not found")

// Record is a stored audit
type Record struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Tier      audit.Tier        `json:"tier"`
	CreatedAt time.Time         `json:"createdAt"`
	Result    audit.AuditResult `json:"result"`
}

// Store persists audit records
type Store interface {
	Save(ctx context.Context, rec Record) error
	Get(ctx context.Context, id string) (Record, error)
	Close() error
}

// NewRecord wraps a finished report in a record with a fresh ID
func NewRecord(report *audit.Report) Record {
	return Record{
		ID:        uuid.NewString(),
		URL:       report.Result.URL,
		Tier:      report.Outcome.Tier,
		CreatedAt: time.Now().UTC(),
		Result:    report.Result,
	}
}
