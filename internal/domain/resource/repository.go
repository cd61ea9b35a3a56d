package resource

import (
	"context"

	"github.com/ops-tools/tcmonitor/internal/domain/billing"
)

// Store defines the interface for durable persistence of run results.
// Implementations upsert by natural identity so repeated runs converge to
// one row per resource instead of accumulating history.
type Store interface {
	// UpsertRecords writes one kind's records for an account. A failure on
	// one record must not prevent writing the rest; per-record failures are
	// logged by the implementation.
	UpsertRecords(ctx context.Context, account string, kind Kind, records []Record, batch string) error

	// UpsertBilling writes the balance pseudo-row and the per-project,
	// per-service bill rows for an account.
	UpsertBilling(ctx context.Context, account string, balance float64, bill billing.Bill, batch string) error

	// Live verifies the connection is usable, reconnecting if the driver
	// supports it.
	Live(ctx context.Context) error

	// Close releases the connection. Safe to call exactly once at run end.
	Close() error
}
