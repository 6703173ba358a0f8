// Package sheet abstracts the tabular store the reconciler syncs against.
// The production implementation talks to a Google spreadsheet; tests and dry
// runs use the in-memory store. The contract deliberately offers no
// transactions: Apply may partially succeed, and callers must treat whatever
// landed as the new ground truth on retry.
package sheet

import (
	"context"

	"github.com/getcher123/UD-MVP/internal/model"
)

// Row is one snapshot row of the listing sheet. Position is 1-based and
// stable until a row is deleted or reordered.
type Row struct {
	Position int
	Columns  map[string]string
}

// RowUpdate replaces the tracked columns of one existing row.
type RowUpdate struct {
	Position int
	Values   []any
}

// ApplyResult reports which rows a batched write touched. Appended holds the
// 1-based positions of newly created rows when the store can determine them.
type ApplyResult struct {
	Updated  []int
	Appended []int
}

// Store is the tabular-store contract.
type Store interface {
	// Snapshot reads the full listing sheet below the header row.
	Snapshot(ctx context.Context) ([]Row, error)

	// Apply performs the queued writes as one batched call. Delivery is not
	// all-or-nothing; on error some writes may already be visible.
	Apply(ctx context.Context, updates []RowUpdate, appends [][]any) (ApplyResult, error)

	// AppendLog writes one entry to the request log sheet, creating the
	// sheet on first use.
	AppendLog(ctx context.Context, entry model.RequestLogEntry) error

	// FindRequestLog returns the stored entry for a request id, or nil when
	// the request has not been processed.
	FindRequestLog(ctx context.Context, requestID string) (*model.RequestLogEntry, error)
}
