package sheet

import (
	"context"
	"fmt"
	"sync"

	"github.com/getcher123/UD-MVP/internal/model"
)

// MemoryStore is a complete in-memory implementation of the Store contract,
// used by tests and by the CLI when no spreadsheet is configured. It counts
// Apply calls so tests can assert that idempotent retries write nothing.
type MemoryStore struct {
	mu      sync.Mutex
	columns []string
	rows    []Row
	logs    map[string]model.RequestLogEntry
	nextRow int

	ApplyCalls int
	WriteCount int
}

// NewMemoryStore creates an empty store whose data rows start right below a
// single header row.
func NewMemoryStore(columns []string) *MemoryStore {
	return &MemoryStore{
		columns: append([]string(nil), columns...),
		logs:    make(map[string]model.RequestLogEntry),
		nextRow: 2,
	}
}

// Seed appends a row directly, bypassing Apply accounting. Returns the row
// position.
func (m *MemoryStore) Seed(values []any) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendLocked(values)
}

// Rows returns a copy of the current rows.
func (m *MemoryStore) Rows() []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Row, len(m.rows))
	for i, r := range m.rows {
		cols := make(map[string]string, len(r.Columns))
		for k, v := range r.Columns {
			cols[k] = v
		}
		out[i] = Row{Position: r.Position, Columns: cols}
	}
	return out
}

func (m *MemoryStore) Snapshot(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.Rows(), nil
}

func (m *MemoryStore) Apply(ctx context.Context, updates []RowUpdate, appends [][]any) (ApplyResult, error) {
	if err := ctx.Err(); err != nil {
		return ApplyResult{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ApplyCalls++
	var res ApplyResult
	for _, u := range updates {
		found := false
		for i := range m.rows {
			if m.rows[i].Position == u.Position {
				m.rows[i].Columns = m.mapColumns(u.Values)
				found = true
				break
			}
		}
		if !found {
			return res, fmt.Errorf("memory store: no row at position %d", u.Position)
		}
		m.WriteCount++
		res.Updated = append(res.Updated, u.Position)
	}
	for _, values := range appends {
		pos := m.appendLocked(values)
		m.WriteCount++
		res.Appended = append(res.Appended, pos)
	}
	return res, nil
}

func (m *MemoryStore) AppendLog(ctx context.Context, entry model.RequestLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs[entry.RequestID] = entry
	return nil
}

func (m *MemoryStore) FindRequestLog(ctx context.Context, requestID string) (*model.RequestLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.logs[requestID]; ok {
		return &e, nil
	}
	return nil, nil
}

func (m *MemoryStore) appendLocked(values []any) int {
	pos := m.nextRow
	m.nextRow++
	m.rows = append(m.rows, Row{Position: pos, Columns: m.mapColumns(values)})
	return pos
}

func (m *MemoryStore) mapColumns(values []any) map[string]string {
	cols := make(map[string]string, len(m.columns))
	for i, name := range m.columns {
		if i >= len(values) {
			break
		}
		cols[name] = fmt.Sprint(values[i])
	}
	return cols
}
