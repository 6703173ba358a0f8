package sheet

import (
	"context"
	"testing"

	"github.com/getcher123/UD-MVP/internal/model"
)

var testColumns = []string{"building_name", "area_sqm", "request_id"}

func TestMemoryStoreApply(t *testing.T) {
	m := NewMemoryStore(testColumns)
	pos := m.Seed([]any{"БЦ Орбита", "300", ""})
	if pos != 2 {
		t.Errorf("first seeded position = %d, want 2 (below header)", pos)
	}

	res, err := m.Apply(context.Background(),
		[]RowUpdate{{Position: pos, Values: []any{"БЦ Орбита", "301", "req-1"}}},
		[][]any{{"БЦ Вектор", "120", "req-1"}},
	)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Updated) != 1 || res.Updated[0] != pos {
		t.Errorf("Updated = %v", res.Updated)
	}
	if len(res.Appended) != 1 || res.Appended[0] != 3 {
		t.Errorf("Appended = %v", res.Appended)
	}

	rows := m.Rows()
	if rows[0].Columns["area_sqm"] != "301" {
		t.Errorf("update not applied: %v", rows[0].Columns)
	}
	if rows[1].Columns["building_name"] != "БЦ Вектор" {
		t.Errorf("append not applied: %v", rows[1].Columns)
	}
	if m.ApplyCalls != 1 || m.WriteCount != 2 {
		t.Errorf("counters = %d applies, %d writes", m.ApplyCalls, m.WriteCount)
	}
}

func TestMemoryStoreApplyUnknownPosition(t *testing.T) {
	m := NewMemoryStore(testColumns)
	_, err := m.Apply(context.Background(),
		[]RowUpdate{{Position: 99, Values: []any{"x", "1", ""}}}, nil)
	if err == nil {
		t.Fatal("expected error for unknown row position")
	}
}

func TestMemoryStoreRequestLog(t *testing.T) {
	m := NewMemoryStore(testColumns)
	ctx := context.Background()

	got, err := m.FindRequestLog(ctx, "missing")
	if err != nil || got != nil {
		t.Fatalf("FindRequestLog(missing) = %v, %v", got, err)
	}

	entry := model.RequestLogEntry{
		RequestID:   "req-1",
		ProcessedAt: "2026-08-28T10:00:00Z",
		Summary:     model.Summary{Inserted: 2},
	}
	if err := m.AppendLog(ctx, entry); err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	found, err := m.FindRequestLog(ctx, "req-1")
	if err != nil {
		t.Fatalf("FindRequestLog: %v", err)
	}
	if found == nil || found.Summary.Inserted != 2 || found.ProcessedAt != entry.ProcessedAt {
		t.Errorf("found = %+v", found)
	}
}

func TestMemoryStoreSnapshotIsCopy(t *testing.T) {
	m := NewMemoryStore(testColumns)
	m.Seed([]any{"БЦ Орбита", "300", ""})

	snap, err := m.Snapshot(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	snap[0].Columns["building_name"] = "mutated"

	if m.Rows()[0].Columns["building_name"] != "БЦ Орбита" {
		t.Error("snapshot mutation leaked into the store")
	}
}
