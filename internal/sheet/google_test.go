package sheet

import (
	"reflect"
	"testing"
)

func TestRowsFromValues(t *testing.T) {
	columns := []string{"building_name", "area_sqm"}
	values := [][]any{
		{"building_name", "area_sqm"}, // header
		{"БЦ Орбита", 300.0},
		{"", "  "}, // blank row keeps its position but is skipped
		{"БЦ Вектор"},
	}

	rows := RowsFromValues(values, 1, columns)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].Position != 2 || rows[0].Columns["building_name"] != "БЦ Орбита" {
		t.Errorf("row[0] = %+v", rows[0])
	}
	if rows[0].Columns["area_sqm"] != "300" {
		t.Errorf("numeric cell = %q, want 300", rows[0].Columns["area_sqm"])
	}
	// Short row: missing trailing cells are simply absent.
	if rows[1].Position != 4 {
		t.Errorf("row after blank keeps sheet position, got %d", rows[1].Position)
	}
	if _, ok := rows[1].Columns["area_sqm"]; ok {
		t.Error("short row must not invent trailing columns")
	}
}

func TestRowsFromValuesDeeperHeader(t *testing.T) {
	columns := []string{"a"}
	values := [][]any{{"x"}, {"y"}, {"data"}}
	rows := RowsFromValues(values, 2, columns)
	if len(rows) != 1 || rows[0].Position != 3 || rows[0].Columns["a"] != "data" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestFirstRowOfRange(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"V1!A12:U12", 12},
		{"V1!A12", 12},
		{"A7:B9", 7},
		{"request_log!A3:D3", 3},
		{"garbage", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := FirstRowOfRange(tt.in); got != tt.want {
			t.Errorf("FirstRowOfRange(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFirstRowOfRangeUsedForAppends(t *testing.T) {
	// Three appended rows starting at 12 land on 12, 13, 14.
	first := FirstRowOfRange("V1!A12:U14")
	positions := make([]int, 3)
	for i := range positions {
		positions[i] = first + i
	}
	if !reflect.DeepEqual(positions, []int{12, 13, 14}) {
		t.Errorf("positions = %v", positions)
	}
}
