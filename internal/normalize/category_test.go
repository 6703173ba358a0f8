package normalize

import "testing"

func testTable() *Table {
	return NewTable(map[string][]string{
		"включен":    {"включая ндс", "с ндс"},
		"не включен": {"без ндс"},
	}, []PartialRule{
		{Contains: "начисляется ндс", Canon: "включен"},
	}, "")
}

func TestTableResolve(t *testing.T) {
	tbl := testTable()
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"canonical value", "включен", "включен", true},
		{"synonym", "с НДС", "включен", true},
		{"case folded", "  БЕЗ НДС ", "не включен", true},
		{"partial rule", "к ставке начисляется НДС ежемесячно", "включен", true},
		{"unknown", "что-то другое", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tbl.Resolve(tt.in)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Resolve(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTableDefault(t *testing.T) {
	tbl := NewTable(map[string][]string{"офис": nil}, nil, "псн")
	got, ok := tbl.Resolve("неизвестный тип")
	if !ok || got != "псн" {
		t.Errorf("Resolve with default = %q, %v; want псн, true", got, ok)
	}
}

func TestTableNeverPassesRawThrough(t *testing.T) {
	tbl := testTable()
	if got, ok := tbl.Resolve("включая ндс и кофе"); ok {
		t.Errorf("partial input leaked through as %q", got)
	}
}
