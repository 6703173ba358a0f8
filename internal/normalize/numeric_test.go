package normalize

import "testing"

func TestNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want float64
		ok   bool
	}{
		{"plain integer", "12000", 12000, true},
		{"decimal point", "1200.5", 1200.5, true},
		{"decimal comma", "1200,5", 1200.5, true},
		{"grouped spaces", "12 000", 12000, true},
		{"nbsp groups", "12\u00a0000", 12000, true},
		{"narrow nbsp", "12\u202f000", 12000, true},
		{"ruble sign", "12 000 ₽", 12000, true},
		{"rub suffix", "1 200,50 руб./м2", 1200.5, true},
		{"dollar", "$25", 25, true},
		{"per sqm suffix", "25000/м2", 25000, true},
		{"negative", "-5", -5, true},
		{"zero", "0", 0, true},
		{"empty", "", 0, false},
		{"null literal", "null", 0, false},
		{"words", "примерно сто", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Number(tt.in)
			if ok != tt.ok {
				t.Fatalf("Number(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			}
			if ok && *got != tt.want {
				t.Errorf("Number(%q) = %v, want %v", tt.in, *got, tt.want)
			}
		})
	}
}

func TestPositiveNumber(t *testing.T) {
	if _, ok := PositiveNumber("0"); ok {
		t.Error("zero must not be a positive number")
	}
	if _, ok := PositiveNumber("-10"); ok {
		t.Error("negative must not be a positive number")
	}
	got, ok := PositiveNumber("300,5")
	if !ok || *got != 300.5 {
		t.Errorf("PositiveNumber(300,5) = %v, %v", got, ok)
	}
}
