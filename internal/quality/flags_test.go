package quality

import (
	"reflect"
	"testing"
)

func TestFlagsAddDeduplicates(t *testing.T) {
	var f Flags
	f.Add(TagRateOutlier)
	f.Add(TagRateOutlier)
	f.AddField(TagMissingNumeric, "area_sqm")
	f.AddField(TagMissingNumeric, "area_sqm")
	f.AddField(TagMissingNumeric, "opex_year_per_sqm")

	want := []string{
		"rent_rate_outlier",
		"missing_numeric:area_sqm",
		"missing_numeric:opex_year_per_sqm",
	}
	if got := f.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestFlagsOrderIsInsertionOrder(t *testing.T) {
	var f Flags
	f.Add("b")
	f.Add("a")
	f.Add("c")
	if got := f.String(); got != "b; a; c" {
		t.Errorf("String() = %q, want insertion order", got)
	}
}

func TestFlagsEmpty(t *testing.T) {
	var f Flags
	if !f.Empty() {
		t.Error("new Flags must be empty")
	}
	if f.List() != nil {
		t.Error("empty List() must be nil")
	}
	f.Add("x")
	if f.Empty() {
		t.Error("Flags with a tag must not be empty")
	}
}

func TestRateBounds(t *testing.T) {
	b := RateBounds{Min: 1000, Max: 200000}
	tests := []struct {
		rate float64
		want bool
	}{
		{999, true},
		{1000, false},
		{24000, false},
		{200000, false},
		{200001, true},
	}
	for _, tt := range tests {
		if got := b.Outlier(tt.rate); got != tt.want {
			t.Errorf("Outlier(%v) = %v, want %v", tt.rate, got, tt.want)
		}
	}
}
