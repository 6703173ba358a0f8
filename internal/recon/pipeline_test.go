package recon

import (
	"strings"
	"testing"

	"github.com/getcher123/UD-MVP/internal/config"
	"github.com/getcher123/UD-MVP/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		DefaultYear: 2025,
		Match: config.MatchConfig{
			AreaToleranceAbs:  2.0,
			AreaTolerancePct:  1.0,
			NameThreshold:     0.82,
			ScoreGapThreshold: 0.05,
			AreaPenaltyWeight: 0.15,
		},
		Derive: config.DeriveConfig{
			VATFallbackRate: 0.20,
			RateDecimals:    2,
			MoneyDecimals:   0,
			RateMin:         1000,
			RateMax:         200000,
		},
		Columns: config.ListingColumns,
	}
}

func testBatch(listings ...model.Listing) model.Batch {
	return model.Batch{
		RequestID:  "req-1",
		SourceFile: "offer.pdf",
		Listings:   listings,
	}
}

func TestNormalizeRentReconstruction(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName:         "БЦ Орбита",
		AreaSqm:              model.RawString("200"),
		RentCostMonthPerRoom: model.RawString("500 000 ₽"),
		RentVAT:              model.RawString("включая НДС"),
		OpexYearPerSqm:       model.RawString("1000"),
		OpexIncluded:         model.RawString("не включено"),
	}, testBatch())

	if nl.RentRateYearSqmBase == nil {
		t.Fatal("rate not derived")
	}
	if got := *nl.RentRateYearSqmBase; got != 24000 {
		t.Errorf("rate = %v, want 24000", got)
	}
	if nl.RentMonthTotalGross == nil {
		t.Fatal("gross not derived")
	}
	// Gross reconstruction round-trips to the quoted monthly cost.
	if got := *nl.RentMonthTotalGross; got != 500000 {
		t.Errorf("gross = %v, want 500000", got)
	}
	if nl.RentVAT != model.VATIncluded {
		t.Errorf("vat = %q, want включен", nl.RentVAT)
	}
	if len(nl.QualityFlags) != 0 {
		t.Errorf("unexpected flags: %v", nl.QualityFlags)
	}
}

func TestNormalizeDirectRateWins(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName:         "БЦ Орбита",
		AreaSqm:              model.RawString("100"),
		RentRateYearSqmBase:  model.RawString("30000"),
		RentCostMonthPerRoom: model.RawString("999999"),
	}, testBatch())

	if nl.RentRateYearSqmBase == nil || *nl.RentRateYearSqmBase != 30000 {
		t.Errorf("rate = %v, want direct value 30000", nl.RentRateYearSqmBase)
	}
}

func TestNormalizeVATInheritedFromObject(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName:  "БЦ Орбита",
		ObjectRentVAT: model.RawString("без НДС"),
	}, testBatch())
	if nl.RentVAT != model.VATExcluded {
		t.Errorf("vat = %q, want не включен", nl.RentVAT)
	}
}

func TestNormalizeOpexInferredNotIncluded(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName:   "БЦ Орбита",
		OpexYearPerSqm: model.RawString("1500"),
	}, testBatch())
	if nl.OpexIncluded != model.NotIncluded {
		t.Errorf("opex_included = %q, want не включен", nl.OpexIncluded)
	}
}

func TestNormalizeFlagsUnresolvedCategory(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName: "БЦ Орбита",
		UseType:      model.RawString("жилое"),
	}, testBatch())
	if nl.UseType != "" {
		t.Errorf("use type leaked raw value: %q", nl.UseType)
	}
	if !hasFlag(nl.QualityFlags, "unresolved_category:use_type") {
		t.Errorf("flags = %v, want unresolved_category:use_type", nl.QualityFlags)
	}
}

func TestNormalizeFlagsMalformedNumber(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName: "БЦ Орбита",
		AreaSqm:      model.RawString("примерно сто"),
	}, testBatch())
	if nl.AreaSqm != nil {
		t.Errorf("area = %v, want nil", *nl.AreaSqm)
	}
	if !hasFlag(nl.QualityFlags, "missing_numeric:area_sqm") {
		t.Errorf("flags = %v, want missing_numeric:area_sqm", nl.QualityFlags)
	}
}

func TestNormalizeDerivationSkippedWithoutArea(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName:         "БЦ Орбита",
		RentCostMonthPerRoom: model.RawString("500000"),
	}, testBatch())
	if nl.RentRateYearSqmBase != nil {
		t.Errorf("rate = %v, want nil", *nl.RentRateYearSqmBase)
	}
	if !hasFlag(nl.QualityFlags, "derivation_skipped:rent_rate_year_sqm_base") {
		t.Errorf("flags = %v, want derivation_skipped", nl.QualityFlags)
	}
}

func TestNormalizeRateOutlierFlag(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{
		BuildingName:        "БЦ Орбита",
		AreaSqm:             model.RawString("100"),
		RentRateYearSqmBase: model.RawString("500"),
	}, testBatch())
	if !hasFlag(nl.QualityFlags, "rent_rate_outlier") {
		t.Errorf("flags = %v, want rent_rate_outlier", nl.QualityFlags)
	}
}

func TestNormalizeFlagsValidationFailed(t *testing.T) {
	n := NewNormalizer(testConfig())
	tests := []struct {
		name string
		l    model.Listing
		want bool
	}{
		{"blank building", model.Listing{BuildingName: "  ", AreaSqm: model.RawString("300")}, true},
		{"missing area", model.Listing{BuildingName: "БЦ Орбита"}, true},
		{"valid", model.Listing{BuildingName: "БЦ Орбита", AreaSqm: model.RawString("300")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nl := n.Normalize(tt.l, testBatch())
			if got := hasFlag(nl.QualityFlags, "validation_failed"); got != tt.want {
				t.Errorf("validation_failed = %v, want %v (flags %v)", got, tt.want, nl.QualityFlags)
			}
		})
	}
}

func TestNormalizeMarketType(t *testing.T) {
	n := NewNormalizer(testConfig())
	tests := []struct {
		name string
		l    model.Listing
		want string
	}{
		{"rent", model.Listing{BuildingName: "А", RentRateYearSqmBase: model.RawString("20000")}, "аренда"},
		{"sale", model.Listing{BuildingName: "А", SalePricePerSqm: model.RawString("250000")}, "продажа"},
		{"both", model.Listing{
			BuildingName:        "А",
			RentRateYearSqmBase: model.RawString("20000"),
			SalePricePerSqm:     model.RawString("250000"),
		}, "аренда, продажа"},
		{"neither", model.Listing{BuildingName: "А"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.l, testBatch()).MarketType; got != tt.want {
				t.Errorf("market type = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeIdentity(t *testing.T) {
	n := NewNormalizer(testConfig())
	l := model.Listing{
		ObjectName:   "БЦ Орбита",
		BuildingName: "стр. 1",
		UseType:      model.RawString("офис"),
		AreaSqm:      model.RawString("150"),
		Floors:       model.RawString("3"),
	}
	nl := n.Normalize(l, testBatch())

	if nl.BuildingName != "БЦ Орбита, стр. 1" {
		t.Errorf("building name = %q", nl.BuildingName)
	}
	if nl.BuildingID != "bc-orbita__str-1" {
		t.Errorf("building id = %q", nl.BuildingID)
	}
	if !strings.HasPrefix(nl.ListingID, "bc-orbita__str-1__ofis__3__150.0__") {
		t.Errorf("listing id = %q", nl.ListingID)
	}

	again := n.Normalize(l, testBatch())
	if again.ListingID != nl.ListingID {
		t.Error("listing id must be deterministic")
	}
}

func TestNormalizeSourceFileFallback(t *testing.T) {
	n := NewNormalizer(testConfig())
	nl := n.Normalize(model.Listing{BuildingName: "А"}, testBatch())
	if nl.SourceFile != "offer.pdf" {
		t.Errorf("source file = %q, want batch fallback", nl.SourceFile)
	}

	withOwn := n.Normalize(model.Listing{BuildingName: "А", SourceFile: "own.xlsx"}, testBatch())
	if withOwn.SourceFile != "own.xlsx" {
		t.Errorf("source file = %q, want listing's own", withOwn.SourceFile)
	}
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
