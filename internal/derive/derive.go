// Package derive computes listing fields that are not supplied directly:
// the base annual rent rate per sqm and the gross monthly rent. A present
// direct value always wins; reconstruction only fills gaps.
package derive

import (
	"math"

	"github.com/getcher123/UD-MVP/internal/model"
)

// Config carries the derivation rules.
type Config struct {
	// VATFallbackRate is applied when the listing's VAT status is included
	// or unknown (0.20 by default).
	VATFallbackRate float64
	// RateDecimals rounds the derived base rate (2 by default).
	RateDecimals int
	// MoneyDecimals rounds monetary totals (0 by default: whole rubles).
	MoneyDecimals int
}

// Input is the normalized slice of a listing the derivation reads.
type Input struct {
	AreaSqm             *float64
	RentRateYearSqmBase *float64
	RentCostMonth       *float64
	OpexYearPerSqm      *float64
	OpexIncluded        model.Inclusion
	RentVAT             model.VATStatus
}

// Result carries the derived values plus the names of fields whose
// derivation was skipped because a divisor was missing.
type Result struct {
	RentRateYearSqmBase *float64
	RentMonthTotalGross *float64
	Skipped             []string
}

// VATRate resolves the effective VAT rate for a listing: zero when VAT is
// explicitly excluded or not applied, the configured fallback when included
// or unknown.
func (c Config) VATRate(status model.VATStatus) float64 {
	switch status {
	case model.VATExcluded, model.VATNotApplied:
		return 0
	default:
		return c.VATFallbackRate
	}
}

// Derive runs the priority chain. The base rate priority is
// [direct, reconstruct_from_month]:
//
//	base_month = rent_cost_month / (1 + vat_rate_if_included)
//	rate       = base_month*12/area - (opex if not opex_included)
//
// and the gross monthly rent:
//
//	gross = (rate + (opex if not opex_included)) * area * (1 + vat_rate) / 12
//
// Missing or zero area skips the affected derivation and records the field
// in Skipped; nothing here ever fails hard.
func Derive(in Input, cfg Config) Result {
	var res Result
	vat := cfg.VATRate(in.RentVAT)

	opex := 0.0
	if in.OpexIncluded != model.Included && in.OpexYearPerSqm != nil {
		opex = *in.OpexYearPerSqm
	}

	switch {
	case in.RentRateYearSqmBase != nil:
		res.RentRateYearSqmBase = in.RentRateYearSqmBase
	case in.RentCostMonth != nil:
		if in.AreaSqm == nil || *in.AreaSqm == 0 {
			res.Skipped = append(res.Skipped, "rent_rate_year_sqm_base")
			break
		}
		baseMonth := *in.RentCostMonth / (1 + vat)
		rate := RoundHalfUp(baseMonth*12/(*in.AreaSqm)-opex, cfg.RateDecimals)
		res.RentRateYearSqmBase = &rate
	}

	if res.RentRateYearSqmBase != nil {
		if in.AreaSqm == nil || *in.AreaSqm == 0 {
			res.Skipped = append(res.Skipped, "rent_month_total_gross")
			return res
		}
		gross := (*res.RentRateYearSqmBase + opex) * *in.AreaSqm * (1 + vat) / 12
		gross = RoundHalfUp(gross, cfg.MoneyDecimals)
		res.RentMonthTotalGross = &gross
	}
	return res
}

// RoundHalfUp rounds to the given number of decimals with ties away from
// zero, matching spreadsheet rounding.
func RoundHalfUp(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}
