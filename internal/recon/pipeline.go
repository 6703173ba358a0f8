package recon

import (
	"strings"

	"github.com/getcher123/UD-MVP/internal/config"
	"github.com/getcher123/UD-MVP/internal/derive"
	"github.com/getcher123/UD-MVP/internal/ids"
	"github.com/getcher123/UD-MVP/internal/model"
	"github.com/getcher123/UD-MVP/internal/normalize"
	"github.com/getcher123/UD-MVP/internal/quality"
)

// Normalizer turns one raw listing into its canonical form. It is pure and
// total: bad input degrades to empty fields plus quality flags, it never
// fails. A Normalizer is safe for concurrent use.
type Normalizer struct {
	useType  *normalize.Table
	fitout   *normalize.Table
	vat      *normalize.Table
	opexIncl *normalize.Table

	floorCfg    normalize.FloorConfig
	defaultYear int

	derive derive.Config
	bounds quality.RateBounds
}

// NewNormalizer builds a Normalizer from the service configuration.
func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{
		useType:     config.UseTypeTable(),
		fitout:      config.FitoutTable(),
		vat:         config.VATTable(),
		opexIncl:    config.OpexInclusionTable(),
		floorCfg:    normalize.DefaultFloorConfig(),
		defaultYear: cfg.DefaultYear,
		derive: derive.Config{
			VATFallbackRate: cfg.Derive.VATFallbackRate,
			RateDecimals:    cfg.Derive.RateDecimals,
			MoneyDecimals:   cfg.Derive.MoneyDecimals,
		},
		bounds: quality.RateBounds{Min: cfg.Derive.RateMin, Max: cfg.Derive.RateMax},
	}
}

// Normalize canonicalizes one listing within its batch. The batch supplies
// the request id and the fallback source file for identity composition.
func (n *Normalizer) Normalize(l model.Listing, batch model.Batch) model.NormalizedListing {
	var flags quality.Flags

	sourceFile := l.SourceFile
	if sourceFile == "" {
		sourceFile = batch.SourceFile
	}

	out := model.NormalizedListing{
		ObjectName: strings.TrimSpace(l.ObjectName),
		SourceFile: sourceFile,
		RequestID:  batch.RequestID,
	}

	out.AreaSqm = n.positive(l.AreaSqm, "area_sqm", &flags)
	out.DivisibleFromSqm = n.positive(l.DivisibleFromSqm, "divisible_from_sqm", &flags)
	rentRate := n.number(l.RentRateYearSqmBase, "rent_rate_year_sqm_base", &flags)
	rentMonth := n.number(l.RentCostMonthPerRoom, "rent_cost_month_per_room", &flags)
	out.OpexYearPerSqm = n.number(l.OpexYearPerSqm, "opex_year_per_sqm", &flags)
	out.SalePricePerSqm = n.number(l.SalePricePerSqm, "sale_price_per_sqm", &flags)

	out.UseType = n.category(n.useType, l.UseType, "use_type", &flags)
	out.FitoutCondition = n.category(n.fitout, l.FitoutCondition, "fitout_condition", &flags)

	out.RentVAT = n.vatStatus(l.RentVAT, l.ObjectRentVAT, "rent_vat", &flags)
	out.SaleVAT = n.vatStatus(l.SaleVAT, model.Raw{}, "sale_vat", &flags)
	out.OpexIncluded = n.opexIncluded(l, &flags)

	out.Floors = normalize.Floors(l.Floors.Value, n.floorCfg)
	out.DeliveryDate = normalize.DeliveryDate(l.DeliveryDate.Value, n.defaultYear)
	out.MarketType = marketType(rentRate, rentMonth, out.SalePricePerSqm)

	d := derive.Derive(derive.Input{
		AreaSqm:             out.AreaSqm,
		RentRateYearSqmBase: rentRate,
		RentCostMonth:       rentMonth,
		OpexYearPerSqm:      out.OpexYearPerSqm,
		OpexIncluded:        out.OpexIncluded,
		RentVAT:             out.RentVAT,
	}, n.derive)
	out.RentRateYearSqmBase = d.RentRateYearSqmBase
	out.RentMonthTotalGross = d.RentMonthTotalGross
	for _, field := range d.Skipped {
		flags.AddField(quality.TagDerivationSkipped, field)
	}
	if d.RentRateYearSqmBase != nil && n.bounds.Outlier(*d.RentRateYearSqmBase) {
		flags.Add(quality.TagRateOutlier)
	}

	out.BuildingName = ids.ComposeBuildingName(out.ObjectName, l.BuildingName)
	out.ObjectID = ids.ObjectID(out.ObjectName)
	out.BuildingID = ids.BuildingID(out.ObjectName, l.BuildingName)
	out.ListingID = ids.ListingID(ids.ListingParts{
		ObjectName:      out.ObjectName,
		RawBuildingName: l.BuildingName,
		UseType:         out.UseType,
		Floors:          out.Floors,
		AreaSqm:         out.AreaSqm,
	}, sourceFile)

	// A listing without a building name or a usable area cannot be matched;
	// the reconciler skips it, and the tag records why.
	if out.BuildingName == "" || out.AreaSqm == nil {
		flags.Add(quality.TagValidationFailed)
	}

	out.QualityFlags = flags.List()
	return out
}

// number parses an optional numeric field, flagging values that were present
// but unparseable.
func (n *Normalizer) number(raw model.Raw, field string, flags *quality.Flags) *float64 {
	if raw.IsEmpty() {
		return nil
	}
	v, ok := normalize.Number(raw.Value)
	if !ok {
		flags.AddField(quality.TagMissingNumeric, field)
		return nil
	}
	return v
}

func (n *Normalizer) positive(raw model.Raw, field string, flags *quality.Flags) *float64 {
	if raw.IsEmpty() {
		return nil
	}
	v, ok := normalize.PositiveNumber(raw.Value)
	if !ok {
		flags.AddField(quality.TagMissingNumeric, field)
		return nil
	}
	return v
}

// category resolves a categorical field onto its closed canon. Unresolvable
// non-empty input yields "" plus a flag; raw text never leaks through.
func (n *Normalizer) category(table *normalize.Table, raw model.Raw, field string, flags *quality.Flags) string {
	if raw.IsEmpty() {
		return ""
	}
	canon, ok := table.Resolve(raw.Value)
	if !ok {
		flags.AddField(quality.TagUnresolvedCategory, field)
		return ""
	}
	return canon
}

// vatStatus resolves a VAT field, falling back to the object-level value when
// the listing itself carries none.
func (n *Normalizer) vatStatus(raw, objectRaw model.Raw, field string, flags *quality.Flags) model.VATStatus {
	if raw.IsEmpty() {
		raw = objectRaw
	}
	if raw.IsEmpty() {
		return model.VATUnknown
	}
	canon, ok := n.vat.Resolve(raw.Value)
	if !ok {
		flags.AddField(quality.TagUnresolvedCategory, field)
		return model.VATUnknown
	}
	return model.VATStatus(canon)
}

// opexIncluded resolves the OPEX inclusion flag. A listing that quotes an
// OPEX amount without stating inclusion is treated as quoting it on top.
func (n *Normalizer) opexIncluded(l model.Listing, flags *quality.Flags) model.Inclusion {
	if l.OpexIncluded.IsEmpty() {
		if !l.OpexYearPerSqm.IsEmpty() {
			return model.NotIncluded
		}
		return model.InclusionUnknown
	}
	canon, ok := n.opexIncl.Resolve(l.OpexIncluded.Value)
	if !ok {
		flags.AddField(quality.TagUnresolvedCategory, "opex_included")
		return model.InclusionUnknown
	}
	return model.Inclusion(canon)
}

// marketType names the market segments the listing's prices belong to.
func marketType(rentRate, rentMonth, salePrice *float64) string {
	rent := rentRate != nil || rentMonth != nil
	sale := salePrice != nil
	switch {
	case rent && sale:
		return "аренда, продажа"
	case sale:
		return "продажа"
	case rent:
		return "аренда"
	default:
		return ""
	}
}
