package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Raw is a field value exactly as it was extracted from a source document.
// Extraction produces strings, numbers, booleans or nulls depending on the
// document; Raw keeps the literal text of whatever arrived so the normalizers
// can pattern-match on one closed representation instead of branching on
// runtime types. null and an absent field both decode to the zero Raw.
type Raw struct {
	Value string
	Valid bool
}

// RawString builds a present Raw from a plain string.
func RawString(s string) Raw {
	return Raw{Value: s, Valid: true}
}

// RawFloat builds a present Raw from a number.
func RawFloat(f float64) Raw {
	return Raw{Value: strconv.FormatFloat(f, 'f', -1, 64), Valid: true}
}

// IsEmpty reports whether the value is absent or blank.
func (r Raw) IsEmpty() bool {
	return !r.Valid || strings.TrimSpace(r.Value) == ""
}

func (r Raw) String() string {
	return r.Value
}

func (r *Raw) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*r = Raw{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Raw{Value: s, Valid: true}
		return nil
	}
	// Numbers and booleans keep their literal form.
	*r = Raw{Value: string(b), Valid: true}
	return nil
}

func (r Raw) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// Listing is one candidate unit as it arrives in a batch. It is owned by the
// submitting batch and is never mutated: normalization produces a separate
// NormalizedListing.
type Listing struct {
	ObjectName           string `json:"object_name"`
	BuildingName         string `json:"building_name"`
	UseType              Raw    `json:"use_type,omitempty"`
	AreaSqm              Raw    `json:"area_sqm,omitempty"`
	DivisibleFromSqm     Raw    `json:"divisible_from_sqm,omitempty"`
	Floors               Raw    `json:"floors,omitempty"`
	FitoutCondition      Raw    `json:"fitout_condition,omitempty"`
	DeliveryDate         Raw    `json:"delivery_date,omitempty"`
	RentRateYearSqmBase  Raw    `json:"rent_rate_year_sqm_base,omitempty"`
	RentCostMonthPerRoom Raw    `json:"rent_cost_month_per_room,omitempty"`
	RentVAT              Raw    `json:"rent_vat,omitempty"`
	OpexYearPerSqm       Raw    `json:"opex_year_per_sqm,omitempty"`
	OpexIncluded         Raw    `json:"opex_included,omitempty"`
	SalePricePerSqm      Raw    `json:"sale_price_per_sqm,omitempty"`
	SaleVAT              Raw    `json:"sale_vat,omitempty"`
	ObjectRentVAT        Raw    `json:"object_rent_vat,omitempty"`
	SourceFile           string `json:"source_file,omitempty"`
}

// Batch is one import request: the idempotency unit.
type Batch struct {
	RequestID  string         `json:"request_id"`
	SourceFile string         `json:"source_file,omitempty"`
	ReceivedAt string         `json:"received_at,omitempty"`
	Listings   []Listing      `json:"listings"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// VATStatus is the closed normalization target for VAT fields.
type VATStatus string

const (
	VATUnknown    VATStatus = ""
	VATIncluded   VATStatus = "включен"
	VATExcluded   VATStatus = "не включен"
	VATNotApplied VATStatus = "не применяется"
)

// Inclusion is the closed normalization target for the OPEX inclusion flag.
type Inclusion string

const (
	InclusionUnknown Inclusion = ""
	Included         Inclusion = "включен"
	NotIncluded      Inclusion = "не включен"
)

// NormalizedListing is the canonical form of a Listing: categorical fields
// mapped to closed enumerations, numerics parsed, floors rendered, identity
// composed. It is built once per listing per reconciliation pass and never
// persisted as a whole; only its column values flow into the tabular store.
type NormalizedListing struct {
	ListingID    string
	ObjectID     string
	ObjectName   string
	BuildingID   string
	BuildingName string

	UseType          string
	AreaSqm          *float64
	DivisibleFromSqm *float64
	Floors           string
	MarketType       string
	FitoutCondition  string
	DeliveryDate     string

	RentRateYearSqmBase *float64
	RentVAT             VATStatus
	OpexYearPerSqm      *float64
	OpexIncluded        Inclusion
	RentMonthTotalGross *float64
	SalePricePerSqm     *float64
	SaleVAT             VATStatus

	SourceFile   string
	RequestID    string
	QualityFlags []string
}

// Summary counts the per-listing outcomes of one batch.
type Summary struct {
	Updated  int `json:"updated"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// DuplicateEntry records a listing deliberately left unwritten because its
// match was ambiguous.
type DuplicateEntry struct {
	ListingIndex  int    `json:"listing_index"`
	Reason        string `json:"reason"`
	CandidateRows []int  `json:"candidate_rows,omitempty"`
}

// Response is the batch outcome returned to the caller.
type Response struct {
	RequestID   string           `json:"request_id"`
	ProcessedAt string           `json:"processed_at"`
	Summary     Summary          `json:"summary"`
	Duplicates  []DuplicateEntry `json:"duplicates"`
}

// RequestLogEntry is the persisted record of a processed request. A repeated
// request_id returns the stored entry verbatim instead of reprocessing. Meta
// is the submitting batch's opaque payload, stored as received and never
// interpreted.
type RequestLogEntry struct {
	RequestID   string           `json:"request_id"`
	ProcessedAt string           `json:"processed_at"`
	Summary     Summary          `json:"summary"`
	Duplicates  []DuplicateEntry `json:"duplicates"`
	Meta        map[string]any   `json:"meta,omitempty"`
}

// Response converts a stored log entry back into the caller-facing shape.
func (e RequestLogEntry) Response() *Response {
	dups := e.Duplicates
	if dups == nil {
		dups = []DuplicateEntry{}
	}
	return &Response{
		RequestID:   e.RequestID,
		ProcessedAt: e.ProcessedAt,
		Summary:     e.Summary,
		Duplicates:  dups,
	}
}
