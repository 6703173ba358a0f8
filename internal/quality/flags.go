package quality

import "strings"

// Warning tags attached to listings by the normalizers, the derivation engine
// and the reconciler. Tags annotate, they never reject: a flagged listing
// still flows through matching and writing.
const (
	TagMissingNumeric     = "missing_numeric"
	TagUnresolvedCategory = "unresolved_category"
	TagDerivationSkipped  = "derivation_skipped"
	TagRateOutlier        = "rent_rate_outlier"
	TagValidationFailed   = "validation_failed"
)

// Flags is an additive, order-stable, deduplicated set of warning tags.
type Flags struct {
	tags []string
	seen map[string]struct{}
}

// Add appends a tag unless it is already present.
func (f *Flags) Add(tag string) {
	if f.seen == nil {
		f.seen = make(map[string]struct{})
	}
	if _, ok := f.seen[tag]; ok {
		return
	}
	f.seen[tag] = struct{}{}
	f.tags = append(f.tags, tag)
}

// AddField appends a field-scoped tag, e.g. "missing_numeric:area_sqm".
func (f *Flags) AddField(tag, field string) {
	f.Add(tag + ":" + field)
}

// List returns the tags in insertion order. The returned slice is nil when no
// tag was added.
func (f *Flags) List() []string {
	if len(f.tags) == 0 {
		return nil
	}
	out := make([]string, len(f.tags))
	copy(out, f.tags)
	return out
}

// Empty reports whether no tag has been added.
func (f *Flags) Empty() bool {
	return len(f.tags) == 0
}

func (f *Flags) String() string {
	return strings.Join(f.tags, "; ")
}

// RateBounds are the configured plausibility bounds for the derived base rent
// rate.
type RateBounds struct {
	Min float64
	Max float64
}

// Outlier reports whether the rate falls outside the configured bounds.
func (b RateBounds) Outlier(rate float64) bool {
	return rate < b.Min || rate > b.Max
}
