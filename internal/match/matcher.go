package match

import (
	"math"
	"sort"
)

// Config holds the matching thresholds.
type Config struct {
	// AreaToleranceAbs is the absolute area tolerance in square meters.
	AreaToleranceAbs float64
	// AreaTolerancePct widens the tolerance for large areas; the effective
	// tolerance is max(abs, pct/100*area).
	AreaTolerancePct float64
	// NameThreshold is the minimum name similarity for a fuzzy candidate.
	NameThreshold float64
	// ScoreGapThreshold makes the match ambiguous when a second candidate
	// scores within this gap of the best one.
	ScoreGapThreshold float64
	// AreaPenaltyWeight scales the penalty for area deviation.
	AreaPenaltyWeight float64
}

// Kind classifies a match outcome.
type Kind int

const (
	// NotFound means no row qualified; the listing becomes a new row.
	NotFound Kind = iota
	// Matched means exactly one best row; the listing updates it.
	Matched
	// Ambiguous means several rows scored too close together; the listing
	// is skipped and reported as a duplicate.
	Ambiguous
)

// Candidate is one scored sheet row.
type Candidate struct {
	Position int
	Score    float64
}

// Result is the outcome of matching one listing against the index.
type Result struct {
	Kind     Kind
	Position int
	// Candidates holds the contenders within the score gap when the match
	// is ambiguous, best first.
	Candidates []Candidate
}

// Match resolves one listing against the index. Candidate rows come from an
// exact building-name lookup, then the alias table, then a fuzzy scan of the
// whole index; the first stage producing candidates wins. A candidate must
// lie within the effective area tolerance at every stage, so Matched always
// implies abs(row.area - listing.area) <= tolerance. Within the band, area
// deviation lowers the score; fuzzy candidates are thresholded on the
// penalized score. Ties are broken by ascending row position so a batch
// replayed against the same snapshot lands on the same rows.
func Match(idx *Index, buildingName string, areaSqm *float64, aliases map[string]string, cfg Config) Result {
	rows := withinTolerance(idx.Exact(buildingName), areaSqm, cfg)
	if len(rows) == 0 {
		if canonical, ok := aliases[buildingName]; ok {
			rows = withinTolerance(idx.Exact(canonical), areaSqm, cfg)
		}
	}

	var candidates []Candidate
	if len(rows) > 0 {
		candidates = make([]Candidate, 0, len(rows))
		for _, r := range rows {
			score := 1.0 - cfg.AreaPenaltyWeight*areaDeviation(areaSqm, r.AreaSqm, cfg)
			candidates = append(candidates, Candidate{Position: r.Position, Score: score})
		}
	} else {
		for _, r := range withinTolerance(idx.All(), areaSqm, cfg) {
			score := Ratio(buildingName, r.BuildingName) - cfg.AreaPenaltyWeight*areaDeviation(areaSqm, r.AreaSqm, cfg)
			if score >= cfg.NameThreshold {
				candidates = append(candidates, Candidate{Position: r.Position, Score: score})
			}
		}
	}
	if len(candidates) == 0 {
		return Result{Kind: NotFound}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Position < candidates[j].Position
	})

	best := candidates[0]
	within := []Candidate{best}
	for _, c := range candidates[1:] {
		if best.Score-c.Score < cfg.ScoreGapThreshold {
			within = append(within, c)
		}
	}
	if len(within) > 1 {
		return Result{Kind: Ambiguous, Candidates: within}
	}
	return Result{Kind: Matched, Position: best.Position}
}

// withinTolerance keeps candidates whose area lies inside the effective
// tolerance band. A row or listing without a known area never qualifies.
func withinTolerance(rows []RowInfo, listing *float64, cfg Config) []RowInfo {
	if listing == nil {
		return nil
	}
	var out []RowInfo
	for _, r := range rows {
		if r.AreaSqm == nil {
			continue
		}
		if math.Abs(*listing-*r.AreaSqm) <= tolerance(*listing, cfg) {
			out = append(out, r)
		}
	}
	return out
}

// tolerance is the effective area tolerance for a listing: the absolute
// tolerance or the percentage band, whichever is larger.
func tolerance(listing float64, cfg Config) float64 {
	tol := cfg.AreaToleranceAbs
	if pct := cfg.AreaTolerancePct / 100 * listing; pct > tol {
		tol = pct
	}
	return tol
}

// areaDeviation returns the normalized deviation in [0, 1] across the
// tolerance band. An unknown area on either side counts as the full
// deviation.
func areaDeviation(listing, row *float64, cfg Config) float64 {
	if listing == nil || row == nil {
		return 1
	}
	tol := tolerance(*listing, cfg)
	if tol <= 0 {
		return 1
	}
	dev := math.Abs(*listing - *row) / tol
	if dev > 1 {
		return 1
	}
	return dev
}
