package workflow

import "bidline/internal/domain"

// SMM field weights. Design constants, not configurable per run; they sum
// to 1.0 so a full match scores exactly 100.
const (
	WeightMaterial   = 0.30
	WeightCores      = 0.25
	WeightSize       = 0.25
	WeightInsulation = 0.20
)

// Match status labels, derived for display/audit only. Control flow uses the
// raw numeric threshold.
const (
	MatchPerfect   = "perfect"
	MatchQualified = "qualified"
	MatchMarginal  = "marginal"
	MatchCustom    = "custom required"
)

// ScoreCandidate computes the weighted spec match metric for one candidate
// with size tolerance t (mm2). Size uses a meet-or-exceed policy:
// candidate size >= required size - t.
func ScoreCandidate(spec domain.ProductSpecification, sku domain.CandidateSKU, t float64) (float64, map[string]domain.FieldScore) {
	breakdown := map[string]domain.FieldScore{
		"material":   fieldScore(sku.Material == spec.Material, WeightMaterial),
		"cores":      fieldScore(sku.Cores == spec.Cores, WeightCores),
		"size":       fieldScore(sku.SizeMM2 >= spec.SizeMM2-t, WeightSize),
		"insulation": fieldScore(sku.Insulation == spec.Insulation, WeightInsulation),
	}
	total := 0.0
	for _, fs := range breakdown {
		total += fs.Score
	}
	return round2(total), breakdown
}

func fieldScore(matched bool, weight float64) domain.FieldScore {
	fs := domain.FieldScore{Matched: matched, Weight: weight}
	if matched {
		fs.Score = weight * 100
	}
	return fs
}

// SelectBest scores every candidate and picks the highest. Ties are broken
// by position in the retrieval list: the comparison is strictly-greater, so
// the first candidate to reach the best score wins.
func SelectBest(spec domain.ProductSpecification, candidates []domain.CandidateSKU, t float64, attempt int) (domain.SelectedSKU, domain.CandidateSKU, bool) {
	if len(candidates) == 0 {
		return domain.SelectedSKU{}, domain.CandidateSKU{}, false
	}
	best := -1.0
	var bestSKU domain.CandidateSKU
	var bestBreakdown map[string]domain.FieldScore
	for _, c := range candidates {
		score, breakdown := ScoreCandidate(spec, c, t)
		if score > best {
			best = score
			bestSKU = c
			bestBreakdown = breakdown
		}
	}
	sel := domain.SelectedSKU{
		Line:      spec.Line,
		SKU:       bestSKU.SKU,
		Score:     best,
		Status:    MatchLabel(best),
		Breakdown: bestBreakdown,
		Attempt:   attempt,
	}
	return sel, bestSKU, true
}

// MatchLabel maps a score to its display label.
func MatchLabel(score float64) string {
	switch {
	case score >= 100:
		return MatchPerfect
	case score >= 85:
		return MatchQualified
	case score >= 80:
		return MatchMarginal
	default:
		return MatchCustom
	}
}
