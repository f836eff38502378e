package workflow

import (
	"testing"

	"bidline/internal/domain"
)

func spec95() domain.ProductSpecification {
	return domain.ProductSpecification{
		Line: 1, Quantity: 5000,
		Material: "Copper", Insulation: "XLPE", Cores: 4, SizeMM2: 95, VoltageKV: 1.1,
	}
}

func sku(id string, material, insulation string, cores int, size float64) domain.CandidateSKU {
	return domain.CandidateSKU{
		SKU: id, Material: material, Insulation: insulation, Cores: cores, SizeMM2: size,
		VoltageKV: 1.1, BasePrice: 1000, MetalWeightKgKm: 380,
	}
}

func TestScoreCandidate(t *testing.T) {
	cases := []struct {
		name string
		sku  domain.CandidateSKU
		t    float64
		want float64
	}{
		{"exact match", sku("A", "Copper", "XLPE", 4, 95), 0, 100},
		{"oversized still matches", sku("A", "Copper", "XLPE", 4, 120), 0, 100},
		{"size short, no tolerance", sku("A", "Copper", "XLPE", 4, 70), 0, 75},
		{"size short, tolerance too small", sku("A", "Copper", "XLPE", 4, 70), 20, 75},
		{"size short, tolerance covers gap", sku("A", "Copper", "XLPE", 4, 70), 30, 100},
		{"material miss only", sku("A", "Aluminium", "XLPE", 4, 95), 0, 70},
		{"insulation miss only", sku("A", "Copper", "PVC", 4, 95), 0, 80},
		{"cores miss only", sku("A", "Copper", "XLPE", 3, 95), 0, 75},
		{"everything misses", sku("A", "Aluminium", "PVC", 3, 50), 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score, breakdown := ScoreCandidate(spec95(), tc.sku, tc.t)
			if score != tc.want {
				t.Fatalf("score = %.2f, want %.2f", score, tc.want)
			}
			if len(breakdown) != 4 {
				t.Fatalf("breakdown has %d fields, want 4", len(breakdown))
			}
			sum := 0.0
			for _, fs := range breakdown {
				sum += fs.Score
			}
			if round2(sum) != tc.want {
				t.Fatalf("breakdown sums to %.2f, want %.2f", sum, tc.want)
			}
		})
	}
}

func TestSelectBestTieBreaksOnPosition(t *testing.T) {
	// Both candidates score 100; the first in retrieval order must win.
	candidates := []domain.CandidateSKU{
		sku("FIRST", "Copper", "XLPE", 4, 95),
		sku("SECOND", "Copper", "XLPE", 4, 120),
	}
	sel, chosen, ok := SelectBest(spec95(), candidates, 0, 0)
	if !ok {
		t.Fatal("expected a selection")
	}
	if sel.SKU != "FIRST" || chosen.SKU != "FIRST" {
		t.Fatalf("selected %s, want FIRST", sel.SKU)
	}
	if sel.Score != 100 || sel.Status != MatchPerfect {
		t.Fatalf("selection = %.2f %s, want 100 perfect", sel.Score, sel.Status)
	}
}

func TestSelectBestPrefersHigherScore(t *testing.T) {
	candidates := []domain.CandidateSKU{
		sku("WEAK", "Aluminium", "PVC", 3, 50),
		sku("STRONG", "Copper", "XLPE", 4, 95),
	}
	sel, _, ok := SelectBest(spec95(), candidates, 0, 2)
	if !ok || sel.SKU != "STRONG" {
		t.Fatalf("selected %s, want STRONG", sel.SKU)
	}
	if sel.Attempt != 2 {
		t.Fatalf("attempt = %d, want 2", sel.Attempt)
	}
}

func TestSelectBestEmpty(t *testing.T) {
	if _, _, ok := SelectBest(spec95(), nil, 0, 0); ok {
		t.Fatal("expected no selection from empty candidate list")
	}
}

func TestMatchLabel(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{100, MatchPerfect},
		{99.99, MatchQualified},
		{85, MatchQualified},
		{84.99, MatchMarginal},
		{80, MatchMarginal},
		{79.99, MatchCustom},
		{0, MatchCustom},
	}
	for _, tc := range cases {
		if got := MatchLabel(tc.score); got != tc.want {
			t.Errorf("MatchLabel(%.2f) = %s, want %s", tc.score, got, tc.want)
		}
	}
}
