package workflow

import (
	"context"
	"errors"
	"testing"

	"bidline/internal/catalog"
	"bidline/internal/config"
	"bidline/internal/domain"
)

type failingRetriever struct{ err error }

func (r failingRetriever) Candidates(ctx context.Context, spec domain.ProductSpecification, k int) ([]domain.CandidateSKU, error) {
	return nil, r.err
}

func TestRunMatchingCompliantFirstAttempt(t *testing.T) {
	m := config.Default("desk").Matching
	r := catalog.StaticRetriever{SKUs: []domain.CandidateSKU{sku("EXACT", "Copper", "XLPE", 4, 95)}}

	res, err := RunMatching(context.Background(), r, []domain.ProductSpecification{spec95()}, m)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !res.Compliant || res.Attempts != 0 {
		t.Fatalf("compliant=%t attempts=%d, want true 0", res.Compliant, res.Attempts)
	}
	if len(res.Selected) != 1 || res.Selected[0].SKU != "EXACT" {
		t.Fatalf("selected %v, want EXACT", res.Selected)
	}
	if _, ok := res.Catalog["EXACT"]; !ok {
		t.Fatal("catalog missing selected SKU")
	}
}

func TestRunMatchingRetriesUntilToleranceCoversGap(t *testing.T) {
	// Candidate is 25mm2 short of the required size. Attempts 0..2 score 75;
	// attempt 3 widens the tolerance to 30mm2 and reaches 100.
	m := config.Default("desk").Matching
	r := catalog.StaticRetriever{SKUs: []domain.CandidateSKU{sku("SHORT", "Copper", "XLPE", 4, 70)}}

	res, err := RunMatching(context.Background(), r, []domain.ProductSpecification{spec95()}, m)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if !res.Compliant {
		t.Fatalf("not compliant after %d attempts", res.Attempts)
	}
	if res.Attempts != 3 {
		t.Fatalf("attempts = %d, want 3", res.Attempts)
	}
	if res.Selected[0].Score != 100 || res.Selected[0].Attempt != 3 {
		t.Fatalf("selection = %.2f attempt %d, want 100 on attempt 3", res.Selected[0].Score, res.Selected[0].Attempt)
	}
}

func TestRunMatchingFailsAtMaxRetries(t *testing.T) {
	// Material and insulation never match, so the score is pinned at 50 and
	// no tolerance can rescue it.
	m := config.Default("desk").Matching
	r := catalog.StaticRetriever{SKUs: []domain.CandidateSKU{sku("WRONG", "Steel", "Rubber", 4, 95)}}

	res, err := RunMatching(context.Background(), r, []domain.ProductSpecification{spec95()}, m)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Compliant {
		t.Fatal("expected non-compliant result")
	}
	if res.Attempts != m.MaxRetries {
		t.Fatalf("attempts = %d, want %d", res.Attempts, m.MaxRetries)
	}
	// Partial selections are still reported for the audit trail.
	if len(res.Selected) != 1 || res.Selected[0].Status != MatchCustom {
		t.Fatalf("selected %v, want one custom-required selection", res.Selected)
	}
}

func TestRunMatchingNoCandidates(t *testing.T) {
	m := config.Default("desk").Matching
	res, err := RunMatching(context.Background(), catalog.StaticRetriever{}, []domain.ProductSpecification{spec95()}, m)
	if err != nil {
		t.Fatalf("match: %v", err)
	}
	if res.Compliant || len(res.Selected) != 0 {
		t.Fatalf("compliant=%t selected=%d, want false 0", res.Compliant, len(res.Selected))
	}
	if len(res.LineErrors) == 0 {
		t.Fatal("expected per-line no-candidate errors")
	}
	var nce *NoCandidateError
	if !errors.As(res.LineErrors[0], &nce) {
		t.Fatalf("line error %v is not a NoCandidateError", res.LineErrors[0])
	}
}

func TestRunMatchingRetrievalError(t *testing.T) {
	m := config.Default("desk").Matching
	boom := errors.New("catalog unavailable")
	_, err := RunMatching(context.Background(), failingRetriever{err: boom}, []domain.ProductSpecification{spec95()}, m)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped retrieval error", err)
	}
}
