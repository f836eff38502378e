package workflow

import (
	"context"

	"bidline/internal/config"
	"bidline/internal/domain"
)

// CandidateRetriever is the retrieval collaborator boundary. It must return
// a deterministic, order-stable ranked list of at most k candidates.
type CandidateRetriever interface {
	Candidates(ctx context.Context, spec domain.ProductSpecification, k int) ([]domain.CandidateSKU, error)
}

// MatchResult is the outcome of the bounded matching loop.
type MatchResult struct {
	Selected   []domain.SelectedSKU
	Catalog    map[string]domain.CandidateSKU
	Compliant  bool
	Attempts   int
	LineErrors []error
}

// RunMatching drives the retry state machine: ATTEMPT(n) for n=0..MaxRetries,
// terminating in COMPLIANT or FAILED. Attempt n uses tolerance n*step and
// re-runs every line, not only the failing ones, so a run's output depends
// solely on its inputs. A returned error is infrastructural (retrieval
// failed); domain outcomes live in the MatchResult.
func RunMatching(ctx context.Context, r CandidateRetriever, specs []domain.ProductSpecification, m config.Matching) (MatchResult, error) {
	var res MatchResult
	for attempt := 0; attempt <= m.MaxRetries; attempt++ {
		tolerance := float64(attempt) * m.ToleranceStepMM2

		var selected []domain.SelectedSKU
		catalog := make(map[string]domain.CandidateSKU)
		var lineErrs []error
		compliant := true

		for _, spec := range specs {
			candidates, err := r.Candidates(ctx, spec, m.CandidateK)
			if err != nil {
				return res, err
			}
			sel, sku, ok := SelectBest(spec, candidates, tolerance, attempt)
			if !ok {
				lineErrs = append(lineErrs, &NoCandidateError{Line: spec.Line, Attempt: attempt})
				continue
			}
			selected = append(selected, sel)
			catalog[sku.SKU] = sku
			if sel.Score < m.Threshold {
				compliant = false
			}
		}

		res = MatchResult{
			Selected:   selected,
			Catalog:    catalog,
			Compliant:  compliant && len(selected) > 0,
			Attempts:   attempt,
			LineErrors: lineErrs,
		}
		if res.Compliant {
			return res, nil
		}
	}
	return res, nil
}
