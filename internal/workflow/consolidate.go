package workflow

import (
	"time"

	"bidline/internal/domain"
)

// Consolidate assembles the final bid package from the run state. Technical
// compliance is the arithmetic mean of the selected match scores. Fails if
// selections or pricing lines are empty.
func Consolidate(s *State, now time.Time) (*domain.ConsolidatedBid, error) {
	if len(s.Selected) == 0 {
		return nil, &WorkflowFailure{Stage: "bid_consolidation", Reason: "no selected SKUs"}
	}
	if len(s.Pricing) == 0 {
		return nil, &WorkflowFailure{Stage: "bid_consolidation", Reason: "no pricing lines"}
	}

	sum := 0.0
	for _, sel := range s.Selected {
		sum += sel.Score
	}
	compliance := round2(sum / float64(len(s.Selected)))

	total := 0.0
	for _, line := range s.Pricing {
		total += line.GrandTotal
	}

	audit := make([]domain.AuditEntry, len(s.Audit))
	copy(audit, s.Audit)

	return &domain.ConsolidatedBid{
		RFPID:               s.RFP.ID,
		SelectedSKUs:        s.Selected,
		PricingLines:        s.Pricing,
		TotalBidValue:       round2(total),
		TechnicalCompliance: compliance,
		Advisory:            s.Advisory,
		RatesSnapshot:       s.RatesSnapshot,
		AuditLog:            audit,
		CreatedAt:           now.UTC().Format(time.RFC3339),
	}, nil
}
