package workflow

import (
	"math"
	"time"

	"bidline/internal/domain"
)

// Workflow statuses. Terminal statuses are the three decisions,
// declined_at_screening, and the failed_<stage> family.
const (
	StatusInitialized         = "initialized"
	StatusScreeningComplete   = "sales_screening_complete"
	StatusDeclinedAtScreening = "declined_at_screening"
	StatusSpecsExtracted      = "specifications_extracted"
	StatusMatchingComplete    = "technical_matching_complete"
	StatusPricingComplete     = "pricing_complete"
	StatusAdvisoryComplete    = "advisory_complete"
	StatusConsolidated        = "bid_consolidated"

	StatusFailedScreening     = "failed_sales_screening"
	StatusFailedExtraction    = "failed_spec_extraction"
	StatusFailedMatching      = "failed_technical_matching"
	StatusFailedPricing       = "failed_pricing"
	StatusFailedAdvisory      = "failed_advisory"
	StatusFailedConsolidation = "failed_bid_consolidation"
)

const (
	DecisionApprove  = "approve"
	DecisionEscalate = "escalate"
	DecisionDecline  = "decline"
)

// Non-fatal errors beyond this count force a decline.
const errorCeiling = 3

// State is the envelope threaded through every stage of one run. It is owned
// exclusively by the orchestrator for the duration of the run; stage outputs
// are optional until their stage has executed.
type State struct {
	RFP       domain.RFPRequest
	Qualified *domain.QualifiedRFP

	Specs []domain.ProductSpecification

	Selected        []domain.SelectedSKU
	SelectedCatalog map[string]domain.CandidateSKU
	TechnicalOK     bool
	RetryCount      int

	Pricing       []domain.PricingLine
	PricingOK     bool
	RatesSnapshot map[string]float64
	TotalBidValue float64

	Advisory *domain.AdvisoryReport
	Bid      *domain.ConsolidatedBid

	Status   string
	Decision string
	Errors   []string
	Audit    []domain.AuditEntry
}

func (s *State) AddError(err error) {
	if err == nil {
		return
	}
	s.Errors = append(s.Errors, err.Error())
}

func (s *State) AddAudit(now time.Time, stage, action, result string) {
	s.Audit = append(s.Audit, domain.AuditEntry{
		TS:     now.UTC().Format(time.RFC3339),
		Stage:  stage,
		Action: action,
		Result: result,
	})
}

// RiskScore reports the qualified risk score, zero before screening.
func (s *State) RiskScore() int {
	if s.Qualified == nil {
		return 0
	}
	return s.Qualified.RiskScore
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
