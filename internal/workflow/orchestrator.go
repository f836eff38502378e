package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bidline/internal/config"
	"bidline/internal/domain"
)

// Orchestrator sequences the stages of one RFP run as an explicit state
// machine. The State envelope is owned exclusively by the orchestrator for
// the run; independent runs may execute concurrently because the config and
// the rate snapshot are captured by value.
type Orchestrator struct {
	Retriever CandidateRetriever
	Config    *config.Config
	Now       func() time.Time
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Run executes the full pipeline for one RFP. It always returns a terminal
// state: one of the three decisions, declined_at_screening, or a
// failed_<stage> status with decision decline. It never returns an error;
// all failures are recorded on the state.
func (o *Orchestrator) Run(ctx context.Context, rfp domain.RFPRequest) *State {
	st := &State{RFP: rfp, Status: StatusInitialized}
	st.AddAudit(o.now(), "orchestrator", "initialize", fmt.Sprintf("rfp %s, %d lines", rfp.ID, len(rfp.Lines)))

	if !o.screening(st) {
		return st
	}
	if !o.checkpoint(ctx, st, StatusFailedExtraction) || !o.extraction(st) {
		return st
	}
	if !o.checkpoint(ctx, st, StatusFailedMatching) || !o.matching(ctx, st) {
		return st
	}
	if !o.checkpoint(ctx, st, StatusFailedPricing) || !o.pricing(st) {
		return st
	}
	if st.PricingOK {
		if !o.checkpoint(ctx, st, StatusFailedAdvisory) {
			return st
		}
		o.advisory(st)
	}
	if !o.checkpoint(ctx, st, StatusFailedConsolidation) || !o.consolidation(st) {
		return st
	}
	o.decide(st)
	return st
}

// checkpoint aborts the run between stage boundaries when the context is
// done. Accumulated audit entries and partial results are retained.
func (o *Orchestrator) checkpoint(ctx context.Context, st *State, failStatus string) bool {
	if err := ctx.Err(); err != nil {
		st.AddError(fmt.Errorf("run aborted: %w", err))
		st.Status = failStatus
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "orchestrator", "abort", err.Error())
		return false
	}
	return true
}

func (o *Orchestrator) screening(st *State) bool {
	q, qualified, reason, err := Qualify(st.RFP, o.now(), o.Config)
	if err != nil {
		st.AddError(err)
		st.Status = StatusFailedScreening
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "sales_screening", "qualify", err.Error())
		return false
	}
	st.Qualified = &q
	if !qualified {
		st.Status = StatusDeclinedAtScreening
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "sales_screening", "qualify", "declined at screening: "+reason)
		return false
	}
	st.Status = StatusScreeningComplete
	st.AddAudit(o.now(), "sales_screening", "qualify",
		fmt.Sprintf("qualified, risk %d (%s), priority %s, %d days to deadline", q.RiskScore, q.RiskLevel, q.Priority, q.DaysToDeadline))
	return true
}

func (o *Orchestrator) extraction(st *State) bool {
	specs, errs := ExtractSpecs(st.RFP.Lines)
	for _, err := range errs {
		st.AddError(err)
	}
	if len(specs) == 0 {
		st.Status = StatusFailedExtraction
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "spec_extraction", "extract", "no valid line items")
		return false
	}
	st.Specs = specs
	st.Status = StatusSpecsExtracted
	st.AddAudit(o.now(), "spec_extraction", "extract",
		fmt.Sprintf("%d of %d lines valid", len(specs), len(st.RFP.Lines)))
	return true
}

func (o *Orchestrator) matching(ctx context.Context, st *State) bool {
	res, err := RunMatching(ctx, o.Retriever, st.Specs, o.Config.Matching)
	if err != nil {
		st.AddError(fmt.Errorf("candidate retrieval: %w", err))
		st.Status = StatusFailedMatching
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "technical_matching", "retrieve", err.Error())
		return false
	}
	for _, lerr := range res.LineErrors {
		st.AddError(lerr)
	}
	st.Selected = res.Selected
	st.SelectedCatalog = res.Catalog
	st.RetryCount = res.Attempts
	st.TechnicalOK = res.Compliant

	if len(res.Selected) == 0 {
		st.Status = StatusFailedMatching
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "technical_matching", "match", "no candidates matched any line")
		return false
	}
	if !res.Compliant {
		// Partial selections and scores stay in the audit trail.
		st.Status = StatusFailedMatching
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "technical_matching", "match",
			fmt.Sprintf("non-compliant after %d attempts: %s", res.Attempts+1, selectionSummary(res.Selected)))
		return false
	}
	st.Status = StatusMatchingComplete
	st.AddAudit(o.now(), "technical_matching", "match",
		fmt.Sprintf("compliant on attempt %d: %s", res.Attempts, selectionSummary(res.Selected)))
	return true
}

func (o *Orchestrator) pricing(st *State) bool {
	st.RatesSnapshot = o.Config.RateSnapshot()
	lines, total, warnings, err := PriceBid(PriceInput{
		Specs:             st.Specs,
		Selected:          st.Selected,
		Catalog:           st.SelectedCatalog,
		TestRequirements:  st.RFP.TestRequirements,
		BidBondRequired:   st.RFP.BidBondRequired,
		BidBondValue:      st.RFP.BidBondValue,
		LiquidatedDamages: st.RFP.LiquidatedDamages,
		Rates:             st.RatesSnapshot,
		Pricing:           o.Config.Pricing,
		TestPricing:       o.Config.TestPricing,
	})
	for _, w := range warnings {
		st.AddAudit(o.now(), "pricing", "cost lookup", w)
	}
	if err != nil {
		st.AddError(err)
		st.Status = StatusFailedPricing
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "pricing", "price", err.Error())
		return false
	}
	st.Pricing = lines
	st.TotalBidValue = total

	st.PricingOK = true
	for _, l := range lines {
		if l.GrandTotal <= 0 {
			st.PricingOK = false
		}
	}
	if !st.PricingOK {
		st.AddError(fmt.Errorf("pricing validation failed: non-positive line totals"))
	}
	st.Status = StatusPricingComplete
	st.AddAudit(o.now(), "pricing", "price",
		fmt.Sprintf("total %.2f over %d lines, constraints met: %t", total, len(lines), st.PricingOK))
	return true
}

func (o *Orchestrator) advisory(st *State) {
	report := Analyze(st.Pricing, st.TotalBidValue, o.Config.Advisory, o.Config.Pricing)
	st.Advisory = &report
	st.Status = StatusAdvisoryComplete
	st.AddAudit(o.now(), "advisory", "analyze",
		fmt.Sprintf("savings %.2f USD (%.1f%%), %d sensitivity rows",
			report.Operational.SavingsUSD, report.Operational.SavingsPercent, len(report.Sensitivity)))
}

func (o *Orchestrator) consolidation(st *State) bool {
	bid, err := Consolidate(st, o.now())
	if err != nil {
		st.AddError(err)
		st.Status = StatusFailedConsolidation
		st.Decision = DecisionDecline
		st.AddAudit(o.now(), "bid_consolidation", "consolidate", err.Error())
		return false
	}
	st.Bid = bid
	st.Status = StatusConsolidated
	st.AddAudit(o.now(), "bid_consolidation", "consolidate",
		fmt.Sprintf("total %.2f, compliance %.2f", bid.TotalBidValue, bid.TechnicalCompliance))
	return true
}

func (o *Orchestrator) decide(st *State) {
	st.Decision = Decide(st.Bid != nil, len(st.Errors), st.TechnicalOK, st.PricingOK, st.RiskScore())
	st.Status = st.Decision
	st.AddAudit(o.now(), "decision", "decide",
		fmt.Sprintf("%s (errors %d, technical ok %t, pricing ok %t, risk %d)",
			st.Decision, len(st.Errors), st.TechnicalOK, st.PricingOK, st.RiskScore()))
	if st.Bid != nil {
		// The consolidated audit snapshot was taken before the decision
		// entry existed; refresh it so the bid carries the full trail.
		audit := make([]domain.AuditEntry, len(st.Audit))
		copy(audit, st.Audit)
		st.Bid.AuditLog = audit
	}
}

func selectionSummary(selected []domain.SelectedSKU) string {
	parts := make([]string, len(selected))
	for i, sel := range selected {
		parts[i] = fmt.Sprintf("line %d -> %s (%.2f, %s)", sel.Line, sel.SKU, sel.Score, sel.Status)
	}
	return strings.Join(parts, "; ")
}
