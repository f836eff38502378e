package workflow

import (
	"fmt"
	"time"

	"bidline/internal/config"
	"bidline/internal/domain"
)

const (
	PriorityHigh   = "HIGH"
	PriorityMedium = "MEDIUM"
	PriorityLow    = "LOW"
)

// Qualify screens an RFP for automated processing. An RFP qualifies iff the
// deadline falls inside the qualification window and the risk score stays at
// or below the ceiling. The returned reason is empty when qualified.
func Qualify(rfp domain.RFPRequest, now time.Time, cfg *config.Config) (domain.QualifiedRFP, bool, string, error) {
	score, factors, days, err := AssessRisk(rfp.DueDate, rfp.BidBondRequired, rfp.LiquidatedDamages, rfp.PerformanceBondPercent, now, cfg.Risk)
	if err != nil {
		return domain.QualifiedRFP{}, false, "", err
	}

	q := domain.QualifiedRFP{
		ID:                     rfp.ID,
		Title:                  rfp.Title,
		Client:                 rfp.Client,
		DueDate:                rfp.DueDate,
		DaysToDeadline:         days,
		RiskScore:              score,
		RiskLevel:              RiskLevel(score),
		Priority:               priority(days, cfg),
		RiskFactors:            factors,
		TestRequirements:       rfp.TestRequirements,
		BidBondRequired:        rfp.BidBondRequired,
		BidBondValue:           rfp.BidBondValue,
		LiquidatedDamages:      rfp.LiquidatedDamages,
		PerformanceBondPercent: rfp.PerformanceBondPercent,
	}

	switch {
	case days < 0:
		return q, false, fmt.Sprintf("deadline passed %d days ago", -days), nil
	case days > cfg.Qualification.WindowDays:
		return q, false, fmt.Sprintf("deadline in %d days exceeds %d-day window", days, cfg.Qualification.WindowDays), nil
	case score > cfg.Qualification.RiskCeiling:
		return q, false, fmt.Sprintf("risk score %d exceeds ceiling %d", score, cfg.Qualification.RiskCeiling), nil
	}
	return q, true, "", nil
}

func priority(days int, cfg *config.Config) string {
	switch {
	case days < cfg.Risk.UrgentDays:
		return PriorityHigh
	case days <= cfg.Qualification.WindowDays:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
