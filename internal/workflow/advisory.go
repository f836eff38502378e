package workflow

import (
	"bidline/internal/config"
	"bidline/internal/domain"
)

// Fixed competitive-positioning figures. Display metrics only; nothing
// downstream branches on them.
const (
	speedAdvantagePercent    = 99.9
	accuracyAdvantagePercent = 15.0
)

var sensitivityShifts = []float64{-10, -5, 0, 5, 10}

// Analyze produces the business-advisory report: operational savings versus
// the manual baseline, a commodity sensitivity table over the aggregate
// material cost, and static competitive metrics. Read-only with respect to
// pricing and selections.
func Analyze(lines []domain.PricingLine, total float64, a config.Advisory, p config.Pricing) domain.AdvisoryReport {
	manualCost := a.ManualHours * a.HourlyRateUSD
	automatedCost := (a.AutomatedMinutes / 60) * a.HourlyRateUSD
	savings := manualCost - automatedCost
	savingsPercent := 0.0
	if manualCost > 0 {
		savingsPercent = round2(savings / manualCost * 100)
	}

	baseMaterial := 0.0
	for _, l := range lines {
		baseMaterial += l.MaterialCost
	}
	// Profit is fixed at bid time; a commodity shift moves cost, so margin
	// erodes (or widens) against the adjusted total.
	profit := total - total/p.TargetMargin

	var sensitivity []domain.SensitivityRow
	for _, shift := range sensitivityShifts {
		delta := round2(baseMaterial * shift / 100)
		adjustedTotal := round2(total + delta)
		margin := 0.0
		if adjustedTotal != 0 {
			margin = round2(profit / adjustedTotal * 100)
		}
		sensitivity = append(sensitivity, domain.SensitivityRow{
			ShiftPercent:          shift,
			CostDelta:             delta,
			AdjustedTotal:         adjustedTotal,
			AdjustedMarginPercent: margin,
		})
	}

	return domain.AdvisoryReport{
		Operational: domain.OperationalSavings{
			ManualCostUSD:    round2(manualCost),
			AutomatedCostUSD: round2(automatedCost),
			SavingsUSD:       round2(savings),
			SavingsPercent:   savingsPercent,
		},
		Sensitivity: sensitivity,
		Competitive: domain.CompetitiveMetrics{
			ResponseTimeMinutes:      a.AutomatedMinutes,
			ManualResponseTimeHours:  a.ManualHours,
			SpeedAdvantagePercent:    speedAdvantagePercent,
			AccuracyAdvantagePercent: accuracyAdvantagePercent,
		},
	}
}
