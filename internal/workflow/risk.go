package workflow

import (
	"fmt"
	"time"

	"bidline/internal/config"
)

const maxRiskScore = 10

// Risk level labels, for audit and prioritisation only.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// AssessRisk computes the additive commercial risk score, capped at 10.
func AssessRisk(dueDate string, bidBond, ldClause bool, perfBondPercent float64, now time.Time, w config.RiskWeights) (score int, factors []string, days int, err error) {
	days, err = DaysToDeadline(dueDate, now)
	if err != nil {
		return 0, nil, 0, err
	}

	switch {
	case days < w.UrgentDays:
		score += w.UrgentPoints
		factors = append(factors, fmt.Sprintf("urgent deadline (<%d days)", w.UrgentDays))
	case days < w.ModerateDays:
		score += w.ModeratePoints
		factors = append(factors, fmt.Sprintf("tight deadline (<%d days)", w.ModerateDays))
	}
	if bidBond {
		score += w.BidBondPoints
		factors = append(factors, "bid bond required")
	}
	if ldClause {
		score += w.LDClausePoints
		factors = append(factors, "liquidated damages clause")
	}
	if perfBondPercent >= w.PerfBondThreshold {
		score += w.PerfBondPoints
		factors = append(factors, fmt.Sprintf("performance bond >= %.0f%%", w.PerfBondThreshold))
	}
	if score > maxRiskScore {
		score = maxRiskScore
	}
	return score, factors, days, nil
}

// RiskLevel maps a score to its label.
func RiskLevel(score int) string {
	switch {
	case score <= 2:
		return RiskLow
	case score <= 5:
		return RiskMedium
	case score <= 7:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// DaysToDeadline returns whole calendar days from now to the due date.
// Accepts date-only or RFC3339 due dates.
func DaysToDeadline(dueDate string, now time.Time) (int, error) {
	due, err := time.Parse("2006-01-02", dueDate)
	if err != nil {
		due, err = time.Parse(time.RFC3339, dueDate)
		if err != nil {
			return 0, &ValidationError{Field: "due_date", Reason: fmt.Sprintf("cannot parse %q", dueDate)}
		}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dueDay := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	return int(dueDay.Sub(today).Hours() / 24), nil
}
