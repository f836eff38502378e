package workflow

import (
	"testing"

	"bidline/internal/config"
	"bidline/internal/domain"
)

func TestAnalyzeOperationalSavings(t *testing.T) {
	cfg := config.Default("desk")
	report := Analyze(nil, 0, cfg.Advisory, cfg.Pricing)

	op := report.Operational
	if op.ManualCostUSD != 2400 {
		t.Fatalf("manual cost = %.2f, want 2400", op.ManualCostUSD)
	}
	if op.AutomatedCostUSD != 1.67 {
		t.Fatalf("automated cost = %.2f, want 1.67", op.AutomatedCostUSD)
	}
	if op.SavingsUSD != 2398.33 {
		t.Fatalf("savings = %.2f, want 2398.33", op.SavingsUSD)
	}
	if op.SavingsPercent != 99.93 {
		t.Fatalf("savings percent = %.2f, want 99.93", op.SavingsPercent)
	}
}

func TestAnalyzeSensitivity(t *testing.T) {
	cfg := config.Default("desk")
	// total 1150 at margin 1.15 means a fixed profit of 150 over a 1000 base.
	lines := []domain.PricingLine{{Line: 1, MaterialCost: 1000, GrandTotal: 1150}}
	report := Analyze(lines, 1150, cfg.Advisory, cfg.Pricing)

	if len(report.Sensitivity) != 5 {
		t.Fatalf("got %d sensitivity rows, want 5", len(report.Sensitivity))
	}
	cases := []struct {
		shift    float64
		delta    float64
		adjusted float64
		margin   float64
	}{
		{-10, -100, 1050, 14.29},
		{-5, -50, 1100, 13.64},
		{0, 0, 1150, 13.04},
		{5, 50, 1200, 12.5},
		{10, 100, 1250, 12},
	}
	for i, tc := range cases {
		row := report.Sensitivity[i]
		if row.ShiftPercent != tc.shift {
			t.Fatalf("row %d shift = %.1f, want %.1f", i, row.ShiftPercent, tc.shift)
		}
		if row.CostDelta != tc.delta {
			t.Errorf("shift %.0f%%: delta = %.2f, want %.2f", tc.shift, row.CostDelta, tc.delta)
		}
		if row.AdjustedTotal != tc.adjusted {
			t.Errorf("shift %.0f%%: adjusted total = %.2f, want %.2f", tc.shift, row.AdjustedTotal, tc.adjusted)
		}
		if row.AdjustedMarginPercent != tc.margin {
			t.Errorf("shift %.0f%%: margin = %.2f, want %.2f", tc.shift, row.AdjustedMarginPercent, tc.margin)
		}
	}
}

func TestAnalyzeCompetitiveMetrics(t *testing.T) {
	cfg := config.Default("desk")
	report := Analyze(nil, 0, cfg.Advisory, cfg.Pricing)

	c := report.Competitive
	if c.ResponseTimeMinutes != cfg.Advisory.AutomatedMinutes {
		t.Fatalf("response time = %.1f, want %.1f", c.ResponseTimeMinutes, cfg.Advisory.AutomatedMinutes)
	}
	if c.ManualResponseTimeHours != cfg.Advisory.ManualHours {
		t.Fatalf("manual response time = %.1f, want %.1f", c.ManualResponseTimeHours, cfg.Advisory.ManualHours)
	}
	if c.SpeedAdvantagePercent != 99.9 || c.AccuracyAdvantagePercent != 15.0 {
		t.Fatalf("competitive figures = %.1f/%.1f, want 99.9/15.0", c.SpeedAdvantagePercent, c.AccuracyAdvantagePercent)
	}
}
