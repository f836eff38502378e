package workflow

import (
	"errors"
	"strings"
	"testing"

	"bidline/internal/config"
	"bidline/internal/domain"
)

func TestUnitPrice(t *testing.T) {
	p := config.Default("desk").Pricing
	rates := map[string]float64{"Copper": 9200}
	s := sku("CU-95", "Copper", "XLPE", 4, 95)

	// metal cost = (380/1000) * (9200/1000) * 83 = 290.168
	// unit price = round2((1000 + 290.168) * 1.15) = 1483.69
	got, err := UnitPrice(s, rates, p)
	if err != nil {
		t.Fatalf("unit price: %v", err)
	}
	if got != 1483.69 {
		t.Fatalf("unit price = %.2f, want 1483.69", got)
	}
}

func TestUnitPriceUnknownCommodity(t *testing.T) {
	p := config.Default("desk").Pricing
	s := sku("AG-95", "Silver", "XLPE", 4, 95)
	_, err := UnitPrice(s, map[string]float64{"Copper": 9200}, p)
	var perr *PricingError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PricingError", err)
	}
	if !strings.Contains(perr.Reason, "Silver") {
		t.Fatalf("reason %q does not name the commodity", perr.Reason)
	}
}

func TestPriceBidSingleLine(t *testing.T) {
	cfg := config.Default("desk")
	cu := sku("CU-95", "Copper", "XLPE", 4, 95)
	cu.Certifications = []string{"IS-1554", "IEC-60502"}

	lines, total, warnings, err := PriceBid(PriceInput{
		Specs:             []domain.ProductSpecification{spec95()},
		Selected:          []domain.SelectedSKU{{Line: 1, SKU: "CU-95", Score: 100}},
		Catalog:           map[string]domain.CandidateSKU{"CU-95": cu},
		TestRequirements:  []string{"High Voltage Dielectric Test"},
		BidBondRequired:   true,
		BidBondValue:      500000,
		LiquidatedDamages: true,
		Rates:             cfg.Rates,
		Pricing:           cfg.Pricing,
		TestPricing:       cfg.TestPricing,
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	l := lines[0]
	if l.UnitPrice != 1483.69 {
		t.Fatalf("unit price = %.2f, want 1483.69", l.UnitPrice)
	}
	if l.MaterialCost != 7418450.00 {
		t.Fatalf("material cost = %.2f, want 7418450.00", l.MaterialCost)
	}
	// test 50000 + certs 5000 + 4000
	if l.ServicesCost != 59000 {
		t.Fatalf("services = %.2f, want 59000", l.ServicesCost)
	}
	// 2% of the 500000 bond
	if l.RiskPremium != 10000 {
		t.Fatalf("risk premium = %.2f, want 10000", l.RiskPremium)
	}
	if l.GrandTotal != 7487450.00 || total != 7487450.00 {
		t.Fatalf("grand total = %.2f, bid total = %.2f, want 7487450.00", l.GrandTotal, total)
	}
}

func TestPriceBidServicesAndPremiumOnFirstLineOnly(t *testing.T) {
	cfg := config.Default("desk")
	cu := sku("CU-95", "Copper", "XLPE", 4, 95)
	cu.Certifications = []string{"IS-1554"}
	al := domain.CandidateSKU{
		SKU: "AL-70", Material: "Aluminium", Insulation: "PVC", Cores: 3, SizeMM2: 70,
		VoltageKV: 3.3, BasePrice: 600, MetalWeightKgKm: 220,
		Certifications: []string{"IS-1554", "IS-7098"},
	}
	specs := []domain.ProductSpecification{
		spec95(),
		{Line: 2, Quantity: 2000, Material: "Aluminium", Insulation: "PVC", Cores: 3, SizeMM2: 70, VoltageKV: 3.3},
	}

	lines, total, _, err := PriceBid(PriceInput{
		Specs: specs,
		Selected: []domain.SelectedSKU{
			{Line: 1, SKU: "CU-95", Score: 100},
			{Line: 2, SKU: "AL-70", Score: 100},
		},
		Catalog:           map[string]domain.CandidateSKU{"CU-95": cu, "AL-70": al},
		BidBondRequired:   false,
		BidBondValue:      500000,
		LiquidatedDamages: true,
		Rates:             cfg.Rates,
		Pricing:           cfg.Pricing,
		TestPricing:       cfg.TestPricing,
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	// IS-1554 appears on both SKUs but is costed once: 5000 + 3000.
	if lines[0].ServicesCost != 8000 {
		t.Fatalf("first line services = %.2f, want 8000", lines[0].ServicesCost)
	}
	// LD clause alone triggers the premium.
	if lines[0].RiskPremium != 10000 {
		t.Fatalf("first line premium = %.2f, want 10000", lines[0].RiskPremium)
	}
	if lines[1].ServicesCost != 0 || lines[1].RiskPremium != 0 {
		t.Fatalf("second line carries services %.2f premium %.2f, want 0 0", lines[1].ServicesCost, lines[1].RiskPremium)
	}
	if lines[1].GrandTotal != lines[1].MaterialCost {
		t.Fatalf("second line grand total %.2f != material cost %.2f", lines[1].GrandTotal, lines[1].MaterialCost)
	}
	if total != round2(lines[0].GrandTotal+lines[1].GrandTotal) {
		t.Fatalf("total %.2f is not the sum of line totals", total)
	}
}

func TestPriceBidUnknownServiceWarns(t *testing.T) {
	cfg := config.Default("desk")
	cu := sku("CU-95", "Copper", "XLPE", 4, 95)

	lines, _, warnings, err := PriceBid(PriceInput{
		Specs:            []domain.ProductSpecification{spec95()},
		Selected:         []domain.SelectedSKU{{Line: 1, SKU: "CU-95", Score: 100}},
		Catalog:          map[string]domain.CandidateSKU{"CU-95": cu},
		TestRequirements: []string{"Underwater Basket Weaving Test"},
		Rates:            cfg.Rates,
		Pricing:          cfg.Pricing,
		TestPricing:      cfg.TestPricing,
	})
	if err != nil {
		t.Fatalf("price: %v", err)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "Underwater Basket Weaving Test") {
		t.Fatalf("warnings = %v, want one naming the unknown test", warnings)
	}
	if lines[0].ServicesCost != 0 {
		t.Fatalf("services = %.2f, want 0 for unknown test", lines[0].ServicesCost)
	}
}

func TestPriceBidFailures(t *testing.T) {
	cfg := config.Default("desk")
	cu := sku("CU-95", "Copper", "XLPE", 4, 95)

	cases := []struct {
		name string
		in   PriceInput
	}{
		{
			name: "no selections",
			in:   PriceInput{Rates: cfg.Rates, Pricing: cfg.Pricing},
		},
		{
			name: "selected SKU missing from catalog",
			in: PriceInput{
				Specs:    []domain.ProductSpecification{spec95()},
				Selected: []domain.SelectedSKU{{Line: 1, SKU: "GHOST"}},
				Catalog:  map[string]domain.CandidateSKU{},
				Rates:    cfg.Rates, Pricing: cfg.Pricing,
			},
		},
		{
			name: "no specification for line",
			in: PriceInput{
				Specs:    nil,
				Selected: []domain.SelectedSKU{{Line: 1, SKU: "CU-95"}},
				Catalog:  map[string]domain.CandidateSKU{"CU-95": cu},
				Rates:    cfg.Rates, Pricing: cfg.Pricing,
			},
		},
		{
			name: "missing commodity rate",
			in: PriceInput{
				Specs:    []domain.ProductSpecification{spec95()},
				Selected: []domain.SelectedSKU{{Line: 1, SKU: "CU-95"}},
				Catalog:  map[string]domain.CandidateSKU{"CU-95": cu},
				Rates:    map[string]float64{}, Pricing: cfg.Pricing,
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, err := PriceBid(tc.in)
			var perr *PricingError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want PricingError", err)
			}
		})
	}
}
