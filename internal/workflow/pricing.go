package workflow

import (
	"fmt"

	"bidline/internal/config"
	"bidline/internal/domain"
)

// PriceInput carries everything the pricing stage needs. Rates is the
// run-scoped commodity snapshot captured at stage start; a concurrent rate
// update never affects an in-flight run.
type PriceInput struct {
	Specs             []domain.ProductSpecification
	Selected          []domain.SelectedSKU
	Catalog           map[string]domain.CandidateSKU
	TestRequirements  []string
	BidBondRequired   bool
	BidBondValue      float64
	LiquidatedDamages bool
	Rates             map[string]float64
	Pricing           config.Pricing
	TestPricing       map[string]float64
}

// PriceBid computes the full cost breakdown for a bid. Services (tests plus
// the union of selected SKUs' certifications) and the bid-level risk premium
// are costed once and attributed to the first line. Any PricingError fails
// the stage as a whole: bid totals must never be partial.
func PriceBid(in PriceInput) (lines []domain.PricingLine, total float64, warnings []string, err error) {
	if len(in.Selected) == 0 {
		return nil, 0, nil, &PricingError{Reason: "no selected SKUs to price"}
	}

	specByLine := make(map[int]domain.ProductSpecification, len(in.Specs))
	for _, spec := range in.Specs {
		specByLine[spec.Line] = spec
	}

	servicesCost, serviceWarnings := serviceCosts(in)
	warnings = append(warnings, serviceWarnings...)
	riskPremium := 0.0
	if (in.BidBondRequired || in.LiquidatedDamages) && in.BidBondValue > 0 {
		riskPremium = round2(in.BidBondValue * in.Pricing.RiskPremiumRate)
	}

	for i, sel := range in.Selected {
		sku, ok := in.Catalog[sel.SKU]
		if !ok {
			return nil, 0, warnings, &PricingError{Line: sel.Line, SKU: sel.SKU, Reason: "selected SKU missing from catalog"}
		}
		spec, ok := specByLine[sel.Line]
		if !ok {
			return nil, 0, warnings, &PricingError{Line: sel.Line, SKU: sel.SKU, Reason: "no matching specification for line"}
		}

		unitPrice, err := UnitPrice(sku, in.Rates, in.Pricing)
		if err != nil {
			return nil, 0, warnings, err
		}

		line := domain.PricingLine{
			Line:         sel.Line,
			SKU:          sel.SKU,
			Quantity:     spec.Quantity,
			UnitPrice:    unitPrice,
			MaterialCost: round2(unitPrice * float64(spec.Quantity)),
		}
		if i == 0 {
			line.ServicesCost = servicesCost
			line.RiskPremium = riskPremium
		}
		line.GrandTotal = round2(line.MaterialCost + line.ServicesCost + line.RiskPremium)
		lines = append(lines, line)
		total += line.GrandTotal
	}
	return lines, round2(total), warnings, nil
}

// UnitPrice computes the commodity-indexed price per meter:
// metal cost = (weight kg/km / 1000) * (rate USD/MT / 1000) * fx,
// unit price = (base + metal cost) * target margin.
func UnitPrice(sku domain.CandidateSKU, rates map[string]float64, p config.Pricing) (float64, error) {
	rate, ok := rates[sku.Material]
	if !ok {
		return 0, &PricingError{SKU: sku.SKU, Reason: fmt.Sprintf("no commodity rate for %s", sku.Material)}
	}
	metalCost := (sku.MetalWeightKgKm / 1000) * (rate / 1000) * p.FxRate
	unitPrice := round2((sku.BasePrice + metalCost) * p.TargetMargin)
	if unitPrice <= 0 {
		return 0, &PricingError{SKU: sku.SKU, Reason: fmt.Sprintf("computed unit price %.2f is not positive", unitPrice)}
	}
	return unitPrice, nil
}

// serviceCosts sums the RFP's required tests plus each certification carried
// by any selected SKU, costed once per bid. Unknown names cost 0 and are
// reported as warnings.
func serviceCosts(in PriceInput) (float64, []string) {
	var warnings []string
	total := 0.0
	lookup := func(name string) {
		cost, ok := in.TestPricing[name]
		if !ok {
			warnings = append(warnings, fmt.Sprintf("no cost entry for %q, 0 applied", name))
			return
		}
		total += cost
	}

	for _, test := range in.TestRequirements {
		lookup(test)
	}
	seen := make(map[string]bool)
	for _, sel := range in.Selected {
		sku, ok := in.Catalog[sel.SKU]
		if !ok {
			continue
		}
		for _, cert := range sku.Certifications {
			if seen[cert] {
				continue
			}
			seen[cert] = true
			lookup(cert)
		}
	}
	return round2(total), warnings
}
