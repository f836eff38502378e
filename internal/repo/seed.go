package repo

import (
	"context"
	"time"

	"bidline/internal/domain"
)

// SeedCatalog loads the sample OEM cable catalog. Existing rows are kept;
// seeding an already-populated catalog is a no-op.
func (r Repo) SeedCatalog(ctx context.Context, now time.Time) (int, error) {
	n, err := r.CountSKUs(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	createdAt := now.UTC().Format(time.RFC3339)
	skus := sampleCatalog(createdAt)
	for _, s := range skus {
		if err := r.InsertSKU(ctx, s); err != nil {
			return 0, err
		}
	}
	return len(skus), nil
}

// SeedRFPs loads the sample RFPs with due dates relative to now so the
// deadline-driven scoring stays meaningful. Existing RFPs win on conflict.
func (r Repo) SeedRFPs(ctx context.Context, now time.Time) (int, error) {
	createdAt := now.UTC().Format(time.RFC3339)
	inserted := 0
	for _, rfp := range sampleRFPs(now) {
		if _, err := r.GetRFP(ctx, rfp.ID); err == nil {
			continue
		} else if err != ErrNotFound {
			return inserted, err
		}
		rfp.CreatedAt = createdAt
		if err := r.InsertRFP(ctx, rfp); err != nil {
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}

func sampleCatalog(createdAt string) []domain.CandidateSKU {
	return []domain.CandidateSKU{
		{
			SKU:             "OEM-XLPE-4C-70",
			Description:     "4-Core Copper XLPE Insulated Cable 70mm2 1.1kV",
			Material:        "Copper",
			Insulation:      "XLPE",
			Cores:           4,
			SizeMM2:         70,
			VoltageKV:       1.1,
			Certifications:  []string{"IS-1554", "IEC-60502"},
			BasePrice:       800,
			MetalWeightKgKm: 280,
			CreatedAt:       createdAt,
		},
		{
			SKU:             "OEM-PVC-3C-95",
			Description:     "3-Core Aluminium PVC Insulated Cable 95mm2 3.3kV",
			Material:        "Aluminium",
			Insulation:      "PVC",
			Cores:           3,
			SizeMM2:         95,
			VoltageKV:       3.3,
			Certifications:  []string{"IS-7098"},
			BasePrice:       600,
			MetalWeightKgKm: 220,
			CreatedAt:       createdAt,
		},
		{
			SKU:             "OEM-XLPE-4C-95",
			Description:     "4-Core Copper XLPE Insulated Cable 95mm2 1.1kV",
			Material:        "Copper",
			Insulation:      "XLPE",
			Cores:           4,
			SizeMM2:         95,
			VoltageKV:       1.1,
			Certifications:  []string{"IS-1554", "IEC-60502"},
			BasePrice:       1000,
			MetalWeightKgKm: 380,
			CreatedAt:       createdAt,
		},
		{
			SKU:             "OEM-PVC-4C-50",
			Description:     "4-Core Copper PVC Insulated Cable 50mm2 0.66kV",
			Material:        "Copper",
			Insulation:      "PVC",
			Cores:           4,
			SizeMM2:         50,
			VoltageKV:       0.66,
			Certifications:  []string{"IS-7098"},
			BasePrice:       500,
			MetalWeightKgKm: 200,
			CreatedAt:       createdAt,
		},
		{
			SKU:             "OEM-XLPE-3C-70",
			Description:     "3-Core Aluminium XLPE Insulated Cable 70mm2 3.3kV",
			Material:        "Aluminium",
			Insulation:      "XLPE",
			Cores:           3,
			SizeMM2:         70,
			VoltageKV:       3.3,
			Certifications:  []string{"IS-7098", "IEC-60502"},
			BasePrice:       750,
			MetalWeightKgKm: 180,
			CreatedAt:       createdAt,
		},
		{
			SKU:             "OEM-XLPE-4C-120",
			Description:     "4-Core Copper XLPE Insulated Cable 120mm2 1.1kV UL Certified",
			Material:        "Copper",
			Insulation:      "XLPE",
			Cores:           4,
			SizeMM2:         120,
			VoltageKV:       1.1,
			Certifications:  []string{"IS-1554", "IEC-60502", "UL"},
			BasePrice:       1200,
			MetalWeightKgKm: 480,
			CreatedAt:       createdAt,
		},
	}
}

func sampleRFPs(now time.Time) []domain.RFPRequest {
	due := func(days int) string {
		return now.UTC().AddDate(0, 0, days).Format("2006-01-02")
	}
	return []domain.RFPRequest{
		{
			ID:      "RFP-GOV-2025-001",
			Title:   "Infrastructure Project Phase III Cable Supply",
			Client:  "State Infrastructure Authority",
			DueDate: due(75),
			Lines: []domain.LineItem{
				{Line: 1, Quantity: 5000, Material: "Copper", Insulation: "XLPE", Cores: 4, SizeMM2: 95, VoltageKV: 1.1},
				{Line: 2, Quantity: 2000, Material: "Aluminium", Insulation: "PVC", Cores: 3, SizeMM2: 70, VoltageKV: 3.3},
			},
			TestRequirements: []string{
				"High Voltage Dielectric Test",
				"Conductor Resistance Check",
				"Site Acceptance Test (SAT)",
			},
			BidBondRequired:        true,
			BidBondValue:           500000,
			LiquidatedDamages:      true,
			PerformanceBondPercent: 10,
		},
		{
			ID:      "RFP-PSU-2025-002",
			Title:   "New Substation Power Line Supply",
			Client:  "Power Utility Corporation",
			DueDate: due(120),
			Lines: []domain.LineItem{
				{Line: 1, Quantity: 8000, Material: "Copper", Insulation: "PVC", Cores: 4, SizeMM2: 50, VoltageKV: 0.66},
			},
			TestRequirements:       []string{"Fire Resistance Test", "UL Certification"},
			BidBondRequired:        false,
			BidBondValue:           0,
			LiquidatedDamages:      false,
			PerformanceBondPercent: 5,
		},
	}
}
