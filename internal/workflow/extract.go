package workflow

import "bidline/internal/domain"

// ExtractSpecs normalizes raw RFP line items into specification records.
// Malformed lines yield a ValidationError each and are skipped; valid
// sibling lines proceed. The caller fails the stage when nothing survives.
func ExtractSpecs(lines []domain.LineItem) ([]domain.ProductSpecification, []error) {
	var specs []domain.ProductSpecification
	var errs []error
	for _, li := range lines {
		if err := validateLine(li); err != nil {
			errs = append(errs, err)
			continue
		}
		specs = append(specs, domain.ProductSpecification{
			Line:       li.Line,
			Quantity:   li.Quantity,
			Material:   li.Material,
			Insulation: li.Insulation,
			Cores:      li.Cores,
			SizeMM2:    li.SizeMM2,
			VoltageKV:  li.VoltageKV,
		})
	}
	return specs, errs
}

func validateLine(li domain.LineItem) error {
	switch {
	case li.Line <= 0:
		return &ValidationError{Line: li.Line, Field: "line", Reason: "line number must be positive"}
	case li.Quantity <= 0:
		return &ValidationError{Line: li.Line, Field: "quantity", Reason: "quantity must be positive"}
	case li.Material == "":
		return &ValidationError{Line: li.Line, Field: "material", Reason: "material is required"}
	case li.Insulation == "":
		return &ValidationError{Line: li.Line, Field: "insulation", Reason: "insulation is required"}
	case li.Cores <= 0:
		return &ValidationError{Line: li.Line, Field: "cores", Reason: "core count must be positive"}
	case li.SizeMM2 <= 0:
		return &ValidationError{Line: li.Line, Field: "size_mm2", Reason: "cross-section size must be positive"}
	case li.VoltageKV <= 0:
		return &ValidationError{Line: li.Line, Field: "voltage_kv", Reason: "voltage must be positive"}
	}
	return nil
}
