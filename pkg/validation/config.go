package validation

import (
	"fmt"
)

// AssumptionsInput is the subset of configuration checked by ValidateAssumptions.
type AssumptionsInput struct {
	DownPaymentFraction float64
	AnnualRate          float64
	AmortizationYears   int
	AppreciationRate    float64
	AveragingYears      int
}

// ValidateAssumptions returns warnings for browsing assumptions that are
// legal but will produce surprising numbers.
func ValidateAssumptions(a AssumptionsInput) []string {
	var warnings []string

	if a.DownPaymentFraction < 0 || a.DownPaymentFraction > 1 {
		warnings = append(warnings, fmt.Sprintf("down payment fraction %.4f is outside [0,1]; loans will be clamped", a.DownPaymentFraction))
	} else if a.DownPaymentFraction == 1 {
		warnings = append(warnings, "down payment fraction is 1; every monthly payment will be zero")
	}

	if a.DownPaymentFraction > 1 && a.DownPaymentFraction <= 100 {
		warnings = append(warnings, "down payment looks like a whole percent; assumptions expect a fraction such as 0.20")
	}

	if a.AnnualRate < 0 {
		warnings = append(warnings, fmt.Sprintf("annual rate %.4f is negative", a.AnnualRate))
	}
	if a.AnnualRate >= 1 {
		warnings = append(warnings, fmt.Sprintf("annual rate %.4f looks like a whole percent; assumptions expect a fraction such as 0.042", a.AnnualRate))
	}

	if a.AmortizationYears <= 0 {
		warnings = append(warnings, fmt.Sprintf("amortization of %d years yields zero payments", a.AmortizationYears))
	}

	if a.AveragingYears <= 0 {
		warnings = append(warnings, fmt.Sprintf("averaging window of %d years yields zero average principal", a.AveragingYears))
	} else if a.AmortizationYears > 0 && a.AveragingYears > a.AmortizationYears {
		warnings = append(warnings, fmt.Sprintf("averaging window of %d years exceeds the %d year amortization and will be capped",
			a.AveragingYears, a.AmortizationYears))
	}

	if a.AppreciationRate < -1 {
		warnings = append(warnings, fmt.Sprintf("appreciation rate %.4f would make prices negative", a.AppreciationRate))
	}

	return warnings
}
