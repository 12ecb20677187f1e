// Package loans provides fixed-rate mortgage amortization calculations.
//
// Every function in this package is pure: the same inputs always produce the
// same output and no state is shared between calls. Degenerate inputs (a zero
// loan, a zero rate, a zero term) are clamped to zero rather than reported as
// errors, so the calculations are total over their numeric domain.
package loans

import (
	"errors"
	"fmt"
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// ErrInvalidTerm is returned by LoanTerms.Validate for a term outside
// 1..MaxAmortizationYears.
var ErrInvalidTerm = errors.New("amortization term out of range")

// ErrInvalidTerms is returned by LoanTerms.Validate for out-of-range inputs.
var ErrInvalidTerms = errors.New("invalid loan terms")

// LoanTerms describes a fixed-rate amortizing purchase loan.
type LoanTerms struct {
	Price               float64 `json:"price"`               // total purchase price
	DownPaymentFraction float64 `json:"downPaymentFraction"` // 0.20 for 20% down
	AnnualInterestRate  float64 `json:"annualInterestRate"`  // 0.049 for 4.9%
	AmortizationYears   int     `json:"amortizationYears"`
}

// Payment holds the values for a given month of an amortization schedule.
type Payment struct {
	Month              int     `json:"month"`
	Payment            float64 `json:"payment"`
	Principal          float64 `json:"principal"`
	Interest           float64 `json:"interest"`
	RemainingPrincipal float64 `json:"remainingPrincipal"`
}

// LoanAmount returns the financed amount, never negative.
func LoanAmount(price, downPaymentFraction float64) float64 {
	return mathutil.Max(0, price*(1-downPaymentFraction))
}

// CalculateMonthlyPayment returns the fixed monthly payment that fully
// amortizes price*(1-downPaymentFraction) over years at annualRate.
//
// A term of zero or less yields 0 regardless of the rate.
func CalculateMonthlyPayment(price, downPaymentFraction, annualRate float64, years int) float64 {
	loan := LoanAmount(price, downPaymentFraction)
	periodicInterestRate := annualRate / constants.MonthsPerYear
	termMonths := years * constants.MonthsPerYear

	if termMonths <= 0 {
		return 0
	}
	if periodicInterestRate == 0 {
		return loan / float64(termMonths)
	}

	discountFactor := 1 - math.Pow(1+periodicInterestRate, -float64(termMonths))
	return loan * periodicInterestRate / discountFactor
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(remainingPrincipal, annualRate float64) float64 {
	return remainingPrincipal * annualRate / constants.MonthsPerYear
}

// CalculateAverageMonthlyPrincipal returns the average part of each monthly
// payment that reduces principal during the first averagingYears of the loan.
// The window is capped at the amortization term.
func CalculateAverageMonthlyPrincipal(price, downPaymentFraction, annualRate float64, years, averagingYears int) float64 {
	if LoanAmount(price, downPaymentFraction) == 0 {
		return 0
	}

	months := windowMonths(years, averagingYears)
	if months <= 0 {
		return 0
	}

	sum := 0.0
	for _, p := range schedule(price, downPaymentFraction, annualRate, years, months) {
		sum += p.Principal
	}
	return sum / float64(months)
}

// Schedule simulates the first months of the loan and returns one Payment per
// month. Months beyond the amortization term, or beyond MaxAmortizationYears,
// are not produced.
func Schedule(terms LoanTerms, months int) []Payment {
	years := terms.AmortizationYears
	if years > constants.MaxAmortizationYears {
		years = constants.MaxAmortizationYears
	}
	if months > years*constants.MonthsPerYear {
		months = years * constants.MonthsPerYear
	}
	if months <= 0 {
		return nil
	}
	return schedule(terms.Price, terms.DownPaymentFraction, terms.AnnualInterestRate, terms.AmortizationYears, months)
}

func schedule(price, downPaymentFraction, annualRate float64, years, months int) []Payment {
	payment := CalculateMonthlyPayment(price, downPaymentFraction, annualRate, years)
	balance := LoanAmount(price, downPaymentFraction)

	payments := make([]Payment, 0, months)
	for month := 1; month <= months; month++ {
		interest := CalculateInterestPayment(balance, annualRate)
		// A payment below the interest due never amortizes negatively.
		principal := mathutil.Max(0, payment-interest)
		balance = mathutil.Max(0, balance-principal)
		payments = append(payments, Payment{
			Month:              month,
			Payment:            payment,
			Principal:          principal,
			Interest:           interest,
			RemainingPrincipal: balance,
		})
	}
	return payments
}

func windowMonths(years, averagingYears int) int {
	k := averagingYears * constants.MonthsPerYear
	if term := years * constants.MonthsPerYear; term < k {
		k = term
	}
	return k
}

// LoanAmount returns the financed amount for the terms.
func (t LoanTerms) LoanAmount() float64 {
	return LoanAmount(t.Price, t.DownPaymentFraction)
}

// MonthlyPayment returns the fixed monthly payment for the terms.
func (t LoanTerms) MonthlyPayment() float64 {
	return CalculateMonthlyPayment(t.Price, t.DownPaymentFraction, t.AnnualInterestRate, t.AmortizationYears)
}

// AverageMonthlyPrincipal returns the average principal repaid per month over
// the first averagingYears.
func (t LoanTerms) AverageMonthlyPrincipal(averagingYears int) float64 {
	return CalculateAverageMonthlyPrincipal(t.Price, t.DownPaymentFraction, t.AnnualInterestRate, t.AmortizationYears, averagingYears)
}

// Validate reports terms that the calculations would silently clamp.
func (t LoanTerms) Validate() error {
	if t.AmortizationYears <= 0 {
		return fmt.Errorf("%w: got %d years", ErrInvalidTerm, t.AmortizationYears)
	}
	if t.AmortizationYears > constants.MaxAmortizationYears {
		return fmt.Errorf("%w: %d years exceeds the %d year maximum", ErrInvalidTerm, t.AmortizationYears, constants.MaxAmortizationYears)
	}
	if !mathutil.IsFinite(t.Price) || t.Price < 0 {
		return fmt.Errorf("%w: price must be a non-negative number, got %v", ErrInvalidTerms, t.Price)
	}
	if !mathutil.IsFinite(t.DownPaymentFraction) || t.DownPaymentFraction < 0 || t.DownPaymentFraction > 1 {
		return fmt.Errorf("%w: down payment fraction must be within [0,1], got %v", ErrInvalidTerms, t.DownPaymentFraction)
	}
	if !mathutil.IsFinite(t.AnnualInterestRate) || t.AnnualInterestRate < 0 {
		return fmt.Errorf("%w: annual interest rate must be non-negative, got %v", ErrInvalidTerms, t.AnnualInterestRate)
	}
	return nil
}
