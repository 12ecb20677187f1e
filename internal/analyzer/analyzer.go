// Package analyzer implements the deal analyzer: monthly income, operating
// expenses and debt service for an income property, and the ratios derived
// from them.
package analyzer

import (
	"errors"
	"fmt"

	"github.com/iwvelando/deal-analyzer/internal/listings"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"go.uber.org/zap"
)

// ErrInvalidInputs is returned by Inputs.Validate.
var ErrInvalidInputs = errors.New("invalid analyzer inputs")

// Inputs are the analyzer form fields. Percent fields are whole percents
// (20 for 20%) and money fields are monthly amounts, except Price.
type Inputs struct {
	Price             float64 `json:"price"`
	DownPercent       float64 `json:"down"`
	RatePercent       float64 `json:"rate"`
	AmortizationYears int     `json:"amort"`

	Rent    float64 `json:"rent"`
	Parking float64 `json:"parking"`
	Laundry float64 `json:"laundry"`
	Misc    float64 `json:"misc"`

	Taxes              float64 `json:"taxes"`
	Insurance          float64 `json:"insurance"`
	Utilities          float64 `json:"utilities"`
	MaintenancePercent float64 `json:"maintenancePct"`
	ManagementPercent  float64 `json:"mgmtPct"`
	VacancyPercent     float64 `json:"vacancyPct"`
}

// Rating classifies a metric for display emphasis.
type Rating string

const (
	RatingGood    Rating = "good"
	RatingBad     Rating = "bad"
	RatingNeutral Rating = ""
)

// Metrics are the analyzer results. Ratios that are undefined for the inputs
// (no debt, no price) are nil.
type Metrics struct {
	IncomeMonthly           float64  `json:"incomeMonthly"`
	OperatingExpenseMonthly float64  `json:"operatingExpenseMonthly"`
	NOIMonthly              float64  `json:"noiMonthly"`
	NOIAnnual               float64  `json:"noiAnnual"`
	DebtMonthly             float64  `json:"debtMonthly"`
	DebtAnnual              float64  `json:"debtAnnual"`
	CashFlowMonthly         float64  `json:"cashFlowMonthly"`
	CashFlowRating          Rating   `json:"cashFlowRating"`
	DSCR                    *float64 `json:"dscr,omitempty"`
	DSCRRating              Rating   `json:"dscrRating,omitempty"`
	CapRatePercent          *float64 `json:"capRatePercent,omitempty"`
	AvgPrincipalMonthly     float64  `json:"avgPrincipalMonthly"`
	AveragingYears          int      `json:"averagingYears"`
	CapWithRepaymentPercent *float64 `json:"capWithRepaymentPercent,omitempty"`
}

// DefaultInputs returns the analyzer form defaults: 20% down, 4.2% over 25
// years, 3% maintenance, no management fee and 2% vacancy.
func DefaultInputs() Inputs {
	return Inputs{
		DownPercent:        20,
		RatePercent:        4.2,
		AmortizationYears:  constants.DefaultAmortizationYears,
		MaintenancePercent: 3,
		ManagementPercent:  0,
		VacancyPercent:     2,
	}
}

// ForListing seeds the defaults with the listing's price and estimated rent.
func ForListing(l listings.Listing) Inputs {
	in := DefaultInputs()
	in.Price = l.Price
	in.Rent = l.EstRent
	return in
}

// Validate rejects inputs the form would never produce: money and percent
// fields must be finite and non-negative, the down payment at most 100% and
// the amortization within 1..MaxAmortizationYears.
func (in Inputs) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"price", in.Price}, {"down", in.DownPercent}, {"rate", in.RatePercent},
		{"rent", in.Rent}, {"parking", in.Parking}, {"laundry", in.Laundry}, {"misc", in.Misc},
		{"taxes", in.Taxes}, {"insurance", in.Insurance}, {"utilities", in.Utilities},
		{"maintenancePct", in.MaintenancePercent}, {"mgmtPct", in.ManagementPercent}, {"vacancyPct", in.VacancyPercent},
	}
	for _, f := range fields {
		if !mathutil.IsFinite(f.value) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidInputs, f.name)
		}
		if f.value < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidInputs, f.name, f.value)
		}
	}
	if in.DownPercent > constants.PercentageMultiplier {
		return fmt.Errorf("%w: down must not exceed 100, got %v", ErrInvalidInputs, in.DownPercent)
	}
	if in.AmortizationYears <= 0 || in.AmortizationYears > constants.MaxAmortizationYears {
		return fmt.Errorf("%w: amortization must be between 1 and %d years, got %d",
			ErrInvalidInputs, constants.MaxAmortizationYears, in.AmortizationYears)
	}
	return nil
}

// Terms returns the loan terms described by the inputs.
func (in Inputs) Terms() loans.LoanTerms {
	return loans.LoanTerms{
		Price:               in.Price,
		DownPaymentFraction: mathutil.PercentToFraction(in.DownPercent),
		AnnualInterestRate:  mathutil.PercentToFraction(in.RatePercent),
		AmortizationYears:   in.AmortizationYears,
	}
}

// Analyzer computes deal metrics.
type Analyzer struct {
	logger         *zap.Logger
	averagingYears int
}

// New creates an Analyzer. averagingYears <= 0 selects the default window.
func New(logger *zap.Logger, averagingYears int) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if averagingYears <= 0 {
		averagingYears = constants.DefaultAveragingYears
	}
	return &Analyzer{logger: logger, averagingYears: averagingYears}
}

// AveragingYears returns the window used for the average principal metric.
func (a *Analyzer) AveragingYears() int {
	return a.averagingYears
}

// Analyze computes the metrics for a set of inputs.
func (a *Analyzer) Analyze(in Inputs) Metrics {
	income := in.Rent + in.Parking + in.Laundry + in.Misc
	rentLinked := mathutil.PercentToFraction(in.MaintenancePercent) +
		mathutil.PercentToFraction(in.ManagementPercent) +
		mathutil.PercentToFraction(in.VacancyPercent)
	opex := in.Taxes + in.Insurance + in.Utilities + rentLinked*in.Rent

	terms := in.Terms()
	noi := income - opex
	debt := terms.MonthlyPayment()
	avgPrincipal := terms.AverageMonthlyPrincipal(a.averagingYears)

	m := Metrics{
		IncomeMonthly:           income,
		OperatingExpenseMonthly: opex,
		NOIMonthly:              noi,
		NOIAnnual:               noi * constants.MonthsPerYear,
		DebtMonthly:             debt,
		DebtAnnual:              debt * constants.MonthsPerYear,
		CashFlowMonthly:         noi - debt,
		CashFlowRating:          RatingBad,
		AvgPrincipalMonthly:     avgPrincipal,
		AveragingYears:          a.averagingYears,
	}
	if m.CashFlowMonthly >= 0 {
		m.CashFlowRating = RatingGood
	}

	if debt > 0 {
		dscr := noi / debt
		m.DSCR = &dscr
		m.DSCRRating = RateDSCR(dscr)
	}
	if in.Price > 0 {
		capRate := mathutil.CalculatePercentage(noi*constants.MonthsPerYear, in.Price)
		m.CapRatePercent = &capRate
		withRepay := mathutil.CalculatePercentage((noi+avgPrincipal)*constants.MonthsPerYear, in.Price)
		m.CapWithRepaymentPercent = &withRepay
	}

	a.logger.Debug("analyzed deal",
		zap.String("op", "analyzer.Analyze"),
		zap.Float64("price", in.Price),
		zap.Float64("noiMonthly", noi),
		zap.Float64("debtMonthly", debt),
	)
	return m
}

// RateDSCR classifies a debt service coverage ratio.
func RateDSCR(dscr float64) Rating {
	switch {
	case dscr >= constants.DSCRGoodThreshold:
		return RatingGood
	case dscr < constants.DSCRBadThreshold:
		return RatingBad
	default:
		return RatingNeutral
	}
}
