package listings

import (
	"math"

	"github.com/iwvelando/deal-analyzer/internal/navigation"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/datetime"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
)

// Assumptions are the financing terms used on every card.
type Assumptions struct {
	DownPaymentFraction float64 `json:"downPaymentFraction"`
	AnnualRate          float64 `json:"annualRate"`
	AmortizationYears   int     `json:"amortizationYears"`
	AppreciationRate    float64 `json:"appreciationRate"`
}

// DefaultAssumptions returns 20% down, 4.2% over 25 years, 3% appreciation.
func DefaultAssumptions() Assumptions {
	return Assumptions{
		DownPaymentFraction: constants.DefaultDownPaymentFraction,
		AnnualRate:          constants.DefaultAnnualRate,
		AmortizationYears:   constants.DefaultAmortizationYears,
		AppreciationRate:    constants.DefaultAppreciationRate,
	}
}

// CardMetrics are the figures a card shows for the current view. Fields that
// the view does not display are left nil.
type CardMetrics struct {
	MonthlyPayment    *float64 `json:"monthlyPayment,omitempty"`
	RentOffset        *float64 `json:"rentOffset,omitempty"`
	OwnerNetMonthly   *float64 `json:"ownerNetMonthly,omitempty"`
	CashFlowMonthly   *float64 `json:"cashFlowMonthly,omitempty"`
	Appreciation1Year *float64 `json:"appreciation1Year,omitempty"`
	Appreciation5Year *float64 `json:"appreciation5Year,omitempty"`
	AskingPrice       *float64 `json:"askingPrice,omitempty"`
	DaysOnMarket      *int     `json:"daysOnMarket,omitempty"`
	AnnualGainPercent *float64 `json:"annualGainPercent,omitempty"`
	AskingRent        *float64 `json:"askingRent,omitempty"`
	RentPerSqft       *float64 `json:"rentPerSqft,omitempty"`
	GrossYieldPercent *float64 `json:"grossYieldPercent,omitempty"`
}

// Card pairs a listing with its metrics.
type Card struct {
	Listing Listing     `json:"listing"`
	Metrics CardMetrics `json:"metrics"`
}

// Figures are every card figure for a listing regardless of view.
type Figures struct {
	MonthlyPayment    float64
	Rent              float64
	OwnerNetMonthly   float64
	CashFlowMonthly   float64
	Appreciation1Year float64
	Appreciation5Year float64
	GrossYieldPercent *float64
	RentPerSqft       *float64
	// AnnualGainPercent is the compound yearly change from the last sale
	// to the asking price. Nil without a usable last sale.
	AnnualGainPercent *float64
}

// Compute returns all card figures for a listing.
func Compute(l Listing, a Assumptions) Figures {
	payment := loans.CalculateMonthlyPayment(l.Price, a.DownPaymentFraction, a.AnnualRate, a.AmortizationYears)
	rent := l.EstRent

	f := Figures{
		MonthlyPayment:    payment,
		Rent:              rent,
		OwnerNetMonthly:   mathutil.Max(0, payment-rent),
		CashFlowMonthly:   rent - payment,
		Appreciation1Year: l.Price * a.AppreciationRate,
		Appreciation5Year: l.Price * (math.Pow(1+a.AppreciationRate, constants.AppreciationHorizonYears) - 1),
	}
	if l.Price > 0 {
		yield := mathutil.CalculatePercentage(rent*constants.MonthsPerYear, l.Price)
		f.GrossYieldPercent = &yield
	}
	if l.Sqft > 0 {
		perSqft := rent / l.Sqft
		f.RentPerSqft = &perSqft
	}
	f.AnnualGainPercent = annualGain(l)
	return f
}

func annualGain(l Listing) *float64 {
	if l.Price <= 0 || l.LastSoldPrice <= 0 || l.LastSoldDate == "" || l.ListDate == "" {
		return nil
	}
	years, err := datetime.YearsBetween(l.LastSoldDate, l.ListDate)
	if err != nil || years <= 0 {
		return nil
	}
	gain := (math.Pow(l.Price/l.LastSoldPrice, 1/years) - 1) * constants.PercentageMultiplier
	return &gain
}

// CardFor selects the figures displayed for the view.
func CardFor(l Listing, view navigation.View, a Assumptions) Card {
	f := Compute(l, a)
	var m CardMetrics

	switch view.Mode {
	case navigation.ModeBuy:
		if view.BuySub == navigation.BuyInvestment {
			m.RentOffset = ptr(f.Rent)
			m.OwnerNetMonthly = ptr(f.OwnerNetMonthly)
			if view.InvestmentSub == navigation.InvestmentAppreciation {
				m.Appreciation1Year = ptr(f.Appreciation1Year)
				m.Appreciation5Year = ptr(f.Appreciation5Year)
			} else {
				m.CashFlowMonthly = ptr(f.CashFlowMonthly)
			}
		} else {
			m.MonthlyPayment = ptr(f.MonthlyPayment)
		}
	case navigation.ModeSell:
		m.AskingPrice = ptr(l.Price)
		dom := l.DaysOnMarket
		m.DaysOnMarket = &dom
		m.AnnualGainPercent = f.AnnualGainPercent
	case navigation.ModeLease:
		if view.LeaseSub == navigation.LeaseLandlord {
			m.AskingRent = ptr(f.Rent)
			m.GrossYieldPercent = f.GrossYieldPercent
		} else {
			m.AskingRent = ptr(f.Rent)
			m.RentPerSqft = f.RentPerSqft
		}
	}

	return Card{Listing: l, Metrics: m}
}

// Cards builds a card for every listing in the catalogue.
func (c *Catalog) Cards(view navigation.View, a Assumptions) []Card {
	cards := make([]Card, 0, len(c.listings))
	for _, l := range c.listings {
		cards = append(cards, CardFor(l, view, a))
	}
	return cards
}

func ptr(v float64) *float64 {
	return &v
}
