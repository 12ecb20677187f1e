// Package output provides utilities for formatting and displaying listing
// reports and deal analyses.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/analyzer"
	"github.com/iwvelando/deal-analyzer/internal/listings"
	"github.com/iwvelando/deal-analyzer/pkg/format"
	"github.com/iwvelando/deal-analyzer/pkg/loans"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report pairs a listing with its card figures and deal analysis.
type Report struct {
	Listing listings.Listing
	Figures listings.Figures
	Inputs  analyzer.Inputs
	Metrics analyzer.Metrics
}

// NewReport computes the card figures and analysis for a listing.
func NewReport(l listings.Listing, a listings.Assumptions, an *analyzer.Analyzer, in analyzer.Inputs) Report {
	return Report{
		Listing: l,
		Figures: listings.Compute(l, a),
		Inputs:  in,
		Metrics: an.Analyze(in),
	}
}

// PrettyFormat writes a human-readable rather than machine-readable report.
func PrettyFormat(w io.Writer, reports []Report) {
	p := message.NewPrinter(language.English)
	for i, r := range reports {
		l := r.Listing
		_, _ = fmt.Fprintf(w, "--- %s: %s, %s ---\n", l.MLS, l.Address, l.City)
		_, _ = p.Fprintf(w, "%s | %d bd | %d ba | %.0f sqft | %d days on market | listed %s\n",
			format.Money(l.Price), l.Beds, l.Baths, l.Sqft, l.DaysOnMarket, format.Date(l.ListDate))

		f := r.Figures
		_, _ = fmt.Fprintf(w, "Monthly payment    | %s\n", format.Money(f.MonthlyPayment))
		_, _ = fmt.Fprintf(w, "Estimated rent     | %s\n", format.Money(f.Rent))
		_, _ = fmt.Fprintf(w, "Owner net cost     | %s\n", format.Money(f.OwnerNetMonthly))
		_, _ = fmt.Fprintf(w, "Cash flow          | %s\n", format.Money(f.CashFlowMonthly))
		_, _ = fmt.Fprintf(w, "Appreciation 1yr   | %s\n", format.Money(f.Appreciation1Year))
		_, _ = fmt.Fprintf(w, "Appreciation 5yr   | %s\n", format.Money(f.Appreciation5Year))
		_, _ = fmt.Fprintf(w, "Gross yield        | %s\n", format.Percent(f.GrossYieldPercent))
		_, _ = fmt.Fprintf(w, "Gain since sale/yr | %s\n", format.Percent(f.AnnualGainPercent))

		m := r.Metrics
		_, _ = fmt.Fprintf(w, "NOI (monthly)      | %s\n", format.Money(m.NOIMonthly))
		_, _ = fmt.Fprintf(w, "Debt service       | %s\n", format.Money(m.DebtMonthly))
		_, _ = fmt.Fprintf(w, "Analyzed cash flow | %s (%s)\n", format.Money(m.CashFlowMonthly), ratingLabel(m.CashFlowRating))
		if m.DSCR != nil {
			_, _ = fmt.Fprintf(w, "DSCR               | %s (%s)\n", format.Ratio(m.DSCR), ratingLabel(m.DSCRRating))
		} else {
			_, _ = fmt.Fprintf(w, "DSCR               | %s\n", format.Placeholder)
		}
		_, _ = fmt.Fprintf(w, "Cap rate           | %s\n", format.Percent(m.CapRatePercent))
		_, _ = fmt.Fprintf(w, "Avg principal      | %s (first %d yrs)\n", format.Money(m.AvgPrincipalMonthly), m.AveragingYears)
		_, _ = fmt.Fprintf(w, "Cap w/ repayment   | %s\n", format.Percent(m.CapWithRepaymentPercent))
		if i < len(reports)-1 {
			_, _ = fmt.Fprintf(w, "\n")
		}
	}
}

// CsvFormat writes the reports in comma-separated value format.
func CsvFormat(w io.Writer, reports []Report) {
	headers := []string{
		"mls", "address", "city", "price", "monthly payment", "rent", "owner net", "cash flow",
		"appreciation 1yr", "appreciation 5yr", "gross yield %", "noi", "debt", "dscr",
		"cap rate %", "avg principal", "cap with repayment %",
	}
	_, _ = fmt.Fprintf(w, `"%s"`+"\n", strings.Join(headers, `","`))
	for _, r := range reports {
		l, f, m := r.Listing, r.Figures, r.Metrics
		_, _ = fmt.Fprintf(w, `"%s","%s","%s","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%.2f","%s","%.2f","%.2f","%s","%s","%.2f","%s"`+"\n",
			csvEscape(l.MLS), csvEscape(l.Address), csvEscape(l.City), l.Price,
			f.MonthlyPayment, f.Rent, f.OwnerNetMonthly, f.CashFlowMonthly,
			f.Appreciation1Year, f.Appreciation5Year, optional(f.GrossYieldPercent),
			m.NOIMonthly, m.DebtMonthly, optional(m.DSCR), optional(m.CapRatePercent),
			m.AvgPrincipalMonthly, optional(m.CapWithRepaymentPercent))
	}
}

// AmortizationTable writes the month-by-month schedule.
func AmortizationTable(w io.Writer, schedule []loans.Payment) {
	_, _ = fmt.Fprintf(w, "Month | Payment | Principal | Interest | Balance\n")
	_, _ = fmt.Fprintf(w, "_____ | _______ | _________ | ________ | _______\n")
	for _, payment := range schedule {
		_, _ = fmt.Fprintf(w, "%5d | %s | %s | %s | %s\n", payment.Month,
			format.Currency(payment.Payment), format.Currency(payment.Principal),
			format.Currency(payment.Interest), format.Currency(payment.RemainingPrincipal))
	}
}

func ratingLabel(r analyzer.Rating) string {
	if r == analyzer.RatingNeutral {
		return "neutral"
	}
	return string(r)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func csvEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
