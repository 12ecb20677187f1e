// Package format renders money, percentages and dates for display.
package format

import (
	"fmt"
	"math"

	"github.com/iwvelando/deal-analyzer/pkg/datetime"
	"github.com/iwvelando/deal-analyzer/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholder is shown for ratios that are undefined (no debt, no price).
const Placeholder = "—"

var printer = message.NewPrinter(language.English)

// Money returns a whole-dollar currency string with thousands separators
// (e.g., "$1,299,000" or "-$412"). Listing cards and the deal analyzer round
// to whole dollars.
func Money(amount float64) string {
	rounded := math.Round(amount)
	if rounded == 0 || math.IsNaN(rounded) {
		return "$0"
	}
	if rounded < 0 {
		return printer.Sprintf("-$%.0f", -rounded)
	}
	return printer.Sprintf("$%.0f", rounded)
}

// Currency returns a currency string with cents (e.g., "-$1,234.56").
// Amounts that round to zero cents never carry a sign.
func Currency(amount float64) string {
	amount = mathutil.Round(amount)
	if amount == 0 {
		return "$0.00"
	}
	if amount < 0 {
		return printer.Sprintf("-$%.2f", math.Abs(amount))
	}
	return printer.Sprintf("$%.2f", amount)
}

// Ratio formats an optional ratio with two decimals.
func Ratio(value *float64) string {
	if value == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f", *value)
}

// Percent formats an optional percentage with two decimals and a % suffix.
func Percent(value *float64) string {
	if value == nil {
		return Placeholder
	}
	return fmt.Sprintf("%.2f%%", *value)
}

// Date renders a catalogue date (2006-01-02) as e.g. "Aug 15, 2025". Values
// that fail to parse are returned unchanged.
func Date(value string) string {
	t, err := datetime.ParseDate(value)
	if err != nil {
		return value
	}
	return t.Format("Jan 2, 2006")
}
