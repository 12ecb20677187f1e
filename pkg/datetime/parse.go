// Package datetime provides date utility functions for catalogue dates.
package datetime

import (
	"fmt"
	"strings"
	"time"

	"github.com/iwvelando/deal-analyzer/pkg/constants"
)

const (
	// DateLayout is the format expected in the listing catalogue.
	DateLayout = constants.DateLayout
)

// ParseDate parses a catalogue date such as "2025-08-15".
func ParseDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}
	return t, nil
}

// DateBeforeDate returns true if firstDate is strictly before secondDate.
func DateBeforeDate(firstDate string, secondDate string) (bool, error) {
	firstDateT, err := ParseDate(firstDate)
	if err != nil {
		return false, err
	}
	secondDateT, err := ParseDate(secondDate)
	if err != nil {
		return false, err
	}
	return firstDateT.Before(secondDateT), nil
}

// YearsBetween returns the fractional number of years from firstDate to
// secondDate. It is negative when secondDate comes first.
func YearsBetween(firstDate string, secondDate string) (float64, error) {
	firstDateT, err := ParseDate(firstDate)
	if err != nil {
		return 0, err
	}
	secondDateT, err := ParseDate(secondDate)
	if err != nil {
		return 0, err
	}
	return secondDateT.Sub(firstDateT).Hours() / 24 / 365.25, nil
}
