package registration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/navigation"
)

// Field describes one step 2 form field.
type Field struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Numeric bool   `json:"numeric"`
}

func num(name, label string) Field  { return Field{Name: name, Label: label, Numeric: true} }
func text(name, label string) Field { return Field{Name: name, Label: label} }

var contextFields = map[string][]Field{
	"buy:primary": {
		num("budget", "Budget"), num("down", "Down %"), text("areas", "City/Areas"),
		num("beds", "Beds"), num("baths", "Baths"), text("moveIn", "Move-in Date"),
		text("pre", "Pre-approval (Y/N)"), num("maxPay", "Max Monthly Payment"), text("notes", "Notes"),
	},
	"buy:investment_cashflow": {
		num("budget", "Budget"), num("down", "Down %"), num("capTarget", "Target Cap %"),
		num("dscr", "DSCR Target"), text("strategy", "Strategy"), num("rent", "Est. Rent (Monthly)"),
		text("areas", "Areas"), text("notes", "Notes"),
	},
	"buy:investment_appreciation": {
		num("budget", "Budget"), num("down", "Down %"), num("target5", "Target 5yr Return %"),
		text("hold", "Hold Period (yrs)"), text("areas", "Areas"), text("notes", "Notes"),
	},
	"sell:sell": {
		num("target", "Target Price"), text("timeline", "Timeline"), text("reno", "Renovations done?"),
		text("mortBal", "Mortgage Balance (opt)"), text("staging", "Staging? (Y/N)"), text("notes", "Notes"),
	},
	"lease:tenant": {
		num("budget", "Budget (Monthly)"), text("moveIn", "Move-in Date"), text("occ", "Occupants / Pets"),
		text("emp", "Employment"), text("credit", "Credit (approx)"), text("areas", "Desired Areas"),
	},
	"lease:landlord": {
		num("rent", "Expected Rent"), text("term", "Lease Term (mo)"), text("available", "Available From"),
		text("unit", "Unit Type"), text("pets", "Pets Allowed? (Y/N)"), text("criteria", "Tenant Criteria"),
	},
}

// FieldsFor lists the step 2 fields for a context. Unknown contexts have none.
func FieldsFor(ctx navigation.Context) []Field {
	fields := contextFields[ctx.Key()]
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// validateDetails checks every value against the context's fields. Empty
// numeric values are allowed and mean zero.
func validateDetails(ctx navigation.Context, values map[string]string) (map[string]string, error) {
	allowed := make(map[string]Field)
	for _, f := range contextFields[ctx.Key()] {
		allowed[f.Name] = f
	}

	clean := make(map[string]string, len(values))
	for name, value := range values {
		f, ok := allowed[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a field for %s", ErrUnknownField, name, ctx.Key())
		}
		value = strings.TrimSpace(value)
		if f.Numeric && value != "" {
			if _, err := strconv.ParseFloat(value, 64); err != nil {
				return nil, fmt.Errorf("%w: %s must be a number, got %q", ErrInvalidDetail, f.Label, value)
			}
		}
		clean[name] = value
	}
	return clean, nil
}
