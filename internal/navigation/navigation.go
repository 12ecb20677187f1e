// Package navigation models the tiered Buy/Sell/Lease browsing state.
//
// The header shows one tier at a time. Tier 1 picks the mode, tier 2 picks the
// buy or lease sub-mode and tier 3 picks the investment strategy. Selecting a
// leaf (a choice with no further tier) while the session is unregistered
// produces a registration prompt for that leaf's context.
package navigation

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidSelection is returned for unknown modes, sub-modes or actions.
var ErrInvalidSelection = errors.New("invalid navigation selection")

// Mode is the top-level browsing mode.
type Mode string

const (
	ModeBuy   Mode = "buy"
	ModeSell  Mode = "sell"
	ModeLease Mode = "lease"
)

// BuySub is the buy sub-mode.
type BuySub string

const (
	BuyPrimary    BuySub = "primary"
	BuyInvestment BuySub = "investment"
)

// InvestmentSub is the investment strategy.
type InvestmentSub string

const (
	InvestmentCashflow     InvestmentSub = "cashflow"
	InvestmentAppreciation InvestmentSub = "appreciation"
)

// LeaseSub is the lease side.
type LeaseSub string

const (
	LeaseTenant   LeaseSub = "tenant"
	LeaseLandlord LeaseSub = "landlord"
)

// Focus levels of the header.
const (
	FocusModes    = 1
	FocusSubModes = 2
	FocusStrategy = 3
)

// Context identifies a leaf of the navigation tree, e.g. buy:investment_cashflow.
type Context struct {
	Mode Mode   `json:"mode"`
	Leaf string `json:"leaf"`
}

// Key returns the "mode:leaf" form of the context.
func (c Context) Key() string {
	return fmt.Sprintf("%s:%s", c.Mode, c.Leaf)
}

// Role names, keyed by context.
const (
	RoleBuyer    = "Buyer"
	RoleInvestor = "Investor"
	RoleSeller   = "Seller"
	RoleTenant   = "Tenant"
	RoleLandlord = "Landlord"
	RoleUser     = "User"
)

var roles = map[string]string{
	"buy:primary":                 RoleBuyer,
	"buy:investment_cashflow":     RoleInvestor,
	"buy:investment_appreciation": RoleInvestor,
	"sell:sell":                   RoleSeller,
	"lease:tenant":                RoleTenant,
	"lease:landlord":              RoleLandlord,
}

// RoleFor maps a navigation context to the registration role.
func RoleFor(ctx Context) string {
	if role, ok := roles[ctx.Key()]; ok {
		return role
	}
	return RoleUser
}

// View is the part of the state that decides what listing cards show.
type View struct {
	Mode          Mode          `json:"mode"`
	BuySub        BuySub        `json:"buySub"`
	InvestmentSub InvestmentSub `json:"investmentSub"`
	LeaseSub      LeaseSub      `json:"leaseSub"`
}

// State is the navigation state of one session.
type State struct {
	View
	Focus int `json:"focus"`
}

// Prompt asks the caller to open registration for a context.
type Prompt struct {
	Context Context `json:"context"`
	Role    string  `json:"role"`
}

// NewState returns the initial state: buy, primary, cash flow, tenant, tier 1.
func NewState() State {
	return State{
		View: View{
			Mode:          ModeBuy,
			BuySub:        BuyPrimary,
			InvestmentSub: InvestmentCashflow,
			LeaseSub:      LeaseTenant,
		},
		Focus: FocusModes,
	}
}

// SelectMode handles a tier 1 click.
func (s *State) SelectMode(mode Mode, registered bool) (*Prompt, error) {
	switch mode {
	case ModeBuy, ModeLease:
		s.Mode = mode
		s.Focus = FocusSubModes
		return nil, nil
	case ModeSell:
		s.Mode = mode
		s.Focus = FocusModes
		return promptFor(Context{Mode: ModeSell, Leaf: "sell"}, registered), nil
	default:
		return nil, fmt.Errorf("%w: mode %q", ErrInvalidSelection, mode)
	}
}

// SelectBuySub handles a tier 2 click while buying.
func (s *State) SelectBuySub(sub BuySub, registered bool) (*Prompt, error) {
	switch sub {
	case BuyPrimary:
		s.BuySub = sub
		s.Focus = FocusSubModes
		return promptFor(Context{Mode: ModeBuy, Leaf: string(BuyPrimary)}, registered), nil
	case BuyInvestment:
		s.BuySub = sub
		s.Focus = FocusStrategy
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: buy sub-mode %q", ErrInvalidSelection, sub)
	}
}

// SelectInvestmentSub handles a tier 3 click.
func (s *State) SelectInvestmentSub(sub InvestmentSub, registered bool) (*Prompt, error) {
	if sub != InvestmentCashflow && sub != InvestmentAppreciation {
		return nil, fmt.Errorf("%w: investment strategy %q", ErrInvalidSelection, sub)
	}
	s.InvestmentSub = sub
	return promptFor(Context{Mode: ModeBuy, Leaf: "investment_" + string(sub)}, registered), nil
}

// SelectLeaseSub handles a tier 2 click while leasing.
func (s *State) SelectLeaseSub(sub LeaseSub, registered bool) (*Prompt, error) {
	if sub != LeaseTenant && sub != LeaseLandlord {
		return nil, fmt.Errorf("%w: lease side %q", ErrInvalidSelection, sub)
	}
	s.LeaseSub = sub
	return promptFor(Context{Mode: ModeLease, Leaf: string(sub)}, registered), nil
}

// Back moves one tier up, never past tier 1.
func (s *State) Back() {
	if s.Focus > FocusModes {
		s.Focus--
	}
}

// GoLevel jumps back to a tier at or above the current focus.
func (s *State) GoLevel(level int) error {
	if level < FocusModes || level > s.Focus {
		return fmt.Errorf("%w: focus level %d from %d", ErrInvalidSelection, level, s.Focus)
	}
	s.Focus = level
	return nil
}

// AnalyzeContext is the context used when Analyze is clicked on a card. The
// leaf follows the buy sub-mode even outside buy mode.
func (s State) AnalyzeContext() Context {
	leaf := string(s.BuySub)
	if s.BuySub == BuyInvestment {
		leaf = "investment_" + string(s.InvestmentSub)
	}
	return Context{Mode: s.Mode, Leaf: leaf}
}

// Apply dispatches a named action, as sent by the HTTP API.
func (s *State) Apply(action, value string, registered bool) (*Prompt, error) {
	switch action {
	case "mode":
		return s.SelectMode(Mode(value), registered)
	case "buySub":
		return s.SelectBuySub(BuySub(value), registered)
	case "investmentSub":
		return s.SelectInvestmentSub(InvestmentSub(value), registered)
	case "leaseSub":
		return s.SelectLeaseSub(LeaseSub(value), registered)
	case "back":
		s.Back()
		return nil, nil
	case "level":
		level, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: focus level %q", ErrInvalidSelection, value)
		}
		return nil, s.GoLevel(level)
	default:
		return nil, fmt.Errorf("%w: action %q", ErrInvalidSelection, action)
	}
}

func promptFor(ctx Context, registered bool) *Prompt {
	if registered {
		return nil
	}
	return &Prompt{Context: ctx, Role: RoleFor(ctx)}
}
