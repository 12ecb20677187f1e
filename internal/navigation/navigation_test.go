package navigation

import (
	"errors"
	"strconv"
	"testing"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s.Mode != ModeBuy || s.BuySub != BuyPrimary || s.InvestmentSub != InvestmentCashflow || s.LeaseSub != LeaseTenant {
		t.Errorf("unexpected initial view: %+v", s.View)
	}
	if s.Focus != FocusModes {
		t.Errorf("initial focus = %d, expected %d", s.Focus, FocusModes)
	}
}

func TestSelectMode(t *testing.T) {
	tests := []struct {
		name       string
		mode       Mode
		registered bool
		wantFocus  int
		wantPrompt *Context
	}{
		{"Buy opens tier 2", ModeBuy, false, FocusSubModes, nil},
		{"Lease opens tier 2", ModeLease, false, FocusSubModes, nil},
		{"Sell is a leaf", ModeSell, false, FocusModes, &Context{Mode: ModeSell, Leaf: "sell"}},
		{"Sell while registered", ModeSell, true, FocusModes, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			prompt, err := s.SelectMode(tt.mode, tt.registered)
			if err != nil {
				t.Fatalf("SelectMode() error = %v", err)
			}
			if s.Mode != tt.mode || s.Focus != tt.wantFocus {
				t.Errorf("state = %+v, expected mode %s focus %d", s, tt.mode, tt.wantFocus)
			}
			checkPrompt(t, prompt, tt.wantPrompt)
		})
	}
}

func TestBuyFlow(t *testing.T) {
	s := NewState()
	if _, err := s.SelectMode(ModeBuy, false); err != nil {
		t.Fatalf("SelectMode() error = %v", err)
	}

	prompt, err := s.SelectBuySub(BuyPrimary, false)
	if err != nil {
		t.Fatalf("SelectBuySub() error = %v", err)
	}
	checkPrompt(t, prompt, &Context{Mode: ModeBuy, Leaf: "primary"})
	if prompt.Role != RoleBuyer {
		t.Errorf("role = %s, expected %s", prompt.Role, RoleBuyer)
	}

	prompt, err = s.SelectBuySub(BuyInvestment, false)
	if err != nil {
		t.Fatalf("SelectBuySub() error = %v", err)
	}
	checkPrompt(t, prompt, nil)
	if s.Focus != FocusStrategy {
		t.Errorf("focus = %d, expected %d", s.Focus, FocusStrategy)
	}

	prompt, err = s.SelectInvestmentSub(InvestmentAppreciation, false)
	if err != nil {
		t.Fatalf("SelectInvestmentSub() error = %v", err)
	}
	checkPrompt(t, prompt, &Context{Mode: ModeBuy, Leaf: "investment_appreciation"})
	if prompt.Role != RoleInvestor {
		t.Errorf("role = %s, expected %s", prompt.Role, RoleInvestor)
	}

	if got := s.AnalyzeContext(); got.Key() != "buy:investment_appreciation" {
		t.Errorf("AnalyzeContext() = %s", got.Key())
	}

	s.Back()
	s.Back()
	s.Back()
	if s.Focus != FocusModes {
		t.Errorf("Back() should floor at tier 1, got %d", s.Focus)
	}
}

func TestLeaseFlow(t *testing.T) {
	s := NewState()
	if _, err := s.Apply("mode", "lease", false); err != nil {
		t.Fatalf("Apply(mode) error = %v", err)
	}
	prompt, err := s.Apply("leaseSub", "landlord", false)
	if err != nil {
		t.Fatalf("Apply(leaseSub) error = %v", err)
	}
	checkPrompt(t, prompt, &Context{Mode: ModeLease, Leaf: "landlord"})
	if prompt.Role != RoleLandlord {
		t.Errorf("role = %s, expected %s", prompt.Role, RoleLandlord)
	}
	if s.LeaseSub != LeaseLandlord {
		t.Errorf("lease side = %s", s.LeaseSub)
	}

	if _, err := s.Apply("back", "", false); err != nil {
		t.Fatalf("Apply(back) error = %v", err)
	}
	if s.Focus != FocusModes {
		t.Errorf("focus = %d after back, expected %d", s.Focus, FocusModes)
	}
}

func TestInvalidSelections(t *testing.T) {
	s := NewState()
	cases := []struct {
		action string
		value  string
	}{
		{"mode", "rent"},
		{"buySub", "flip"},
		{"investmentSub", "dividends"},
		{"leaseSub", "agent"},
		{"jump", ""},
		{"level", "two"},
		{"level", "0"},
	}
	for _, c := range cases {
		if _, err := s.Apply(c.action, c.value, false); !errors.Is(err, ErrInvalidSelection) {
			t.Errorf("Apply(%s, %s) error = %v, expected ErrInvalidSelection", c.action, c.value, err)
		}
	}
	if err := s.GoLevel(4); !errors.Is(err, ErrInvalidSelection) {
		t.Errorf("GoLevel(4) error = %v, expected ErrInvalidSelection", err)
	}
}

func TestGoLevel(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(s *State)
		level     int
		wantErr   bool
		wantFocus int
	}{
		{"Stay on tier 1", func(s *State) {}, 1, false, FocusModes},
		{"No forward jump from tier 1", func(s *State) {}, 2, true, FocusModes},
		{"No forward jump in sell mode", func(s *State) { _, _ = s.SelectMode(ModeSell, true) }, 3, true, FocusModes},
		{"Back from strategy to sub-modes", func(s *State) {
			_, _ = s.SelectMode(ModeBuy, true)
			_, _ = s.SelectBuySub(BuyInvestment, true)
		}, 2, false, FocusSubModes},
		{"Back from strategy to modes", func(s *State) {
			_, _ = s.SelectMode(ModeBuy, true)
			_, _ = s.SelectBuySub(BuyInvestment, true)
		}, 1, false, FocusModes},
		{"Stay on strategy", func(s *State) {
			_, _ = s.SelectMode(ModeBuy, true)
			_, _ = s.SelectBuySub(BuyInvestment, true)
		}, 3, false, FocusStrategy},
		{"Lease cannot reach strategy", func(s *State) { _, _ = s.SelectMode(ModeLease, true) }, 3, true, FocusSubModes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewState()
			tt.setup(&s)
			_, err := s.Apply("level", strconv.Itoa(tt.level), true)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSelection) {
					t.Errorf("Apply(level, %d) error = %v, expected ErrInvalidSelection", tt.level, err)
				}
			} else if err != nil {
				t.Fatalf("Apply(level, %d) error = %v", tt.level, err)
			}
			if s.Focus != tt.wantFocus {
				t.Errorf("focus = %d, expected %d", s.Focus, tt.wantFocus)
			}
		})
	}
}

func TestRoleFor(t *testing.T) {
	tests := map[Context]string{
		{Mode: ModeBuy, Leaf: "primary"}:                 RoleBuyer,
		{Mode: ModeBuy, Leaf: "investment_cashflow"}:     RoleInvestor,
		{Mode: ModeBuy, Leaf: "investment_appreciation"}: RoleInvestor,
		{Mode: ModeSell, Leaf: "sell"}:                   RoleSeller,
		{Mode: ModeLease, Leaf: "tenant"}:                RoleTenant,
		{Mode: ModeLease, Leaf: "landlord"}:              RoleLandlord,
		{Mode: ModeSell, Leaf: "primary"}:                RoleUser,
	}
	for ctx, want := range tests {
		if got := RoleFor(ctx); got != want {
			t.Errorf("RoleFor(%s) = %s, expected %s", ctx.Key(), got, want)
		}
	}
}

func checkPrompt(t *testing.T, got *Prompt, want *Context) {
	t.Helper()
	if want == nil {
		if got != nil {
			t.Errorf("unexpected prompt %+v", got)
		}
		return
	}
	if got == nil {
		t.Fatalf("expected prompt for %s, got none", want.Key())
	}
	if got.Context != *want {
		t.Errorf("prompt context = %s, expected %s", got.Context.Key(), want.Key())
	}
}
