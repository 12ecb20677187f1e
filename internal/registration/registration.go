// Package registration implements the two-step mock registration that gates
// the deal analyzer.
//
// Step 1 collects a name, an email address and a phone number, and verifies
// the latter two with six-digit codes. The codes are handed back to the
// caller for display; nothing is ever sent. Step 2 collects optional details
// for the navigation context that opened the form. Completing the flow saves
// the profile through a ProfileRepository.
package registration

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/navigation"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"go.uber.org/zap"
)

var (
	// ErrInvalidEmail is returned when sending a code to a malformed address.
	ErrInvalidEmail = errors.New("invalid email address")
	// ErrInvalidPhone is returned when sending a code to a malformed number.
	ErrInvalidPhone = errors.New("invalid phone number")
	// ErrIncomplete is returned when step 1 requirements are not met.
	ErrIncomplete = errors.New("registration incomplete")
	// ErrWrongStep is returned for operations that do not apply to the current step.
	ErrWrongStep = errors.New("operation not allowed at this registration step")
	// ErrUnknownField is returned for step 2 fields outside the context's form.
	ErrUnknownField = errors.New("unknown registration field")
	// ErrInvalidDetail is returned for malformed step 2 values.
	ErrInvalidDetail = errors.New("invalid registration detail")
)

var (
	emailPattern = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	phonePattern = regexp.MustCompile(`^(\+?\d[\d\s\-()]{7,})$`)
)

// EmailOK reports whether s looks like an email address.
func EmailOK(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// PhoneOK reports whether s looks like a phone number: an optional +, a
// digit, then at least seven digits, spaces, dashes or parentheses.
func PhoneOK(s string) bool {
	return phonePattern.MatchString(strings.TrimSpace(s))
}

// CodeGenerator returns a verification code.
type CodeGenerator func() string

// RandomCode returns a six-digit code in [100000, 999999].
func RandomCode() string {
	span := constants.VerificationCodeMax - constants.VerificationCodeMin + 1
	return strconv.Itoa(constants.VerificationCodeMin + rand.IntN(span))
}

// Step is the current registration step.
type Step int

const (
	StepContact Step = 1
	StepDetails Step = 2
)

// Verification tracks the email and phone code exchange. Issued codes are
// kept unexported so they only leave the session through Send*Code.
type Verification struct {
	EmailSent     bool `json:"emailSent"`
	PhoneSent     bool `json:"phoneSent"`
	EmailVerified bool `json:"emailVerified"`
	PhoneVerified bool `json:"phoneVerified"`

	emailCode string
	phoneCode string
}

// Session is one visitor's registration state.
type Session struct {
	logger   *zap.Logger
	generate CodeGenerator

	Registered   bool               `json:"registered"`
	Open         bool               `json:"open"`
	Step         Step               `json:"step"`
	Context      navigation.Context `json:"context"`
	Profile      Profile            `json:"profile"`
	Verification Verification       `json:"verification"`
	Details      map[string]string  `json:"details,omitempty"`

	// PendingMLS is the listing whose analysis waits for registration.
	PendingMLS string `json:"pendingMls,omitempty"`
}

// NewSession creates an unregistered session. A nil generator selects
// RandomCode.
func NewSession(logger *zap.Logger, generate CodeGenerator) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generate == nil {
		generate = RandomCode
	}
	return &Session{
		logger:   logger,
		generate: generate,
		Step:     StepContact,
		Context:  navigation.Context{Mode: navigation.ModeBuy, Leaf: string(navigation.BuyPrimary)},
		Profile:  Profile{Role: navigation.RoleBuyer},
	}
}

// Restore loads a saved profile. A stored profile with an email marks the
// session registered.
func (s *Session) Restore(ctx context.Context, repo *ProfileRepository) error {
	profile, ok, err := repo.Load(ctx)
	if err != nil {
		return err
	}
	if ok {
		s.Profile = profile
		s.Registered = true
	}
	return nil
}

// OpenFor opens the form at step 1 for a navigation context and presets the
// role from it.
func (s *Session) OpenFor(ctx navigation.Context) {
	s.Context = ctx
	s.Profile.Role = navigation.RoleFor(ctx)
	s.Step = StepContact
	s.Open = true
}

// Close hides the form. Entered data is kept.
func (s *Session) Close() {
	s.Open = false
}

// UpdateContact replaces the step 1 contact fields. Changing an address
// invalidates its verification.
func (s *Session) UpdateContact(first, last, email, phone string) {
	if strings.TrimSpace(email) != strings.TrimSpace(s.Profile.Email) {
		s.Verification.EmailSent = false
		s.Verification.EmailVerified = false
		s.Verification.emailCode = ""
	}
	if strings.TrimSpace(phone) != strings.TrimSpace(s.Profile.Phone) {
		s.Verification.PhoneSent = false
		s.Verification.PhoneVerified = false
		s.Verification.phoneCode = ""
	}
	s.Profile.First = first
	s.Profile.Last = last
	s.Profile.Email = email
	s.Profile.Phone = phone
}

// SendEmailCode issues a new email code and returns it for display.
func (s *Session) SendEmailCode() (string, error) {
	if !EmailOK(s.Profile.Email) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s.Profile.Email)
	}
	code := s.generate()
	s.Verification.EmailSent = true
	s.Verification.EmailVerified = false
	s.Verification.emailCode = code
	s.logger.Debug("issued email verification code",
		zap.String("op", "registration.SendEmailCode"),
	)
	return code, nil
}

// SendPhoneCode issues a new phone code and returns it for display.
func (s *Session) SendPhoneCode() (string, error) {
	if !PhoneOK(s.Profile.Phone) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, s.Profile.Phone)
	}
	code := s.generate()
	s.Verification.PhoneSent = true
	s.Verification.PhoneVerified = false
	s.Verification.phoneCode = code
	s.logger.Debug("issued phone verification code",
		zap.String("op", "registration.SendPhoneCode"),
	)
	return code, nil
}

// CheckEmailCode marks the email verified when code matches the issued one.
func (s *Session) CheckEmailCode(code string) bool {
	s.Verification.EmailVerified = s.Verification.EmailSent && code == s.Verification.emailCode
	return s.Verification.EmailVerified
}

// CheckPhoneCode marks the phone verified when code matches the issued one.
func (s *Session) CheckPhoneCode(code string) bool {
	s.Verification.PhoneVerified = s.Verification.PhoneSent && code == s.Verification.phoneCode
	return s.Verification.PhoneVerified
}

// ContactComplete reports whether step 1 is satisfied.
func (s *Session) ContactComplete() bool {
	return s.missing() == nil
}

func (s *Session) missing() []string {
	var missing []string
	if strings.TrimSpace(s.Profile.First) == "" {
		missing = append(missing, "first name")
	}
	if !EmailOK(s.Profile.Email) {
		missing = append(missing, "valid email")
	}
	if !PhoneOK(s.Profile.Phone) {
		missing = append(missing, "valid phone")
	}
	if !s.Verification.EmailVerified {
		missing = append(missing, "email verification")
	}
	if !s.Verification.PhoneVerified {
		missing = append(missing, "phone verification")
	}
	return missing
}

// Continue moves from step 1 to step 2.
func (s *Session) Continue() error {
	if s.Step != StepContact {
		return fmt.Errorf("%w: already at step %d", ErrWrongStep, s.Step)
	}
	if missing := s.missing(); missing != nil {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	s.Step = StepDetails
	return nil
}

// SetDetails replaces the step 2 details after validating them against the
// context's fields.
func (s *Session) SetDetails(values map[string]string) error {
	if s.Step != StepDetails {
		return fmt.Errorf("%w: details are collected at step %d", ErrWrongStep, StepDetails)
	}
	clean, err := validateDetails(s.Context, values)
	if err != nil {
		return err
	}
	s.Details = clean
	return nil
}

// Complete saves the profile, marks the session registered, closes the form
// and returns the pending listing, if any.
func (s *Session) Complete(ctx context.Context, repo *ProfileRepository) (string, error) {
	if missing := s.missing(); missing != nil {
		return "", fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}

	profile := s.Profile
	profile.Context = s.Context.Key()
	if len(s.Details) > 0 {
		profile.Details = s.Details
	}
	if err := repo.Save(ctx, profile); err != nil {
		return "", err
	}

	s.Profile = profile
	s.Registered = true
	s.Open = false

	pending := s.PendingMLS
	s.PendingMLS = ""
	s.logger.Info("registration completed",
		zap.String("op", "registration.Complete"),
		zap.String("role", profile.Role),
		zap.String("context", profile.Context),
	)
	return pending, nil
}

// Defer records a listing to analyze after registration and opens the form.
func (s *Session) Defer(mls string, ctx navigation.Context) {
	s.PendingMLS = mls
	s.OpenFor(ctx)
}
