package registration

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/iwvelando/deal-analyzer/internal/navigation"
	"github.com/iwvelando/deal-analyzer/internal/store"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"go.uber.org/zap"
)

// Profile is the registered user record.
type Profile struct {
	First   string            `json:"first"`
	Last    string            `json:"last"`
	Email   string            `json:"email"`
	Phone   string            `json:"phone"`
	Role    string            `json:"role"`
	Context string            `json:"context,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// ProfileRepository saves the single registered profile under one key.
type ProfileRepository struct {
	logger *zap.Logger
	store  store.Store
	key    string
}

// NewProfileRepository wraps a store. The profile lives under
// constants.ProfileKey.
func NewProfileRepository(logger *zap.Logger, s store.Store) *ProfileRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileRepository{logger: logger, store: s, key: constants.ProfileKey}
}

// Save writes the profile.
func (r *ProfileRepository) Save(ctx context.Context, p Profile) error {
	encoded, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.store.Set(ctx, r.key, string(encoded)); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Load reads the profile. ok is false when nothing usable is stored: no
// value, an undecodable value, or a profile without an email address.
func (r *ProfileRepository) Load(ctx context.Context) (Profile, bool, error) {
	raw, found, err := r.store.Get(ctx, r.key)
	if err != nil {
		return Profile{}, false, fmt.Errorf("failed to load profile: %w", err)
	}
	if !found {
		return Profile{}, false, nil
	}

	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		r.logger.Warn("ignoring undecodable stored profile",
			zap.String("op", "registration.ProfileRepository.Load"),
			zap.Error(err),
		)
		return Profile{}, false, nil
	}
	if strings.TrimSpace(p.Email) == "" {
		return Profile{}, false, nil
	}
	if p.Role == "" {
		p.Role = navigation.RoleBuyer
	}
	return p, true, nil
}
