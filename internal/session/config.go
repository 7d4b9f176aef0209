package session

import (
	apperrors "golang-reconciliation-session/pkg/errors"
)

// Config holds the per-session reconciliation policy.
type Config struct {
	// ToleranceCents is the balance-equality tolerance expressed in the
	// smallest currency unit. The difference must be strictly below it
	// for the session to count as balanced.
	ToleranceCents int64 `json:"tolerance_cents"`

	// AllowOverwriteOnRematch controls whether proposing a conflicting
	// match silently evicts the prior edge (true) or is rejected (false).
	AllowOverwriteOnRematch bool `json:"allow_overwrite_on_rematch"`

	// RequireAllLinesMatched additionally requires zero unmatched
	// statement lines before the finish action is accepted.
	RequireAllLinesMatched bool `json:"require_all_lines_matched"`
}

// DefaultConfig returns the default session policy: one cent tolerance,
// last-proposal-wins rematching, and no full-coverage requirement.
func DefaultConfig() Config {
	return Config{
		ToleranceCents:          1,
		AllowOverwriteOnRematch: true,
		RequireAllLinesMatched:  false,
	}
}

// Validate checks if the session configuration is valid.
func (c Config) Validate() error {
	if c.ToleranceCents < 0 {
		return apperrors.ConfigurationError(apperrors.CodeInvalidConfig,
			"tolerance_cents", c.ToleranceCents, nil)
	}
	return nil
}
