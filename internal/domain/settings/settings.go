// Package settings defines the domain types for application settings.
package settings

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// Setting represents one namespaced configuration value. Namespace groups
// related settings (dashboard, alerts); Key identifies the value within it.
type Setting struct {
	Namespace string          `json:"namespace"`
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// namePattern admits lowercase dotted identifiers like "dashboard" or
// "alerts.email".
var namePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)*$`)

// UpdateRequest holds the values to upsert within one namespace.
type UpdateRequest struct {
	Namespace string                     `json:"namespace"`
	Settings  map[string]json.RawMessage `json:"settings"`
}

// Validate checks names and that every value is standalone valid JSON.
func (r *UpdateRequest) Validate() error {
	if !namePattern.MatchString(r.Namespace) {
		return fmt.Errorf("invalid namespace %q: %w", r.Namespace, domain.ErrValidation)
	}
	if len(r.Settings) == 0 {
		return fmt.Errorf("settings cannot be empty: %w", domain.ErrValidation)
	}
	for key, value := range r.Settings {
		if !namePattern.MatchString(key) {
			return fmt.Errorf("invalid setting key %q: %w", key, domain.ErrValidation)
		}
		if !json.Valid(value) {
			return fmt.Errorf("setting %q is not valid JSON: %w", key, domain.ErrValidation)
		}
	}
	return nil
}
