// Package apikey defines stored API keys and their scopes. Keys are not
// tied to user accounts; each key is its own principal, minted from the
// admin CLI.
package apikey

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// KeyPrefix is prepended to generated API keys for identification.
const KeyPrefix = "adk_"

// DisplayPrefixLen is how much of the raw key is stored and shown for
// identification: the prefix plus the first 8 secret characters.
const DisplayPrefixLen = len(KeyPrefix) + 8

// API key scopes.
const (
	ScopeRead   = "read"
	ScopeIngest = "ingest"
	ScopeAdmin  = "admin"
)

// ValidScopes is the set of all valid API key scopes.
var ValidScopes = map[string]bool{
	ScopeRead:   true,
	ScopeIngest: true,
	ScopeAdmin:  true,
}

// Key represents a stored API key. The secret itself is only ever held as
// a bcrypt hash; the raw key is shown once at mint time.
type Key struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Prefix     string    `json:"prefix"`
	SecretHash string    `json:"-"`
	Scopes     []string  `json:"scopes"`
	ExpiresAt  time.Time `json:"expires_at,omitzero"`
	RevokedAt  time.Time `json:"revoked_at,omitzero"`
	CreatedAt  time.Time `json:"created_at"`
}

// Active reports whether the key is usable at the given instant.
func (k *Key) Active(now time.Time) bool {
	if !k.RevokedAt.IsZero() && !now.Before(k.RevokedAt) {
		return false
	}
	if !k.ExpiresAt.IsZero() && now.After(k.ExpiresAt) {
		return false
	}
	return true
}

// HasScope checks whether the key grants the required scope. The admin
// scope grants everything; a key with no scopes grants nothing.
func (k *Key) HasScope(required string) bool {
	for _, s := range k.Scopes {
		if s == required || s == ScopeAdmin {
			return true
		}
	}
	return false
}

// DisplayPrefix cuts the identifying prefix off a raw key for lookup and
// display. Returns an empty string for keys too short to carry one.
func DisplayPrefix(raw string) string {
	if !strings.HasPrefix(raw, KeyPrefix) || len(raw) < DisplayPrefixLen {
		return ""
	}
	return raw[:DisplayPrefixLen]
}

// CreateRequest is the input for minting a new API key.
type CreateRequest struct {
	Name      string   `json:"name"`
	Scopes    []string `json:"scopes"`
	ExpiresIn int      `json:"expires_in,omitempty"` // seconds; 0 = no expiry
}

// Validate checks that the CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(r.Scopes) == 0 {
		return fmt.Errorf("at least one scope is required: %w", domain.ErrValidation)
	}
	for _, s := range r.Scopes {
		if !ValidScopes[s] {
			return fmt.Errorf("invalid scope %q: %w", s, domain.ErrValidation)
		}
	}
	if r.ExpiresIn < 0 {
		return fmt.Errorf("expires_in cannot be negative: %w", domain.ErrValidation)
	}
	return nil
}

// CreateResponse is returned after minting a key. PlainKey is only shown
// once.
type CreateResponse struct {
	Key      Key    `json:"key"`
	PlainKey string `json:"plain_key"`
}
