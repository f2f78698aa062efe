// Package agent defines the Agent domain entity.
package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// Status represents the liveness of an agent, derived from its last
// heartbeat rather than stored.
type Status string

const (
	StatusActive  Status = "active"
	StatusIdle    Status = "idle"
	StatusOffline Status = "offline"
)

// Heartbeat staleness thresholds for status derivation.
const (
	IdleAfter    = 5 * time.Minute
	OfflineAfter = 30 * time.Minute
)

// StatusAt derives the agent's status from its last heartbeat. An agent
// that never sent one is offline.
func StatusAt(lastSeen, now time.Time) Status {
	if lastSeen.IsZero() {
		return StatusOffline
	}
	age := now.Sub(lastSeen)
	switch {
	case age >= OfflineAfter:
		return StatusOffline
	case age >= IdleAfter:
		return StatusIdle
	}
	return StatusActive
}

// Agent represents a registered AI coding agent reporting usage.
type Agent struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Kind      string            `json:"kind"`
	Model     string            `json:"model,omitempty"`
	Labels    map[string]string `json:"labels,omitempty"`
	Status    Status            `json:"status"`
	LastSeen  time.Time         `json:"last_seen"`
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// RegisterRequest holds the fields needed to register a new agent.
type RegisterRequest struct {
	Name   string            `json:"name"`
	Kind   string            `json:"kind"`
	Model  string            `json:"model,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

// Validate checks that the RegisterRequest is well-formed.
func (r *RegisterRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name is required: %w", domain.ErrValidation)
	}
	if len(r.Name) > 255 {
		return fmt.Errorf("name exceeds 255 characters: %w", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Kind) == "" {
		return fmt.Errorf("kind is required: %w", domain.ErrValidation)
	}
	return nil
}

// Heartbeat is the payload an agent posts to signal liveness. Model is
// optional and updates the agent's default model when present.
type Heartbeat struct {
	Model string `json:"model,omitempty"`
}
