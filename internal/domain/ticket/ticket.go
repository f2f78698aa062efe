// Package ticket defines the Ticket domain entity.
package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// Status represents the current state of a ticket.
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusReview, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// IsTerminal returns true if the ticket is in a final state.
func (s Status) IsTerminal() bool {
	return s == StatusDone
}

// CanTransition reports whether a ticket may move from s to next.
// The forward path is open -> in_progress -> review -> done; blocked is
// reachable from any active state and resumes into in_progress; review
// may bounce back to in_progress.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusOpen:
		return next == StatusInProgress || next == StatusBlocked
	case StatusInProgress:
		return next == StatusReview || next == StatusBlocked
	case StatusReview:
		return next == StatusDone || next == StatusInProgress || next == StatusBlocked
	case StatusBlocked:
		return next == StatusInProgress || next == StatusOpen
	}
	return false
}

// Ticket represents a unit of work that agents record activity against.
type Ticket struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      Status    `json:"status"`
	Assignee    string    `json:"assignee,omitempty"`
	Version     int       `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a new ticket.
type CreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
}

// Validate checks that the CreateRequest is well-formed.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required: %w", domain.ErrValidation)
	}
	if len(r.Title) > 255 {
		return fmt.Errorf("title exceeds 255 characters: %w", domain.ErrValidation)
	}
	return nil
}

// UpdateRequest holds the fields to update on an existing ticket. Version
// carries the expected current version for optimistic concurrency.
type UpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	Status      Status  `json:"status,omitempty"`
	Version     int     `json:"version"`
}

// Validate checks that the UpdateRequest is well-formed.
func (r *UpdateRequest) Validate() error {
	if r.Title != nil {
		if strings.TrimSpace(*r.Title) == "" {
			return fmt.Errorf("title cannot be empty: %w", domain.ErrValidation)
		}
		if len(*r.Title) > 255 {
			return fmt.Errorf("title exceeds 255 characters: %w", domain.ErrValidation)
		}
	}
	if r.Status != "" && !ValidStatus(r.Status) {
		return fmt.Errorf("unknown status %q: %w", r.Status, domain.ErrValidation)
	}
	return nil
}
