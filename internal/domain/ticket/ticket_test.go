package ticket

import (
	"errors"
	"strings"
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusOpen, StatusInProgress, true},
		{StatusOpen, StatusBlocked, true},
		{StatusOpen, StatusReview, false},
		{StatusOpen, StatusDone, false},
		{StatusInProgress, StatusReview, true},
		{StatusInProgress, StatusBlocked, true},
		{StatusInProgress, StatusDone, false},
		{StatusReview, StatusDone, true},
		{StatusReview, StatusInProgress, true},
		{StatusReview, StatusBlocked, true},
		{StatusBlocked, StatusInProgress, true},
		{StatusBlocked, StatusOpen, true},
		{StatusBlocked, StatusDone, false},
		{StatusDone, StatusOpen, false},
		{StatusDone, StatusInProgress, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !StatusDone.IsTerminal() {
		t.Error("done should be terminal")
	}
	for _, s := range []Status{StatusOpen, StatusInProgress, StatusReview, StatusBlocked} {
		if s.IsTerminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestValidStatus(t *testing.T) {
	if !ValidStatus(StatusReview) {
		t.Error("review should be valid")
	}
	if ValidStatus("archived") {
		t.Error("archived should not be valid")
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid", CreateRequest{Title: "Reduce token burn"}, false},
		{"missing title", CreateRequest{Description: "no title"}, true},
		{"whitespace title", CreateRequest{Title: "   "}, true},
		{"title too long", CreateRequest{Title: strings.Repeat("x", 256)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	empty := ""
	long := strings.Repeat("x", 256)
	title := "Tighten budget"

	tests := []struct {
		name    string
		req     UpdateRequest
		wantErr bool
	}{
		{"valid status", UpdateRequest{Status: StatusReview}, false},
		{"valid title", UpdateRequest{Title: &title}, false},
		{"no changes", UpdateRequest{}, false},
		{"empty title", UpdateRequest{Title: &empty}, true},
		{"long title", UpdateRequest{Title: &long}, true},
		{"unknown status", UpdateRequest{Status: "archived"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
