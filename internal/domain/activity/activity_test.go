package activity

import (
	"errors"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

func TestTotalTokens(t *testing.T) {
	a := Activity{InputTokens: 1200, OutputTokens: 800}
	if got := a.TotalTokens(); got != 2000 {
		t.Errorf("expected 2000, got %d", got)
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		a    Activity
		want bool
	}{
		{"ok", Activity{AgentID: "a1", InputTokens: 10, OutputTokens: 5}, true},
		{"zero tokens ok", Activity{AgentID: "a1"}, true},
		{"missing agent", Activity{InputTokens: 10}, false},
		{"negative input", Activity{AgentID: "a1", InputTokens: -1}, false},
		{"negative output", Activity{AgentID: "a1", OutputTokens: -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid", CreateRequest{AgentID: "a1", Model: "gpt-4o", InputTokens: 100, OutputTokens: 50}, false},
		{"missing agent", CreateRequest{Model: "gpt-4o"}, true},
		{"missing model", CreateRequest{AgentID: "a1"}, true},
		{"negative input", CreateRequest{AgentID: "a1", Model: "m", InputTokens: -1}, true},
		{"negative output", CreateRequest{AgentID: "a1", Model: "m", OutputTokens: -5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})
	}
}

func TestFilterValidate(t *testing.T) {
	now := time.Now()

	f := Filter{Start: now, End: now.Add(-time.Hour)}
	err := f.Validate()
	if err == nil {
		t.Fatal("expected error for inverted window")
	}
	if !errors.Is(err, domain.ErrRange) {
		t.Errorf("expected ErrRange, got: %v", err)
	}

	ok := Filter{Start: now.Add(-time.Hour), End: now}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid window should pass, got: %v", err)
	}

	unbounded := Filter{}
	if err := unbounded.Validate(); err != nil {
		t.Errorf("unbounded window should pass, got: %v", err)
	}
}
