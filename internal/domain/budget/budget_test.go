package budget

import (
	"errors"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/cost"
)

func TestMonthKey(t *testing.T) {
	ts := time.Date(2026, 8, 23, 17, 45, 0, 0, time.UTC)
	got := MonthKey(ts)

	want := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestConfigured(t *testing.T) {
	if (Config{}).Configured() {
		t.Error("zero config should be unconfigured")
	}
	if !(Config{TotalMicro: cost.FromUSD(100)}).Configured() {
		t.Error("non-zero total should be configured")
	}
}

func TestUpdateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     UpdateRequest
		wantErr bool
	}{
		{"valid", UpdateRequest{Month: "2026-08", TotalUSD: 100}, false},
		{"current month default", UpdateRequest{TotalUSD: 50}, false},
		{"clear budget", UpdateRequest{TotalUSD: 0}, false},
		{"negative total", UpdateRequest{TotalUSD: -1}, true},
		{"bad month format", UpdateRequest{Month: "08/2026", TotalUSD: 10}, true},
		{"bad currency", UpdateRequest{TotalUSD: 10, Currency: "EUR"}, true},
		{"explicit usd", UpdateRequest{TotalUSD: 10, Currency: "USD"}, false},
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

func TestResolveMonth(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	r := UpdateRequest{Month: "2026-09"}
	if got := r.ResolveMonth(now); !got.Equal(time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected September, got %v", got)
	}

	r = UpdateRequest{}
	if got := r.ResolveMonth(now); !got.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected current month, got %v", got)
	}
}
