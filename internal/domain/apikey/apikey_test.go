package apikey

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

func TestHasScope(t *testing.T) {
	tests := []struct {
		name     string
		scopes   []string
		required string
		want     bool
	}{
		{"exact match", []string{ScopeRead}, ScopeRead, true},
		{"missing scope", []string{ScopeRead}, ScopeIngest, false},
		{"admin grants all", []string{ScopeAdmin}, ScopeIngest, true},
		{"admin grants read", []string{ScopeAdmin}, ScopeRead, true},
		{"multiple scopes", []string{ScopeRead, ScopeIngest}, ScopeIngest, true},
		{"no scopes grants nothing", nil, ScopeRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := &Key{Scopes: tt.scopes}
			if got := k.HasScope(tt.required); got != tt.want {
				t.Errorf("HasScope(%s) = %v, want %v", tt.required, got, tt.want)
			}
		})
	}
}

func TestActive(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		key  Key
		want bool
	}{
		{"fresh key", Key{}, true},
		{"expires later", Key{ExpiresAt: now.Add(time.Hour)}, true},
		{"expired", Key{ExpiresAt: now.Add(-time.Hour)}, false},
		{"revoked", Key{RevokedAt: now.Add(-time.Minute)}, false},
		{"revoked now", Key{RevokedAt: now}, false},
		{"revoked and expired", Key{RevokedAt: now.Add(-time.Minute), ExpiresAt: now.Add(-time.Hour)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.Active(now); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayPrefix(t *testing.T) {
	raw := KeyPrefix + strings.Repeat("a", 64)

	if got := DisplayPrefix(raw); got != "adk_aaaaaaaa" {
		t.Errorf("expected adk_aaaaaaaa, got %q", got)
	}
	if got := DisplayPrefix("adk_short"); got != "" {
		t.Errorf("expected empty for short key, got %q", got)
	}
	if got := DisplayPrefix("zzz_" + strings.Repeat("a", 64)); got != "" {
		t.Errorf("expected empty for wrong prefix, got %q", got)
	}
}

func TestCreateRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr bool
	}{
		{"valid", CreateRequest{Name: "dashboard", Scopes: []string{ScopeRead}}, false},
		{"all scopes", CreateRequest{Name: "ci", Scopes: []string{ScopeRead, ScopeIngest, ScopeAdmin}}, false},
		{"with expiry", CreateRequest{Name: "temp", Scopes: []string{ScopeRead}, ExpiresIn: 3600}, false},
		{"missing name", CreateRequest{Scopes: []string{ScopeRead}}, true},
		{"no scopes", CreateRequest{Name: "dashboard"}, true},
		{"unknown scope", CreateRequest{Name: "dashboard", Scopes: []string{"write"}}, true},
		{"negative expiry", CreateRequest{Name: "dashboard", Scopes: []string{ScopeRead}, ExpiresIn: -1}, true},
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
