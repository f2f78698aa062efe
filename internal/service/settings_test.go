package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/settings"
)

func TestSettingsServiceUpdateAndList(t *testing.T) {
	store := &mockStore{}
	svc := NewSettingsService(store)

	err := svc.Update(context.Background(), settings.UpdateRequest{
		Namespace: "dashboard",
		Settings: map[string]json.RawMessage{
			"theme":        json.RawMessage(`"dark"`),
			"refresh_secs": json.RawMessage(`30`),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.List(context.Background(), "dashboard")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 settings, got %d", len(got))
	}
}

func TestSettingsServiceUpdateReplacesValue(t *testing.T) {
	store := &mockStore{}
	svc := NewSettingsService(store)

	for _, theme := range []string{`"dark"`, `"light"`} {
		err := svc.Update(context.Background(), settings.UpdateRequest{
			Namespace: "dashboard",
			Settings:  map[string]json.RawMessage{"theme": json.RawMessage(theme)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	s, err := svc.Get(context.Background(), "dashboard", "theme")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(s.Value) != `"light"` {
		t.Fatalf("expected the replaced value, got %s", s.Value)
	}
	if len(store.settings) != 1 {
		t.Fatalf("expected a single row after replacement, got %d", len(store.settings))
	}
}

func TestSettingsServiceUpdateValidation(t *testing.T) {
	svc := NewSettingsService(&mockStore{})

	cases := []settings.UpdateRequest{
		{Namespace: "Dash Board", Settings: map[string]json.RawMessage{"k": json.RawMessage(`1`)}},
		{Namespace: "dashboard", Settings: map[string]json.RawMessage{}},
		{Namespace: "dashboard", Settings: map[string]json.RawMessage{"BadKey": json.RawMessage(`1`)}},
		{Namespace: "dashboard", Settings: map[string]json.RawMessage{"theme": json.RawMessage(`{broken`)}},
	}
	for _, req := range cases {
		if err := svc.Update(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("expected ErrValidation for %+v, got %v", req, err)
		}
	}
}

func TestSettingsServiceGetRequiresNames(t *testing.T) {
	svc := NewSettingsService(&mockStore{})

	if _, err := svc.Get(context.Background(), "", "theme"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "dashboard", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestSettingsServiceGetNotFound(t *testing.T) {
	svc := NewSettingsService(&mockStore{})

	_, err := svc.Get(context.Background(), "dashboard", "theme")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsServiceListAllNamespaces(t *testing.T) {
	store := &mockStore{}
	svc := NewSettingsService(store)

	for _, ns := range []string{"dashboard", "alerts"} {
		err := svc.Update(context.Background(), settings.UpdateRequest{
			Namespace: ns,
			Settings:  map[string]json.RawMessage{"enabled": json.RawMessage(`true`)},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := svc.List(context.Background(), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected settings across namespaces, got %d", len(all))
	}
}
