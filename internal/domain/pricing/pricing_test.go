package pricing

import (
	"errors"
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain"
)

func testEntries() []Entry {
	return []Entry{
		{Model: "gpt-4o", InputPer1KMicro: 2500, OutputPer1KMicro: 10000},
		{Model: "claude-sonnet-4", InputPer1KMicro: 3000, OutputPer1KMicro: 15000},
		{Model: FallbackModel, InputPer1KMicro: 15000, OutputPer1KMicro: 75000},
	}
}

func TestNewTableRequiresFallback(t *testing.T) {
	_, err := NewTable([]Entry{
		{Model: "gpt-4o", InputPer1KMicro: 2500, OutputPer1KMicro: 10000},
	})
	if err == nil {
		t.Fatal("expected error for missing fallback entry")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected ErrValidation, got: %v", err)
	}
}

func TestResolveExact(t *testing.T) {
	table, err := NewTable(testEntries())
	if err != nil {
		t.Fatal(err)
	}

	e, exact := table.Resolve("gpt-4o")
	if !exact {
		t.Error("expected exact match for gpt-4o")
	}
	if e.InputPer1KMicro != 2500 {
		t.Errorf("expected input price 2500, got %d", e.InputPer1KMicro)
	}
}

func TestResolveNormalizes(t *testing.T) {
	table, err := NewTable(testEntries())
	if err != nil {
		t.Fatal(err)
	}

	e, exact := table.Resolve("  GPT-4o ")
	if !exact {
		t.Error("expected exact match after normalization")
	}
	if e.Model != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %s", e.Model)
	}
}

func TestResolveUnknownUsesFallback(t *testing.T) {
	table, err := NewTable(testEntries())
	if err != nil {
		t.Fatal(err)
	}

	e, exact := table.Resolve("some-future-model")
	if exact {
		t.Error("unknown model must not report an exact match")
	}
	if e.InputPer1KMicro != 15000 || e.OutputPer1KMicro != 75000 {
		t.Errorf("expected fallback prices, got %+v", e)
	}
}

func TestEntriesSorted(t *testing.T) {
	table, err := NewTable(testEntries())
	if err != nil {
		t.Fatal(err)
	}

	entries := table.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Model > entries[i].Model {
			t.Errorf("entries not sorted: %s > %s", entries[i-1].Model, entries[i].Model)
		}
	}
}

func TestEntryValidate(t *testing.T) {
	tests := []struct {
		name    string
		entry   Entry
		wantErr bool
	}{
		{"valid", Entry{Model: "m", InputPer1KMicro: 100, OutputPer1KMicro: 200}, false},
		{"free model", Entry{Model: "local-llama"}, false},
		{"missing model", Entry{InputPer1KMicro: 100}, true},
		{"negative input price", Entry{Model: "m", InputPer1KMicro: -1}, true},
		{"negative output price", Entry{Model: "m", OutputPer1KMicro: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCatalogHasFallback(t *testing.T) {
	table, err := NewTable(Catalog())
	if err != nil {
		t.Fatalf("catalog must build a valid table: %v", err)
	}
	fb := table.Fallback()
	if fb.Model != FallbackModel {
		t.Errorf("expected fallback model, got %s", fb.Model)
	}
	if fb.InputPer1KMicro == 0 && fb.OutputPer1KMicro == 0 {
		t.Error("fallback tier must not be free: unknown models would report zero cost")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"GPT-4o", "gpt-4o"},
		{"  claude-sonnet-4  ", "claude-sonnet-4"},
		{"already-lower", "already-lower"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
