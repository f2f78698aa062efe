package knowledge

import (
	"errors"
	"testing"

	"github.com/agentdeck/agentdeck/internal/domain"
)

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"simple", "guides/costs.md", "guides/costs.md", false},
		{"dot segments collapse", "guides/./costs.md", "guides/costs.md", false},
		{"internal updir collapses", "guides/sub/../costs.md", "guides/costs.md", false},
		{"empty", "", "", true},
		{"whitespace", "   ", "", true},
		{"absolute", "/etc/passwd", "", true},
		{"escape", "../secrets.md", "", true},
		{"nested escape", "guides/../../secrets.md", "", true},
		{"bare updir", "..", "", true},
		{"backslash", `guides\costs.md`, "", true},
		{"null byte", "guides/\x00.md", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanPath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CleanPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				if !errors.Is(err, domain.ErrValidation) {
					t.Errorf("expected ErrValidation, got: %v", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestIsMarkdown(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"costs.md", true},
		{"costs.MD", true},
		{"costs.markdown", true},
		{"costs.txt", false},
		{"costs", false},
	}
	for _, tt := range tests {
		if got := IsMarkdown(tt.path); got != tt.want {
			t.Errorf("IsMarkdown(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
