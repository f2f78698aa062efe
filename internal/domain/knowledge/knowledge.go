// Package knowledge defines the read-only documentation tree served from
// the workspace knowledge directory.
package knowledge

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/agentdeck/agentdeck/internal/domain"
)

// Doc describes one markdown document in the knowledge tree. Path is
// always relative to the knowledge root, slash-separated.
type Doc struct {
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is a Doc plus its content, returned by read operations.
type Document struct {
	Doc
	Content string `json:"content"`
}

// SearchResult is one matching line from a substring search.
type SearchResult struct {
	Path    string `json:"path"`
	Line    int    `json:"line"`
	Snippet string `json:"snippet"`
}

// CleanPath normalizes a client-supplied document path and rejects
// anything that could escape the knowledge root. The returned path is
// relative and slash-separated.
func CleanPath(p string) (string, error) {
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("path is required: %w", domain.ErrValidation)
	}
	if strings.Contains(p, "\\") {
		return "", fmt.Errorf("path contains backslashes: %w", domain.ErrValidation)
	}
	if strings.Contains(p, "\x00") {
		return "", fmt.Errorf("path contains null bytes: %w", domain.ErrValidation)
	}

	cleaned := path.Clean(p)
	if path.IsAbs(cleaned) {
		return "", fmt.Errorf("path must be relative: %w", domain.ErrValidation)
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("path escapes the knowledge root: %w", domain.ErrValidation)
	}
	return cleaned, nil
}

// IsMarkdown reports whether the path names a servable document.
func IsMarkdown(p string) bool {
	ext := strings.ToLower(path.Ext(p))
	return ext == ".md" || ext == ".markdown"
}
