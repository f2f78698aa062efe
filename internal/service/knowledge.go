package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/agentdeck/agentdeck/internal/domain"
	"github.com/agentdeck/agentdeck/internal/domain/knowledge"
)

// Search bounds.
const (
	maxSearchResults  = 100
	searchConcurrency = 8
	maxSnippetLen     = 200
)

// KnowledgeService serves the read-only markdown tree under the configured
// knowledge directory. Paths from clients are normalized and confined to
// the root before touching the filesystem.
type KnowledgeService struct {
	root string
	sem  *semaphore.Weighted
}

// NewKnowledgeService creates a KnowledgeService rooted at dir.
func NewKnowledgeService(dir string) *KnowledgeService {
	return &KnowledgeService{
		root: dir,
		sem:  semaphore.NewWeighted(searchConcurrency),
	}
}

// List returns every markdown document under the root, sorted by path.
// A missing root directory is an empty tree, not an error.
func (s *KnowledgeService) List(_ context.Context) ([]knowledge.Doc, error) {
	docs := []knowledge.Doc{}
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return walkErr
			}
			return nil // skip unreadable entries
		}
		if d.IsDir() || !knowledge.IsMarkdown(d.Name()) {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}

		docs = append(docs, knowledge.Doc{
			Path:      filepath.ToSlash(rel),
			Name:      d.Name(),
			Size:      info.Size(),
			UpdatedAt: info.ModTime().UTC(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return docs, nil
		}
		return nil, fmt.Errorf("walk knowledge dir: %w", err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Read returns one document with its content.
func (s *KnowledgeService) Read(_ context.Context, relPath string) (*knowledge.Document, error) {
	clean, err := knowledge.CleanPath(relPath)
	if err != nil {
		return nil, err
	}
	if !knowledge.IsMarkdown(clean) {
		return nil, fmt.Errorf("only markdown documents are served: %w", domain.ErrValidation)
	}

	full := filepath.Join(s.root, filepath.FromSlash(clean))
	data, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", clean, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("read document: %w", err)
	}

	doc := knowledge.Doc{Path: clean, Name: filepath.Base(full)}
	if info, err := os.Stat(full); err == nil {
		doc.Size = info.Size()
		doc.UpdatedAt = info.ModTime().UTC()
	}

	return &knowledge.Document{Doc: doc, Content: string(data)}, nil
}

// Search scans all documents for a case-insensitive substring, reading
// files concurrently under a bounded semaphore. Results are ordered by
// path then line and capped.
func (s *KnowledgeService) Search(ctx context.Context, query string) ([]knowledge.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", domain.ErrValidation)
	}
	needle := strings.ToLower(query)

	docs, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []knowledge.SearchResult
	)
	for _, d := range docs {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return nil, err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.sem.Release(1)

			matches := s.scan(d, needle)
			if len(matches) == 0 {
				return
			}
			mu.Lock()
			results = append(results, matches...)
			mu.Unlock()
		}()
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Path != results[j].Path {
			return results[i].Path < results[j].Path
		}
		return results[i].Line < results[j].Line
	})
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return results, nil
}

// scan returns every line of one document containing the needle.
func (s *KnowledgeService) scan(d knowledge.Doc, needle string) []knowledge.SearchResult {
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(d.Path)))
	if err != nil {
		return nil
	}

	var matches []knowledge.SearchResult
	for i, line := range strings.Split(string(data), "\n") {
		if !strings.Contains(strings.ToLower(line), needle) {
			continue
		}
		matches = append(matches, knowledge.SearchResult{
			Path:    d.Path,
			Line:    i + 1,
			Snippet: snippet(line),
		})
	}
	return matches
}

// snippet trims a matched line for display.
func snippet(line string) string {
	line = strings.TrimSpace(line)
	if len(line) > maxSnippetLen {
		line = line[:maxSnippetLen]
	}
	return line
}
