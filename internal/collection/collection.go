// Package collection persists saved example grammars and the most recent
// working grammar as JSON files on a billy filesystem.
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/agentic-research/mggraph/api"
	"github.com/agentic-research/mggraph/internal/mg"
)

// File names inside the collection directory.
const (
	ExamplesFile = "mg.json"
	RecentFile   = "recent.json"
)

var ErrMissingTitle = errors.New("example title is required")

// Store reads and writes the collection files.
type Store struct {
	fs billy.Filesystem
	mu sync.Mutex
}

// New wraps an existing filesystem, e.g. memfs in tests.
func New(bfs billy.Filesystem) *Store {
	return &Store{fs: bfs}
}

// Open returns a Store rooted at dir on the host filesystem.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create collection dir %s: %w", dir, err)
	}
	return New(osfs.New(dir)), nil
}

// List returns every saved example. A missing file is an empty collection.
func (s *Store) List() ([]api.Example, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

func (s *Store) list() ([]api.Example, error) {
	data, err := util.ReadFile(s.fs, ExamplesFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []api.Example{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", ExamplesFile, err)
	}
	var out []api.Example
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", ExamplesFile, err)
	}
	return out, nil
}

// Save adds ex to the collection, replacing any example with the same title.
func (s *Store) Save(ex api.Example) error {
	ex.Title = strings.TrimSpace(ex.Title)
	if ex.Title == "" {
		return ErrMissingTitle
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.list()
	if err != nil {
		return err
	}
	replaced := false
	for i := range all {
		if all[i].Title == ex.Title {
			all[i] = ex
			replaced = true
		}
	}
	if !replaced {
		all = append(all, ex)
	}
	return s.write(ExamplesFile, all)
}

// Get returns the example with the given title.
func (s *Store) Get(title string) (api.Example, bool, error) {
	all, err := s.List()
	if err != nil {
		return api.Example{}, false, err
	}
	for _, ex := range all {
		if ex.Title == title {
			return ex, true, nil
		}
	}
	return api.Example{}, false, nil
}

// SaveRecent records the working grammar's interchange document.
func (s *Store) SaveRecent(doc api.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(RecentFile, doc)
}

// LoadRecent reads the document written by SaveRecent.
func (s *Store) LoadRecent() (*mg.Grammar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := util.ReadFile(s.fs, RecentFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", RecentFile, err)
	}
	return mg.UnmarshalDocument(data)
}

func (s *Store) write(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if err := util.WriteFile(s.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// FromGrammar builds an example whose grammar lines are the canonical
// rendering of g.
func FromGrammar(title, lang string, g *mg.Grammar) api.Example {
	lines := make([]string, 0, g.Len())
	for _, li := range g.Items() {
		lines = append(lines, li.String())
	}
	return api.Example{Title: title, Lang: lang, Grammar: lines}
}

// Text joins an example's grammar lines into classifier input.
func Text(ex api.Example) string {
	return strings.Join(ex.Grammar, "\n")
}
