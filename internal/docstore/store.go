// Package docstore loads the document corpus and answers full-text queries
// over it.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"fedramphub/internal"
)

type LoadOptions struct {
	// ProseOnly drops code from HTML documents while loading.
	ProseOnly   bool
	Concurrency int
	Logger      *slog.Logger
}

// Store is an immutable set of loaded documents, sorted by id.
type Store struct {
	docs []internal.Document
	byID map[string]int
}

type source struct {
	category internal.DocumentCategory
	id       string
	path     string
	title    string
}

// Load resolves the manifest and reads every matched file. Missing roots and
// unreadable files are logged and skipped; only a cancelled context or a bad
// include pattern fails the load.
func Load(ctx context.Context, m Manifest, opts LoadOptions) (*Store, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = runtime.NumCPU()
	}

	sources, err := resolve(m, opts.Logger)
	if err != nil {
		return nil, err
	}

	docs := make([]*internal.Document, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(src.path)
			if err != nil {
				opts.Logger.Warn("skipping unreadable document", "path", src.path, "error", err)
				return nil
			}
			p, err := parseFile(src.path, content, opts.ProseOnly)
			if err != nil {
				opts.Logger.Warn("skipping unparseable document", "path", src.path, "error", err)
				return nil
			}
			title := src.title
			if title == "" {
				title = p.title
			}
			if title == "" {
				title = filepath.Base(src.path)
			}
			docs[i] = &internal.Document{ID: src.id, Title: title, Category: src.category, Path: src.path, Content: p.text}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]internal.Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	opts.Logger.Debug("documents loaded", "count", len(out), "candidates", len(sources))
	return NewStore(out), nil
}

// NewStore indexes docs by id. Later duplicates of an id are dropped.
func NewStore(docs []internal.Document) *Store {
	s := &Store{byID: map[string]int{}}
	sorted := append([]internal.Document(nil), docs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	for _, d := range sorted {
		if _, ok := s.byID[d.ID]; ok {
			continue
		}
		s.byID[d.ID] = len(s.docs)
		s.docs = append(s.docs, d)
	}
	return s
}

func resolve(m Manifest, logger *slog.Logger) ([]source, error) {
	out := []source{}
	seen := map[string]struct{}{}
	add := func(c CategorySpec, rel, title string) {
		rel = path.Clean(filepath.ToSlash(rel))
		id := c.Label + "/" + rel
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, source{category: c.Name, id: id, path: filepath.Join(c.Root, filepath.FromSlash(rel)), title: title})
	}

	for _, c := range m.Categories {
		info, err := os.Stat(c.Root)
		if err != nil || !info.IsDir() {
			logger.Warn("document root not found", "category", c.Name, "root", c.Root)
			continue
		}

		titles := map[string]string{}
		for _, d := range c.Documents {
			titles[path.Clean(filepath.ToSlash(d.File))] = d.Title
		}

		fsys := os.DirFS(c.Root)
		for _, pattern := range c.Include {
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("category %s: invalid include pattern %q", c.Name, pattern)
			}
			matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("category %s: glob %q: %w", c.Name, pattern, err)
			}
			sort.Strings(matches)
			for _, rel := range matches {
				if Supported(rel) {
					add(c, rel, titles[rel])
				}
			}
		}
		for _, d := range c.Documents {
			if _, err := fs.Stat(fsys, filepath.ToSlash(d.File)); errors.Is(err, fs.ErrNotExist) {
				logger.Warn("manifest document not found", "category", c.Name, "file", d.File)
				continue
			}
			add(c, d.File, d.Title)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out, nil
}

func (s *Store) Len() int { return len(s.docs) }

// Documents returns all documents sorted by id.
func (s *Store) Documents() []internal.Document {
	return append([]internal.Document(nil), s.docs...)
}

func (s *Store) Get(id string) (internal.Document, bool) {
	i, ok := s.byID[id]
	if !ok {
		return internal.Document{}, false
	}
	return s.docs[i], true
}

// Find looks a document up by id, then by file name or title, ignoring case.
func (s *Store) Find(name string) (internal.Document, bool) {
	if d, ok := s.Get(name); ok {
		return d, true
	}
	for _, d := range s.docs {
		if strings.EqualFold(path.Base(d.ID), name) || strings.EqualFold(d.Title, name) {
			return d, true
		}
	}
	return internal.Document{}, false
}

func (s *Store) ByCategory(category internal.DocumentCategory) []internal.Document {
	out := []internal.Document{}
	for _, d := range s.docs {
		if d.Category == category {
			out = append(out, d)
		}
	}
	return out
}
