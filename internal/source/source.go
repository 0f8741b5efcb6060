// Package source loads the immutable file set one analysis run
// operates on. Every phase iterates the same Set, so the files seen by
// the graph and complexity passes are identical by construction.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/distill-dev/distill/internal/fileutil"
	"github.com/distill-dev/distill/internal/syntax"
)

// Predicate filters candidate paths before the engine sees them.
type Predicate func(relPath string, isDir bool) bool

const parseCacheSize = 1024

// File is one source file of the scanned set.
type File struct {
	Path     string // repo-relative, slash-separated
	Language string
	Content  []byte

	// ReadError is set when the file could not be read; the file stays
	// in the set and is treated as a parse failure downstream.
	ReadError string
}

// Empty reports whether the file has no non-whitespace content.
func (f *File) Empty() bool {
	return len(bytes.TrimSpace(f.Content)) == 0
}

type parseResult struct {
	file *syntax.File
	err  error
}

// Set is the scanned file collection plus a shared parse cache.
type Set struct {
	root     string
	files    []*File
	byPath   map[string]*File
	registry *syntax.Registry
	cache    *lru.Cache[string, parseResult]
}

// Scan walks root and collects every file claimed by the registry and
// not excluded by the ignore predicate. Files are sorted by path.
func Scan(ctx context.Context, root string, ignore Predicate, registry *syntax.Registry, log *zap.Logger) (*Set, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("repository root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("repository root %s is not a directory", root)
	}

	cache, err := lru.New[string, parseResult](parseCacheSize)
	if err != nil {
		return nil, err
	}
	s := &Set{
		root:     root,
		byPath:   make(map[string]*File),
		registry: registry,
		cache:    cache,
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}

		if ignore != nil && ignore(rel, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}

		adapter, ok := registry.ForPath(path)
		if !ok {
			return nil
		}

		f := &File{Path: rel, Language: adapter.Language()}
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warn("unreadable file kept as parse failure",
				zap.String("path", rel), zap.Error(err))
			f.ReadError = err.Error()
		} else {
			f.Content = content
		}
		s.files = append(s.files, f)
		s.byPath[rel] = f
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(s.files, func(i, j int) bool { return s.files[i].Path < s.files[j].Path })
	return s, nil
}

// Root returns the repository root the set was scanned from.
func (s *Set) Root() string {
	return s.root
}

// Files returns the set's files in path order. Callers must not mutate.
func (s *Set) Files() []*File {
	return s.files
}

func (s *Set) Len() int {
	return len(s.files)
}

// Has reports whether a repo-relative path is part of the set.
func (s *Set) Has(rel string) bool {
	_, ok := s.byPath[rel]
	return ok
}

// Get returns the file at a repo-relative path.
func (s *Set) Get(rel string) (*File, bool) {
	f, ok := s.byPath[rel]
	return f, ok
}

// Adapter returns the syntax adapter responsible for f.
func (s *Set) Adapter(f *File) (syntax.Adapter, bool) {
	return s.registry.ForPath(f.Path)
}

// Parse returns the structural view of f, cached by content hash so
// concurrent phases share the work. Parse failures are cached too;
// cancelled parses are not.
func (s *Set) Parse(ctx context.Context, f *File) (*syntax.File, error) {
	if f.ReadError != "" {
		return nil, errors.New(f.ReadError)
	}
	key := f.Path + "@" + fileutil.HashBytes(f.Content)
	if cached, ok := s.cache.Get(key); ok {
		return cached.file, cached.err
	}

	adapter, ok := s.registry.ForPath(f.Path)
	if !ok {
		return nil, fmt.Errorf("%s: no adapter registered", f.Path)
	}
	parsed, err := adapter.Parse(ctx, f.Path, f.Content)
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	s.cache.Add(key, parseResult{file: parsed, err: err})
	return parsed, err
}
