package catalog

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
)

// Set holds one catalog per language. Lookups select a catalog by exact
// tag; there is no fallback between related languages.
type Set struct {
	byTag map[language.Tag]*Catalog
}

// LoadAll loads the given .ts files concurrently. Every file must declare a
// distinct language. The first failure cancels the remaining loads.
func LoadAll(ctx context.Context, paths []string, opts ...Option) (*Set, error) {
	cats := make([]*Catalog, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			c, err := Load(path, opts...)
			if err != nil {
				return err
			}
			if c.Language() == language.Und {
				return fmt.Errorf("%s: %w", path, ErrNoLanguage)
			}
			cats[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &Set{byTag: make(map[language.Tag]*Catalog, len(cats))}
	for i, c := range cats {
		if _, dup := s.byTag[c.Language()]; dup {
			return nil, fmt.Errorf("%s: language %s already loaded", paths[i], c.Language())
		}
		s.byTag[c.Language()] = c
	}
	return s, nil
}

// Get returns the catalog for tag.
func (s *Set) Get(tag language.Tag) (*Catalog, bool) {
	c, ok := s.byTag[tag]
	return c, ok
}

// Languages returns the loaded languages sorted by tag string.
func (s *Set) Languages() []language.Tag {
	tags := make([]language.Tag, 0, len(s.byTag))
	for t := range s.byTag {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].String() < tags[j].String() })
	return tags
}
