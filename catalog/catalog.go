// Package catalog is the runtime side of a .ts translation file: it loads a
// document once and answers lookups keyed by (context, source, comment).
//
// Only finished translations of active messages are visible to lookups.
// Unfinished messages count as missing, and obsolete or vanished messages
// are kept solely for translation-memory queries (see Memory). A Catalog is
// never modified after construction and may be shared between goroutines.
package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/minios-linux/tskit/logging"
	"github.com/minios-linux/tskit/numerus"
	"github.com/minios-linux/tskit/tsfile"
)

// ErrNoLanguage is returned when a catalog has no usable language attribute
// where one is required.
var ErrNoLanguage = errors.New("catalog has no language")

type entry struct {
	translation string
	forms       []string
	numerus     bool
}

// Suggestion is a translation-memory hit.
type Suggestion struct {
	Context     string
	Comment     string
	Translation string
	// Obsolete is true when the hit comes from an obsolete message.
	Obsolete bool
}

// Catalog is an immutable lookup index over one .ts document.
type Catalog struct {
	lang     language.Tag
	code     string
	entries  map[tsfile.Key]entry
	memory   map[string][]Suggestion
	contexts []string

	strict bool
	logger zerolog.Logger
	// missing deduplicates strict-mode warnings; the key is context+"\x00"+source.
	missing sync.Map
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used for load and missing-key messages.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Catalog) { c.logger = l }
}

// WithStrict makes Translate and TranslateN log each missing key once at
// warn level.
func WithStrict(strict bool) Option {
	return func(c *Catalog) { c.strict = strict }
}

// WithLanguage sets the language used when the document's TS element has
// no language attribute.
func WithLanguage(code string) Option {
	return func(c *Catalog) {
		if c.code == "" {
			c.code = code
		}
	}
}

// Load reads and indexes a .ts file. Malformed XML yields an error wrapping
// *tsfile.ParseError; callers are expected to keep showing source strings.
func Load(path string, opts ...Option) (*Catalog, error) {
	f, err := tsfile.ParseFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	c := New(f, opts...)
	c.logger.Debug().
		Str("path", path).
		Str("language", c.code).
		Int("messages", len(c.entries)).
		Msg("Loaded catalog")
	return c, nil
}

// New indexes an already parsed document. The document may be modified
// afterwards without affecting the catalog.
func New(f *tsfile.File, opts ...Option) *Catalog {
	c := &Catalog{
		code:    f.Language,
		entries: make(map[tsfile.Key]entry),
		memory:  make(map[string][]Suggestion),
		logger:  logging.For("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.lang = language.Und
	if c.code != "" {
		tag, err := numerus.ParseTag(c.code)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Unknown catalog language, using default plural rules")
		} else {
			c.lang = tag
		}
	}

	seen := make(map[string]bool)
	for _, ctx := range f.Contexts {
		if !seen[ctx.Name] {
			seen[ctx.Name] = true
			c.contexts = append(c.contexts, ctx.Name)
		}
		for _, m := range ctx.Messages {
			c.index(ctx.Name, m)
		}
	}
	return c
}

func (c *Catalog) index(ctxName string, m *tsfile.Message) {
	if m.HasText() {
		text := m.Translation
		for _, f := range m.NumerusForms {
			if m.Numerus && f != "" {
				text = f
				break
			}
		}
		c.memory[m.Source] = append(c.memory[m.Source], Suggestion{
			Context:     ctxName,
			Comment:     m.Comment,
			Translation: text,
			Obsolete:    !m.IsActive(),
		})
	}

	// Only finished messages compete for a key, as in a released .qm file.
	if !m.IsActive() || !m.IsTranslated() {
		return
	}

	k := tsfile.Key{Context: ctxName, Source: m.Source, Comment: m.Comment}
	if _, dup := c.entries[k]; dup {
		c.logger.Warn().
			Str("context", k.Context).
			Str("source", k.Source).
			Str("comment", k.Comment).
			Msg("Duplicate message, keeping the first finished translation")
		return
	}
	e := entry{translation: m.Translation, numerus: m.Numerus}
	if m.Numerus {
		e.forms = append([]string(nil), m.NumerusForms...)
	}
	c.entries[k] = e
}

// ---------------------------------------------------------------------------
// Lookups
// ---------------------------------------------------------------------------

// Lookup returns the translation for the exact (context, source, comment)
// triple. For numerus messages the first form is returned.
func (c *Catalog) Lookup(context, source, comment string) (string, bool) {
	e, ok := c.entries[tsfile.Key{Context: context, Source: source, Comment: comment}]
	if !ok {
		return "", false
	}
	if e.numerus {
		return e.forms[0], true
	}
	return e.translation, true
}

// PluralLookup returns the numerus form for count n under the catalog
// language's plural rule. "%n" is left for the caller to substitute.
// Messages without numerus forms return their plain translation.
func (c *Catalog) PluralLookup(context, source, comment string, n int) (string, bool) {
	e, ok := c.entries[tsfile.Key{Context: context, Source: source, Comment: comment}]
	if !ok {
		return "", false
	}
	if !e.numerus {
		return e.translation, true
	}
	return numerus.Select(c.lang, e.forms, n), true
}

// Translate returns the text to display: the exact match, then the same
// source without a comment, then the source itself.
func (c *Catalog) Translate(context, source, comment string) string {
	if s, ok := c.Lookup(context, source, comment); ok {
		return s
	}
	if comment != "" {
		if s, ok := c.Lookup(context, source, ""); ok {
			return s
		}
	}
	c.logMissing(context, source)
	return source
}

// TranslateN is Translate for plural messages, with "%n" replaced by n.
func (c *Catalog) TranslateN(context, source, comment string, n int) string {
	s, ok := c.PluralLookup(context, source, comment, n)
	if !ok && comment != "" {
		s, ok = c.PluralLookup(context, source, "", n)
	}
	if !ok {
		c.logMissing(context, source)
		s = source
	}
	return ExpandCount(s, n)
}

// ExpandCount replaces every "%n" in s with n.
func ExpandCount(s string, n int) string {
	return strings.ReplaceAll(s, "%n", strconv.Itoa(n))
}

func (c *Catalog) logMissing(context, source string) {
	if !c.strict {
		return
	}
	id := context + "\x00" + source
	if _, loaded := c.missing.LoadOrStore(id, struct{}{}); !loaded {
		c.logger.Warn().
			Str("language", c.code).
			Str("context", context).
			Str("source", source).
			Msg("Missing translation")
	}
}

// Memory returns every known translation of source, including obsolete
// ones, in document order. It is meant for translator tooling; runtime
// lookups never consult obsolete text.
func (c *Catalog) Memory(source string) []Suggestion {
	hits := c.memory[source]
	if len(hits) == 0 {
		return nil
	}
	return append([]Suggestion(nil), hits...)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Language returns the catalog language, language.Und when unknown.
func (c *Catalog) Language() language.Tag { return c.lang }

// Code returns the language attribute exactly as written in the file.
func (c *Catalog) Code() string { return c.code }

// Contexts returns context names in document order.
func (c *Catalog) Contexts() []string {
	return append([]string(nil), c.contexts...)
}

// Len returns the number of messages visible to lookups.
func (c *Catalog) Len() int { return len(c.entries) }
