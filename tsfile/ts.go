// Package tsfile implements reading and writing of Qt Linguist .ts
// translation files.
//
// Document structure:
//
//	TS > context > {name, comment?, message*}
//	message > {location*, source, oldsource?, comment?, oldcomment?,
//	           extracomment?, translatorcomment?, translation}
//	translation > text | numerusform*
//
// Messages carry a lifecycle type on <translation type="…">: no attribute
// means finished, otherwise unfinished, obsolete or vanished. Obsolete and
// vanished messages are parsed and written back but are excluded from the
// active-message accessors (Stats, UnfinishedMessages).
package tsfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// ---------------------------------------------------------------------------
// Data model
// ---------------------------------------------------------------------------

// TranslationType is the lifecycle state of a message translation.
type TranslationType int

const (
	// TypeFinished is a translation without a type attribute.
	TypeFinished TranslationType = iota
	// TypeUnfinished is a translation not yet finished by a translator.
	TypeUnfinished
	// TypeObsolete is a translation whose source string left the code base.
	TypeObsolete
	// TypeVanished is an untranslated message whose source string left the
	// code base.
	TypeVanished
)

// String returns the value used in the type attribute ("" for finished).
func (t TranslationType) String() string {
	switch t {
	case TypeUnfinished:
		return "unfinished"
	case TypeObsolete:
		return "obsolete"
	case TypeVanished:
		return "vanished"
	}
	return ""
}

func parseTranslationType(s string) TranslationType {
	switch s {
	case "":
		return TypeFinished
	case "obsolete":
		return TypeObsolete
	case "vanished":
		return TypeVanished
	default:
		// "unfinished" and anything unknown: never shown at runtime.
		return TypeUnfinished
	}
}

// Location points back to the source code that emitted a message.
type Location struct {
	Filename string
	// Line is kept verbatim; lupdate may write relative lines such as "+3".
	Line string
}

// String formats the location as "filename:line".
func (l Location) String() string {
	if l.Line == "" {
		return l.Filename
	}
	return l.Filename + ":" + l.Line
}

// Key identifies a message inside a document.
type Key struct {
	Context string
	Source  string
	Comment string
}

// Message is a single translation unit.
type Message struct {
	// ID is the optional id="…" attribute.
	ID string
	// Numerus marks plural messages (numerus="yes"). Their translation is
	// held in NumerusForms instead of Translation.
	Numerus bool

	Locations []Location

	Source string
	// OldSource is the previous source text kept by lupdate for
	// similar-text matches.
	OldSource string
	// Comment is the disambiguation comment. It is part of the lookup key.
	Comment    string
	OldComment string
	// ExtraComment is the developer note for translators (//: comments).
	ExtraComment string
	// TranslatorComment is a free-form note left by the translator.
	TranslatorComment string

	Translation  string
	NumerusForms []string

	Type TranslationType
}

// IsActive reports whether the message is still present in the code base.
func (m *Message) IsActive() bool {
	return m.Type != TypeObsolete && m.Type != TypeVanished
}

// IsTranslated reports whether the message is finished and carries a
// non-empty translation (every numerus form non-empty).
func (m *Message) IsTranslated() bool {
	if m.Type != TypeFinished {
		return false
	}
	if m.Numerus {
		if len(m.NumerusForms) == 0 {
			return false
		}
		for _, f := range m.NumerusForms {
			if f == "" {
				return false
			}
		}
		return true
	}
	return m.Translation != ""
}

// HasText reports whether any translation text is present, regardless of
// the lifecycle type.
func (m *Message) HasText() bool {
	if m.Numerus {
		for _, f := range m.NumerusForms {
			if f != "" {
				return true
			}
		}
		return false
	}
	return m.Translation != ""
}

// Context groups the messages of one UI class.
type Context struct {
	Name     string
	Comment  string
	Messages []*Message
}

// Find returns the message with the given source and comment, or nil.
func (c *Context) Find(source, comment string) *Message {
	for _, m := range c.Messages {
		if m.Source == source && m.Comment == comment {
			return m
		}
	}
	return nil
}

// File is a parsed .ts document.
type File struct {
	// Version is the TS format version, "2.1" by default on write.
	Version string
	// Language is the target language, e.g. "ja" or "pt_BR".
	Language string
	// SourceLanguage is the language of the source strings, often empty.
	SourceLanguage string
	Contexts       []*Context
}

// DefaultVersion is written when File.Version is empty.
const DefaultVersion = "2.1"

// NewFile creates an empty document for the given target language.
func NewFile(language string) *File {
	return &File{Version: DefaultVersion, Language: language}
}

// Context returns the context with the given name, or nil.
func (f *File) Context(name string) *Context {
	for _, c := range f.Contexts {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddContext returns the context with the given name, appending a new one
// when it does not exist yet.
func (f *File) AddContext(name string) *Context {
	if c := f.Context(name); c != nil {
		return c
	}
	c := &Context{Name: name}
	f.Contexts = append(f.Contexts, c)
	return c
}

// Find returns the message for key, or nil.
func (f *File) Find(k Key) *Message {
	c := f.Context(k.Context)
	if c == nil {
		return nil
	}
	return c.Find(k.Source, k.Comment)
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Stats holds message counts of a document.
type Stats struct {
	// Total counts active (not obsolete, not vanished) messages.
	Total      int
	Finished   int
	Unfinished int
	Obsolete   int
	Vanished   int
}

// Percent returns the finished share of active messages, 0..100.
func (s Stats) Percent() int {
	if s.Total == 0 {
		return 0
	}
	return s.Finished * 100 / s.Total
}

// Stats returns message counts.
func (f *File) Stats() Stats {
	var s Stats
	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			switch m.Type {
			case TypeObsolete:
				s.Obsolete++
				continue
			case TypeVanished:
				s.Vanished++
				continue
			}
			s.Total++
			if m.IsTranslated() {
				s.Finished++
			} else {
				s.Unfinished++
			}
		}
	}
	return s
}

// UnfinishedMessages returns active messages that have no finished
// translation, keyed by their context name.
func (f *File) UnfinishedMessages() map[string][]*Message {
	result := make(map[string][]*Message)
	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			if m.IsActive() && !m.IsTranslated() {
				result[c.Name] = append(result[c.Name], m)
			}
		}
	}
	return result
}

// Duplicate describes a (context, source, comment) key used more than once.
type Duplicate struct {
	Key   Key
	Count int
}

// Duplicates returns keys that appear more than once within a context,
// in document order of their first occurrence.
func (f *File) Duplicates() []Duplicate {
	counts := make(map[Key]int)
	var order []Key
	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			k := Key{Context: c.Name, Source: m.Source, Comment: m.Comment}
			if counts[k] == 0 {
				order = append(order, k)
			}
			counts[k]++
		}
	}

	var dups []Duplicate
	for _, k := range order {
		if n := counts[k]; n > 1 {
			dups = append(dups, Duplicate{Key: k, Count: n})
		}
	}
	return dups
}

// ---------------------------------------------------------------------------
// Files on disk
// ---------------------------------------------------------------------------

// ParseFile reads and parses a .ts file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}
	return f, nil
}

// WriteFile writes the document to disk, creating parent directories.
func (f *File) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(path, f.Marshal(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
