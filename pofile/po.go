// Package pofile implements reading and writing of GNU gettext PO files,
// the interchange format tskit converts .ts catalogs to and from.
package pofile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Entry is a single message of a PO file.
type Entry struct {
	// TranslatorComments are "# " lines.
	TranslatorComments []string
	// ExtractedComments are "#." lines.
	ExtractedComments []string
	// References are "#:" source locations such as "basegui.cpp:1236".
	References []string
	// Flags are "#," flags such as "fuzzy" or "qt-format".
	Flags []string
	// PreviousMsgCtxt and PreviousMsgID are the "#|" fields of fuzzy entries.
	PreviousMsgCtxt string
	PreviousMsgID   string

	MsgCtxt     string
	MsgID       string
	MsgIDPlural string
	// MsgStr is the translation of a singular entry.
	MsgStr string
	// MsgStrPlural holds msgstr[0..n] of a plural entry.
	MsgStrPlural []string

	// Obsolete marks "#~" entries.
	Obsolete bool
}

// IsFuzzy reports whether the fuzzy flag is set.
func (e *Entry) IsFuzzy() bool { return e.HasFlag("fuzzy") }

// HasFlag reports whether a flag is present.
func (e *Entry) HasFlag(flag string) bool {
	for _, f := range e.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// SetFuzzy adds or removes the fuzzy flag.
func (e *Entry) SetFuzzy(fuzzy bool) {
	if fuzzy == e.IsFuzzy() {
		return
	}
	if fuzzy {
		e.Flags = append([]string{"fuzzy"}, e.Flags...)
		return
	}
	kept := e.Flags[:0]
	for _, f := range e.Flags {
		if f != "fuzzy" {
			kept = append(kept, f)
		}
	}
	e.Flags = kept
}

// HasText reports whether any translation text is present.
func (e *Entry) HasText() bool {
	if e.MsgIDPlural != "" {
		for _, s := range e.MsgStrPlural {
			if s != "" {
				return true
			}
		}
		return false
	}
	return e.MsgStr != ""
}

// IsTranslated reports whether the entry is complete and not fuzzy.
func (e *Entry) IsTranslated() bool {
	if e.IsFuzzy() {
		return false
	}
	if e.MsgIDPlural != "" {
		if len(e.MsgStrPlural) == 0 {
			return false
		}
		for _, s := range e.MsgStrPlural {
			if s == "" {
				return false
			}
		}
		return true
	}
	return e.MsgStr != ""
}

// File is a parsed PO file.
type File struct {
	// Header is the msgid "" entry.
	Header  *Entry
	Entries []*Entry
}

// NewFile creates an empty PO file with an empty header.
func NewFile() *File {
	return &File{Header: &Entry{}}
}

// HeaderField returns a header field value by name (case-insensitive).
func (f *File) HeaderField(name string) string {
	if f.Header == nil {
		return ""
	}
	for _, line := range strings.Split(f.Header.MsgStr, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// SetHeaderField sets or appends a header field.
func (f *File) SetHeaderField(name, value string) {
	if f.Header == nil {
		f.Header = &Entry{}
	}
	lines := strings.Split(strings.TrimSuffix(f.Header.MsgStr, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		lines = nil
	}
	replaced := false
	for i, line := range lines {
		key, _, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			lines[i] = name + ": " + value
			replaced = true
			break
		}
	}
	if !replaced {
		lines = append(lines, name+": "+value)
	}
	f.Header.MsgStr = strings.Join(lines, "\n") + "\n"
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// SyntaxError reports a malformed PO line.
type SyntaxError struct {
	Line int
	Text string
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, e.Msg, e.Text)
}

type parser struct {
	f       *File
	current *Entry
	// field points at the string the next continuation line extends.
	field *string
}

func (p *parser) entry() *Entry {
	if p.current == nil {
		p.current = &Entry{}
	}
	return p.current
}

func (p *parser) flush() {
	e := p.current
	p.current, p.field = nil, nil
	if e == nil {
		return
	}
	if e.MsgID == "" && e.MsgCtxt == "" && !e.Obsolete && p.f.Header.MsgStr == "" && len(p.f.Entries) == 0 {
		p.f.Header = e
		return
	}
	p.f.Entries = append(p.f.Entries, e)
}

// Parse reads a PO file.
func Parse(r io.Reader) (*File, error) {
	p := &parser{f: NewFile()}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			p.flush()
			continue
		}
		if err := p.line(line); err != nil {
			return nil, &SyntaxError{Line: lineNum, Text: line, Msg: err.Error()}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading PO file: %w", err)
	}
	p.flush()
	return p.f, nil
}

func (p *parser) line(line string) error {
	switch {
	case strings.HasPrefix(line, "#~|"):
		return p.previous(strings.TrimSpace(line[3:]))
	case strings.HasPrefix(line, "#~"):
		p.entry().Obsolete = true
		return p.keyword(strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#:"):
		e := p.entry()
		e.References = append(e.References, strings.Fields(line[2:])...)
	case strings.HasPrefix(line, "#,"):
		e := p.entry()
		for _, flag := range strings.Split(line[2:], ",") {
			if flag = strings.TrimSpace(flag); flag != "" {
				e.Flags = append(e.Flags, flag)
			}
		}
	case strings.HasPrefix(line, "#."):
		e := p.entry()
		e.ExtractedComments = append(e.ExtractedComments, strings.TrimPrefix(line[2:], " "))
	case strings.HasPrefix(line, "#|"):
		return p.previous(strings.TrimSpace(line[2:]))
	case strings.HasPrefix(line, "#"):
		e := p.entry()
		e.TranslatorComments = append(e.TranslatorComments, strings.TrimPrefix(line[1:], " "))
	default:
		return p.keyword(strings.TrimSpace(line))
	}
	return nil
}

func (p *parser) previous(s string) error {
	e := p.entry()
	switch {
	case strings.HasPrefix(s, "msgctxt "):
		v, err := unquote(s[len("msgctxt "):])
		e.PreviousMsgCtxt = v
		return err
	case strings.HasPrefix(s, "msgid "):
		v, err := unquote(s[len("msgid "):])
		e.PreviousMsgID = v
		return err
	}
	return nil
}

func (p *parser) keyword(s string) error {
	if strings.HasPrefix(s, `"`) {
		if p.field == nil {
			return fmt.Errorf("continuation without keyword")
		}
		v, err := unquote(s)
		if err != nil {
			return err
		}
		*p.field += v
		return nil
	}

	name, rest, ok := strings.Cut(s, " ")
	if !ok {
		return fmt.Errorf("missing value")
	}
	value, err := unquote(rest)
	if err != nil {
		return err
	}

	e := p.entry()
	switch {
	case name == "msgctxt":
		// A msgctxt always starts a new entry.
		if e.MsgID != "" || e.MsgStr != "" || len(e.MsgStrPlural) > 0 {
			obsolete := e.Obsolete
			p.flush()
			e = p.entry()
			e.Obsolete = obsolete
		}
		e.MsgCtxt = value
		p.field = &e.MsgCtxt
	case name == "msgid":
		e.MsgID = value
		p.field = &e.MsgID
	case name == "msgid_plural":
		e.MsgIDPlural = value
		p.field = &e.MsgIDPlural
	case name == "msgstr":
		e.MsgStr = value
		p.field = &e.MsgStr
	case strings.HasPrefix(name, "msgstr[") && strings.HasSuffix(name, "]"):
		idx, err := strconv.Atoi(name[len("msgstr[") : len(name)-1])
		// Indices must appear in order, so each one is at most one past the last.
		if err != nil || idx < 0 || idx > len(e.MsgStrPlural) {
			return fmt.Errorf("invalid msgstr index")
		}
		if idx == len(e.MsgStrPlural) {
			e.MsgStrPlural = append(e.MsgStrPlural, "")
		}
		e.MsgStrPlural[idx] = value
		p.field = &e.MsgStrPlural[idx]
	default:
		return fmt.Errorf("unknown keyword %q", name)
	}
	return nil
}

// ParseFile reads a PO file from disk.
func ParseFile(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	f, err := Parse(in)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Write writes the PO file.
func (f *File) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if f.Header != nil {
		writeEntry(bw, f.Header)
	}
	for _, e := range f.Entries {
		bw.WriteString("\n")
		writeEntry(bw, e)
	}
	return bw.Flush()
}

// WriteFile writes the PO file to disk.
func (f *File) WriteFile(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.Write(out); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return out.Close()
}

func writeEntry(w *bufio.Writer, e *Entry) {
	for _, c := range e.TranslatorComments {
		fmt.Fprintf(w, "# %s\n", c)
	}
	for _, c := range e.ExtractedComments {
		fmt.Fprintf(w, "#. %s\n", c)
	}
	if len(e.References) > 0 && !e.Obsolete {
		fmt.Fprintf(w, "#: %s\n", strings.Join(e.References, " "))
	}
	if len(e.Flags) > 0 {
		fmt.Fprintf(w, "#, %s\n", strings.Join(e.Flags, ", "))
	}

	prefix, prevPrefix := "", "#| "
	if e.Obsolete {
		prefix, prevPrefix = "#~ ", "#~| "
	}
	if e.PreviousMsgCtxt != "" {
		fmt.Fprintf(w, "%smsgctxt %s\n", prevPrefix, quote(e.PreviousMsgCtxt))
	}
	if e.PreviousMsgID != "" {
		fmt.Fprintf(w, "%smsgid %s\n", prevPrefix, quote(e.PreviousMsgID))
	}

	if e.MsgCtxt != "" {
		writeField(w, prefix, "msgctxt", e.MsgCtxt)
	}
	writeField(w, prefix, "msgid", e.MsgID)
	if e.MsgIDPlural == "" {
		writeField(w, prefix, "msgstr", e.MsgStr)
		return
	}
	writeField(w, prefix, "msgid_plural", e.MsgIDPlural)
	forms := e.MsgStrPlural
	if len(forms) == 0 {
		forms = []string{""}
	}
	for i, s := range forms {
		writeField(w, prefix, fmt.Sprintf("msgstr[%d]", i), s)
	}
}

// writeField writes a keyword, splitting multi-line values after each "\n".
func writeField(w *bufio.Writer, prefix, keyword, value string) {
	if !strings.Contains(strings.TrimSuffix(value, "\n"), "\n") {
		fmt.Fprintf(w, "%s%s %s\n", prefix, keyword, quote(value))
		return
	}
	fmt.Fprintf(w, "%s%s \"\"\n", prefix, keyword)
	for _, part := range strings.SplitAfter(value, "\n") {
		if part != "" {
			fmt.Fprintf(w, "%s%s\n", prefix, quote(part))
		}
	}
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func unquote(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", fmt.Errorf("expected quoted string")
	}
	s = s[1 : len(s)-1]

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\', '"':
			b.WriteByte(s[i])
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String(), nil
}
