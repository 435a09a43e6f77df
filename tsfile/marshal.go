package tsfile

import (
	"fmt"
	"strings"
)

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal produces the document in the layout lupdate writes: UTF-8,
// DOCTYPE TS, four-space indentation and &apos;/&quot; escaping.
func (f *File) Marshal() []byte {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>\n")
	b.WriteString("<!DOCTYPE TS>\n")

	version := f.Version
	if version == "" {
		version = DefaultVersion
	}
	b.WriteString(`<TS version="` + escape(version) + `"`)
	if f.Language != "" {
		b.WriteString(` language="` + escape(f.Language) + `"`)
	}
	if f.SourceLanguage != "" {
		b.WriteString(` sourcelanguage="` + escape(f.SourceLanguage) + `"`)
	}
	b.WriteString(">\n")

	for _, c := range f.Contexts {
		b.WriteString("<context>\n")
		writeElement(&b, 1, "name", c.Name)
		if c.Comment != "" {
			writeElement(&b, 1, "comment", c.Comment)
		}
		for _, m := range c.Messages {
			writeMessage(&b, m)
		}
		b.WriteString("</context>\n")
	}

	b.WriteString("</TS>\n")
	return []byte(b.String())
}

func writeMessage(b *strings.Builder, m *Message) {
	b.WriteString("    <message")
	if m.ID != "" {
		b.WriteString(` id="` + escape(m.ID) + `"`)
	}
	if m.Numerus {
		b.WriteString(` numerus="yes"`)
	}
	b.WriteString(">\n")

	for _, loc := range m.Locations {
		b.WriteString(`        <location filename="` + escape(loc.Filename) + `"`)
		if loc.Line != "" {
			b.WriteString(` line="` + escape(loc.Line) + `"`)
		}
		b.WriteString("/>\n")
	}

	writeElement(b, 2, "source", m.Source)
	optional := []struct{ name, value string }{
		{"oldsource", m.OldSource},
		{"comment", m.Comment},
		{"oldcomment", m.OldComment},
		{"extracomment", m.ExtraComment},
		{"translatorcomment", m.TranslatorComment},
	}
	for _, o := range optional {
		if o.value != "" {
			writeElement(b, 2, o.name, o.value)
		}
	}

	b.WriteString("        <translation")
	if t := m.Type.String(); t != "" {
		b.WriteString(` type="` + t + `"`)
	}
	switch {
	case m.Numerus && len(m.NumerusForms) > 0:
		b.WriteString(">\n")
		for _, form := range m.NumerusForms {
			writeElement(b, 3, "numerusform", form)
		}
		b.WriteString("        </translation>\n")
	case m.Numerus:
		b.WriteString(">\n            <numerusform></numerusform>\n        </translation>\n")
	default:
		b.WriteString(">" + escapeText(m.Translation) + "</translation>\n")
	}

	b.WriteString("    </message>\n")
}

func writeElement(b *strings.Builder, level int, name, value string) {
	b.WriteString(strings.Repeat("    ", level))
	b.WriteString("<" + name + ">" + escapeText(value) + "</" + name + ">\n")
}

// escape escapes attribute and text content the way lupdate does.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			b.WriteString("&quot;")
		case '\'':
			b.WriteString("&apos;")
		case '\r':
			b.WriteString("&#xd;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeText escapes element content. Control characters that XML 1.0
// cannot carry are written as <byte value="xNN"/>.
func escapeText(s string) string {
	if !hasControl(s) {
		return escape(s)
	}
	var b strings.Builder
	start := 0
	for i, r := range s {
		if !isControl(r) {
			continue
		}
		b.WriteString(escape(s[start:i]))
		b.WriteString(fmt.Sprintf(`<byte value="x%x"/>`, r))
		start = i + 1
	}
	b.WriteString(escape(s[start:]))
	return b.String()
}

func isControl(r rune) bool {
	return r < 0x20 && r != '\t' && r != '\n' && r != '\r'
}

func hasControl(s string) bool {
	for _, r := range s {
		if isControl(r) {
			return true
		}
	}
	return false
}
