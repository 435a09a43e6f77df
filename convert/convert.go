// Package convert translates between Qt .ts catalogs and gettext PO files,
// following the mapping lconvert uses:
//
//	context, comment     <-> msgctxt "context|comment" (or "context")
//	location             <-> #: filename:line
//	extracomment         <-> #. line
//	translatorcomment    <-> # line
//	oldsource            <-> #| msgid
//	unfinished with text <-> #, fuzzy
//	obsolete             <-> #~
//	vanished             <-> #~ with #, fuzzy
//	numerus forms        <-> msgid_plural + msgstr[N]
package convert

import (
	"strings"
	"time"

	"github.com/minios-linux/tskit/numerus"
	"github.com/minios-linux/tskit/pofile"
	"github.com/minios-linux/tskit/tsfile"
)

// contextSeparator joins context and disambiguation comment in msgctxt.
const contextSeparator = "|"

// now is replaced in tests.
var now = time.Now

// ToPO converts a .ts document to a PO file.
func ToPO(f *tsfile.File) *pofile.File {
	p := pofile.NewFile()
	p.SetHeaderField("MIME-Version", "1.0")
	p.SetHeaderField("Content-Type", "text/plain; charset=UTF-8")
	p.SetHeaderField("Content-Transfer-Encoding", "8bit")
	p.SetHeaderField("X-Generator", "tskit")
	p.SetHeaderField("PO-Revision-Date", now().UTC().Format("2006-01-02 15:04+0000"))
	if f.Language != "" {
		p.SetHeaderField("Language", f.Language)
		if tag, err := numerus.ParseTag(f.Language); err == nil {
			p.SetHeaderField("Plural-Forms", numerus.PluralFormsHeader(tag))
		}
	}
	if f.SourceLanguage != "" {
		p.SetHeaderField("X-Source-Language", f.SourceLanguage)
	}
	if f.Version != "" {
		p.SetHeaderField("X-Qt-Version", f.Version)
	}

	for _, c := range f.Contexts {
		for _, m := range c.Messages {
			p.Entries = append(p.Entries, toEntry(c.Name, m))
		}
	}
	return p
}

func toEntry(ctxName string, m *tsfile.Message) *pofile.Entry {
	e := &pofile.Entry{
		MsgCtxt:       ctxName,
		MsgID:         m.Source,
		PreviousMsgID: m.OldSource,
		Obsolete:      !m.IsActive(),
	}
	if m.Comment != "" {
		e.MsgCtxt += contextSeparator + m.Comment
	}
	if m.OldComment != "" {
		e.PreviousMsgCtxt = ctxName + contextSeparator + m.OldComment
	}
	if m.ExtraComment != "" {
		e.ExtractedComments = strings.Split(m.ExtraComment, "\n")
	}
	if m.TranslatorComment != "" {
		e.TranslatorComments = strings.Split(m.TranslatorComment, "\n")
	}
	for _, loc := range m.Locations {
		e.References = append(e.References, loc.String())
	}
	if m.Numerus {
		e.MsgIDPlural = m.Source
		e.MsgStrPlural = append([]string(nil), m.NumerusForms...)
	} else {
		e.MsgStr = m.Translation
	}
	switch {
	case m.Type == tsfile.TypeUnfinished && m.HasText(), m.Type == tsfile.TypeVanished:
		e.SetFuzzy(true)
	}
	e.Flags = append(e.Flags, "qt-format")
	return e
}

// FromPO converts a PO file to a .ts document. Contexts appear in the order
// of their first message.
func FromPO(p *pofile.File) *tsfile.File {
	f := tsfile.NewFile(p.HeaderField("Language"))
	f.SourceLanguage = p.HeaderField("X-Source-Language")
	if v := p.HeaderField("X-Qt-Version"); v != "" {
		f.Version = v
	}

	for _, e := range p.Entries {
		ctxName, comment, _ := strings.Cut(e.MsgCtxt, contextSeparator)
		m := &tsfile.Message{
			Source:    e.MsgID,
			Comment:   comment,
			OldSource: e.PreviousMsgID,
		}
		if _, oldComment, ok := strings.Cut(e.PreviousMsgCtxt, contextSeparator); ok {
			m.OldComment = oldComment
		}
		if len(e.ExtractedComments) > 0 {
			m.ExtraComment = strings.Join(e.ExtractedComments, "\n")
		}
		if len(e.TranslatorComments) > 0 {
			m.TranslatorComment = strings.Join(e.TranslatorComments, "\n")
		}
		for _, ref := range e.References {
			m.Locations = append(m.Locations, parseReference(ref))
		}
		if e.MsgIDPlural != "" {
			m.Numerus = true
			m.NumerusForms = append([]string(nil), e.MsgStrPlural...)
		} else {
			m.Translation = e.MsgStr
		}

		switch {
		case e.Obsolete && e.IsFuzzy():
			m.Type = tsfile.TypeVanished
		case e.Obsolete:
			m.Type = tsfile.TypeObsolete
		case e.IsFuzzy() || !e.IsTranslated():
			m.Type = tsfile.TypeUnfinished
		}

		c := f.AddContext(ctxName)
		c.Messages = append(c.Messages, m)
	}
	return f
}

// parseReference splits "file.cpp:12" at the last colon when the remainder
// looks like a line (digits, optionally with a leading sign).
func parseReference(ref string) tsfile.Location {
	i := strings.LastIndex(ref, ":")
	if i < 0 {
		return tsfile.Location{Filename: ref}
	}
	line := ref[i+1:]
	digits := strings.TrimLeft(line, "+-")
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return tsfile.Location{Filename: ref}
	}
	return tsfile.Location{Filename: ref[:i], Line: line}
}
