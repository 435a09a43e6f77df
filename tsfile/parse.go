package tsfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
)

// ErrNoRoot is reported when a document has no <TS> root element.
var ErrNoRoot = errors.New("missing <TS> root element")

// ParseError reports malformed .ts input.
type ParseError struct {
	// Path is set by ParseFile; empty for in-memory input.
	Path string
	// Line is the 1-based input line where decoding failed, 0 if unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		if loc != "" {
			loc += ":"
		}
		loc += "line " + strconv.Itoa(e.Line)
	}
	if loc == "" {
		return "parsing ts: " + e.Err.Error()
	}
	return fmt.Sprintf("parsing ts %s: %v", loc, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func newParseError(dec *xml.Decoder, err error) *ParseError {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return &ParseError{Line: se.Line, Err: err}
	}
	line, _ := dec.InputPos()
	return &ParseError{Line: line, Err: err}
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// Parse parses .ts document data.
func Parse(data []byte) (*File, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charsetReader

	var (
		f      *File
		closed bool
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newParseError(dec, err)
		}

		switch t := tok.(type) {
		case xml.EndElement:
			// Only </TS> reaches this level; nested elements are consumed below.
			closed = true
		case xml.CharData:
			if (f == nil || closed) && len(bytes.TrimSpace(t)) > 0 {
				return nil, newParseError(dec, errors.New("text outside the <TS> root element"))
			}
		case xml.StartElement:
			if closed {
				return nil, newParseError(dec, fmt.Errorf("element <%s> after the <TS> root element", t.Name.Local))
			}
			if f == nil {
				if t.Name.Local != "TS" {
					return nil, newParseError(dec, fmt.Errorf("unexpected root element <%s>: %w", t.Name.Local, ErrNoRoot))
				}
				f = &File{
					Version:        attr(t, "version"),
					Language:       attr(t, "language"),
					SourceLanguage: attr(t, "sourcelanguage"),
				}
				continue
			}

			if t.Name.Local != "context" {
				// <dependencies> and other extensions are not kept.
				if err := dec.Skip(); err != nil {
					return nil, newParseError(dec, err)
				}
				continue
			}
			c, err := parseContext(dec)
			if err != nil {
				return nil, newParseError(dec, err)
			}
			f.Contexts = append(f.Contexts, c)
		}
	}

	if f == nil {
		return nil, &ParseError{Err: ErrNoRoot}
	}
	return f, nil
}

// charsetReader lets the decoder accept non UTF-8 declarations such as
// encoding="ISO-8859-1".
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return enc.NewDecoder().Reader(input), nil
}

// parseContext parses a <context> element already opened.
func parseContext(dec *xml.Decoder) (*Context, error) {
	c := &Context{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <context>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "name":
				if c.Name, err = readText(dec); err != nil {
					return nil, fmt.Errorf("reading <context> name: %w", err)
				}
			case "comment":
				if c.Comment, err = readText(dec); err != nil {
					return nil, fmt.Errorf("reading <context name=%q> comment: %w", c.Name, err)
				}
			case "message":
				m, err := parseMessage(dec, t)
				if err != nil {
					return nil, fmt.Errorf("in <context name=%q>: %w", c.Name, err)
				}
				c.Messages = append(c.Messages, m)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return c, nil
		}
	}
}

// parseMessage parses a <message> element already opened.
func parseMessage(dec *xml.Decoder, elem xml.StartElement) (*Message, error) {
	m := &Message{
		ID:      attr(elem, "id"),
		Numerus: attr(elem, "numerus") == "yes",
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("reading <message>: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var target *string
			switch t.Name.Local {
			case "location":
				m.Locations = append(m.Locations, Location{
					Filename: attr(t, "filename"),
					Line:     attr(t, "line"),
				})
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				continue
			case "translation":
				if err := parseTranslation(dec, t, m); err != nil {
					return nil, fmt.Errorf("reading <translation> of %q: %w", m.Source, err)
				}
				continue
			case "source":
				target = &m.Source
			case "oldsource":
				target = &m.OldSource
			case "comment":
				target = &m.Comment
			case "oldcomment":
				target = &m.OldComment
			case "extracomment":
				target = &m.ExtraComment
			case "translatorcomment":
				target = &m.TranslatorComment
			default:
				// extra-* elements and <userdata> are not kept.
				if err := dec.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			if *target, err = readText(dec); err != nil {
				return nil, fmt.Errorf("reading <%s>: %w", t.Name.Local, err)
			}
		case xml.EndElement:
			return m, nil
		}
	}
}

// parseTranslation parses a <translation> element already opened.
func parseTranslation(dec *xml.Decoder, elem xml.StartElement, m *Message) error {
	m.Type = parseTranslationType(attr(elem, "type"))

	if !m.Numerus {
		s, err := readText(dec)
		if err != nil {
			return err
		}
		m.Translation = s
		return nil
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "numerusform" {
				if err := dec.Skip(); err != nil {
					return err
				}
				continue
			}
			s, err := readText(dec)
			if err != nil {
				return fmt.Errorf("reading <numerusform>: %w", err)
			}
			m.NumerusForms = append(m.NumerusForms, s)
		case xml.EndElement:
			return nil
		}
	}
}

// readText reads the character content of an element already opened, up to
// its matching close tag. <byte value="…"/> elements decode to the code
// point they name. When the element holds <lengthvariant> children, the
// first variant is returned.
func readText(dec *xml.Decoder) (string, error) {
	var b strings.Builder
	var variant string
	hasVariant := false

	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			switch t.Name.Local {
			case "byte":
				r, err := byteValue(t)
				if err != nil {
					return "", err
				}
				b.WriteRune(r)
				if err := dec.Skip(); err != nil {
					return "", err
				}
			case "lengthvariant":
				s, err := readText(dec)
				if err != nil {
					return "", err
				}
				if !hasVariant {
					variant, hasVariant = s, true
				}
			default:
				if err := dec.Skip(); err != nil {
					return "", err
				}
			}
		case xml.EndElement:
			if hasVariant {
				return variant, nil
			}
			return b.String(), nil
		}
	}
}

// byteValue decodes the value attribute of a <byte> element: "x1b" (hex)
// or "27" (decimal).
func byteValue(elem xml.StartElement) (rune, error) {
	v := attr(elem, "value")
	var (
		n   uint64
		err error
	)
	if strings.HasPrefix(v, "x") {
		n, err = strconv.ParseUint(v[1:], 16, 32)
	} else {
		n, err = strconv.ParseUint(v, 10, 32)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid <byte value=%q>", v)
	}
	return rune(n), nil
}

// attr returns the value of the named attribute, or "".
func attr(elem xml.StartElement, name string) string {
	for _, a := range elem.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}
