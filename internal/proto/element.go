package proto

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Element names on the wire.
const (
	TagHandshake = "MojaChat"
	TagPolicy    = "policy-file-request"
	TagEnter     = "ENTER"
	TagExit      = "EXIT"
	TagSet       = "SET"
	TagReset     = "RSET"
	TagComment   = "COM"
	TagIgnore    = "IG"
	TagNop       = "NOP"

	TagConnect  = "CONNECT"
	TagRoom     = "ROOM"
	TagUser     = "USER"
	TagUserInfo = "UINFO"
	TagCount    = "COUNT"
	TagFull     = "FULL"
)

var ErrMalformedFrame = errors.New("malformed frame")

// Attr is one name="value" pair. Order is preserved.
type Attr struct {
	Name  string
	Value string
}

// Element is a single markup element with ordered attributes and optional children.
type Element struct {
	Name     string
	Attrs    []Attr
	Children []*Element
}

// NewElement creates an element with no attributes.
func NewElement(name string) *Element {
	return &Element{Name: name}
}

// Get returns the value of the named attribute.
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Value returns the named attribute or "".
func (e *Element) Value(name string) string {
	v, _ := e.Get(name)
	return v
}

// Has reports whether the named attribute is present.
func (e *Element) Has(name string) bool {
	_, ok := e.Get(name)
	return ok
}

// Add appends an attribute and returns e for chaining.
func (e *Element) Add(name, value string) *Element {
	e.Attrs = append(e.Attrs, Attr{Name: name, Value: value})
	return e
}

// AddNonEmpty appends the attribute only when value is not empty.
func (e *Element) AddNonEmpty(name, value string) *Element {
	if value == "" {
		return e
	}
	return e.Add(name, value)
}

// Append adds a child element.
func (e *Element) Append(child *Element) *Element {
	e.Children = append(e.Children, child)
	return e
}

// MarshalText renders the element. Childless elements are self-closing.
func (e *Element) MarshalText() ([]byte, error) {
	var b strings.Builder
	if err := e.write(&b); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func (e *Element) String() string {
	text, err := e.MarshalText()
	if err != nil {
		return ""
	}
	return string(text)
}

func (e *Element) write(b *strings.Builder) error {
	b.WriteByte('<')
	b.WriteString(e.Name)
	for _, a := range e.Attrs {
		b.WriteByte(' ')
		b.WriteString(a.Name)
		b.WriteString(`="`)
		if err := xml.EscapeText(b, []byte(a.Value)); err != nil {
			return err
		}
		b.WriteByte('"')
	}
	if len(e.Children) == 0 {
		b.WriteString(" />")
		return nil
	}
	b.WriteByte('>')
	for _, child := range e.Children {
		if err := child.write(b); err != nil {
			return err
		}
	}
	b.WriteString("</")
	b.WriteString(e.Name)
	b.WriteByte('>')
	return nil
}

// Parse decodes one inbound frame. The handshake literal becomes an element named
// TagHandshake; anything else must be exactly one markup element.
func Parse(frame []byte) (*Element, error) {
	text := strings.TrimSpace(string(frame))
	if text == Handshake {
		return NewElement(TagHandshake), nil
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedFrame)
	}

	dec := xml.NewDecoder(strings.NewReader(text))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: no element", ErrMalformedFrame)
			}
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			if err := expectEnd(dec); err != nil {
				return nil, err
			}
			return el, nil
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return nil, fmt.Errorf("%w: text outside element", ErrMalformedFrame)
			}
		}
	}
}

// expectEnd rejects anything but whitespace after the frame's element.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("%w: text after element", ErrMalformedFrame)
			}
		case xml.Comment:
		default:
			return fmt.Errorf("%w: content after element", ErrMalformedFrame)
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (*Element, error) {
	el := &Element{Name: start.Name.Local}
	for _, a := range start.Attr {
		el.Attrs = append(el.Attrs, Attr{Name: a.Name.Local, Value: a.Value})
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		case xml.EndElement:
			return el, nil
		}
	}
}
