package manifest

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNotProject is returned by Parse when the document has no <Project> root.
var ErrNotProject = errors.New("manifest has no Project root element")

const (
	projectElement   = "Project"
	itemGroupElement = "ItemGroup"
	includeAttr      = "Include"
)

var (
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
	encodingDecl = regexp.MustCompile(`^\s*<\?xml[^>]*encoding\s*=\s*["']([A-Za-z0-9._:-]+)["']`)
	indentLine   = regexp.MustCompile(`\n([ \t]+)<`)
)

// Parse decodes a manifest document. Documents declaring a non-UTF-8 encoding are
// converted first. The returned error wraps ErrNotProject when the root element is
// missing or is not <Project>.
func Parse(path string, data []byte) (*Manifest, error) {
	m := &Manifest{Path: path, Kind: KindOf(path), newline: "\n", indent: "  ", source: data}
	if bytes.HasPrefix(data, utf8BOM) {
		m.bom = true
		data = data[len(utf8BOM):]
	}

	data, err := toUTF8(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	m.declared = bytes.HasPrefix(data, []byte("<?xml"))
	if bytes.Contains(data, []byte("\r\n")) {
		m.newline = "\r\n"
	}
	if match := indentLine.FindSubmatch(data); match != nil {
		m.indent = string(match[1])
	}

	p := &parser{src: data, dec: xml.NewDecoder(bytes.NewReader(data))}
	p.dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }

	if err := p.document(m); err != nil {
		if errors.Is(err, ErrNotProject) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to parse manifest XML: %w", err)
	}
	return m, nil
}

// toUTF8 converts data to UTF-8 according to its XML declaration.
func toUTF8(data []byte) ([]byte, error) {
	match := encodingDecl.FindSubmatch(data)
	if match == nil {
		return data, nil
	}
	label := strings.ToLower(string(match[1]))
	if label == "utf-8" || label == "utf8" {
		return data, nil
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// parser walks the token stream and slices source text for nodes it does not model.
type parser struct {
	src []byte
	dec *xml.Decoder
}

func (p *parser) offset() int {
	return int(p.dec.InputOffset())
}

func (p *parser) document(m *Manifest) error {
	var lead []byte
	for {
		off := p.offset()
		tok, err := p.dec.Token()
		if err == io.EOF {
			return ErrNotProject
		}
		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.CharData:
			lead = p.space(lead, off)
			continue
		case xml.Comment:
			m.prolog = append(m.prolog, rootNode{lead: lead, comment: t.Copy()})
		case xml.StartElement:
			if t.Name.Local != projectElement {
				return fmt.Errorf("%w: found <%s>", ErrNotProject, t.Name.Local)
			}
			m.Attrs = copyAttrs(t.Attr)
			m.start = p.tag(off, projectElement, m.Attrs)
			m.lead = lead
			if err := p.root(m); err != nil {
				return err
			}
			if rest := p.src[p.offset():]; isBlank(rest) {
				m.end = rest
			}
			return nil
		}
		lead = nil
	}
}

func (p *parser) root(m *Manifest) error {
	var lead []byte
	for {
		off := p.offset()
		tok, err := p.dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.CharData:
			lead = p.space(lead, off)
			continue
		case xml.StartElement:
			if t.Name.Local == itemGroupElement {
				g, err := p.group(t, off)
				if err != nil {
					return err
				}
				m.nodes = append(m.nodes, rootNode{lead: lead, group: g})
				break
			}
			if err := p.dec.Skip(); err != nil {
				return err
			}
			m.nodes = append(m.nodes, rootNode{lead: lead, raw: p.src[off:p.offset()]})
		case xml.Comment:
			m.nodes = append(m.nodes, rootNode{lead: lead, comment: t.Copy()})
		case xml.EndElement:
			m.tail = lead
			return nil
		}
		lead = nil
	}
}

func (p *parser) group(start xml.StartElement, off int) (*ItemGroup, error) {
	g := &ItemGroup{Attrs: copyAttrs(start.Attr)}
	g.start = p.tag(off, itemGroupElement, g.Attrs)

	var (
		lead    []byte
		pending []xml.Comment
		leads   [][]byte
	)
	for {
		off := p.offset()
		tok, err := p.dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.CharData:
			lead = p.space(lead, off)
			continue
		case xml.StartElement:
			it := &Item{}
			if err := p.dec.DecodeElement(it, &t); err != nil {
				return nil, err
			}
			it.source = rawTag{text: p.src[off:p.offset()], snap: renderItem(it, layout{newline: "\n"}, 0)}
			it.lead = lead
			it.Comments, it.commentLeads = pending, leads
			pending, leads = nil, nil
			g.Items = append(g.Items, it)
		case xml.Comment:
			pending = append(pending, t.Copy())
			leads = append(leads, lead)
		case xml.EndElement:
			g.trailing, g.trailingLeads = pending, leads
			g.tail = lead
			return g, nil
		}
		lead = nil
	}
}

// space extends lead with the character data token read at off. Consecutive tokens
// are contiguous in the source. Text that is not blank discards the lead, so the
// next node gets a freshly generated line break.
func (p *parser) space(lead []byte, off int) []byte {
	text := p.src[off:p.offset()]
	if !isBlank(text) {
		return nil
	}
	return p.src[off-len(lead) : p.offset()]
}

func isBlank(b []byte) bool {
	return len(bytes.TrimSpace(b)) == 0
}

// tag captures the start tag just read. Self-closing tags are not reusable because
// the element is always written with an explicit end tag when it has children.
func (p *parser) tag(off int, name string, attrs []xml.Attr) rawTag {
	text := p.src[off:p.offset()]
	if bytes.HasSuffix(text, []byte("/>")) {
		return rawTag{}
	}
	return rawTag{text: text, snap: renderStart(name, attrs)}
}
