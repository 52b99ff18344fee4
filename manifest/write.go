package manifest

import (
	"bytes"
	"encoding/xml"
	"strings"
)

const xmlDeclaration = `<?xml version="1.0" encoding="utf-8"?>`

const (
	xmlnsPrefix = "xmlns"
	xmlURL      = "http://www.w3.org/XML/1998/namespace"
)

var (
	attrEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `"`, "&quot;", "\t", "&#x9;", "\n", "&#xA;", "\r", "&#xD;")
	textEscaper = strings.NewReplacer(`&`, "&amp;", `<`, "&lt;", `>`, "&gt;")
)

// layout is the line ending and indentation unit used for generated markup.
type layout struct {
	newline string
	indent  string
}

func (l layout) line(b *bytes.Buffer, depth int) {
	b.WriteString(l.newline)
	b.WriteString(strings.Repeat(l.indent, depth))
}

// lead writes the whitespace that preceded a node in the source, or a line break
// at depth for nodes that have none.
func (l layout) lead(b *bytes.Buffer, space []byte, depth int) {
	if space == nil {
		l.line(b, depth)
		return
	}
	b.Write(space)
}

func leadAt(leads [][]byte, i int) []byte {
	if i < len(leads) {
		return leads[i]
	}
	return nil
}

// Bytes serializes the manifest. Nodes that were not modified are copied from the
// source text together with the whitespace around them; new or modified nodes are
// rendered using the source's line ending and indentation. The output is UTF-8 and
// keeps the source BOM. An XML declaration is written when the source had one.
func (m *Manifest) Bytes() []byte {
	l := layout{newline: m.newline, indent: m.indent}

	var b bytes.Buffer
	if m.bom {
		b.Write(utf8BOM)
	}
	head := b.Len()
	if m.declared {
		b.WriteString(xmlDeclaration)
	}
	prologLead := func(space []byte) {
		if space == nil && b.Len() == head {
			return
		}
		l.lead(&b, space, 0)
	}
	for _, n := range m.prolog {
		prologLead(n.lead)
		writeComment(&b, n.comment)
	}
	prologLead(m.lead)
	writeTag(&b, m.start, projectElement, m.Attrs)

	for _, n := range m.nodes {
		l.lead(&b, n.lead, 1)
		switch {
		case n.group != nil:
			writeGroup(&b, n.group, l)
		case n.raw != nil:
			b.Write(n.raw)
		default:
			writeComment(&b, n.comment)
		}
	}

	l.lead(&b, m.tail, 0)
	b.WriteString("</" + projectElement + ">")
	if m.end != nil {
		b.Write(m.end)
	} else {
		b.WriteString(l.newline)
	}
	return b.Bytes()
}

func writeGroup(b *bytes.Buffer, g *ItemGroup, l layout) {
	if len(g.Items) == 0 && len(g.trailing) == 0 {
		b.WriteString("<" + itemGroupElement + renderAttrs(g.Attrs) + " />")
		return
	}

	writeTag(b, g.start, itemGroupElement, g.Attrs)
	for _, it := range g.Items {
		for i, c := range it.Comments {
			l.lead(b, leadAt(it.commentLeads, i), 2)
			writeComment(b, c)
		}
		l.lead(b, it.lead, 2)
		if it.source.text != nil && renderItem(it, layout{newline: "\n"}, 0) == it.source.snap {
			b.Write(it.source.text)
		} else {
			b.WriteString(renderItem(it, l, 2))
		}
	}
	for i, c := range g.trailing {
		l.lead(b, leadAt(g.trailingLeads, i), 2)
		writeComment(b, c)
	}
	l.lead(b, g.tail, 1)
	b.WriteString("</" + itemGroupElement + ">")
}

// writeTag writes the source start tag if the attributes are unchanged, otherwise a
// freshly rendered one.
func writeTag(b *bytes.Buffer, raw rawTag, name string, attrs []xml.Attr) {
	rendered := renderStart(name, attrs)
	if raw.text != nil && rendered == raw.snap {
		b.Write(raw.text)
		return
	}
	b.WriteString(rendered)
}

func writeComment(b *bytes.Buffer, c xml.Comment) {
	b.WriteString("<!--")
	b.Write(c)
	b.WriteString("-->")
}

func renderStart(name string, attrs []xml.Attr) string {
	return "<" + name + renderAttrs(attrs) + ">"
}

// renderItem renders an item at the given depth. Items without metadata are
// self-closing, as Visual Studio writes them.
func renderItem(it *Item, l layout, depth int) string {
	var b bytes.Buffer
	b.WriteString("<" + string(it.Type))
	if it.Include != "" {
		b.WriteString(renderAttrs([]xml.Attr{{Name: xml.Name{Local: includeAttr}, Value: it.Include}}))
	}
	b.WriteString(renderAttrs(it.Attrs))
	if len(it.Metadata) == 0 {
		b.WriteString(" />")
		return b.String()
	}
	b.WriteString(">")

	for _, md := range it.Metadata {
		l.line(&b, depth+1)
		if md.comment {
			writeComment(&b, xml.Comment(md.Value))
			continue
		}
		b.WriteString("<" + md.Name + renderAttrs(md.Attrs) + ">")
		b.WriteString(textEscaper.Replace(md.Value))
		b.WriteString("</" + md.Name + ">")
	}
	l.line(&b, depth)
	b.WriteString("</" + string(it.Type) + ">")
	return b.String()
}

func renderAttrs(attrs []xml.Attr) string {
	var b strings.Builder
	for _, a := range attrs {
		if a.Name.Local == "" {
			continue
		}
		b.WriteString(" " + attrName(a.Name) + `="` + attrEscaper.Replace(a.Value) + `"`)
	}
	return b.String()
}

// attrName restores the prefix of namespace declarations and xml: attributes. Other
// namespaced attributes do not occur in manifests and are written unqualified.
func attrName(n xml.Name) string {
	switch n.Space {
	case "":
		return n.Local
	case xmlnsPrefix:
		return xmlnsPrefix + ":" + n.Local
	case xmlURL:
		return "xml:" + n.Local
	default:
		return n.Local
	}
}
