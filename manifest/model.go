package manifest

import "encoding/xml"

// Manifest is a parsed item manifest. Item groups are decoded into typed values; every
// other child of the root is kept as source text and written back unchanged.
type Manifest struct {
	Path  string
	Kind  Kind
	Attrs []xml.Attr

	nodes  []rootNode
	prolog []rootNode

	// Source layout, reused when writing.
	bom      bool
	declared bool
	newline  string
	indent   string
	start    rawTag
	lead     []byte // whitespace before <Project>
	tail     []byte // whitespace before </Project>
	end      []byte // whitespace after </Project>
	source   []byte
}

// rootNode is one child of <Project>: exactly one of group, raw and comment is set.
// lead is the whitespace that preceded it in the source, nil for new nodes.
type rootNode struct {
	lead    []byte
	group   *ItemGroup
	raw     []byte
	comment xml.Comment
}

// rawTag is a start tag as it appeared in the source, with the rendering it had when
// parsed. It is reused only while the rendering is unchanged.
type rawTag struct {
	text []byte
	snap string
}

// ItemGroup is an ordered batch of items.
type ItemGroup struct {
	Attrs []xml.Attr
	Items []*Item

	trailing      []xml.Comment
	trailingLeads [][]byte
	tail          []byte
	start         rawTag
}

// Item is one manifest entry. Type is the element name, which is a BuildAction for
// file items but may be any MSBuild item type (PackageReference, ProjectReference, ...).
type Item struct {
	Type     BuildAction
	Include  string
	Attrs    []xml.Attr
	Metadata []Metadata
	Comments []xml.Comment

	source       rawTag
	lead         []byte
	commentLeads [][]byte
}

// Metadata is a child element of an item. Comment entries keep their text in Value.
// Only the text content of an element is kept: markup nested inside a metadata
// element is dropped when its item is rendered again.
type Metadata struct {
	Name    string
	Attrs   []xml.Attr
	Value   string
	comment bool
}

type metadataElement struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Value   string     `xml:",chardata"`
}

// UnmarshalXML implements xml.Unmarshaler.
func (it *Item) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	it.Type = BuildAction(start.Name.Local)
	for _, a := range start.Attr {
		if a.Name.Space == "" && a.Name.Local == includeAttr {
			it.Include = a.Value
			continue
		}
		it.Attrs = append(it.Attrs, a)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var md metadataElement
			if err := d.DecodeElement(&md, &t); err != nil {
				return err
			}
			it.Metadata = append(it.Metadata, Metadata{Name: md.XMLName.Local, Attrs: md.Attrs, Value: md.Value})
		case xml.Comment:
			it.Metadata = append(it.Metadata, Metadata{Value: string(t), comment: true})
		case xml.EndElement:
			return nil
		}
	}
}

func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]xml.Attr, len(attrs))
	copy(out, attrs)
	return out
}
