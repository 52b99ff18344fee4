package manifest

import "encoding/xml"

// Metadata names written by the editor.
const (
	MetaDependentUpon = "DependentUpon"
	MetaSubType       = "SubType"
	MetaGenerator     = "Generator"
)

// Get returns the value of the named metadata, looking at child elements first and
// then at attributes.
func (it *Item) Get(name string) (string, bool) {
	for _, md := range it.Metadata {
		if !md.comment && md.Name == name {
			return md.Value, true
		}
	}
	for _, a := range it.Attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Set assigns the named metadata. An existing child element or attribute is updated
// in place; otherwise a child element is appended.
func (it *Item) Set(name, value string) {
	for i := range it.Metadata {
		if !it.Metadata[i].comment && it.Metadata[i].Name == name {
			it.Metadata[i].Value = value
			return
		}
	}
	for i := range it.Attrs {
		if it.Attrs[i].Name.Space == "" && it.Attrs[i].Name.Local == name {
			it.Attrs[i].Value = value
			return
		}
	}
	it.Metadata = append(it.Metadata, Metadata{Name: name, Value: value})
}

// Delete removes the named metadata from both child elements and attributes.
func (it *Item) Delete(name string) {
	md := it.Metadata[:0]
	for _, m := range it.Metadata {
		if m.comment || m.Name != name {
			md = append(md, m)
		}
	}
	it.Metadata = md

	attrs := it.Attrs[:0]
	for _, a := range it.Attrs {
		if a.Name.Space != "" || a.Name.Local != name {
			attrs = append(attrs, a)
		}
	}
	it.Attrs = attrs
}

// Managed reports whether the item's type is one of the known build actions.
// Only managed items take part in queries and edits.
func (it *Item) Managed() bool {
	return it.Include != "" && it.Type.IsKnown()
}

func (it *Item) clone() *Item {
	c := &Item{
		Type:    it.Type,
		Include: it.Include,
		Attrs:   append([]xml.Attr(nil), it.Attrs...),
	}
	c.Metadata = append([]Metadata(nil), it.Metadata...)
	c.Comments = append([]xml.Comment(nil), it.Comments...)
	c.lead = it.lead
	c.commentLeads = it.commentLeads
	return c
}

// ItemGroups returns the item groups in document order.
func (m *Manifest) ItemGroups() []*ItemGroup {
	var groups []*ItemGroup
	for _, n := range m.nodes {
		if n.group != nil {
			groups = append(groups, n.group)
		}
	}
	return groups
}

// Items returns every managed item in document order.
func (m *Manifest) Items() []*Item {
	var items []*Item
	for _, g := range m.ItemGroups() {
		for _, it := range g.Items {
			if it.Managed() {
				items = append(items, it)
			}
		}
	}
	return items
}

// Find returns the first managed item whose Include names the same path as include.
func (m *Manifest) Find(include string) (*Item, bool) {
	for _, it := range m.Items() {
		if SameInclude(it.Include, include) {
			return it, true
		}
	}
	return nil, false
}

// Add registers includes under action, replacing any existing entry for the same path
// so that no path appears twice. Duplicate includes within the call collapse to one.
// A path already registered under action stays where it is. Metadata is derived from
// the action policy. Returns the new items.
func (m *Manifest) Add(action BuildAction, includes ...string) []*Item {
	seen := make(map[string]bool, len(includes))
	var batch, kept []*Item
	for _, inc := range includes {
		key := includeKey(inc)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		if it, ok := m.Find(inc); ok && it.Type == action {
			kept = append(kept, it)
			continue
		}
		m.removeWhere(func(it *Item) bool { return SameInclude(it.Include, inc) })
		batch = append(batch, &Item{Type: action, Include: inc})
	}

	for _, it := range kept {
		applyMetadataPolicy(m, it)
	}
	if len(batch) == 0 {
		return nil
	}
	for _, it := range batch {
		applyMetadataPolicy(m, it)
	}

	g := m.targetGroup()
	g.Items = append(g.Items, batch...)
	return batch
}

// Remove deletes the item registered for include. When isDir is set, every item
// beneath include is removed as well. Groups left empty are dropped.
func (m *Manifest) Remove(include string, isDir bool) []*Item {
	return m.removeWhere(func(it *Item) bool {
		return SameInclude(it.Include, include) || (isDir && underDirectory(it.Include, include))
	})
}

// Rename moves the item registered for oldInclude to newInclude, keeping its build
// action, position, attributes and custom metadata. Policy metadata is derived again
// for the new path. Returns false when oldInclude is not registered.
func (m *Manifest) Rename(oldInclude, newInclude string) (*Item, bool) {
	old, ok := m.Find(oldInclude)
	if !ok {
		return nil, false
	}
	if SameInclude(oldInclude, newInclude) {
		return old, true
	}

	moved := old.clone()
	moved.Include = newInclude
	moved.Delete(MetaDependentUpon)

	m.removeWhere(func(it *Item) bool { return it != old && SameInclude(it.Include, newInclude) })
	m.replace(old, moved)
	applyMetadataPolicy(m, moved)
	return moved, true
}

// RenameDirectory re-roots every managed item beneath oldDir under newDir. Items
// already registered at a re-rooted path are replaced by the moved item.
func (m *Manifest) RenameDirectory(oldDir, newDir string) []*Item {
	var moving []*Item
	for _, it := range m.Items() {
		if underDirectory(it.Include, oldDir) {
			moving = append(moving, it)
		}
	}

	isMoving := make(map[*Item]bool, len(moving))
	for _, it := range moving {
		isMoving[it] = true
	}
	for _, it := range moving {
		it.Include = rebase(it.Include, oldDir, newDir)
		m.removeWhere(func(other *Item) bool {
			return !isMoving[other] && SameInclude(other.Include, it.Include)
		})
	}
	return moving
}

func (m *Manifest) hasItemsBeneath(dir string) bool {
	for _, it := range m.Items() {
		if underDirectory(it.Include, dir) {
			return true
		}
	}
	return false
}

// removeWhere deletes managed items matching pred and drops groups that end up empty.
func (m *Manifest) removeWhere(pred func(*Item) bool) []*Item {
	var removed []*Item
	nodes := m.nodes[:0]
	for _, n := range m.nodes {
		if n.group == nil {
			nodes = append(nodes, n)
			continue
		}
		kept := n.group.Items[:0]
		hit := false
		for _, it := range n.group.Items {
			if it.Managed() && pred(it) {
				removed = append(removed, it)
				hit = true
				continue
			}
			kept = append(kept, it)
		}
		n.group.Items = kept
		if hit && len(kept) == 0 {
			continue
		}
		nodes = append(nodes, n)
	}
	m.nodes = nodes
	return removed
}

func (m *Manifest) replace(old, repl *Item) {
	for _, g := range m.ItemGroups() {
		for i, it := range g.Items {
			if it == old {
				g.Items[i] = repl
				return
			}
		}
	}
}

// targetGroup picks the group new items are appended to: the last unconditional group
// that already holds file items, else the last unconditional group, else a new group.
func (m *Manifest) targetGroup() *ItemGroup {
	var lastPlain, lastFiles *ItemGroup
	for _, g := range m.ItemGroups() {
		if g.conditional() {
			continue
		}
		lastPlain = g
		for _, it := range g.Items {
			if it.Managed() {
				lastFiles = g
				break
			}
		}
	}
	if lastFiles != nil {
		return lastFiles
	}
	if lastPlain != nil {
		return lastPlain
	}
	g := &ItemGroup{}
	m.nodes = append(m.nodes, rootNode{group: g})
	return g
}

func (g *ItemGroup) conditional() bool {
	for _, a := range g.Attrs {
		if a.Name.Local == "Condition" {
			return true
		}
	}
	return false
}
