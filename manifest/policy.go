package manifest

import "strings"

const (
	markupExt     = ".xaml"
	codeBehindExt = ".xaml.cs"
)

// metadataRule derives metadata for an item about to be added to m.
type metadataRule func(m *Manifest, it *Item)

// metadataRules is the per-action metadata policy.
var metadataRules = map[BuildAction]metadataRule{
	Compile: codeBehindRule,
	Page:    pageRule,
}

func applyMetadataPolicy(m *Manifest, it *Item) {
	if rule, ok := metadataRules[it.Type]; ok {
		rule(m, it)
	}
}

// codeBehindRule makes X.xaml.cs depend on X.xaml when X.xaml is a registered page.
func codeBehindRule(m *Manifest, it *Item) {
	markup, ok := markupFor(it.Include)
	if !ok {
		return
	}
	if owner, ok := m.Find(markup); ok && owner.Type == Page {
		it.Set(MetaDependentUpon, baseName(markup))
	}
}

// pageRule marks pages as designer-compiled and attaches an already registered
// code-behind file to the page.
func pageRule(m *Manifest, it *Item) {
	it.Set(MetaSubType, "Designer")
	it.Set(MetaGenerator, "MSBuild:Compile")

	if !strings.HasSuffix(strings.ToLower(it.Include), markupExt) {
		return
	}
	code := it.Include + ".cs"
	if cb, ok := m.Find(code); ok && cb.Type == Compile {
		cb.Set(MetaDependentUpon, baseName(it.Include))
	}
}

// markupFor returns the markup path owning a code-behind include.
func markupFor(include string) (string, bool) {
	if !strings.HasSuffix(strings.ToLower(include), codeBehindExt) {
		return "", false
	}
	return include[:len(include)-len(".cs")], true
}
