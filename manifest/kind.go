package manifest

import (
	"path/filepath"
	"strings"
)

// Kind distinguishes how a manifest stores item paths.
type Kind int

const (
	// StandaloneProject manifests (.csproj) store paths relative to their directory.
	StandaloneProject Kind = iota
	// SharedItems manifests (.projitems) prefix paths with ThisFileDirectory.
	SharedItems
)

const (
	// SharedItemsExt is the extension of shared-items manifests.
	SharedItemsExt = ".projitems"
	// ProjectExt is the default extension of standalone project manifests.
	ProjectExt = ".csproj"
	// ThisFileDirectory is the MSBuild property that shared-items manifests use in
	// place of their own directory.
	ThisFileDirectory = "$(MSBuildThisFileDirectory)"
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case SharedItems:
		return "SharedItems"
	default:
		return "StandaloneProject"
	}
}

// KindOf returns the manifest kind implied by the file extension.
func KindOf(manifestPath string) Kind {
	if strings.EqualFold(filepath.Ext(manifestPath), SharedItemsExt) {
		return SharedItems
	}
	return StandaloneProject
}

// reservedExts are project-system files whose build action is never managed.
var reservedExts = []string{".sln", ".slnx", ".shproj", ".projitems", ".user"}

// IsManifestFile reports whether path is a manifest or other project-system file that
// must never be registered as an item. projectExts lists the standalone extensions in
// use; when empty, ProjectExt is assumed.
func IsManifestFile(path string, projectExts ...string) bool {
	if filepath.Base(path) == "project.json" {
		return true
	}
	if len(projectExts) == 0 {
		projectExts = []string{ProjectExt}
	}
	ext := filepath.Ext(path)
	for _, set := range [][]string{projectExts, reservedExts} {
		for _, e := range set {
			if strings.EqualFold(ext, e) {
				return true
			}
		}
	}
	return false
}
