package manifest

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// BuildAction is the item type under which a manifest registers a file.
type BuildAction string

// Build actions understood by the editor.
const (
	Folder           BuildAction = "Folder"
	Compile          BuildAction = "Compile"
	Content          BuildAction = "Content"
	EmbeddedResource BuildAction = "EmbeddedResource"
	PRIResource      BuildAction = "PRIResource"
	Page             BuildAction = "Page"
	None             BuildAction = "None"
)

// ErrUnknownBuildAction is returned when a build action is not one of the known values.
var ErrUnknownBuildAction = errors.New("unknown build action")

var allBuildActions = []BuildAction{Folder, Compile, Content, EmbeddedResource, PRIResource, Page, None}

// AllBuildActions returns every known build action in declaration order.
func AllBuildActions() []BuildAction {
	out := make([]BuildAction, len(allBuildActions))
	copy(out, allBuildActions)
	return out
}

// SelectableBuildActions returns the build actions a user may pick for a file.
// Folder is excluded because it only applies to directories.
func SelectableBuildActions() []BuildAction {
	var out []BuildAction
	for _, a := range allBuildActions {
		if a != Folder {
			out = append(out, a)
		}
	}
	return out
}

// IsKnown reports whether a is one of the known build actions.
func (a BuildAction) IsKnown() bool {
	for _, known := range allBuildActions {
		if a == known {
			return true
		}
	}
	return false
}

func (a BuildAction) String() string {
	return string(a)
}

// ParseBuildAction parses a build action name case-insensitively.
func ParseBuildAction(s string) (BuildAction, error) {
	for _, a := range allBuildActions {
		if strings.EqualFold(string(a), strings.TrimSpace(s)) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownBuildAction, s)
}

// DefaultActionRules maps file extensions to the build action used when none is given.
// The set mirrors the file templates: classes compile, pages are XAML, resources are PRI.
func DefaultActionRules() map[string]BuildAction {
	return map[string]BuildAction{
		".cs":   Compile,
		".xaml": Page,
		".resw": PRIResource,
	}
}

// InferBuildAction picks a build action for path from its extension. Directories are
// always Folder. Returns false when no rule matches.
func InferBuildAction(path string, isDir bool, rules map[string]BuildAction) (BuildAction, bool) {
	if isDir {
		return Folder, true
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "", false
	}
	a, ok := rules[ext]
	return a, ok
}
