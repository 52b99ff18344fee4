package manifest

import (
	"path/filepath"
	"strings"
)

// NormalizePath converts itemPath to the form stored in the Include attribute of
// manifestPath. A leading manifest directory is replaced with ThisFileDirectory for
// shared-items manifests and stripped for standalone projects. Paths outside the
// manifest directory are returned unchanged.
func NormalizePath(manifestPath, itemPath string) string {
	if filepath.IsAbs(itemPath) {
		itemPath = filepath.Clean(itemPath)
	}

	prefix := filepath.Dir(manifestPath)
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(itemPath, prefix) {
		return itemPath
	}

	rest := itemPath[len(prefix):]
	if KindOf(manifestPath) == SharedItems {
		return ThisFileDirectory + rest
	}
	return rest
}

// includeKey canonicalizes an Include value for comparison. MSBuild writes
// backslashes and folder items carry a trailing separator; neither affects identity.
func includeKey(include string) string {
	return strings.TrimRight(strings.ReplaceAll(include, `\`, "/"), "/")
}

// SameInclude reports whether two Include values name the same path.
func SameInclude(a, b string) bool {
	ka := includeKey(a)
	return ka != "" && ka == includeKey(b)
}

// underDirectory reports whether include lies strictly beneath dir. The comparison
// works on whole path segments, so "a/b" does not contain "a/bc/x.cs".
func underDirectory(include, dir string) bool {
	d := includeKey(dir)
	if d == "" {
		return false
	}
	return strings.HasPrefix(includeKey(include), d+"/")
}

// rebase moves include from beneath oldDir to beneath newDir, keeping the separator
// style of the original remainder. include must satisfy underDirectory(include, oldDir).
func rebase(include, oldDir, newDir string) string {
	rest := include[len(includeKey(oldDir)):]
	return strings.TrimRight(newDir, `\/`) + rest
}

// baseName returns the last element of an Include value written with either separator.
func baseName(include string) string {
	include = strings.TrimRight(include, `\/`)
	if i := strings.LastIndexAny(include, `\/`); i >= 0 {
		return include[i+1:]
	}
	return include
}
