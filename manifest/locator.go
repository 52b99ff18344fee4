package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/willibrandon/csprojsync/observability"
)

// Locator finds the manifest that owns a file.
type Locator struct {
	projectExts []string
	logger      observability.Logger
}

// NewLocator creates a Locator. By default it looks for .csproj standalone projects.
func NewLocator(opts ...Option) *Locator {
	o := newOptions(opts)
	return &Locator{projectExts: o.projectExts, logger: o.logger}
}

// ProjectExtensions returns the standalone project extensions searched for.
func (l *Locator) ProjectExtensions() []string {
	return append([]string(nil), l.projectExts...)
}

// Locate walks from the directory containing filePath up to the filesystem root and
// returns the nearest shared-items manifest. Only when no ancestor holds one does it
// search the same chain for a standalone project. Within one directory the first
// match in lexical order wins. Returns false when neither kind exists.
func (l *Locator) Locate(ctx context.Context, filePath string) (string, bool) {
	_, span := observability.StartLocateSpan(ctx, filePath)
	defer span.End()

	if abs, err := filepath.Abs(filePath); err == nil {
		filePath = abs
	}
	dir := filepath.Dir(filePath)

	path, ok := findUp(dir, []string{SharedItemsExt})
	if !ok {
		path, ok = findUp(dir, l.projectExts)
	}

	if !ok {
		observability.RecordLocate("", false)
		l.logger.Debug("No manifest owns {Path}", filePath)
		return "", false
	}

	kind := KindOf(path)
	observability.RecordLocate(kind.String(), true)
	span.SetAttributes(observability.AttrManifestPath.String(path))
	l.logger.Verbose("Located {Kind} manifest {Manifest} for {Path}", kind, path, filePath)
	return path, true
}

// findUp searches dir and each of its ancestors for a file with one of exts.
func findUp(dir string, exts []string) (string, bool) {
	for {
		if name, ok := firstWithExt(dir, exts); ok {
			return filepath.Join(dir, name), true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// firstWithExt returns the first regular file in dir whose extension is in exts.
// Unreadable directories count as empty.
func firstWithExt(dir string, exts []string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		for _, want := range exts {
			if strings.EqualFold(ext, want) {
				return entry.Name(), true
			}
		}
	}
	return "", false
}
