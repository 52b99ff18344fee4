package manifest

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/willibrandon/csprojsync/observability"
)

// Operation results reported to metrics.
const (
	resultUpdated   = "updated"
	resultUnchanged = "unchanged"
	resultSkipped   = "skipped"
	resultFailed    = "failed"
)

// Editor edits the item entries of manifests on disk. Each call reads the manifest,
// applies its change and writes the whole document back; no state is kept between
// calls.
type Editor struct {
	logger observability.Logger
}

// NewEditor creates an Editor.
func NewEditor(opts ...Option) *Editor {
	o := newOptions(opts)
	return &Editor{logger: o.logger}
}

// NormalizePath converts itemPath to the Include form used by manifestPath.
func (e *Editor) NormalizePath(manifestPath, itemPath string) string {
	return NormalizePath(manifestPath, itemPath)
}

// Query returns the build action itemPath is registered under in manifestPath.
// A missing or malformed manifest reports false.
func (e *Editor) Query(ctx context.Context, manifestPath, itemPath string) (BuildAction, bool) {
	ctx, span := observability.StartManifestSpan(ctx, "query", manifestPath)
	defer span.End()
	start := time.Now()

	m, ok := e.load(ctx, manifestPath)
	if !ok {
		observability.RecordManifestOperation("query", resultSkipped, time.Since(start))
		return "", false
	}

	it, found := m.Find(NormalizePath(manifestPath, itemPath))
	observability.RecordManifestOperation("query", resultUnchanged, time.Since(start))
	if !found {
		return "", false
	}
	return it.Type, true
}

// Add registers every path in itemPaths under action with a single read and a single
// write. Paths already registered are replaced, so a path never appears twice.
// A missing or malformed manifest is left alone and nil is returned.
func (e *Editor) Add(ctx context.Context, manifestPath string, itemPaths []string, action BuildAction) (err error) {
	if !action.IsKnown() {
		return fmt.Errorf("%w: %q", ErrUnknownBuildAction, action)
	}

	ctx, span := observability.StartManifestSpan(ctx, "add", manifestPath,
		observability.AttrBuildAction.String(string(action)),
		observability.AttrItemCount.Int(len(itemPaths)))
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	m, ok := e.load(ctx, manifestPath)
	if !ok {
		observability.RecordManifestOperation("add", resultSkipped, time.Since(start))
		return nil
	}

	includes := make([]string, 0, len(itemPaths))
	for _, p := range itemPaths {
		includes = append(includes, NormalizePath(manifestPath, p))
	}

	added := m.Add(action, includes...)
	if written, err := e.save(ctx, m, "add", start); err != nil || !written {
		return err
	}
	observability.RecordItemsChanged(string(action), "added", len(added))
	e.logger.InfoContext(ctx, "Added {Count} {BuildAction} items to {Manifest}", len(added), action, manifestPath)
	return nil
}

// Remove unregisters itemPath. When itemPath is a directory every item beneath it is
// removed too. A path that cannot be probed is treated as a file.
func (e *Editor) Remove(ctx context.Context, manifestPath, itemPath string) (err error) {
	ctx, span := observability.StartManifestSpan(ctx, "remove", manifestPath)
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	isDir := isDirectory(itemPath)

	m, ok := e.load(ctx, manifestPath)
	if !ok {
		observability.RecordManifestOperation("remove", resultSkipped, time.Since(start))
		return nil
	}

	include := NormalizePath(manifestPath, itemPath)
	if !isDir {
		// A deleted directory can no longer be probed; registered descendants prove it was one.
		isDir = m.hasItemsBeneath(include)
	}
	removed := m.Remove(include, isDir)
	if len(removed) == 0 {
		observability.RecordManifestOperation("remove", resultUnchanged, time.Since(start))
		return nil
	}

	if written, err := e.save(ctx, m, "remove", start); err != nil || !written {
		return err
	}
	for _, it := range removed {
		observability.RecordItemsChanged(string(it.Type), "removed", 1)
	}
	e.logger.InfoContext(ctx, "Removed {Count} items for {Path} from {Manifest}", len(removed), itemPath, manifestPath)
	return nil
}

// Rename moves the registration of oldPath to newPath, keeping its build action.
// An unregistered oldPath leaves the manifest untouched, except that when newPath is
// a directory the items registered beneath oldPath follow it.
func (e *Editor) Rename(ctx context.Context, manifestPath, oldPath, newPath string) (err error) {
	ctx, span := observability.StartManifestSpan(ctx, "rename", manifestPath)
	defer func() { observability.EndSpanWithError(span, err) }()
	start := time.Now()

	m, ok := e.load(ctx, manifestPath)
	if !ok {
		observability.RecordManifestOperation("rename", resultSkipped, time.Since(start))
		return nil
	}

	oldInc := NormalizePath(manifestPath, oldPath)
	newInc := NormalizePath(manifestPath, newPath)

	changed := 0
	if it, ok := m.Rename(oldInc, newInc); ok {
		changed++
		observability.RecordItemsChanged(string(it.Type), "renamed", 1)
	}
	if isDirectory(newPath) {
		moved := m.RenameDirectory(oldInc, newInc)
		changed += len(moved)
		for _, it := range moved {
			observability.RecordItemsChanged(string(it.Type), "renamed", 1)
		}
	}

	if changed == 0 {
		observability.RecordManifestOperation("rename", resultUnchanged, time.Since(start))
		return nil
	}

	if written, err := e.save(ctx, m, "rename", start); err != nil || !written {
		return err
	}
	e.logger.InfoContext(ctx, "Renamed {OldPath} to {NewPath} in {Manifest} ({Count} items)", oldPath, newPath, manifestPath, changed)
	return nil
}

// load reads and parses a manifest. Failures are logged and reported as false.
func (e *Editor) load(ctx context.Context, manifestPath string) (*Manifest, bool) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		e.logger.DebugContext(ctx, "Cannot read manifest {Manifest}: {Error}", manifestPath, err)
		return nil, false
	}
	m, err := Parse(manifestPath, data)
	if err != nil {
		e.logger.WarnContext(ctx, "Ignoring malformed manifest {Manifest}: {Error}", manifestPath, err)
		return nil, false
	}
	return m, true
}

// save writes the manifest back unless its rendering equals the bytes it was parsed
// from. Write failures are returned to the caller.
func (e *Editor) save(ctx context.Context, m *Manifest, operation string, start time.Time) (bool, error) {
	out := m.Bytes()
	if bytes.Equal(out, m.source) {
		observability.RecordManifestOperation(operation, resultUnchanged, time.Since(start))
		e.logger.DebugContext(ctx, "Manifest {Manifest} unchanged by {Operation}", m.Path, operation)
		return false, nil
	}
	if err := os.WriteFile(m.Path, out, 0o644); err != nil {
		observability.RecordManifestOperation(operation, resultFailed, time.Since(start))
		e.logger.ErrorContext(ctx, "Failed to write manifest {Manifest}: {Error}", m.Path, err)
		return false, fmt.Errorf("failed to write manifest %s: %w", m.Path, err)
	}
	observability.RecordManifestOperation(operation, resultUpdated, time.Since(start))
	return true, nil
}

// isDirectory probes path. Any probe failure, including a path that no longer exists,
// counts as not a directory.
func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
