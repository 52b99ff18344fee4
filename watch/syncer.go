package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/willibrandon/csprojsync/manifest"
	"github.com/willibrandon/csprojsync/observability"
)

// Locator finds the manifest owning a path. *manifest.Locator implements it.
type Locator interface {
	Locate(ctx context.Context, path string) (string, bool)
}

// Editor edits manifests on disk. *manifest.Editor implements it.
type Editor interface {
	Query(ctx context.Context, manifestPath, itemPath string) (manifest.BuildAction, bool)
	Add(ctx context.Context, manifestPath string, itemPaths []string, action manifest.BuildAction) error
	Remove(ctx context.Context, manifestPath, itemPath string) error
	Rename(ctx context.Context, manifestPath, oldPath, newPath string) error
}

// Syncer applies batches of filesystem events to the manifests that own them.
type Syncer struct {
	locator     Locator
	editor      Editor
	rules       map[string]manifest.BuildAction
	projectExts []string
	ignore      map[string]bool
	logger      observability.Logger

	// watchDir is called for every directory found below a created path.
	watchDir func(string)
}

// NewSyncer creates a Syncer.
func NewSyncer(locator Locator, editor Editor, opts ...Option) *Syncer {
	o := newOptions(opts)
	return &Syncer{
		locator:     locator,
		editor:      editor,
		rules:       o.rules,
		projectExts: o.projectExts,
		ignore:      o.ignore,
		logger:      o.logger,
		watchDir:    func(string) {},
	}
}

// Apply applies one batch. A batch holding exactly one Rename and one Create is a move
// and is applied as a manifest rename; other renames count as removals. Removals run
// before creations, and paths that exist again by the time the batch is applied are
// not removed. Created files that are already registered, are project-system files
// or have no build action rule are skipped; the rest are added with one write per
// manifest and build action. Failures are logged and do not stop the batch.
func (s *Syncer) Apply(ctx context.Context, batch []Event) {
	if len(batch) == 0 {
		return
	}

	id := uuid.NewString()
	ctx, span := observability.StartWatchBatchSpan(ctx, id, len(batch))
	defer span.End()
	observability.RecordWatchBatch(len(batch))

	log := s.logger.ForContext("BatchId", id)
	log.Debug("Applying {Count} filesystem events", len(batch))

	creates, removes, renames := split(batch)
	if len(renames) == 1 && len(creates) == 1 && renames[0] != creates[0] {
		s.move(ctx, log, renames[0], creates[0])
		creates, renames = nil, nil
	}

	for _, p := range append(renames, removes...) {
		s.remove(ctx, log, p)
	}
	s.create(ctx, log, creates)
}

// split groups event paths by operation, dropping repeats and keeping first-seen order.
func split(batch []Event) (creates, removes, renames []string) {
	seen := make(map[Event]bool, len(batch))
	for _, ev := range batch {
		if seen[ev] {
			continue
		}
		seen[ev] = true
		switch ev.Op {
		case Create:
			creates = append(creates, ev.Path)
		case Remove:
			removes = append(removes, ev.Path)
		case Rename:
			renames = append(renames, ev.Path)
		}
	}
	return creates, removes, renames
}

func (s *Syncer) move(ctx context.Context, log observability.Logger, oldPath, newPath string) {
	if info, err := os.Stat(newPath); err == nil && info.IsDir() {
		s.expand([]string{newPath})
	}

	proj, ok := s.locator.Locate(ctx, oldPath)
	if !ok {
		s.create(ctx, log, []string{newPath})
		return
	}

	// A move into another project keeps the build action but changes manifests.
	if target, ok := s.locator.Locate(ctx, newPath); ok && target != proj {
		action, registered := s.editor.Query(ctx, proj, oldPath)
		s.remove(ctx, log, oldPath)
		if !registered {
			s.create(ctx, log, []string{newPath})
			return
		}
		if err := s.editor.Add(ctx, target, []string{newPath}, action); err != nil {
			log.Error("Failed to add {Path} to {Manifest}: {Error}", newPath, target, err)
		}
		return
	}

	if err := s.editor.Rename(ctx, proj, oldPath, newPath); err != nil {
		log.Error("Failed to rename {OldPath} to {NewPath} in {Manifest}: {Error}", oldPath, newPath, proj, err)
	}
}

func (s *Syncer) remove(ctx context.Context, log observability.Logger, path string) {
	if _, err := os.Lstat(path); err == nil {
		log.Verbose("Skipping removal of {Path}, it exists again", path)
		return
	}
	proj, ok := s.locator.Locate(ctx, path)
	if !ok {
		return
	}
	if err := s.editor.Remove(ctx, proj, path); err != nil {
		log.Error("Failed to remove {Path} from {Manifest}: {Error}", path, proj, err)
	}
}

type addGroup struct {
	manifest string
	action   manifest.BuildAction
}

func (s *Syncer) create(ctx context.Context, log observability.Logger, paths []string) {
	var order []addGroup
	groups := make(map[addGroup][]string)

	for _, p := range s.expand(paths) {
		if manifest.IsManifestFile(p, s.projectExts...) {
			continue
		}
		proj, ok := s.locator.Locate(ctx, p)
		if !ok {
			log.Verbose("No manifest owns {Path}", p)
			continue
		}
		if _, registered := s.editor.Query(ctx, proj, p); registered {
			continue
		}
		action, ok := manifest.InferBuildAction(p, false, s.rules)
		if !ok {
			log.Info("No build action rule for {Path}, leaving it unregistered", p)
			continue
		}

		g := addGroup{manifest: proj, action: action}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], p)
	}

	for _, g := range order {
		if err := s.editor.Add(ctx, g.manifest, groups[g], g.action); err != nil {
			log.Error("Failed to add {Count} items to {Manifest}: {Error}", len(groups[g]), g.manifest, err)
		}
	}
}

// expand resolves created paths to the regular files they contain. Directories are
// walked, skipping ignored names, and every directory found is handed to watchDir.
// Paths that no longer exist are dropped.
func (s *Syncer) expand(paths []string) []string {
	var files []string
	for _, p := range paths {
		info, err := os.Lstat(p)
		if err != nil {
			continue
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				files = append(files, p)
			}
			continue
		}
		if s.ignore[filepath.Base(p)] {
			continue
		}

		_ = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != p && s.ignore[d.Name()] {
					return filepath.SkipDir
				}
				s.watchDir(path)
				return nil
			}
			if d.Type().IsRegular() {
				files = append(files, path)
			}
			return nil
		})
	}
	return files
}
