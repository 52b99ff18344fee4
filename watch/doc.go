// Package watch keeps manifests in step with the filesystem.
//
// A Watcher receives fsnotify events for a directory tree, a Batcher coalesces them
// until the tree has been quiet for a while, and a Syncer turns each batch into
// manifest edits: one Add per manifest and build action for created files, a Remove
// for each deleted path, and a Rename when a batch holds exactly one move.
//
// Batches are applied one at a time from a single goroutine, so edits to the same
// manifest never overlap.
package watch
