// Package manifest keeps MSBuild item manifests (.csproj and shared .projitems files)
// in sync with the files on disk.
//
// A Locator finds the manifest that owns a file by walking up the directory tree,
// preferring shared-items manifests over standalone projects. An Editor reads the
// manifest, adds, removes, queries, or renames item entries, and writes it back.
//
// Every Editor call is a self-contained read/modify/write cycle; nothing is cached
// between calls. Two concurrent calls against the same manifest race, and the last
// writer wins. Callers that see several file events at once should pass all paths to a
// single Add call.
//
// A missing or malformed manifest is not an error: queries report "not present" and
// mutations do nothing. Only a failed write is returned to the caller.
package manifest
