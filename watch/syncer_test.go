package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willibrandon/csprojsync/manifest"
)

// fakeLocator maps directory prefixes to manifests; the longest prefix wins.
type fakeLocator map[string]string

func (l fakeLocator) Locate(_ context.Context, path string) (string, bool) {
	best := ""
	for dir := range l {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) && len(dir) > len(best) {
			best = dir
		}
	}
	if best == "" {
		return "", false
	}
	return l[best], true
}

type editCall struct {
	Op       string
	Manifest string
	Paths    []string
	Action   manifest.BuildAction
}

type fakeEditor struct {
	mu         sync.Mutex
	calls      []editCall
	registered map[string]manifest.BuildAction
	addErr     error
}

func newFakeEditor() *fakeEditor {
	return &fakeEditor{registered: make(map[string]manifest.BuildAction)}
}

func (e *fakeEditor) Query(_ context.Context, _, itemPath string) (manifest.BuildAction, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.registered[itemPath]
	return a, ok
}

func (e *fakeEditor) Add(_ context.Context, manifestPath string, itemPaths []string, action manifest.BuildAction) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, editCall{Op: "add", Manifest: manifestPath, Paths: itemPaths, Action: action})
	return e.addErr
}

func (e *fakeEditor) Remove(_ context.Context, manifestPath, itemPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, editCall{Op: "remove", Manifest: manifestPath, Paths: []string{itemPath}})
	return nil
}

func (e *fakeEditor) Rename(_ context.Context, manifestPath, oldPath, newPath string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, editCall{Op: "rename", Manifest: manifestPath, Paths: []string{oldPath, newPath}})
	return nil
}

func (e *fakeEditor) snapshot() []editCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]editCall(nil), e.calls...)
}

func touch(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, nil, 0o644))
	}
}

func creates(paths ...string) []Event {
	events := make([]Event, 0, len(paths))
	for _, p := range paths {
		events = append(events, Event{Path: p, Op: Create})
	}
	return events
}

func TestSyncer_CreatesGroupedPerManifestAndAction(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App.csproj")
	a, page, b, readme := filepath.Join(root, "a.cs"), filepath.Join(root, "Main.xaml"), filepath.Join(root, "b.cs"), filepath.Join(root, "README.md")
	touch(t, a, page, b, readme)

	editor := newFakeEditor()
	s := NewSyncer(fakeLocator{root: proj}, editor)
	s.Apply(context.Background(), creates(a, page, b, readme, a))

	assert.Equal(t, []editCall{
		{Op: "add", Manifest: proj, Paths: []string{a, b}, Action: manifest.Compile},
		{Op: "add", Manifest: proj, Paths: []string{page}, Action: manifest.Page},
	}, editor.snapshot())
}

func TestSyncer_CreateSkips(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App", "App.csproj")
	registered := filepath.Join(root, "App", "Known.cs")
	project := filepath.Join(root, "App", "Other.csproj")
	shared := filepath.Join(root, "App", "Shared.projitems")
	outside := filepath.Join(root, "Loose", "x.cs")
	gone := filepath.Join(root, "App", "gone.cs")
	touch(t, registered, project, shared, outside)

	editor := newFakeEditor()
	editor.registered[registered] = manifest.Compile
	s := NewSyncer(fakeLocator{filepath.Join(root, "App"): proj}, editor)

	s.Apply(context.Background(), creates(registered, project, shared, outside, gone))

	assert.Empty(t, editor.snapshot())
}

func TestSyncer_CustomRulesAndProjectExtensions(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App.vbproj")
	vb := filepath.Join(root, "Module.vb")
	other := filepath.Join(root, "Lib.vbproj")
	touch(t, vb, other)

	editor := newFakeEditor()
	s := NewSyncer(fakeLocator{root: proj}, editor,
		WithActionRules(map[string]manifest.BuildAction{".vb": manifest.Compile}),
		WithProjectExtensions(".vbproj"))
	s.Apply(context.Background(), creates(vb, other))

	assert.Equal(t, []editCall{{Op: "add", Manifest: proj, Paths: []string{vb}, Action: manifest.Compile}}, editor.snapshot())
}

func TestSyncer_NewDirectoryIsExpanded(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App.csproj")
	dir := filepath.Join(root, "Models")
	touch(t,
		filepath.Join(dir, "User.cs"),
		filepath.Join(dir, "Deep", "Role.cs"),
		filepath.Join(dir, "obj", "Generated.cs"))

	editor := newFakeEditor()
	s := NewSyncer(fakeLocator{root: proj}, editor)
	var watched []string
	s.watchDir = func(p string) { watched = append(watched, p) }

	s.Apply(context.Background(), creates(dir))

	calls := editor.snapshot()
	require.Len(t, calls, 1)
	paths := append([]string(nil), calls[0].Paths...)
	sort.Strings(paths)
	assert.Equal(t, []string{filepath.Join(dir, "Deep", "Role.cs"), filepath.Join(dir, "User.cs")}, paths)
	assert.ElementsMatch(t, []string{dir, filepath.Join(dir, "Deep")}, watched)
}

func TestSyncer_Removes(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App.csproj")
	deleted := filepath.Join(root, "deleted.cs")
	recreated := filepath.Join(root, "recreated.cs")
	touch(t, recreated)

	editor := newFakeEditor()
	s := NewSyncer(fakeLocator{root: proj}, editor)
	s.Apply(context.Background(), []Event{
		{Path: deleted, Op: Remove},
		{Path: recreated, Op: Remove},
		{Path: deleted, Op: Remove},
	})

	assert.Equal(t, []editCall{{Op: "remove", Manifest: proj, Paths: []string{deleted}}}, editor.snapshot())
}

func TestSyncer_SingleMoveIsRename(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App.csproj")
	oldPath, newPath := filepath.Join(root, "Old.cs"), filepath.Join(root, "New.cs")
	touch(t, newPath)

	editor := newFakeEditor()
	s := NewSyncer(fakeLocator{root: proj}, editor)
	s.Apply(context.Background(), []Event{
		{Path: oldPath, Op: Rename},
		{Path: newPath, Op: Create},
	})

	assert.Equal(t, []editCall{{Op: "rename", Manifest: proj, Paths: []string{oldPath, newPath}}}, editor.snapshot())
}

func TestSyncer_MoveAcrossManifests(t *testing.T) {
	root := t.TempDir()
	appDir, libDir := filepath.Join(root, "App"), filepath.Join(root, "Lib")
	app, lib := filepath.Join(appDir, "App.csproj"), filepath.Join(libDir, "Lib.csproj")
	oldPath, newPath := filepath.Join(appDir, "Res.resx"), filepath.Join(libDir, "Res.resx")
	touch(t, newPath)

	editor := newFakeEditor()
	editor.registered[oldPath] = manifest.EmbeddedResource
	s := NewSyncer(fakeLocator{appDir: app, libDir: lib}, editor)
	s.Apply(context.Background(), []Event{
		{Path: oldPath, Op: Rename},
		{Path: newPath, Op: Create},
	})

	assert.Equal(t, []editCall{
		{Op: "remove", Manifest: app, Paths: []string{oldPath}},
		{Op: "add", Manifest: lib, Paths: []string{newPath}, Action: manifest.EmbeddedResource},
	}, editor.snapshot())
}

func TestSyncer_AmbiguousMovesFallBack(t *testing.T) {
	root := t.TempDir()
	proj := filepath.Join(root, "App.csproj")
	old1, old2 := filepath.Join(root, "A.cs"), filepath.Join(root, "B.cs")
	new1, new2 := filepath.Join(root, "C.cs"), filepath.Join(root, "D.cs")
	touch(t, new1, new2)

	editor := newFakeEditor()
	s := NewSyncer(fakeLocator{root: proj}, editor)
	s.Apply(context.Background(), []Event{
		{Path: old1, Op: Rename},
		{Path: new1, Op: Create},
		{Path: old2, Op: Rename},
		{Path: new2, Op: Create},
	})

	assert.Equal(t, []editCall{
		{Op: "remove", Manifest: proj, Paths: []string{old1}},
		{Op: "remove", Manifest: proj, Paths: []string{old2}},
		{Op: "add", Manifest: proj, Paths: []string{new1, new2}, Action: manifest.Compile},
	}, editor.snapshot())
}

func TestSyncer_FailuresDoNotStopBatch(t *testing.T) {
	root := t.TempDir()
	app, lib := filepath.Join(root, "App", "App.csproj"), filepath.Join(root, "Lib", "Lib.csproj")
	a, b := filepath.Join(root, "App", "a.cs"), filepath.Join(root, "Lib", "b.cs")
	touch(t, a, b)

	editor := newFakeEditor()
	editor.addErr = errors.New("permission denied")
	s := NewSyncer(fakeLocator{filepath.Join(root, "App"): app, filepath.Join(root, "Lib"): lib}, editor)
	s.Apply(context.Background(), creates(a, b))

	assert.Len(t, editor.snapshot(), 2)
}

func TestSyncer_EmptyBatch(t *testing.T) {
	editor := newFakeEditor()
	NewSyncer(fakeLocator{}, editor).Apply(context.Background(), nil)
	assert.Empty(t, editor.snapshot())
}
