package watch

import "github.com/fsnotify/fsnotify"

// Op is the kind of filesystem change carried by an Event.
type Op int

const (
	// Create reports a new file or directory, including the new name of a move.
	Create Op = iota

	// Remove reports a deleted path.
	Remove

	// Rename reports the old name of a moved path.
	Rename
)

func (o Op) String() string {
	switch o {
	case Create:
		return "create"
	case Remove:
		return "remove"
	case Rename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event is one filesystem change.
type Event struct {
	Path string
	Op   Op
}

// fromFsnotify converts an fsnotify event. Writes and attribute changes do not affect
// manifests and are dropped.
func fromFsnotify(ev fsnotify.Event) (Event, bool) {
	switch {
	case ev.Has(fsnotify.Create):
		return Event{Path: ev.Name, Op: Create}, true
	case ev.Has(fsnotify.Remove):
		return Event{Path: ev.Name, Op: Remove}, true
	case ev.Has(fsnotify.Rename):
		return Event{Path: ev.Name, Op: Rename}, true
	default:
		return Event{}, false
	}
}
