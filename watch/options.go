package watch

import (
	"strings"
	"time"

	"github.com/willibrandon/csprojsync/manifest"
	"github.com/willibrandon/csprojsync/observability"
)

// DefaultDebounce is how long the tree must be quiet before a batch is applied.
const DefaultDebounce = time.Second

// DefaultIgnore lists directory names that are never watched.
var DefaultIgnore = []string{"bin", "obj", ".git", ".vs", "node_modules"}

type options struct {
	debounce    time.Duration
	ignore      map[string]bool
	rules       map[string]manifest.BuildAction
	projectExts []string
	logger      observability.Logger
}

// Option configures a Watcher or a Syncer.
type Option func(*options)

// WithDebounce sets the quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithIgnore replaces the ignored directory names.
func WithIgnore(names ...string) Option {
	return func(o *options) {
		o.ignore = make(map[string]bool, len(names))
		for _, n := range names {
			if n = strings.TrimSpace(n); n != "" {
				o.ignore[n] = true
			}
		}
	}
}

// WithActionRules sets the extension rules used to pick a build action for new files.
func WithActionRules(rules map[string]manifest.BuildAction) Option {
	return func(o *options) {
		if len(rules) > 0 {
			o.rules = rules
		}
	}
}

// WithProjectExtensions sets the standalone project extensions, so that project files
// appearing in the tree are not registered as items.
func WithProjectExtensions(exts ...string) Option {
	return func(o *options) {
		if len(exts) > 0 {
			o.projectExts = exts
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		debounce:    DefaultDebounce,
		rules:       manifest.DefaultActionRules(),
		projectExts: []string{manifest.ProjectExt},
		logger:      observability.NewNullLogger(),
	}
	WithIgnore(DefaultIgnore...)(&o)
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
