package manifest

import "github.com/willibrandon/csprojsync/observability"

type options struct {
	logger      observability.Logger
	projectExts []string
}

// Option configures a Locator or an Editor.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger observability.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithProjectExtensions sets the standalone project extensions the Locator searches
// for, e.g. ".csproj", ".vbproj". Extensions without a leading dot get one.
func WithProjectExtensions(exts ...string) Option {
	return func(o *options) {
		var clean []string
		for _, e := range exts {
			if e == "" {
				continue
			}
			if e[0] != '.' {
				e = "." + e
			}
			clean = append(clean, e)
		}
		if len(clean) > 0 {
			o.projectExts = clean
		}
	}
}

func newOptions(opts []Option) options {
	o := options{
		logger:      observability.NewNullLogger(),
		projectExts: []string{ProjectExt},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
