package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
)

// Adapter names accepted by WithAdapter.
const (
	AdapterFS     = "fs"
	AdapterSQLite = "sqlite"
	AdapterMemory = "memory"
)

// options holds the internal configuration for a board runtime.
type options struct {
	gateway core.Gateway
	logger  *slog.Logger
	adapter string
	format  string

	autoInit  bool
	gitless   *bool
	forceTemp bool
	mustExist bool
	readOnly  bool
	devSafety bool
	systemDir string

	errorHandler   func(error)
	viewport       *layout.Viewport
	resizeDebounce time.Duration
	eventBuffer    int
}

// Option defines a functional option for opening a board.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		adapter:   AdapterFS,
		devSafety: true,
		systemDir: ".boxpad",
	}
}

func collect(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithAutoInit creates the board directory (and git repository) when missing.
func WithAutoInit(auto bool) Option {
	return func(o *options) {
		o.autoInit = auto
	}
}

// WithVersioning enables or disables git commits on every save.
// When never set, versioning is detected from the directory.
func WithVersioning(enabled bool) Option {
	return func(o *options) {
		gitless := !enabled
		o.gitless = &gitless
	}
}

// WithForceTemp forces the board into a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithMustExist fails when the board directory does not exist.
func WithMustExist(must bool) Option {
	return func(o *options) {
		o.mustExist = must
	}
}

// WithLogger sets the logger for the board and its gateway.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithGateway injects a storage gateway. The adapter setting is then ignored.
func WithGateway(gw core.Gateway) Option {
	return func(o *options) {
		o.gateway = gw
	}
}

// WithAdapter selects the storage adapter by name: "fs" (default), "sqlite" or "memory".
func WithAdapter(name string) Option {
	return func(o *options) {
		if name != "" {
			o.adapter = name
		}
	}
}

// WithFormat selects the on-disk format of the fs adapter: "json" (default) or "yaml".
func WithFormat(format string) Option {
	return func(o *options) {
		o.format = format
	}
}

// WithSystemDir names the hidden directory kept out of git. Defaults to ".boxpad".
func WithSystemDir(name string) Option {
	return func(o *options) {
		if name != "" {
			o.systemDir = name
		}
	}
}

// WithReadOnly opens the board without writing anything. Saves return
// core.ErrReadOnly and the dev sandbox is bypassed.
func WithReadOnly(enabled bool) Option {
	return func(o *options) {
		o.readOnly = enabled
	}
}

// WithDevSafety controls the sandbox used when running via `go run` or `go test`.
// By default the board is redirected to a temporary directory.
//
// CAUTION: Only disable this if you are sure your code is safe.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives failures of the fs watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithViewport sets the window used to place new notes.
func WithViewport(vp layout.Viewport) Option {
	return func(o *options) {
		o.viewport = &vp
	}
}

// WithResizeDebounce coalesces size-change writes.
func WithResizeDebounce(d time.Duration) Option {
	return func(o *options) {
		o.resizeDebounce = d
	}
}

// WithEventBuffer sets the per-subscriber event buffer. Zero means default (100).
func WithEventBuffer(size int) Option {
	return func(o *options) {
		o.eventBuffer = size
	}
}
