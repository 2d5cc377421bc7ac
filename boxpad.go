package boxpad

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/boxpad/internal/platform"
	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
)

// --- Types ---

// Board is the note board engine.
type Board = board.Board

// Note is one box on the board.
type Note = core.Note

// Snapshot is a saved copy of a board.
type Snapshot = core.Snapshot

// Runtime is an opened board with its gateway.
type Runtime = platform.Runtime

// Config is the boxpad.yaml / BOXPAD_* configuration.
type Config = platform.Config

// Note variants.
const (
	Freeform  = core.VariantFreeform
	Rectangle = core.VariantRectangle
	Notepad   = core.VariantNotepad
)

// --- Configuration ---

// Option defines a functional option for opening a board.
type Option = platform.Option

// WithAutoInit creates the board directory (and git repository) when missing.
func WithAutoInit(auto bool) Option { return platform.WithAutoInit(auto) }

// WithVersioning enables or disables git commits on every save.
func WithVersioning(enabled bool) Option { return platform.WithVersioning(enabled) }

// WithForceTemp forces the board into a temporary directory.
func WithForceTemp(force bool) Option { return platform.WithForceTemp(force) }

// WithMustExist fails when the board directory does not exist.
func WithMustExist(must bool) Option { return platform.WithMustExist(must) }

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option { return platform.WithLogger(logger) }

// WithGateway injects a storage gateway.
func WithGateway(gw core.Gateway) Option { return platform.WithGateway(gw) }

// WithAdapter selects the storage adapter: "fs", "sqlite" or "memory".
func WithAdapter(name string) Option { return platform.WithAdapter(name) }

// WithFormat selects the fs on-disk format: "json" or "yaml".
func WithFormat(format string) Option { return platform.WithFormat(format) }

// WithSystemDir names the hidden directory kept out of git.
func WithSystemDir(name string) Option { return platform.WithSystemDir(name) }

// WithReadOnly opens the board without writing anything.
func WithReadOnly(enabled bool) Option { return platform.WithReadOnly(enabled) }

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option { return platform.WithDevSafety(enabled) }

// WithViewport sets the window used to place new notes.
func WithViewport(vp layout.Viewport) Option { return platform.WithViewport(vp) }

// WithResizeDebounce coalesces size-change writes.
func WithResizeDebounce(d time.Duration) Option { return platform.WithResizeDebounce(d) }

// WithEventBuffer sets the per-subscriber event buffer.
func WithEventBuffer(size int) Option { return platform.WithEventBuffer(size) }

// --- Factory ---

// Open prepares storage, creates the board and loads it.
func Open(ctx context.Context, path string, opts ...Option) (*Runtime, error) {
	return platform.Open(ctx, path, opts...)
}

// Init prepares storage without opening a board.
func Init(ctx context.Context, path string, opts ...Option) (core.Gateway, error) {
	return platform.Init(ctx, path, opts...)
}

// LoadConfig reads boxpad.yaml and BOXPAD_* overrides for a board directory.
func LoadConfig(dir string) (Config, error) { return platform.LoadConfig(dir) }

// --- Safety & Utils ---

// ResolveBoardPath determines where the board really lives under the dev sandbox rules.
func ResolveBoardPath(userPath string, forceTemp bool) string {
	return platform.ResolveBoardPath(userPath, forceTemp)
}

// IsDevRun reports whether the process runs via `go run` or `go test`.
func IsDevRun() bool { return platform.IsDevRun() }

// FindRoot looks upwards for a board directory.
func FindRoot(startDir string) (string, error) { return platform.FindRoot(startDir) }

// --- Change reasons ---

const (
	CommitTypeFeat     = platform.CommitTypeFeat
	CommitTypeFix      = platform.CommitTypeFix
	CommitTypeDocs     = platform.CommitTypeDocs
	CommitTypeStyle    = platform.CommitTypeStyle
	CommitTypeRefactor = platform.CommitTypeRefactor
	CommitTypePerf     = platform.CommitTypePerf
	CommitTypeTest     = platform.CommitTypeTest
	CommitTypeChore    = platform.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// WithChangeReason attaches a commit message to ctx for the next save.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return core.WithChangeReason(ctx, reason)
}

// AppendFooter marks a free-form commit message as made by boxpad.
func AppendFooter(msg string) string { return platform.AppendFooter(msg) }
