// Package clipboard provides board.Sink implementations for backups.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/atotto/clipboard"

	"github.com/aretw0/boxpad/pkg/board"
)

// ErrUnsupported is returned when no clipboard utility is available
// (headless machines, CI).
var ErrUnsupported = errors.New("clipboard is not available")

// Sink writes to the system clipboard.
type Sink struct{}

// New returns the system clipboard sink.
func New() Sink { return Sink{} }

// Available reports whether a clipboard utility was found.
func Available() bool {
	return !clipboard.Unsupported
}

// WriteText implements board.Sink.
func (Sink) WriteText(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return ErrUnsupported
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// WriterSink writes the backup to w, e.g. stdout.
type WriterSink struct {
	W io.Writer
}

// WriteText implements board.Sink.
func (s WriterSink) WriteText(_ context.Context, text string) error {
	if _, err := io.WriteString(s.W, text); err != nil {
		return err
	}
	_, err := io.WriteString(s.W, "\n")
	return err
}

var _ board.Sink = Sink{}
var _ board.Sink = WriterSink{}
