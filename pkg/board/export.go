package board

import (
	"context"
	"encoding/json"
	"fmt"
)

// Sink receives exported text, typically the system clipboard.
type Sink interface {
	WriteText(ctx context.Context, text string) error
}

// ExportJSON serializes the live notes as a bare JSON array, the shape older
// releases stored and the shape users paste back in.
func (b *Board) ExportJSON() (string, error) {
	b.mu.Lock()
	data, err := json.MarshalIndent(b.notes, "", "  ")
	b.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("failed to export notes: %w", err)
	}
	return string(data), nil
}

// CopyBackup hands the export to sink. Failures are logged and reported
// through the return value only; board state never changes.
func (b *Board) CopyBackup(ctx context.Context, sink Sink) bool {
	text, err := b.ExportJSON()
	if err != nil {
		b.logger.Error("backup export failed", "error", err)
		return false
	}
	if sink == nil {
		b.logger.Warn("backup skipped, no sink")
		return false
	}
	if err := sink.WriteText(ctx, text); err != nil {
		b.logger.Warn("failed to copy backup", "error", err)
		return false
	}
	b.logger.Debug("backup copied", "bytes", len(text))
	return true
}
