package typed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/boxpad/pkg/core"
)

// Store binds a Key to a gateway.
type Store[T any] struct {
	gw     core.Gateway
	key    Key[T]
	logger *slog.Logger
}

// NewStore creates a typed view of key inside gw. A nil logger discards.
func NewStore[T any](gw core.Gateway, key Key[T], logger *slog.Logger) *Store[T] {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store[T]{gw: gw, key: key, logger: logger}
}

// Key returns the key description.
func (s *Store[T]) Key() Key[T] {
	return s.key
}

// Load reads the value, falling back to the key's default when it is missing
// or malformed. Only gateway I/O failures are returned, and even then the
// default value accompanies the error.
func (s *Store[T]) Load(ctx context.Context) (T, error) {
	data, err := s.gw.Load(ctx, s.key.Name)
	if errors.Is(err, core.ErrNotFound) {
		return s.key.zero(), nil
	}
	if err != nil {
		s.logger.Error("failed to load key", "key", s.key.Name, "error", err)
		return s.key.zero(), fmt.Errorf("failed to load %s: %w", s.key.Name, err)
	}

	v, version, err := s.key.Decode(data)
	if err != nil {
		s.logger.Warn("discarding unreadable payload", "key", s.key.Name, "error", err)
		return s.key.zero(), nil
	}
	if version < s.key.Version {
		s.logger.Debug("migrated payload", "key", s.key.Name, "from", version, "to", s.key.Version)
	}
	return v, nil
}

// Save encodes v at the current version and writes it.
func (s *Store[T]) Save(ctx context.Context, v T) error {
	data, err := s.key.Encode(v)
	if err != nil {
		return err
	}
	if err := s.gw.Save(ctx, s.key.Name, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.key.Name, err)
	}
	return nil
}
