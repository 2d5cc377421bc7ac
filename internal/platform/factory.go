package platform

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
)

// Runtime is an opened board together with the gateway it persists through.
type Runtime struct {
	Board   *board.Board
	Gateway core.Gateway
	logger  *slog.Logger
}

// Open prepares storage, creates the board and loads its stored state.
//
//	rt, err := platform.Open(ctx, "./board", platform.WithAutoInit(true))
func Open(ctx context.Context, uri string, opts ...Option) (*Runtime, error) {
	o := collect(opts)
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	gw, err := initGateway(ctx, uri, o)
	if err != nil {
		return nil, err
	}

	bopts := []board.Option{
		board.WithLogger(o.logger),
		board.WithResizeDebounce(o.resizeDebounce),
		board.WithEventBuffer(o.eventBuffer),
	}
	if o.viewport != nil {
		bopts = append(bopts, board.WithViewport(*o.viewport))
	}
	b := board.New(gw, bopts...)

	rt := &Runtime{Board: b, Gateway: gw, logger: o.logger}
	if err := b.Load(ctx); err != nil {
		return rt, errors.Join(err, rt.closeGateway())
	}
	return rt, nil
}

// Follow keeps the board in sync with changes other processes make to the
// store, when the gateway can observe them. It reports whether it could.
func (r *Runtime) Follow(ctx context.Context) (bool, error) {
	w, ok := r.Gateway.(core.Watchable)
	if !ok {
		r.logger.Debug("gateway cannot be watched", "gateway", componentType(r.Gateway))
		return false, nil
	}
	return true, r.Board.Follow(ctx, w)
}

// Close flushes pending writes and releases the gateway.
func (r *Runtime) Close(ctx context.Context) error {
	return errors.Join(r.Board.Close(ctx), r.closeGateway())
}

func (r *Runtime) closeGateway() error {
	if c, ok := r.Gateway.(core.Closer); ok {
		return c.Close()
	}
	return nil
}

func componentType(gw core.Gateway) string {
	if c, ok := gw.(interface{ ComponentType() string }); ok {
		return c.ComponentType()
	}
	return "unknown"
}
