// Package lifecycle bridges board and gateway events to lifecycle.Source.
package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/boxpad/pkg/core"
)

// Option configures a Source.
type Option func(*eventSource)

// WithTypes keeps only events of the given types. No types keeps everything.
func WithTypes(types ...core.EventType) Option {
	return func(s *eventSource) {
		if len(types) == 0 {
			return
		}
		s.keep = make(map[core.EventType]bool, len(types))
		for _, t := range types {
			s.keep[t] = true
		}
	}
}

// WithBuffer sets the capacity of the Events channel.
func WithBuffer(n int) Option {
	return func(s *eventSource) {
		if n > 0 {
			s.buffer = n
		}
	}
}

type eventSource struct {
	in     <-chan core.Event
	out    chan lifecycle.Event
	keep   map[core.EventType]bool
	buffer int
}

// NewSource creates a lifecycle.Source that re-emits events from in.
func NewSource(in <-chan core.Event, opts ...Option) lifecycle.Source {
	s := &eventSource{in: in}
	for _, opt := range opts {
		opt(s)
	}
	s.out = make(chan lifecycle.Event, s.buffer)
	return s
}

func (s *eventSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *eventSource) accepts(e core.Event) bool {
	return s.keep == nil || s.keep[e.Type]
}

// Start forwards events until ctx ends or the input closes, then closes Events.
func (s *eventSource) Start(ctx context.Context) error {
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			var e core.Event
			var ok bool
			select {
			case <-ctx.Done():
				return nil
			case e, ok = <-s.in:
			}
			if !ok {
				return nil
			}
			if !s.accepts(e) {
				continue
			}
			select {
			case s.out <- e:
			case <-ctx.Done():
				return nil
			}
		}
	})
	return nil
}
