package query

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/aretw0/boxpad/pkg/core"
)

// MatchName reports whether a snapshot name matches a glob such as
// "Saved Board 3/*" or "Sprint*". Slashes in names separate path segments,
// so "**" spans dates.
func MatchName(pattern, name string) (bool, error) {
	if !doublestar.ValidatePattern(pattern) {
		return false, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}
	return doublestar.Match(pattern, name)
}

// Snapshots keeps the entries whose name matches pattern, preserving order.
// An empty pattern keeps everything.
func Snapshots(history []core.Snapshot, pattern string) ([]core.Snapshot, error) {
	if pattern == "" {
		return history, nil
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: %q", doublestar.ErrBadPattern, pattern)
	}

	out := make([]core.Snapshot, 0, len(history))
	for _, s := range history {
		ok, err := doublestar.Match(pattern, s.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, s)
		}
	}
	return out, nil
}
