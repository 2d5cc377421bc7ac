// Package query filters notes with expr-lang expressions and snapshots with
// glob patterns.
//
// A filter sees one note at a time through these variables:
//
//	id, type, content, color, topic   string
//	left, top, width, height          float
//	expanded                          bool
//	lines                             int
//	updatedAt                         time
//
// For example: `type == "rectangle" && topic startsWith "Q"`.
package query

import (
	"fmt"
	"strings"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
)

// Filter is a compiled note filter.
type Filter struct {
	expression string
	program    *exprvm.Program
}

// Compile checks expression against the note variables. It must yield a bool.
func Compile(expression string) (*Filter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(env(core.Note{})),
		exprlang.AsBool(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid filter %q: %w", expression, err)
	}
	return &Filter{expression: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.expression
}

// Match evaluates the filter against n.
func (f *Filter) Match(n core.Note) (bool, error) {
	out, err := exprlang.Run(f.program, env(n))
	if err != nil {
		return false, fmt.Errorf("filter %q failed on %s: %w", f.expression, n.ID, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

// Predicate adapts the filter to board.List. Notes the filter fails on are
// left out.
func (f *Filter) Predicate() board.Predicate {
	return func(n core.Note) bool {
		ok, err := f.Match(n)
		return err == nil && ok
	}
}

// Where compiles expression into a predicate. An empty expression matches
// every note.
func Where(expression string) (board.Predicate, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, nil
	}
	f, err := Compile(expression)
	if err != nil {
		return nil, err
	}
	return f.Predicate(), nil
}

func env(n core.Note) map[string]any {
	updated := n.UpdatedAt.Time
	if updated.IsZero() {
		updated = time.Unix(0, 0).UTC()
	}
	return map[string]any{
		"id":        n.ID,
		"type":      string(n.Type),
		"content":   n.Content,
		"color":     n.Color,
		"topic":     n.TopicName,
		"left":      float64(n.Left),
		"top":       float64(n.Top),
		"width":     float64(n.Width),
		"height":    float64(n.Height),
		"expanded":  n.Expanded,
		"lines":     n.NumLines,
		"updatedAt": updated,
	}
}
