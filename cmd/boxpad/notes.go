package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/boxpad"
	"github.com/aretw0/boxpad/pkg/board"
	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/layout"
	"github.com/aretw0/boxpad/pkg/query"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a board in the board directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.dir == "" {
				a.dir = "."
			}
			rt, _, err := a.open(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer rt.Close(cmd.Context())
			fmt.Fprintln(a.out, "Initialized empty boxpad board in", a.dir)
			return nil
		},
	}
}

func newAddCmd(a *app) *cobra.Command {
	var params board.NoteParams
	cmd := &cobra.Command{
		Use:       "add [note|rectangle|notepad]",
		Short:     "Add a note where it does not overlap anything on screen",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(core.VariantFreeform), string(core.VariantRectangle), string(core.VariantNotepad)},
		RunE: func(cmd *cobra.Command, args []string) error {
			variant := core.VariantFreeform
			if len(args) == 1 {
				v, err := core.ParseVariant(args[0])
				if err != nil {
					return err
				}
				variant = v
			}
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "notes", "add "+string(variant))
				n, err := b.AddNote(ctx, variant, params)
				if err != nil && n.ID == "" {
					return err
				}
				fmt.Fprintln(a.out, n.ID)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&params.Color, "color", "", "Note colour from the palette")
	cmd.Flags().IntVar(&params.LineCount, "lines", 0, "Number of ruled lines (notepad)")
	return cmd
}

func newListCmd(a *app) *cobra.Command {
	var (
		where  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the notes on the board, bottom to top",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := query.Where(where)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				notes := b.List(pred)
				if asJSON {
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(notes)
				}
				for _, n := range notes {
					w, h := n.ActiveSize()
					fmt.Fprintf(a.out, "%s\t%s\t%g,%g\t%gx%g\t%s\n", n.ID, n.Type, float64(n.Left), float64(n.Top), w, h, title(n))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&where, "where", "", `Filter expression, e.g. 'type == "rectangle" && top > 500'`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

// title is the topic, or the first non-empty content line.
func title(n core.Note) string {
	if n.TopicName != "" {
		return n.TopicName
	}
	for _, line := range strings.Split(n.Content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func newEditCmd(a *app) *cobra.Command {
	var content, topic, color string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the content, topic or colour of a note",
		Long:  "Change the content, topic or colour of a note. --content - reads the content from stdin.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var p board.Patch
			if cmd.Flags().Changed("content") {
				if content == "-" {
					data, err := io.ReadAll(a.in)
					if err != nil {
						return err
					}
					content = string(data)
				}
				p = p.WithContent(content)
			}
			if cmd.Flags().Changed("topic") {
				p = p.WithTopic(topic)
			}
			if cmd.Flags().Changed("color") {
				p = p.WithColor(color)
			}
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "notes", "edit "+args[0])
				ok, err := b.UpdateNote(ctx, args[0], p)
				return found(ok, err, "note", args[0])
			})
		},
	}
	cmd.Flags().StringVar(&content, "content", "", "New content")
	cmd.Flags().StringVar(&topic, "topic", "", "New topic (sheets)")
	cmd.Flags().StringVar(&color, "color", "", "New colour from the palette")
	return cmd
}

func newMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <left> <top>",
		Short: "Drag a note to a new position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			x, y, err := parsePair(args[1], args[2])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				n, ok := b.Get(args[0])
				if !ok {
					return fmt.Errorf("note %s not found", args[0])
				}
				grab := board.Point{X: float64(n.Left), Y: float64(n.Top)}
				d, ok := b.BeginDrag(n.ID, grab, board.RegionChrome)
				if !ok {
					return fmt.Errorf("note %s cannot be dragged (layout locked?)", n.ID)
				}
				d.Move(board.Point{X: x, Y: y})
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "notes", "move "+n.ID)
				if _, err := d.Release(ctx); err != nil {
					return err
				}
				n, _ = b.Get(n.ID)
				fmt.Fprintf(a.out, "%s\t%g,%g\n", n.ID, float64(n.Left), float64(n.Top))
				return nil
			})
		},
	}
}

func newResizeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resize <id> <width> <height>",
		Short: "Resize the displayed slot of a note",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, h, err := parsePair(args[1], args[2])
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "notes", "resize "+args[0])
				ok, err := b.OnGeometryChanged(ctx, args[0], layout.Size{Width: w, Height: h})
				return found(ok, err, "note", args[0])
			})
		},
	}
}

func newExpandCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <id>",
		Short: "Toggle a note between its normal and expanded size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "notes", "toggle expanded "+args[0])
				ok, err := b.ToggleExpanded(ctx, args[0])
				return found(ok, err, "note", args[0])
			})
		},
	}
}

func newRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete notes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				for _, id := range args {
					ctx := a.reason(ctx, boxpad.CommitTypeFeat, "notes", "remove "+id)
					ok, err := b.RemoveNote(ctx, id)
					if err := found(ok, err, "note", id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every note on the board (history is kept)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "notes", "clear board")
				confirm := a.prompt()
				if yes {
					confirm = func(context.Context, string) bool { return true }
				}
				cleared, err := b.ClearAll(ctx, confirm)
				if !cleared {
					fmt.Fprintln(a.out, "Aborted.")
				}
				return err
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// prompt asks on the command output and reads the answer from the input.
func (a *app) prompt() board.ConfirmFunc {
	return func(ctx context.Context, question string) bool {
		fmt.Fprintf(a.out, "%s [y/N] ", question)
		answer, err := bufio.NewReader(a.in).ReadString('\n')
		if err != nil && answer == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true
		}
		return false
	}
}

func newSettingsCmd(a *app) *cobra.Command {
	var pageExpanded, locked, snap bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the board toggles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeChore, "settings", "update settings")
				flags := cmd.Flags()
				if flags.Changed("page-expanded") {
					if err := b.SetPageExpanded(ctx, pageExpanded); err != nil {
						return err
					}
				}
				if flags.Changed("lock") {
					if err := b.SetDragEnabled(ctx, !locked); err != nil {
						return err
					}
				}
				if flags.Changed("snap") {
					if err := b.SetSnapEnabled(ctx, snap); err != nil {
						return err
					}
				}
				s := b.Settings()
				fmt.Fprintf(a.out, "page-expanded=%t lock=%t snap=%t\n", s.PageExpanded, s.Locked, s.Snap)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&pageExpanded, "page-expanded", false, "Use the 8000px page")
	cmd.Flags().BoolVar(&locked, "lock", false, "Lock the layout (no dragging)")
	cmd.Flags().BoolVar(&snap, "snap", false, "Snap drags to the grid")
	return cmd
}

// found turns the (applied, error) pair of a mutation into one error.
func found(ok bool, err error, kind, id string) error {
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %s not found", kind, id)
	}
	return nil
}

func parsePair(a, b string) (float64, float64, error) {
	x, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", a)
	}
	y, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid number %q", b)
	}
	if !layout.Finite(x, y) {
		return 0, 0, fmt.Errorf("coordinates must be finite: %s %s", a, b)
	}
	return x, y, nil
}
