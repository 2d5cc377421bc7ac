package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/boxpad"
	"github.com/aretw0/boxpad/pkg/core"
	"github.com/aretw0/boxpad/pkg/query"
)

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Capture the board into history and keep working on it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "history", "capture board")
				snap, err := b.CaptureSnapshot(ctx)
				printSnapshot(a, snap)
				return err
			})
		},
	}
}

func newSaveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Save the board into history and start an empty one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "history", "save board")
				snap, err := b.SaveBoard(ctx)
				if snap.ID != "" {
					printSnapshot(a, snap)
				}
				return err
			})
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Work with saved boards",
	}
	cmd.AddCommand(newHistoryListCmd(a), newHistoryLoadCmd(a), newHistoryRenameCmd(a), newHistoryRmCmd(a))
	return cmd
}

func newHistoryListCmd(a *app) *cobra.Command {
	var (
		match  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved boards, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				entries, err := query.Snapshots(b.Timeline(), match)
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(a.out)
					enc.SetIndent("", "  ")
					return enc.Encode(entries)
				}
				current := b.CurrentSnapshotID()
				for _, s := range entries {
					marker := " "
					if s.ID == current {
						marker = "*"
					}
					fmt.Fprintf(a.out, "%s %s\t%s\t%s\t%d notes\n", marker, s.ID, s.Name, s.SavedAt.Format("2006-01-02 15:04"), len(s.Notes))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&match, "match", "", `Glob on the board name, e.g. "Sprint*"`)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newHistoryLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Replace the board with a saved one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "history", "load "+args[0])
				return b.RestoreSnapshot(ctx, args[0])
			})
		},
	}
}

func newHistoryRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> [name...]",
		Short: "Rename a saved board; no name restores the default",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args[1:], " ")
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				ctx = a.reason(ctx, boxpad.CommitTypeFeat, "history", "rename "+args[0])
				snap, err := b.RenameSnapshot(ctx, args[0], name)
				if snap.ID != "" {
					printSnapshot(a, snap)
				}
				return err
			})
		},
	}
}

func newHistoryRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete saved boards (the live board is kept)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				for _, id := range args {
					ctx := a.reason(ctx, boxpad.CommitTypeFeat, "history", "remove "+id)
					ok, err := b.DeleteSnapshot(ctx, id)
					if err := found(ok, err, "snapshot", id); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func printSnapshot(a *app, s core.Snapshot) {
	fmt.Fprintf(a.out, "%s\t%s\n", s.ID, s.Name)
}
