package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/boxpad"
	"github.com/aretw0/boxpad/pkg/adapters/clipboard"
	"github.com/aretw0/boxpad/pkg/board"
)

func newExportCmd(a *app) *cobra.Command {
	var stdout bool
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Copy the notes as JSON to the clipboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, b *boxpad.Board) error {
				var sink board.Sink = clipboard.New()
				if stdout || !clipboard.Available() {
					sink = clipboard.WriterSink{W: a.out}
				}
				if !b.CopyBackup(ctx, sink) {
					return errors.New("backup failed")
				}
				if _, ok := sink.(clipboard.Sink); ok {
					fmt.Fprintf(a.errOut, "Copied %d notes to the clipboard.\n", b.Len())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Print instead of copying to the clipboard")
	return cmd
}
