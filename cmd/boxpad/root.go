package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/boxpad"
)

// app carries the global flags and I/O of one CLI invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	verbose bool
	adapter string
	dir     string
	format  string
	nover   bool
	message string

	logger *slog.Logger
}

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &app{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "boxpad",
		Short: "A spatial note board: sticky notes, ruled sheets and saved boards",
		Long: `boxpad keeps a board of free-form notes and full-width sheets.
New notes are placed where they do not overlap anything on screen, and the
whole board can be saved into a history of named snapshots.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(a.logger)
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVar(&a.adapter, "adapter", "", "Storage adapter: fs, sqlite or memory (default fs)")
	flags.StringVarP(&a.dir, "dir", "C", "", "Board directory (default: nearest board above the working directory)")
	flags.StringVar(&a.format, "format", "", "On-disk format of the fs adapter: json or yaml")
	flags.BoolVar(&a.nover, "nover", false, "Disable git versioning")
	flags.StringVarP(&a.message, "message", "m", "", "Commit message for this change")

	root.AddCommand(
		newInitCmd(a),
		newAddCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newMoveCmd(a),
		newResizeCmd(a),
		newExpandCmd(a),
		newRmCmd(a),
		newClearCmd(a),
		newSettingsCmd(a),
		newSnapshotCmd(a),
		newSaveCmd(a),
		newHistoryCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newVersionCmd(a),
	)
	return root
}

// boardDir picks --dir, else the nearest board root, else the working directory.
func (a *app) boardDir() (string, error) {
	if a.dir != "" {
		return a.dir, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if root, err := boxpad.FindRoot(wd); err == nil {
		return root, nil
	}
	return wd, nil
}

// open loads the board configuration and opens the board. Flags win over
// boxpad.yaml and BOXPAD_* variables.
func (a *app) open(ctx context.Context, autoInit bool) (*boxpad.Runtime, boxpad.Config, error) {
	dir, err := a.boardDir()
	if err != nil {
		return nil, boxpad.Config{}, err
	}
	cfg, err := boxpad.LoadConfig(dir)
	if err != nil {
		return nil, cfg, err
	}

	opts := append(cfg.Options(),
		boxpad.WithLogger(a.logger),
		boxpad.WithAutoInit(autoInit),
		boxpad.WithAdapter(a.adapter),
	)
	if a.format != "" {
		opts = append(opts, boxpad.WithFormat(a.format))
	}
	if a.nover {
		opts = append(opts, boxpad.WithVersioning(false))
	}

	rt, err := boxpad.Open(ctx, dir, opts...)
	if err != nil {
		return nil, cfg, fmt.Errorf("failed to open board: %w", err)
	}
	return rt, cfg, nil
}

// run opens the board, runs fn and closes the board, flushing pending writes.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, b *boxpad.Board) error) error {
	ctx := cmd.Context()
	rt, _, err := a.open(ctx, false)
	if err != nil {
		return err
	}
	runErr := fn(ctx, rt.Board)
	if err := rt.Close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// reason annotates ctx with the commit message for a change. --message wins.
func (a *app) reason(ctx context.Context, ctype, scope, subject string) context.Context {
	if a.message != "" {
		return boxpad.WithChangeReason(ctx, boxpad.AppendFooter(a.message))
	}
	return boxpad.WithChangeReason(ctx, boxpad.FormatChangeReason(ctype, scope, subject, ""))
}
