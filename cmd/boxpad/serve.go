package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/spf13/cobra"

	"github.com/aretw0/boxpad/pkg/adapters/clipboard"
	"github.com/aretw0/boxpad/pkg/api"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		origins []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP",
		Long: `Serve the board over HTTP for a browser front end. Changes made to the
board files by other processes are picked up while serving.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rt, cfg, err := a.open(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close(context.Background())

			if _, err := rt.Follow(ctx); err != nil {
				a.logger.Warn("not following external changes", "error", err)
			}

			if addr == "" {
				addr = cfg.Addr()
			}
			if len(origins) == 0 {
				origins = cfg.Server.AllowedOrigins
			}

			srv := &http.Server{
				Addr: addr,
				Handler: api.NewRouter(rt.Board, api.Config{
					AllowedOrigins: origins,
					Logger:         a.logger,
					Sink:           clipboard.New(),
				}),
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext:       func(net.Listener) context.Context { return ctx },
			}

			errCh := make(chan error, 1)
			lifecycle.Go(ctx, func(context.Context) error {
				errCh <- srv.ListenAndServe()
				return nil
			})
			a.logger.Info("serving board", "addr", addr)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default 127.0.0.1:8080)")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "Allowed CORS origin (repeatable)")
	return cmd
}
