package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"g2pd/internal/httpapi"
)

func newServeCmd(a *app) *cobra.Command {
	var addr, corsOrigins string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API",
		Example: "  g2pd serve --addr :8080 --cors-origins http://localhost:5173",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, splitCSV(corsOrigins))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080 (default from config)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma separated CORS origins; CORS is off when empty")
	return cmd
}

func (a *app) serve(ctx context.Context, corsOrigins []string) error {
	store, err := a.newStore()
	if err != nil {
		return err
	}
	mgr := a.newManager(store)
	defer mgr.Close()

	httpapi.SetLogger(a.log.With().Str("component", "http").Logger())
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetRequestTimeoutSeconds(int64(a.cfg.RequestTimeoutSeconds))
	httpapi.SetCORSOptions(len(corsOrigins) > 0, corsOrigins, nil, nil)
	if err := httpapi.SetAllowedRoot(a.cfg.AllowedRoot); err != nil {
		return err
	}
	if a.cfg.AllowedRoot == "" {
		a.log.Warn().Msg("allowed_root is unset: /convert reads and writes any path the process can reach")
	}
	httpapi.SetBaseContext(ctx)

	go func() {
		if err := store.Watch(ctx); err != nil {
			a.log.Warn().Err(err).Msg("catalog watch stopped")
		}
	}()

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.cfg.Addr).Str("family", a.cfg.Family).Msg("g2pd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
