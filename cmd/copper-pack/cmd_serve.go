package main

import (
	"expvar"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/copperpack/copper-pack/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP/JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()

			factory, closeFn, err := newFactory(cmd.Context(), logger)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer closeFn()

			srv := api.NewServer(factory, defaultCredentials(), logger, cfg.API.AuthToken)

			if cfg.API.AuthToken == "" {
				logger.Warn("HTTP API: auth is DISABLED; set COPPER_PACK_API_AUTH_TOKEN or api.auth_token for production use")
			}
			if !cfg.Copper.HasCredentials() {
				logger.Info("HTTP API: no default Copper credentials; requests must send X-Copper-Api-Key and X-Copper-User-Email")
			}

			mux := http.NewServeMux()
			mux.Handle("/debug/vars", expvar.Handler())
			mux.Handle("/", srv.Handler())

			httpSrv := &http.Server{
				Addr:              cfg.API.ListenAddr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("HTTP API server starting", "addr", cfg.API.ListenAddr)
				if listenErr := httpSrv.ListenAndServe(); listenErr != nil && listenErr != http.ErrServerClosed {
					errCh <- fmt.Errorf("serve: HTTP server: %w", listenErr)
				}
				close(errCh)
			}()

			select {
			case <-cmd.Context().Done():
				logger.Info("shutting down")
			case startErr := <-errCh:
				return startErr
			}

			const shutdownTimeout = 10 * time.Second
			if shutdownErr := api.Shutdown(httpSrv, shutdownTimeout); shutdownErr != nil {
				return fmt.Errorf("serve: graceful shutdown: %w", shutdownErr)
			}

			// ListenAndServe may report an error after Shutdown returns.
			if startErr := <-errCh; startErr != nil {
				return startErr
			}
			return nil
		},
	}
	return cmd
}
