package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"bankdash/internal/shared/config"
)

// StartServer starts the API server in the background. Listen failures are
// reported on the returned channel.
func StartServer(handler http.Handler, cfg *config.Config, log zerolog.Logger) (*http.Server, <-chan error) {
	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		var err error
		if cfg.TLS.Enabled {
			log.Info().Str("addr", srv.Addr).Msg("HTTPS server starting")
			err = srv.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath)
		} else {
			log.Info().Str("addr", srv.Addr).Msg("HTTP server starting")
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return srv, errCh
}

// GracefulShutdown stops accepting requests and waits for in-flight ones
// to finish, then releases dependencies.
func GracefulShutdown(srv *http.Server, deps *Dependencies, timeout time.Duration, log zerolog.Logger) {
	log.Info().Msg("server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down HTTP server")
	}
	deps.Close()

	log.Info().Msg("server stopped")
}
