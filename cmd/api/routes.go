package main

import (
	"net/http"

	"github.com/rs/zerolog"

	"bankdash/internal/shared/config"
	"bankdash/internal/shared/middleware"
)

// SetupRoutes configures all HTTP routes and returns the final handler with middleware.
func SetupRoutes(deps *Dependencies, cfg *config.Config, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	authn := middleware.HeaderAuthenticator{Header: cfg.Server.UserHeader}
	deps.Handlers.Register(mux, middleware.Auth(authn))

	handler := middleware.CORS(cfg.Server.AllowedHosts)(mux)
	if cfg.TLS.Enabled {
		handler = middleware.HSTS(handler)
		log.Info().Msg("TLS security middleware enabled (HSTS)")
	}
	handler = middleware.Logging(log)(handler)
	handler = middleware.Tracing(handler)
	if cfg.Telemetry.Enabled {
		handler = middleware.Telemetry(cfg.Telemetry.ServiceName)(handler)
	}

	return handler
}
