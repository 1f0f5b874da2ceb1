// Command server exposes the extraction pipeline over HTTP: synchronous
// run triggers, a token health probe, liveness and metrics.
package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/app"
	"github.com/metalake/ads-core/internal/config"
	"github.com/metalake/ads-core/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.SetupLogging(cfg.Server.LogLevel)

	components, err := app.Build(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build pipeline")
	}
	defer components.Close()

	h := server.NewHandlers(components.Pipeline, components.Service, cfg.RunTimeout())
	if err := server.Serve(cfg.Server.Addr, server.Router(h)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
