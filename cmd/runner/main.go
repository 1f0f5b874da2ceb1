// Command runner executes one extraction batch and exits. The report is
// written to stdout as JSON; the exit status is non-zero when any client
// failed.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/metalake/ads-core/internal/app"
	"github.com/metalake/ads-core/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	config.SetupLogging(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if timeout := cfg.RunTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	components, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("build pipeline")
	}
	defer components.Close()

	report, err := components.Pipeline.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pipeline run aborted")
		if report == nil {
			os.Exit(1)
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(report)

	if err != nil || report.Failed > 0 {
		os.Exit(1)
	}
}
