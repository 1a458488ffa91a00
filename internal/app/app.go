// Package app is the composition root: it loads configuration, builds
// the world and hub, and runs the tick loop beside the HTTP server.
package app

import (
	"context"
	"fmt"
	nethttp "net/http"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	server "skyjack/server"
	"skyjack/server/internal/config"
	servernet "skyjack/server/internal/net"
)

// Config carries the process-level options from the CLI.
type Config struct {
	ConfigPath string
	Port       int
	Logger     zerolog.Logger
}

// Run blocks serving the game until the context is cancelled or the
// listener fails.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger

	gameCfg, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Port > 0 {
		gameCfg.Port = cfg.Port
	}
	if raw := os.Getenv("PORT"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			gameCfg.Port = value
		} else {
			logger.Warn().Str("PORT", raw).Msg("ignoring invalid PORT override")
		}
	}

	hub := server.NewHub(gameCfg, logger)
	stop := make(chan struct{})
	go hub.RunSimulation(stop)
	defer close(stop)

	srv := &nethttp.Server{
		Addr:    fmt.Sprintf(":%d", gameCfg.Port),
		Handler: servernet.NewHTTPHandler(hub, logger),
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	logger.Info().Str("addr", srv.Addr).Float64("tickRate", gameCfg.TickRate).Msg("server listening")
	if err := srv.ListenAndServe(); err != nil && err != nethttp.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
