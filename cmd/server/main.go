package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"skyjack/server/internal/app"
)

var CLI struct {
	Port   int    `help:"TCP port to listen on (overrides the config file)." default:"0"`
	Config string `help:"Path to a YAML config file." optional:"" type:"path"`
	Debug  bool   `help:"Whether to enable debug logging."`
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	kong.Parse(&CLI,
		kong.Name("skyjack-server"),
		kong.Description("authoritative world server for skyjack"),
		kong.UsageOnError())

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx, app.Config{
		ConfigPath: CLI.Config,
		Port:       CLI.Port,
		Logger:     log.Logger,
	}); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
