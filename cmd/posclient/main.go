package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jhoicas/pos-sync/internal/interfaces/cli"
	"github.com/jhoicas/pos-sync/pkg/config"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Env:    cfg.App.Env,
		Level:  cfg.App.LogLevel,
		Output: os.Stderr,
	})

	if err := cli.NewRootCmd(cfg.Client, log).ExecuteContext(context.Background()); err != nil {
		log.Debug().Err(err).Msg("comando fallido")
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
