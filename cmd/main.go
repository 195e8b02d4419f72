package main

import (
	"log/slog"
	"os"

	"github.com/healthmate/healthmate/internal/config"
	"github.com/healthmate/healthmate/internal/server"
)

func main() {
	env := config.LoadEnv()

	cfg, err := config.Load(env.ConfigPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	if err := server.Start(cfg, env); err != nil {
		os.Exit(1)
	}
}
