package main

import (
	"fmt"
	"io"
	"os"

	"github.com/sperrystudios/screenrecorder/internal/cli"
	"github.com/sperrystudios/screenrecorder/internal/config"
	"github.com/sperrystudios/screenrecorder/internal/logging"
)

func main() {
	// the CLI prints its own output; library logs stay quiet
	logging.InfoLogger.SetOutput(io.Discard)
	logging.WarningLogger.SetOutput(io.Discard)

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.ConfigFilePath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	return cli.NewRootCmd(&cli.Dependencies{Config: cfg}).Execute()
}
