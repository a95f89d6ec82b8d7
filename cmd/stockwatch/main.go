package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"stockwatch/internal/cli"
	"stockwatch/internal/config"
	"stockwatch/internal/logging"
)

func main() {
	cfg, err := config.Load(configDirArg(os.Args[1:]))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLoggerWithConfig(logging.LogConfig{
		Level:    "info",
		Console:  false,
		File:     true,
		FilePath: cfg.LogPath(),
		MaxSize:  50,
		MaxAge:   30,
	})

	rootCmd, app := cli.NewRootCmd(cfg, logger)
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		app.Close()
		os.Exit(1)
	}
}

// configDirArg extracts the --config flag before cobra parsing so the
// configuration is available while commands are being built.
func configDirArg(args []string) string {
	for i, arg := range args {
		switch {
		case arg == "--config" && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(arg, "--config="):
			return strings.TrimPrefix(arg, "--config=")
		}
	}
	return ""
}
