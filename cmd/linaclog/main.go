package main

import (
	"log/slog"
	"os"

	"github.com/linaclog/linaclog/internal/cli"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := cli.NewRootCommand().Execute(); err != nil {
		slog.Error("linaclog: fatal", "err", err)
		os.Exit(1)
	}
}
