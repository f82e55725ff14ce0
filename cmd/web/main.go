package main

import (
	"embed"
	"io/fs"
	"log/slog"
	"os"

	"bizpulse/internal/app"
)

// Embedded dashboard page and its static assets
//
//go:embed all:frontend
var frontendFiles embed.FS

func frontendFS() fs.FS {
	sub, err := fs.Sub(frontendFiles, "frontend")
	if err != nil {
		slog.Warn("Frontend embedding failed", slog.String("error", err.Error()))
		return nil
	}
	return sub
}

func main() {
	application, err := app.NewApplication(frontendFS())
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
