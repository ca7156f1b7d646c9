// Command locsheet exports and imports translation spreadsheets from the
// command line.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err == nil {
		slog.Debug("loaded .env file")
	}

	if err := newRootCommand(openPostgres).Execute(); err != nil {
		os.Exit(1)
	}
}
