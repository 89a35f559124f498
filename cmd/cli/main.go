package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

func main() {
	if err := Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		slog.Error("cli failed to run", "error", err)
		os.Exit(1)
	}
}
