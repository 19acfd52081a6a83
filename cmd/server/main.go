package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/dmitrijs2005/keepsake/internal/logging"
	"github.com/dmitrijs2005/keepsake/internal/server"
	"github.com/dmitrijs2005/keepsake/internal/server/config"
)

func main() {

	ctx := context.Background()
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)
	cfg := config.LoadConfig()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "startup failed", "error", err)
		os.Exit(1)
	}

	app.Run(ctx)

}
