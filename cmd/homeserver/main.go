package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/homeserver/internal/server"
	"github.com/dmitrijs2005/homeserver/internal/server/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "homeserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		return err
	}

	return app.Run(ctx)
}
