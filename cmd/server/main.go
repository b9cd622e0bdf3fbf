package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"coop-defense/server/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.LoadConfigFromEnv(os.LookupEnv, log.Printf)
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
