package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kiosk/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.NewApp()
	if err != nil {
		log.Fatalf("Failed to start kiosk: %v", err)
	}

	err = application.Run(ctx)
	application.Close()
	if err != nil {
		log.Fatalf("Kiosk stopped with error: %v", err)
	}
}
