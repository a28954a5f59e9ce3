package main

import (
	"context"
	"log"

	_ "github.com/joho/godotenv/autoload"

	"recoup/internal/app/bootstrap"
)

// Worker process entrypoint.
// Data flow:
// 1) Load config.
// 2) Build app wiring.
// 3) Run the filing, status-poll, and outbox schedulers until cancelled.
func main() {
	log.Println("recoup worker starting")
	app, err := bootstrap.BuildWorker()
	if err != nil {
		log.Fatalf("bootstrap worker failed: %v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("worker shutdown close failed: %v", err)
		}
	}()

	if err := app.Run(context.Background()); err != nil {
		log.Fatalf("recoup worker stopped with error: %v", err)
	}
}
