package main

import (
	"log"

	"vehicle-orders/config"
	"vehicle-orders/internal/app"
)

func main() {
	cfg, err := config.New()
	if err != nil {
		log.Fatalf("Config error: %s", err)
	}
	app.Run(cfg)
}
