package main

import (
	"log"

	"github.com/MrSnakeDoc/hub/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ hub failed to initialize: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ hub failed to start: %v", err)
	}
}
