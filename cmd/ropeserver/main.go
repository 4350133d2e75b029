package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/Alexander-r/ropechain.go/config"
	"github.com/Alexander-r/ropechain.go/scene"
)

func main() {
	var (
		settingsPath = flag.String("settings", "", "Settings file (default $ROPE_SETTINGS or settings.json)")
		envFile      = flag.String("env", ".env", "Environment file")
	)
	flag.Parse()

	settings, err := config.Load(*settingsPath, *envFile)
	if err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}

	s, err := scene.MakeScene(settings)
	if err != nil {
		log.Fatalf("Failed to build scene: %v", err)
	}

	srv := newServer(s)
	go srv.simulationLoop(nil)

	addr := fmt.Sprintf(":%d", settings.Server.Port)
	log.Printf("Rope server on %s (ws endpoint: /ws), engine %s at %d Hz", addr, settings.Simulation.Engine, settings.Simulation.TickHz)
	log.Fatal(http.ListenAndServe(addr, srv.routes()))
}
