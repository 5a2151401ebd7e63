// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"net/http"

	"github.com/relabs-tech/compass_computer/internal/app"
	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/sensors"
)

func main() {
	log.Println("starting HMC5883L register debug tool (standalone)")

	if err := config.InitGlobal("compass_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	log.Println("Initializing magnetometer...")
	mgr := sensors.GetMagManager()
	if err := mgr.Init(); err != nil {
		log.Fatalf("magnetometer initialization failed: %v", err)
	}
	defer mgr.Close()

	http.HandleFunc("/ws", app.HandleRegisterDebugWS)

	// API endpoint for a live magnetometer sample
	http.HandleFunc("/api/mag", app.HandleMagData)

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "web/register_debug.html")
	})

	addr := ":8081"
	log.Printf("Register debug tool listening on %s", addr)
	log.Printf("Open http://localhost:8081 in your browser")
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
