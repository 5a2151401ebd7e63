// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"log"
	"os"

	"github.com/relabs-tech/compass_computer/internal/app"
	"github.com/relabs-tech/compass_computer/internal/config"
)

func main() {
	mode := "emit"
	if len(os.Args) > 1 {
		mode = os.Args[1]
	}

	if err := config.InitGlobal("compass_config.txt"); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	switch mode {
	case "emit":
		log.Println("starting NMEA bridge (MQTT -> serial)")
		if err := app.RunNMEAEmitter(); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	case "listen":
		log.Println("starting NMEA bridge (serial -> MQTT)")
		if err := app.RunNMEAListener(); err != nil {
			log.Fatalf("fatal: %v", err)
		}
	default:
		log.Fatalf("usage: %s [emit|listen]", os.Args[0])
	}
}
