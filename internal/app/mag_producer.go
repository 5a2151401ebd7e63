// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/sensors"
)

// RunMagProducer reads the magnetometer at the configured interval and
// publishes calibrated samples (and raw counts, when a raw topic is
// configured) as JSON over MQTT.
func RunMagProducer() error {
	log.Println("starting compass-computer magnetometer producer")

	cfg := config.Get()

	mgr := sensors.GetMagManager()
	if err := mgr.Init(); err != nil {
		log.Printf("mag producer: init failed: %v", err)
		return err
	}
	defer mgr.Close()

	clientID := cfg.MQTTClientIDProducer
	if clientID == "" {
		clientID = "compass-mag-producer"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Printf("mag producer: MQTT connect error: %v", token.Error())
		return token.Error()
	}
	defer client.Disconnect(250)

	topic := cfg.TopicMag
	if topic == "" {
		topic = "compass/mag"
	}
	log.Printf("mag producer: connected to MQTT at %s, publishing to %s", cfg.MQTTBroker, topic)

	ticker := time.NewTicker(time.Duration(cfg.MagSampleInterval) * time.Millisecond)
	defer ticker.Stop()

	for range ticker.C {
		sample, err := mgr.Read()
		if err != nil {
			log.Printf("mag producer: read error: %v", err)
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("mag producer: json marshal error: %v", err)
			continue
		}

		token := client.Publish(topic, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("mag producer: publish error: %v", token.Error())
			continue
		}

		if cfg.TopicMagRaw != "" {
			raw, err := mgr.ReadRaw()
			if err != nil {
				log.Printf("mag producer: raw read error: %v", err)
				continue
			}
			b, _ := json.Marshal(raw)
			client.Publish(cfg.TopicMagRaw, 0, false, b).Wait()
		}
	}
	return nil
}
