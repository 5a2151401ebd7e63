package main

import (
	"encoding/json"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/relabs-tech/compass_computer/internal/heading"
)

func main() {
	log.Println("starting compass-computer MQTT producer (mock)")

	// 1) Connect to MQTT broker on the Pi
	opts := mqtt.NewClientOptions().
		AddBroker("tcp://localhost:1883").
		SetClientID("compass-producer-mock")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("MQTT connect error: %v", token.Error())
	}
	defer client.Disconnect(250)

	src := heading.NewMockSource()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for t := range ticker.C {
		sample, err := src.Next()
		if err != nil {
			log.Printf("error from mock source: %v", err)
			continue
		}

		payload, err := json.Marshal(sample)
		if err != nil {
			log.Printf("json marshal error: %v", err)
			continue
		}

		token := client.Publish("compass/mag", 0, true, payload)
		token.Wait()

		log.Printf("%s published sample: %+v", t.Format(time.RFC3339), sample)
	}
}
