package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/mag"
)

// RunConsoleMQTT subscribes to the magnetometer topic and prints each
// sample as a formatted line until interrupted.
func RunConsoleMQTT() error {
	cfg := config.Get()

	clientID := cfg.MQTTClientIDConsole
	if clientID == "" {
		clientID = "compass-console-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	topic := cfg.TopicMag
	if topic == "" {
		topic = "compass/mag"
	}

	magToken := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s mag.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("console: mag unmarshal error: %v", err)
			return
		}

		fmt.Printf(
			"[MAG]  X=%8.1f  Y=%8.1f  Z=%8.1f mG  |B|=%7.1f  HDG=%6.1f\n",
			s.X, s.Y, s.Z, s.Norm, s.HeadingDeg,
		)
	})
	magToken.Wait()
	if magToken.Error() != nil {
		return magToken.Error()
	}
	log.Printf("console: subscribed to %s", topic)

	// Block until interrupted.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	client.Disconnect(250)
	return nil
}
