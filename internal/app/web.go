package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/mag"
)

// RunWeb serves the latest magnetometer sample over a small JSON API,
// fed by the MQTT topic the producer publishes to.
func RunWeb() error {
	var (
		mu         sync.RWMutex
		lastSample mag.Sample
		haveSample bool
	)

	cfg := config.Get()

	// 1) Connect to MQTT broker
	clientID := cfg.MQTTClientIDWeb
	if clientID == "" {
		clientID = "compass-web-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: connected to MQTT broker at %s", cfg.MQTTBroker)

	// 2) Subscribe to mag topic and update lastSample on each message
	topic := cfg.TopicMag
	if topic == "" {
		topic = "compass/mag"
	}
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s mag.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("web: MQTT payload unmarshal error: %v", err)
			return
		}
		mu.Lock()
		lastSample = s
		haveSample = true
		mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("web: subscribed to MQTT topic %s", topic)

	// 3) JSON API endpoint: latest sample
	http.HandleFunc("/api/mag", func(w http.ResponseWriter, r *http.Request) {
		mu.RLock()
		defer mu.RUnlock()

		if !haveSample {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(lastSample); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// 4) Static files from ./web as the root
	fs := http.FileServer(http.Dir("web"))
	http.Handle("/", fs)

	port := cfg.WebServerPort
	if port == 0 {
		port = 8080
	}
	addr := fmt.Sprintf(":%d", port)
	log.Printf("web server listening on %s", addr)
	return http.ListenAndServe(addr, nil)
}
