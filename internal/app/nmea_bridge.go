// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/mag"
)

// Heading sentences parsed off the wire get republished here.
const topicHeadingNMEA = "compass/heading/nmea"

// headingPayload is the JSON schema the listener republishes.
type headingPayload struct {
	HeadingDeg float64 `json:"heading_deg"`
	Talker     string  `json:"talker"`
}

// RunNMEAEmitter subscribes to the magnetometer topic and writes each
// heading to the serial port as an NMEA HDT sentence, for chart plotters
// and anything else that speaks marine instruments.
func RunNMEAEmitter() error {
	cfg := config.Get()

	clientID := cfg.MQTTClientIDBridge
	if clientID == "" {
		clientID = "compass-nmea-emitter"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("nmea emitter: connected to MQTT broker at %s", cfg.MQTTBroker)

	port, err := openSerial(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	talker := cfg.NMEATalker
	if talker == "" {
		talker = "HC" // magnetic compass
	}

	topic := cfg.TopicMag
	if topic == "" {
		topic = "compass/mag"
	}

	lines := make(chan string, 16)
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s mag.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("nmea emitter: mag unmarshal error: %v", err)
			return
		}
		select {
		case lines <- hdtSentence(talker, s.HeadingDeg):
		default:
			// Serial port slower than the producer; drop rather than pile up.
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("nmea emitter: subscribed to %s, writing to %s", topic, cfg.NMEASerialPort)

	for line := range lines {
		if _, err := port.Write([]byte(line)); err != nil {
			log.Printf("nmea emitter: serial write error: %v", err)
			return err
		}
	}
	return nil
}

// RunNMEAListener reads NMEA sentences from the serial port, parses heading
// sentences, and republishes them as JSON to MQTT.
func RunNMEAListener() error {
	cfg := config.Get()

	clientID := cfg.MQTTClientIDBridge
	if clientID == "" {
		clientID = "compass-nmea-listener"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("nmea listener: connected to MQTT broker at %s", cfg.MQTTBroker)

	port, err := openSerial(cfg)
	if err != nil {
		return err
	}
	defer port.Close()
	log.Printf("nmea listener: serial port opened on %s at %d baud", cfg.NMEASerialPort, cfg.NMEABaudRate)

	reader := bufio.NewReader(port)

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			log.Printf("nmea listener: read error: %v", err)
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			// noisy instruments or partial sentences; skip
			continue
		}

		if sentence.DataType() != nmea.TypeHDT {
			continue
		}
		hdt := sentence.(nmea.HDT)

		payload, err := json.Marshal(headingPayload{
			HeadingDeg: hdt.Heading,
			Talker:     sentence.TalkerID(),
		})
		if err != nil {
			log.Printf("nmea listener: json marshal error: %v", err)
			continue
		}

		token := client.Publish(topicHeadingNMEA, 0, true, payload)
		token.Wait()
		if token.Error() != nil {
			log.Printf("nmea listener: publish error: %v", token.Error())
			continue
		}

		log.Printf("published heading %.1f from %s", hdt.Heading, sentence.TalkerID())
	}
}

func openSerial(cfg *config.Config) (serialPort, error) {
	if cfg.NMEASerialPort == "" {
		return nil, fmt.Errorf("nmea bridge: NMEA_SERIAL_PORT is not configured")
	}
	baud := cfg.NMEABaudRate
	if baud == 0 {
		baud = 4800 // NMEA 0183 default
	}
	serialOpts := serial.OpenOptions{
		PortName:              cfg.NMEASerialPort,
		BaudRate:              uint(baud),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, fmt.Errorf("nmea bridge: open %s: %w", cfg.NMEASerialPort, err)
	}
	return port, nil
}

type serialPort interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// hdtSentence formats a true-heading sentence with its checksum, e.g.
// "$HCHDT,123.4,T*27\r\n". The checksum is the XOR of everything between
// '$' and '*'.
func hdtSentence(talker string, headingDeg float64) string {
	body := fmt.Sprintf("%sHDT,%.1f,T", talker, headingDeg)
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}
	return fmt.Sprintf("$%s*%02X\r\n", body, sum)
}
