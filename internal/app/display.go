package app

import (
	"encoding/json"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/mag"
)

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	sample     mag.Sample
	haveSample bool
}

// RunDisplay renders the latest magnetometer sample on an SSD1306 OLED,
// fed over MQTT.
func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	// Open I2C bus
	bus, err := i2creg.Open("")
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	display, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Println("display: SSD1306 initialized")

	if err := showSplash(display); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	// Data storage
	data := &DisplayData{}

	// Connect to MQTT
	clientID := cfg.MQTTClientIDDisplay
	if clientID == "" {
		clientID = "compass-display-subscriber"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: connected to MQTT broker at %s", cfg.MQTTBroker)

	topic := cfg.TopicMag
	if topic == "" {
		topic = "compass/mag"
	}
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var s mag.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Printf("display: mag unmarshal error: %v", err)
			return
		}
		data.mu.Lock()
		data.sample = s
		data.haveSample = true
		data.mu.Unlock()
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("display: subscribed to %s", topic)

	content := cfg.DisplayContent
	if content == "" {
		content = "heading"
	}

	interval := cfg.DisplayUpdateInterval
	if interval <= 0 {
		interval = 250
	}
	ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		data.mu.RLock()
		sample := data.sample
		have := data.haveSample
		data.mu.RUnlock()

		if err := updateDisplay(display, content, sample, have); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func updateDisplay(dev *ssd1306.Dev, content string, sample mag.Sample, haveData bool) error {
	switch content {
	case "heading":
		return updateHeadingDisplay(dev, sample, haveData)
	case "field":
		return updateFieldDisplay(dev, sample, haveData)
	default:
		return fmt.Errorf("unknown display content type: %s", content)
	}
}

func updateHeadingDisplay(dev *ssd1306.Dev, sample mag.Sample, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Compass"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("HDG %5.1f %s", sample.HeadingDeg, cardinal(sample.HeadingDeg))))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("|B| %6.1f mG", sample.Norm)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func updateFieldDisplay(dev *ssd1306.Dev, sample mag.Sample, haveData bool) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	if !haveData {
		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte("Magnetic field"))
		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte("Waiting..."))
	} else {
		drawer.Dot = fixed.P(0, 13)
		drawer.DrawBytes([]byte(fmt.Sprintf("X: %8.1f", sample.X)))

		drawer.Dot = fixed.P(0, 26)
		drawer.DrawBytes([]byte(fmt.Sprintf("Y: %8.1f", sample.Y)))

		drawer.Dot = fixed.P(0, 39)
		drawer.DrawBytes([]byte(fmt.Sprintf("Z: %8.1f", sample.Z)))

		drawer.Dot = fixed.P(0, 52)
		drawer.DrawBytes([]byte(fmt.Sprintf("mG  %6.1f", sample.Norm)))
	}

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

func showSplash(dev *ssd1306.Dev) error {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))

	// Blank image
	for i := 0; i < 1024; i++ {
		img.Pix[i] = 0
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}

	drawer.Dot = fixed.P(10, 26)
	drawer.DrawBytes([]byte("Compass Pi"))

	drawer.Dot = fixed.P(5, 43)
	drawer.DrawBytes([]byte("Finding north"))

	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// cardinal maps a heading in degrees to one of the eight compass points.
func cardinal(deg float64) string {
	points := []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}
	idx := int((deg+22.5)/45) % 8
	return points[idx]
}
