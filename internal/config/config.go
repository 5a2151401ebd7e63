package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

// Config holds all application configuration values.
type Config struct {
	// MQTT
	MQTTBroker           string
	MQTTClientIDProducer string
	MQTTClientIDConsole  string
	MQTTClientIDWeb      string
	MQTTClientIDDisplay  string
	MQTTClientIDBridge   string

	// Topics
	TopicMag    string
	TopicMagRaw string

	// Magnetometer hardware
	MagI2CBus  string
	MagI2CAddr uint16

	// Magnetometer configuration
	// Gain: 0=±0.88G ... 7=±8.1G
	MagGain byte
	// Data rate: 0=0.75Hz, 1=1.5Hz, 2=3Hz, 3=7.5Hz, 4=15Hz, 5=30Hz, 6=75Hz
	MagDataRate byte
	// Samples averaged per output: 1, 2, 4 or 8
	MagSamplesAvg int
	// Operating mode: "continuous" or "single"
	MagOpMode string
	// When true the producer trusts the gain it last wrote instead of
	// re-reading Configuration Register B before every conversion.
	MagCacheGain bool

	// Magnetic declination applied to headings, degrees east positive
	MagDeclinationDeg float64

	// Timing
	MagSampleInterval int // milliseconds

	// Web Server
	WebServerPort int

	// Display
	DisplayUpdateInterval int // milliseconds
	DisplayContent        string // what to show: "heading", "field" or "raw"

	// NMEA bridge
	NMEASerialPort string
	NMEABaudRate   int
	NMEATalker     string // two-letter talker ID for emitted sentences, e.g. "HC"
}

// Package-level unexported variables for singleton pattern:
//   - globalConfig: unexported (lowercase) so other packages cannot access it directly.
//     This enforces encapsulation and prevents external code from modifying config without proper locking.
//     Has package-level scope (visible to all functions in this package, persists for program lifetime).
//   - configOnce: ensures InitGlobal() only runs once, even if called multiple times.
//   - configMu: RWMutex protects concurrent access. Write lock (Lock) for initialization,
//     read lock (RLock) for Get() allows multiple concurrent readers without blocking each other.
//
// External code must use InitGlobal() to set and Get() to read, ensuring thread safety.
var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := &Config{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Validate required fields
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_PRODUCER":
		c.MQTTClientIDProducer = value
	case "MQTT_CLIENT_ID_CONSOLE":
		c.MQTTClientIDConsole = value
	case "MQTT_CLIENT_ID_WEB":
		c.MQTTClientIDWeb = value
	case "MQTT_CLIENT_ID_DISPLAY":
		c.MQTTClientIDDisplay = value
	case "MQTT_CLIENT_ID_BRIDGE":
		c.MQTTClientIDBridge = value

	// Topics
	case "TOPIC_MAG":
		c.TopicMag = value
	case "TOPIC_MAG_RAW":
		c.TopicMagRaw = value

	// Magnetometer hardware
	case "MAG_I2C_BUS":
		c.MagI2CBus = value
	case "MAG_I2C_ADDR":
		addr, err := strconv.ParseUint(value, 0, 16)
		if err != nil {
			return fmt.Errorf("invalid MAG_I2C_ADDR %q: %w", value, err)
		}
		c.MagI2CAddr = uint16(addr)

	// Magnetometer configuration
	case "MAG_GAIN":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_GAIN %q: %w", value, err)
		}
		if val < 0 || val > 7 {
			return fmt.Errorf("MAG_GAIN must be 0-7 (0=±0.88G ... 7=±8.1G), got %d", val)
		}
		c.MagGain = byte(val)
	case "MAG_DATA_RATE":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_DATA_RATE %q: %w", value, err)
		}
		if val < 0 || val > 6 {
			return fmt.Errorf("MAG_DATA_RATE must be 0-6 (0=0.75Hz ... 6=75Hz), got %d", val)
		}
		c.MagDataRate = byte(val)
	case "MAG_SAMPLES_AVG":
		val, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_SAMPLES_AVG %q: %w", value, err)
		}
		if val != 1 && val != 2 && val != 4 && val != 8 {
			return fmt.Errorf("MAG_SAMPLES_AVG must be 1, 2, 4 or 8, got %d", val)
		}
		c.MagSamplesAvg = val
	case "MAG_OPMODE":
		if value != "continuous" && value != "single" {
			return fmt.Errorf("MAG_OPMODE must be \"continuous\" or \"single\", got %q", value)
		}
		c.MagOpMode = value
	case "MAG_CACHE_GAIN":
		val, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_CACHE_GAIN %q: %w", value, err)
		}
		c.MagCacheGain = val
	case "MAG_DECLINATION_DEG":
		val, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid MAG_DECLINATION_DEG %q: %w", value, err)
		}
		c.MagDeclinationDeg = val

	// Timing
	case "MAG_SAMPLE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid MAG_SAMPLE_INTERVAL %q: %w", value, err)
		}
		c.MagSampleInterval = interval

	// Web server
	case "WEB_SERVER_PORT":
		port, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid WEB_SERVER_PORT %q: %w", value, err)
		}
		c.WebServerPort = port

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		interval, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid DISPLAY_UPDATE_INTERVAL %q: %w", value, err)
		}
		c.DisplayUpdateInterval = interval
	case "DISPLAY_CONTENT":
		c.DisplayContent = value

	// NMEA bridge
	case "NMEA_SERIAL_PORT":
		c.NMEASerialPort = value
	case "NMEA_BAUD_RATE":
		baud, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid NMEA_BAUD_RATE %q: %w", value, err)
		}
		c.NMEABaudRate = baud
	case "NMEA_TALKER":
		if len(value) != 2 {
			return fmt.Errorf("NMEA_TALKER must be a two-letter talker ID, got %q", value)
		}
		c.NMEATalker = value

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

// validate checks that all required fields are set.
func (c *Config) validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT_BROKER is required")
	}
	if c.MagSampleInterval == 0 {
		return fmt.Errorf("MAG_SAMPLE_INTERVAL is required")
	}
	return nil
}

// InitGlobal initializes the global configuration from file.
// Uses sync.Once to ensure this only runs once, even if called multiple times.
// Acquires write lock (configMu.Lock) during initialization to prevent concurrent access.
// This is the only function that can set globalConfig.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
// Uses read lock (configMu.RLock) to allow multiple concurrent readers without blocking.
// This is thread-safe and efficient for concurrent access across goroutines.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
