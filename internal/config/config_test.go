package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "compass_config.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
# compass_computer configuration
MQTT_BROKER=tcp://localhost:1883
MQTT_CLIENT_ID_PRODUCER=compass-mag-producer

TOPIC_MAG=compass/mag

MAG_I2C_BUS=1
MAG_I2C_ADDR=0x1E
MAG_GAIN=1
MAG_DATA_RATE=4
MAG_SAMPLES_AVG=8
MAG_OPMODE=continuous
MAG_CACHE_GAIN=true
MAG_DECLINATION_DEG=3.5
MAG_SAMPLE_INTERVAL=100

NMEA_TALKER=HC
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "tcp://localhost:1883", cfg.MQTTBroker)
	require.Equal(t, uint16(0x1E), cfg.MagI2CAddr)
	require.Equal(t, byte(1), cfg.MagGain)
	require.Equal(t, byte(4), cfg.MagDataRate)
	require.Equal(t, 8, cfg.MagSamplesAvg)
	require.Equal(t, "continuous", cfg.MagOpMode)
	require.True(t, cfg.MagCacheGain)
	require.InDelta(t, 3.5, cfg.MagDeclinationDeg, 1e-9)
	require.Equal(t, 100, cfg.MagSampleInterval)
	require.Equal(t, "HC", cfg.NMEATalker)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"unknown key", "BOGUS_KEY=1"},
		{"gain out of range", "MAG_GAIN=8"},
		{"rate out of range", "MAG_DATA_RATE=7"},
		{"bad samples", "MAG_SAMPLES_AVG=3"},
		{"bad opmode", "MAG_OPMODE=sometimes"},
		{"bad talker", "NMEA_TALKER=HDG"},
		{"missing equals", "MQTT_BROKER"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\nMAG_SAMPLE_INTERVAL=100\n"+tc.line+"\n")
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestLoadRequiresBrokerAndInterval(t *testing.T) {
	path := writeConfig(t, "MAG_SAMPLE_INTERVAL=100\n")
	_, err := Load(path)
	require.ErrorContains(t, err, "MQTT_BROKER")

	path = writeConfig(t, "MQTT_BROKER=tcp://localhost:1883\n")
	_, err = Load(path)
	require.ErrorContains(t, err, "MAG_SAMPLE_INTERVAL")
}
