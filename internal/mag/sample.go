package mag

// Raw represents a single magnetometer sample in raw counts.
type Raw struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Sample represents a single calibrated magnetometer sample suitable for
// JSON and MQTT.
type Sample struct {
	X          float32 `json:"x_mg"` // milligauss
	Y          float32 `json:"y_mg"`
	Z          float32 `json:"z_mg"`
	Norm       float64 `json:"norm_mg"`     // field magnitude
	HeadingDeg float64 `json:"heading_deg"` // 0..360, declination applied
	Time       string  `json:"time"`        // RFC3339
}

// Source is anything that can provide magnetometer samples over time.
type Source interface {
	Next() (Sample, error)
}
