// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text


package heading

import (
	"math"
	"time"

	"github.com/relabs-tech/compass_computer/internal/mag"
)

type mockSource struct {
	start time.Time
}

// NewMockSource creates a mock magnetometer source that sweeps a plausible
// Earth field (~500 mG) through a full rotation.
func NewMockSource() mag.Source {
	return &mockSource{start: time.Now()}
}

func (m *mockSource) Next() (mag.Sample, error) {
	elapsed := time.Since(m.start).Seconds()
	angle := math.Mod(elapsed*30, 360) * math.Pi / 180.0

	x := 500 * math.Cos(angle)
	y := 500 * math.Sin(angle)
	z := -350.0

	return mag.Sample{
		X:          float32(x),
		Y:          float32(y),
		Z:          float32(z),
		Norm:       Norm(x, y, z),
		HeadingDeg: Compute(x, y, 0),
		Time:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}
