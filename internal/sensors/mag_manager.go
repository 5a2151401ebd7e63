// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/compass_computer/internal/config"
	"github.com/relabs-tech/compass_computer/internal/heading"
	"github.com/relabs-tech/compass_computer/internal/hmc5883l"
	"github.com/relabs-tech/compass_computer/internal/mag"
)

// MagManager owns the single HMC5883L handle and serializes all access to
// it. The driver itself performs no locking: a read-modify-write on
// Configuration Register A spans two bus transactions, so every path to the
// chip goes through this mutex.
type MagManager struct {
	mu          sync.Mutex
	bus         i2c.BusCloser
	dev         *hmc5883l.Dev
	single      bool
	declination float64
	ready       bool
}

var (
	magManager *MagManager
	magOnce    sync.Once
)

// GetMagManager returns the process-wide magnetometer manager.
func GetMagManager() *MagManager {
	magOnce.Do(func() {
		magManager = &MagManager{}
	})
	return magManager
}

// Init opens the I2C bus, verifies the chip and applies the configured
// settings. Safe to call once; the caller decides whether a failure is
// fatal.
func (m *MagManager) Init() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ready {
		return nil
	}

	cfg := config.Get()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("mag: periph host init: %w", err)
	}

	busName := cfg.MagI2CBus
	if busName == "" {
		busName = "1"
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return fmt.Errorf("mag: i2c open (bus %s): %w", busName, err)
	}

	dev := hmc5883l.New(bus, hmc5883l.Opts{
		Addr:      cfg.MagI2CAddr,
		CacheGain: cfg.MagCacheGain,
	})

	id, err := dev.ID()
	if err != nil {
		bus.Close()
		return fmt.Errorf("mag: read chip ID: %w", err)
	}
	if id != hmc5883l.ChipID {
		bus.Close()
		return fmt.Errorf("mag: unexpected chip ID 0x%08X (want 0x%08X)", id, hmc5883l.ChipID)
	}
	log.Printf("mag: HMC5883L found, ID 0x%08X", id)

	samples := samplesAveragedFromCount(cfg.MagSamplesAvg)
	if err := dev.SetSamplesAveraged(samples); err != nil {
		bus.Close()
		return fmt.Errorf("mag: set samples averaged: %w", err)
	}
	log.Printf("mag: samples averaged set to %d", samples.Count())

	rate := hmc5883l.DataRate(cfg.MagDataRate)
	if err := dev.SetDataRate(rate); err != nil {
		bus.Close()
		return fmt.Errorf("mag: set data rate: %w", err)
	}
	log.Printf("mag: data rate set to %.2f Hz", rate.Hz())

	gain := hmc5883l.Gain(cfg.MagGain)
	if err := dev.SetGain(gain); err != nil {
		bus.Close()
		return fmt.Errorf("mag: set gain: %w", err)
	}
	log.Printf("mag: gain set to code %d (%.2f mG/LSb)", gain, gain.Scale())

	mode := hmc5883l.ModeContinuous
	if cfg.MagOpMode == "single" {
		mode = hmc5883l.ModeSingle
	}
	if err := dev.SetOpMode(mode); err != nil {
		bus.Close()
		return fmt.Errorf("mag: set operating mode: %w", err)
	}
	log.Printf("mag: operating mode set to %s", mode)

	m.bus = bus
	m.dev = dev
	m.single = mode == hmc5883l.ModeSingle
	m.declination = cfg.MagDeclinationDeg
	m.ready = true
	return nil
}

// Close releases the I2C bus.
func (m *MagManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	if m.bus == nil {
		return nil
	}
	err := m.bus.Close()
	m.bus = nil
	m.dev = nil
	return err
}

// IsAvailable reports whether Init succeeded.
func (m *MagManager) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Read takes one calibrated measurement. In single mode it arms a
// measurement and waits for data-ready; in continuous mode it reads the
// latest latched dataset directly.
func (m *MagManager) Read() (mag.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return mag.Sample{}, fmt.Errorf("mag: not initialized")
	}

	if m.single {
		if err := m.armAndWait(); err != nil {
			return mag.Sample{}, err
		}
	}

	data, err := m.dev.Data()
	if err != nil {
		return mag.Sample{}, err
	}

	x := float64(data.X)
	y := float64(data.Y)
	z := float64(data.Z)
	return mag.Sample{
		X:          data.X,
		Y:          data.Y,
		Z:          data.Z,
		Norm:       heading.Norm(x, y, z),
		HeadingDeg: heading.Compute(x, y, m.declination),
		Time:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// ReadRaw takes one measurement in raw counts.
func (m *MagManager) ReadRaw() (mag.Raw, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return mag.Raw{}, fmt.Errorf("mag: not initialized")
	}
	if m.single {
		if err := m.armAndWait(); err != nil {
			return mag.Raw{}, err
		}
	}
	raw, err := m.dev.RawData()
	if err != nil {
		return mag.Raw{}, err
	}
	return mag.Raw{X: raw.X, Y: raw.Y, Z: raw.Z}, nil
}

// armAndWait triggers a single measurement and polls data-ready. Caller
// holds the mutex. The longest internal measurement (8 averages) is well
// under the 250 ms deadline.
func (m *MagManager) armAndWait() error {
	if err := m.dev.SetOpMode(hmc5883l.ModeSingle); err != nil {
		return err
	}
	deadline := time.Now().Add(250 * time.Millisecond)
	for {
		ready, err := m.dev.DataReady()
		if err != nil {
			return err
		}
		if ready {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("mag: timeout waiting for data ready")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// ReadRegister reads one register by address, for the register debug tool.
func (m *MagManager) ReadRegister(addr byte) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return 0, fmt.Errorf("mag: not initialized")
	}
	return m.dev.ReadRegister(addr)
}

// WriteRegister writes one register by address, for the register debug tool.
func (m *MagManager) WriteRegister(addr, val byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return fmt.Errorf("mag: not initialized")
	}
	return m.dev.WriteRegister(addr, val)
}

// ReadAllRegisters dumps the documented register space.
func (m *MagManager) ReadAllRegisters() (map[byte]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil, fmt.Errorf("mag: not initialized")
	}
	return m.dev.ReadAllRegisters()
}

// GetRegisterMap returns the chip's register metadata.
func (m *MagManager) GetRegisterMap() []hmc5883l.RegisterInfo {
	return hmc5883l.RegisterMap()
}

func samplesAveragedFromCount(n int) hmc5883l.SamplesAveraged {
	switch n {
	case 2:
		return hmc5883l.Samples2
	case 4:
		return hmc5883l.Samples4
	case 8:
		return hmc5883l.Samples8
	default:
		return hmc5883l.Samples1
	}
}
