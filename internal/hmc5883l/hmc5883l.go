// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package hmc5883l drives the Honeywell HMC5883L 3-axis magnetometer over
// I2C. It covers the full register protocol: identification, operating
// mode, sample averaging, output rate, self-test bias, gain and the
// status/lock handshake around the six data registers.
package hmc5883l

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Opts holds device options.
//
// CacheGain controls how Data() obtains the gain for scaling: when true the
// driver remembers the last gain it wrote (one fewer transaction per read),
// when false it re-reads Configuration Register B on every call, which is
// the safe choice if anything else may reconfigure the chip.
type Opts struct {
	Addr      uint16 // I2C address, default 0x1E
	CacheGain bool
}

// Dev is a handle to one HMC5883L on an I2C bus.
//
// The driver performs no locking. A read-modify-write on Configuration
// Register A spans two bus transactions, so calls on one Dev must be
// serialized by the caller, and access to a shared bus across devices is
// the bus owner's problem.
type Dev struct {
	dev       i2c.Dev
	cacheGain bool
	gain      Gain
	gainKnown bool
}

// New binds a handle to the chip on the given bus. The chip itself is left
// untouched: no configuration registers are written and the power-on (or
// current) settings remain in place.
func New(bus i2c.Bus, opts Opts) *Dev {
	addr := opts.Addr
	if addr == 0 {
		addr = Addr
	}
	return &Dev{
		dev:       i2c.Dev{Addr: addr, Bus: bus},
		cacheGain: opts.CacheGain,
	}
}

// ID reads the three identification registers and assembles them into the
// vendor constant, 0x00333448 for a functioning chip. A mismatch is for the
// caller to judge; the driver only reports what the chip said.
func (d *Dev) ID() (uint32, error) {
	var buf [3]byte
	if err := d.readRegBlock(regIDA, buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[2])<<16 | uint32(buf[1])<<8 | uint32(buf[0]), nil
}

// OpMode reads the current operating mode.
func (d *Dev) OpMode() (OpMode, error) {
	v, err := d.readReg(regMode)
	if err != nil {
		return 0, err
	}
	// MD1:MD0 = 00 is continuous; 01, and the two idle encodings, read back
	// as single.
	if v&0b11 == 0 {
		return ModeContinuous, nil
	}
	return ModeSingle, nil
}

// SetOpMode sets the operating mode. The mode register's upper bits must be
// zero, so this is a direct write of the full intended value, never a
// read-modify-write.
func (d *Dev) SetOpMode(mode OpMode) error {
	if mode > ModeSingle {
		return fmt.Errorf("%w: opmode %d", ErrInvalidValue, mode)
	}
	return d.writeReg(regMode, byte(mode))
}

// SamplesAveraged reads the number of samples averaged per output.
func (d *Dev) SamplesAveraged() (SamplesAveraged, error) {
	v, err := d.readReg(regConfigA)
	if err != nil {
		return 0, err
	}
	return SamplesAveraged(v & maskSamples >> shiftSamples), nil
}

// SetSamplesAveraged sets sample averaging, preserving the data rate and
// bias fields of Configuration Register A.
func (d *Dev) SetSamplesAveraged(s SamplesAveraged) error {
	if s > Samples8 {
		return fmt.Errorf("%w: samples averaged %d", ErrInvalidValue, s)
	}
	return d.updateConfigA(maskSamples, byte(s)<<shiftSamples)
}

// DataRate reads the continuous-mode output rate.
func (d *Dev) DataRate() (DataRate, error) {
	v, err := d.readReg(regConfigA)
	if err != nil {
		return 0, err
	}
	return DataRate(v & maskRate >> shiftRate), nil
}

// SetDataRate sets the continuous-mode output rate, preserving the sample
// averaging and bias fields of Configuration Register A.
func (d *Dev) SetDataRate(r DataRate) error {
	if r > Rate75 {
		return fmt.Errorf("%w: data rate %d", ErrInvalidValue, r)
	}
	return d.updateConfigA(maskRate, byte(r)<<shiftRate)
}

// Bias reads the measurement configuration.
func (d *Dev) Bias() (Bias, error) {
	v, err := d.readReg(regConfigA)
	if err != nil {
		return 0, err
	}
	return Bias(v & maskBias), nil
}

// SetBias sets the measurement configuration, preserving the sample
// averaging and data rate fields of Configuration Register A. Changing the
// bias also releases a data register lock (see DataLocked).
func (d *Dev) SetBias(b Bias) error {
	if b > BiasNegative {
		return fmt.Errorf("%w: bias %d", ErrInvalidValue, b)
	}
	return d.updateConfigA(maskBias, byte(b))
}

// Gain reads the gain from Configuration Register B.
func (d *Dev) Gain() (Gain, error) {
	v, err := d.readReg(regConfigB)
	if err != nil {
		return 0, err
	}
	return Gain(v >> shiftGain), nil
}

// SetGain sets the gain. Register B holds nothing else and its low bits
// must be zero, so this is a direct write.
func (d *Dev) SetGain(g Gain) error {
	if g > Gain230 {
		return fmt.Errorf("%w: gain %d", ErrInvalidValue, g)
	}
	if err := d.writeReg(regConfigB, byte(g)<<shiftGain); err != nil {
		return err
	}
	d.gain = g
	d.gainKnown = true
	return nil
}

// DataReady reports whether all six data registers hold a fresh
// measurement. Never cached: the chip recomputes this every internal cycle.
func (d *Dev) DataReady() (bool, error) {
	v, err := d.readReg(regStatus)
	if err != nil {
		return false, err
	}
	return v&statusReady != 0, nil
}

// DataLocked reports whether the data registers are locked. Once locked the
// chip holds the current measurement until all six data bytes are read, the
// operating mode changes, the bias changes, or power is cycled. The driver
// never unlocks on its own.
func (d *Dev) DataLocked() (bool, error) {
	v, err := d.readReg(regStatus)
	if err != nil {
		return false, err
	}
	return v&statusLock != 0, nil
}

// RawData reads all six data registers in one transaction. The chip emits
// them in X, Z, Y order; the result is reordered to X, Y, Z.
func (d *Dev) RawData() (RawData, error) {
	var buf [6]byte
	if err := d.readRegBlock(regData, buf[:]); err != nil {
		return RawData{}, err
	}
	return RawData{
		X: int16(uint16(buf[0])<<8 | uint16(buf[1])),
		Z: int16(uint16(buf[2])<<8 | uint16(buf[3])),
		Y: int16(uint16(buf[4])<<8 | uint16(buf[5])),
	}, nil
}

// RawToMilligauss converts raw counts to milligauss using the scale factor
// for the given gain. Values beyond the chip's nominal range pass through
// unclamped; saturation already happened on the chip side.
func RawToMilligauss(raw RawData, gain Gain) (Data, error) {
	if gain > Gain230 {
		return Data{}, fmt.Errorf("%w: gain %d", ErrInvalidValue, gain)
	}
	scale := gainScale[gain]
	return Data{
		X: float32(raw.X) * scale,
		Y: float32(raw.Y) * scale,
		Z: float32(raw.Z) * scale,
	}, nil
}

// Data reads a measurement and converts it to milligauss using the current
// gain, obtained per the CacheGain policy (see Opts).
func (d *Dev) Data() (Data, error) {
	gain := d.gain
	if !d.cacheGain || !d.gainKnown {
		g, err := d.Gain()
		if err != nil {
			return Data{}, err
		}
		gain = g
		d.gain = g
		d.gainKnown = true
	}
	raw, err := d.RawData()
	if err != nil {
		return Data{}, err
	}
	return RawToMilligauss(raw, gain)
}

// ReadRegister reads one register by address, for the register debug tool.
func (d *Dev) ReadRegister(addr byte) (byte, error) {
	return d.readReg(addr)
}

// WriteRegister writes one register by address, for the register debug
// tool. No validation: this is the raw escape hatch.
func (d *Dev) WriteRegister(addr, val byte) error {
	return d.writeReg(addr, val)
}

// ReadAllRegisters dumps the documented register space.
func (d *Dev) ReadAllRegisters() (map[byte]byte, error) {
	out := make(map[byte]byte, regIDC+1)
	for addr := byte(regConfigA); addr <= regIDC; addr++ {
		v, err := d.readReg(addr)
		if err != nil {
			return nil, err
		}
		out[addr] = v
	}
	return out, nil
}

// updateConfigA read-modify-writes Configuration Register A: the current
// value is read, the masked field replaced, and the whole register written
// back so the two untouched fields survive. The two transactions are not
// atomic; if the write half fails after a successful read the chip may be
// left partially updated, and the returned error says which half failed.
func (d *Dev) updateConfigA(mask, bits byte) error {
	cur, err := d.readReg(regConfigA)
	if err != nil {
		return err
	}
	return d.writeReg(regConfigA, cur&^mask|bits)
}
