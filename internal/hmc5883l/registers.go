// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import "errors"

// I2C register map for the HMC5883L.
const (
	regConfigA = 0x00
	regConfigB = 0x01
	regMode    = 0x02
	regData    = 0x03 // X MSB, X LSB, Z MSB, Z LSB, Y MSB, Y LSB
	regStatus  = 0x09
	regIDA     = 0x0A
	regIDB     = 0x0B
	regIDC     = 0x0C
)

// Configuration Register A layout:
// bits 7:5 samples averaged, bits 4:2 data output rate, bits 1:0 bias.
const (
	maskSamples = 0b0110_0000
	maskRate    = 0b0001_1100
	maskBias    = 0b0000_0011

	shiftSamples = 5
	shiftRate    = 2
)

// Configuration Register B layout: bits 7:5 gain, bits 4:0 must be zero.
const (
	maskGain  = 0b1110_0000
	shiftGain = 5
)

// Status register bits.
const (
	statusReady = 1 << 0
	statusLock  = 1 << 1
)

// Addr is the chip's fixed 7-bit I2C address.
const Addr = 0x1E

// ChipID is the value ID() returns for a functioning chip. The three
// identification registers hold the ASCII bytes 'H', '4', '3'; the vendor
// documents the assembled constant with the first register in the low byte.
const ChipID = 0x00333448

// ErrInvalidValue is returned when a configuration value is outside its
// valid range. Checked before any bus transaction is issued.
var ErrInvalidValue = errors.New("hmc5883l: value out of range")

// OpMode is the device operating mode (mode register, bits 1:0).
type OpMode uint8

const (
	ModeContinuous OpMode = 0
	ModeSingle     OpMode = 1 // chip default
)

func (m OpMode) String() string {
	if m == ModeContinuous {
		return "continuous"
	}
	return "single"
}

// SamplesAveraged selects how many samples are averaged per output.
type SamplesAveraged uint8

const (
	Samples1 SamplesAveraged = iota // chip default
	Samples2
	Samples4
	Samples8
)

// Count returns the number of averaged samples.
func (s SamplesAveraged) Count() int {
	return 1 << s
}

// DataRate is the output rate in continuous measurement mode.
type DataRate uint8

const (
	Rate0_75 DataRate = iota // 0.75 Hz
	Rate1_5
	Rate3
	Rate7_5
	Rate15 // chip default
	Rate30
	Rate75
)

// Hz returns the output rate in Hertz.
func (r DataRate) Hz() float64 {
	return [...]float64{0.75, 1.5, 3, 7.5, 15, 30, 75}[r]
}

// Bias is the measurement configuration. Positive and negative bias drive a
// self-test current through the offset straps on all three axes.
type Bias uint8

const (
	BiasNormal Bias = iota // chip default
	BiasPositive
	BiasNegative
)

// Gain selects the field range, trading range for resolution.
type Gain uint8

const (
	Gain1370 Gain = iota // 0.73 mG/LSb, ±0.88 G
	Gain1090             // 0.92 mG/LSb, ±1.3 G, chip default
	Gain820              // 1.22 mG/LSb, ±1.9 G
	Gain660              // 1.52 mG/LSb, ±2.5 G
	Gain440              // 2.27 mG/LSb, ±4.0 G
	Gain390              // 2.56 mG/LSb, ±4.7 G
	Gain330              // 3.03 mG/LSb, ±5.6 G
	Gain230              // 4.35 mG/LSb, ±8.1 G
)

// gainScale maps each gain code to its milligauss-per-count factor.
var gainScale = [8]float32{0.73, 0.92, 1.22, 1.52, 2.27, 2.56, 3.03, 4.35}

// Scale returns the gain's milligauss-per-count factor.
func (g Gain) Scale() float32 {
	return gainScale[g]
}

// RawData is one measurement in raw counts, all three axes latched together
// by the chip.
type RawData struct {
	X int16 `json:"x"`
	Y int16 `json:"y"`
	Z int16 `json:"z"`
}

// Data is one measurement in milligauss.
type Data struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
	Z float32 `json:"z"`
}
