// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
)

// chipSim simulates the HMC5883L register file behind an i2c.Bus, including
// the data lock: latching a measurement sets RDY and LOCK, and LOCK drops
// on a full six-byte data read, a mode change or a bias change.
type chipSim struct {
	regs    [regIDC + 1]byte
	txCount int
}

func newChipSim() *chipSim {
	s := &chipSim{}
	// Power-on defaults per datasheet.
	s.regs[regConfigA] = 0x10
	s.regs[regConfigB] = 0x20
	s.regs[regMode] = 0x01
	s.regs[regIDA] = 'H'
	s.regs[regIDB] = '4'
	s.regs[regIDC] = '3'
	return s
}

func (s *chipSim) String() string { return "chipsim" }

func (s *chipSim) SetSpeed(f physic.Frequency) error { return nil }

func (s *chipSim) Tx(addr uint16, w, r []byte) error {
	s.txCount++
	reg := w[0]
	for i, b := range w[1:] {
		s.writeReg(reg+byte(i), b)
	}
	for i := range r {
		r[i] = s.regs[reg+byte(i)]
	}
	if len(r) == 6 && reg == regData {
		s.regs[regStatus] &^= statusReady | statusLock
	}
	return nil
}

func (s *chipSim) writeReg(addr, val byte) {
	switch addr {
	case regMode:
		if s.regs[regMode]&0b11 != val&0b11 {
			s.regs[regStatus] &^= statusLock
		}
	case regConfigA:
		if s.regs[regConfigA]&maskBias != val&maskBias {
			s.regs[regStatus] &^= statusLock
		}
	}
	s.regs[addr] = val
}

// latch places one measurement in the data registers, in the chip's X, Z, Y
// wire order, and raises RDY and LOCK.
func (s *chipSim) latch(x, y, z int16) {
	put := func(off int, v int16) {
		s.regs[regData+byte(off)] = byte(uint16(v) >> 8)
		s.regs[regData+byte(off)+1] = byte(uint16(v))
	}
	put(0, x)
	put(2, z)
	put(4, y)
	s.regs[regStatus] |= statusReady | statusLock
}

// flakyBus fails the failAt-th transaction with busErr and passes everything
// else through to the simulated chip.
type flakyBus struct {
	sim     *chipSim
	failAt  int
	txCount int
}

var busErr = errors.New("i2c: device NACKed the transaction")

func (f *flakyBus) String() string { return f.sim.String() }

func (f *flakyBus) SetSpeed(freq physic.Frequency) error { return nil }

func (f *flakyBus) Tx(addr uint16, w, r []byte) error {
	f.txCount++
	if f.txCount == f.failAt {
		return busErr
	}
	return f.sim.Tx(addr, w, r)
}

func TestID(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	id, err := d.ID()
	require.NoError(t, err)
	require.Equal(t, uint32(ChipID), id)
	require.Equal(t, uint32(0x00333448), id)
	require.Equal(t, 1, sim.txCount)
}

func TestGainScaleTable(t *testing.T) {
	expect := map[Gain]float32{
		Gain1370: 730,
		Gain1090: 920,
		Gain820:  1220,
		Gain660:  1520,
		Gain440:  2270,
		Gain390:  2560,
		Gain330:  3030,
		Gain230:  4350,
	}
	raw := RawData{X: 1000, Y: -1000, Z: 500}
	for gain, want := range expect {
		mg, err := RawToMilligauss(raw, gain)
		require.NoError(t, err)
		require.InDelta(t, want, mg.X, 0.1, "gain %d", gain)
		require.InDelta(t, -want, mg.Y, 0.1, "gain %d", gain)
		require.InDelta(t, want/2, mg.Z, 0.1, "gain %d", gain)
	}

	_, err := RawToMilligauss(raw, Gain(8))
	require.ErrorIs(t, err, ErrInvalidValue)
}

func TestConfigAFieldIndependence(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	for s := Samples1; s <= Samples8; s++ {
		for r := Rate0_75; r <= Rate75; r++ {
			for b := BiasNormal; b <= BiasNegative; b++ {
				require.NoError(t, d.SetSamplesAveraged(s))
				require.NoError(t, d.SetDataRate(r))
				require.NoError(t, d.SetBias(b))

				gotS, err := d.SamplesAveraged()
				require.NoError(t, err)
				gotR, err := d.DataRate()
				require.NoError(t, err)
				gotB, err := d.Bias()
				require.NoError(t, err)

				require.Equal(t, s, gotS)
				require.Equal(t, r, gotR)
				require.Equal(t, b, gotB)
			}
		}
	}
}

func TestGainLeavesConfigAAlone(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	require.NoError(t, d.SetSamplesAveraged(Samples8))
	require.NoError(t, d.SetDataRate(Rate75))
	require.NoError(t, d.SetBias(BiasNegative))
	before := sim.regs[regConfigA]

	for g := Gain1370; g <= Gain230; g++ {
		require.NoError(t, d.SetGain(g))
		require.Equal(t, before, sim.regs[regConfigA])
		require.Equal(t, byte(g)<<shiftGain, sim.regs[regConfigB])

		got, err := d.Gain()
		require.NoError(t, err)
		require.Equal(t, g, got)
	}
}

func TestRawDataSignExtensionAndAxisOrder(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	sim.latch(-32768, 0x1234, -1)
	require.Equal(t,
		[]byte{0x80, 0x00, 0xFF, 0xFF, 0x12, 0x34},
		sim.regs[regData:regData+6],
		"wire order must be X, Z, Y")

	raw, err := d.RawData()
	require.NoError(t, err)
	require.Equal(t, RawData{X: -32768, Y: 0x1234, Z: -1}, raw)
}

func TestDataLockLifecycle(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	locked, err := d.DataLocked()
	require.NoError(t, err)
	require.False(t, locked)

	// Full data read releases the lock.
	sim.latch(1, 2, 3)
	locked, err = d.DataLocked()
	require.NoError(t, err)
	require.True(t, locked)
	ready, err := d.DataReady()
	require.NoError(t, err)
	require.True(t, ready)

	_, err = d.RawData()
	require.NoError(t, err)
	locked, err = d.DataLocked()
	require.NoError(t, err)
	require.False(t, locked)
	ready, err = d.DataReady()
	require.NoError(t, err)
	require.False(t, ready)

	// Mode change releases the lock.
	sim.latch(1, 2, 3)
	require.NoError(t, d.SetOpMode(ModeContinuous))
	locked, err = d.DataLocked()
	require.NoError(t, err)
	require.False(t, locked)

	// Bias change releases the lock.
	sim.latch(1, 2, 3)
	require.NoError(t, d.SetBias(BiasPositive))
	locked, err = d.DataLocked()
	require.NoError(t, err)
	require.False(t, locked)
}

func TestOpModeRoundTrip(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	// Chip default is single measurement mode.
	m, err := d.OpMode()
	require.NoError(t, err)
	require.Equal(t, ModeSingle, m)

	require.NoError(t, d.SetOpMode(ModeContinuous))
	require.Equal(t, byte(0x00), sim.regs[regMode])
	m, err = d.OpMode()
	require.NoError(t, err)
	require.Equal(t, ModeContinuous, m)

	require.NoError(t, d.SetOpMode(ModeSingle))
	m, err = d.OpMode()
	require.NoError(t, err)
	require.Equal(t, ModeSingle, m)
}

func TestInvalidValuesRejectedBeforeBusTraffic(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	require.ErrorIs(t, d.SetOpMode(OpMode(2)), ErrInvalidValue)
	require.ErrorIs(t, d.SetSamplesAveraged(SamplesAveraged(4)), ErrInvalidValue)
	require.ErrorIs(t, d.SetDataRate(DataRate(7)), ErrInvalidValue)
	require.ErrorIs(t, d.SetBias(Bias(3)), ErrInvalidValue)
	require.ErrorIs(t, d.SetGain(Gain(8)), ErrInvalidValue)
	require.Equal(t, 0, sim.txCount, "invalid values must not touch the bus")
}

func TestWriteHalfFailureSurfaces(t *testing.T) {
	bus := &flakyBus{sim: newChipSim(), failAt: 2}
	d := New(bus, Opts{})

	// Read half succeeds, write half fails: the error must name the write
	// and there must be no retry.
	err := d.SetDataRate(Rate75)
	require.ErrorIs(t, err, busErr)
	require.ErrorContains(t, err, "write reg 0x00")
	require.Equal(t, 2, bus.txCount)

	// Read-half failure is reported as the read.
	bus = &flakyBus{sim: newChipSim(), failAt: 1}
	d = New(bus, Opts{})
	err = d.SetBias(BiasNegative)
	require.ErrorIs(t, err, busErr)
	require.ErrorContains(t, err, "read reg 0x00")
	require.Equal(t, 1, bus.txCount)
}

func TestDataGainPolicy(t *testing.T) {
	// With CacheGain, Data() after SetGain costs one transaction.
	sim := newChipSim()
	d := New(sim, Opts{CacheGain: true})
	require.NoError(t, d.SetGain(Gain1090))
	sim.latch(1000, -1000, 500)

	sim.txCount = 0
	mg, err := d.Data()
	require.NoError(t, err)
	require.Equal(t, 1, sim.txCount)
	require.InDelta(t, 920, mg.X, 0.1)
	require.InDelta(t, -920, mg.Y, 0.1)
	require.InDelta(t, 460, mg.Z, 0.1)

	// Without CacheGain, Configuration Register B is re-read every call.
	sim = newChipSim()
	d = New(sim, Opts{})
	require.NoError(t, d.SetGain(Gain230))
	sim.latch(100, 200, 300)

	sim.txCount = 0
	mg, err = d.Data()
	require.NoError(t, err)
	require.Equal(t, 2, sim.txCount)
	require.InDelta(t, 435, mg.X, 0.1)

	// A cache-less handle picks up gain it never wrote itself.
	sim.regs[regConfigB] = byte(Gain1370) << shiftGain
	mg, err = d.Data()
	require.NoError(t, err)
	require.InDelta(t, 73, mg.X, 0.1)
}

func TestReadAllRegisters(t *testing.T) {
	sim := newChipSim()
	d := New(sim, Opts{})

	regs, err := d.ReadAllRegisters()
	require.NoError(t, err)
	require.Len(t, regs, int(regIDC)+1)
	require.Equal(t, byte('H'), regs[regIDA])
	require.Equal(t, byte(0x10), regs[regConfigA])
}
