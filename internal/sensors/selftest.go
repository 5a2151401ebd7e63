// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/relabs-tech/compass_computer/internal/hmc5883l"
)

// Self-test limits from the datasheet: with gain code 5 the ~1.1 Gauss
// self-test excitation must read between 243 and 575 counts on every axis
// (negated under negative bias).
const (
	selfTestGain = hmc5883l.Gain390
	selfTestLow  = 243
	selfTestHigh = 575
)

// SelfTestResult holds the averaged per-axis response to the positive and
// negative bias excitation, in raw counts at gain code 5.
type SelfTestResult struct {
	Positive hmc5883l.RawData
	Negative hmc5883l.RawData
	Pass     bool
}

// SelfTest drives the chip's built-in self-test: the positive and negative
// bias settings push a known current through the offset straps, and the
// measured response must land inside the datasheet window. The previous
// configuration is restored afterwards.
func (m *MagManager) SelfTest(samples int) (SelfTestResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return SelfTestResult{}, fmt.Errorf("mag: not initialized")
	}
	if samples <= 0 {
		samples = 8
	}

	// Remember the caller's configuration.
	prevSamples, err := m.dev.SamplesAveraged()
	if err != nil {
		return SelfTestResult{}, err
	}
	prevGain, err := m.dev.Gain()
	if err != nil {
		return SelfTestResult{}, err
	}

	if err := m.dev.SetSamplesAveraged(hmc5883l.Samples8); err != nil {
		return SelfTestResult{}, err
	}
	if err := m.dev.SetGain(selfTestGain); err != nil {
		return SelfTestResult{}, err
	}

	var res SelfTestResult
	runPhase := func(bias hmc5883l.Bias) (hmc5883l.RawData, error) {
		if err := m.dev.SetBias(bias); err != nil {
			return hmc5883l.RawData{}, err
		}
		// The first measurement after a bias change still carries the old
		// excitation; throw it away.
		if err := m.armAndWait(); err != nil {
			return hmc5883l.RawData{}, err
		}
		if _, err := m.dev.RawData(); err != nil {
			return hmc5883l.RawData{}, err
		}

		var sx, sy, sz int
		for i := 0; i < samples; i++ {
			if err := m.armAndWait(); err != nil {
				return hmc5883l.RawData{}, err
			}
			raw, err := m.dev.RawData()
			if err != nil {
				return hmc5883l.RawData{}, err
			}
			sx += int(raw.X)
			sy += int(raw.Y)
			sz += int(raw.Z)
		}
		return hmc5883l.RawData{
			X: int16(sx / samples),
			Y: int16(sy / samples),
			Z: int16(sz / samples),
		}, nil
	}

	res.Positive, err = runPhase(hmc5883l.BiasPositive)
	if err == nil {
		res.Negative, err = runPhase(hmc5883l.BiasNegative)
	}

	// Restore configuration even if a phase failed.
	restoreErr := m.dev.SetBias(hmc5883l.BiasNormal)
	if e := m.dev.SetSamplesAveraged(prevSamples); restoreErr == nil {
		restoreErr = e
	}
	if e := m.dev.SetGain(prevGain); restoreErr == nil {
		restoreErr = e
	}
	if !m.single {
		// armAndWait left the chip in single mode.
		if e := m.dev.SetOpMode(hmc5883l.ModeContinuous); restoreErr == nil {
			restoreErr = e
		}
	}

	if err != nil {
		return SelfTestResult{}, err
	}
	if restoreErr != nil {
		return SelfTestResult{}, fmt.Errorf("mag: self-test restore: %w", restoreErr)
	}

	inWindow := func(v int16) bool { return v >= selfTestLow && v <= selfTestHigh }
	res.Pass = inWindow(res.Positive.X) && inWindow(res.Positive.Y) && inWindow(res.Positive.Z) &&
		inWindow(-res.Negative.X) && inWindow(-res.Negative.Y) && inWindow(-res.Negative.Z)
	return res, nil
}
