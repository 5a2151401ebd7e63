// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

import "fmt"

// Register access layer. Every call is a single I2C transaction against the
// bound device; failures from the transport are wrapped with the register
// address and direction so a caller can tell which half of a
// read-modify-write sequence died. Nothing is cached or retried here.

func (d *Dev) writeReg(reg, val byte) error {
	if err := d.dev.Tx([]byte{reg, val}, nil); err != nil {
		return fmt.Errorf("hmc5883l: write reg 0x%02X: %w", reg, err)
	}
	return nil
}

func (d *Dev) readReg(reg byte) (byte, error) {
	var buf [1]byte
	if err := d.readRegBlock(reg, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readRegBlock issues a combined write-then-read transaction: the register
// address, then len(out) bytes starting at that address.
func (d *Dev) readRegBlock(reg byte, out []byte) error {
	if err := d.dev.Tx([]byte{reg}, out); err != nil {
		return fmt.Errorf("hmc5883l: read reg 0x%02X (%d bytes): %w", reg, len(out), err)
	}
	return nil
}
