// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hmc5883l

// RegisterInfo describes one register for the register debug tool.
type RegisterInfo struct {
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Access      string     `json:"access"` // "R", "W", "RW"
	Default     string     `json:"default,omitempty"`
	BitFields   []BitField `json:"bit_fields,omitempty"`
}

// BitField describes one field within a register.
type BitField struct {
	Bits        string `json:"bits"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Values      string `json:"values,omitempty"`
}

// RegisterMap returns metadata for all HMC5883L registers.
func RegisterMap() []RegisterInfo {
	return []RegisterInfo{
		{Address: "0x00", Name: "CRA", Description: "Configuration Register A", Access: "RW", Default: "0x10",
			BitFields: []BitField{
				{Bits: "6:5", Name: "MA", Description: "Samples averaged per measurement output", Values: "0=1, 1=2, 2=4, 3=8"},
				{Bits: "4:2", Name: "DO", Description: "Data output rate (continuous mode)", Values: "0=0.75Hz, 1=1.5Hz, 2=3Hz, 3=7.5Hz, 4=15Hz, 5=30Hz, 6=75Hz"},
				{Bits: "1:0", Name: "MS", Description: "Measurement configuration (bias)", Values: "0=Normal, 1=Positive bias, 2=Negative bias"},
			}},
		{Address: "0x01", Name: "CRB", Description: "Configuration Register B", Access: "RW", Default: "0x20",
			BitFields: []BitField{
				{Bits: "7:5", Name: "GN", Description: "Gain (field range)", Values: "0=±0.88G, 1=±1.3G, 2=±1.9G, 3=±2.5G, 4=±4.0G, 5=±4.7G, 6=±5.6G, 7=±8.1G"},
				{Bits: "4:0", Name: "0", Description: "Must be cleared for correct operation", Values: "0"},
			}},
		{Address: "0x02", Name: "MODE", Description: "Mode Register", Access: "RW", Default: "0x01",
			BitFields: []BitField{
				{Bits: "1:0", Name: "MD", Description: "Operating mode", Values: "0=Continuous, 1=Single, 2/3=Idle"},
			}},
		{Address: "0x03", Name: "DXRA", Description: "Data Output X MSB", Access: "R"},
		{Address: "0x04", Name: "DXRB", Description: "Data Output X LSB", Access: "R"},
		{Address: "0x05", Name: "DZRA", Description: "Data Output Z MSB", Access: "R"},
		{Address: "0x06", Name: "DZRB", Description: "Data Output Z LSB", Access: "R"},
		{Address: "0x07", Name: "DYRA", Description: "Data Output Y MSB", Access: "R"},
		{Address: "0x08", Name: "DYRB", Description: "Data Output Y LSB", Access: "R"},
		{Address: "0x09", Name: "SR", Description: "Status Register", Access: "R", Default: "0x00",
			BitFields: []BitField{
				{Bits: "1", Name: "LOCK", Description: "Data output register lock", Values: "1=Locked until full read, mode change, bias change or power cycle"},
				{Bits: "0", Name: "RDY", Description: "Ready bit, set when all six data registers hold a new measurement", Values: ""},
			}},
		{Address: "0x0A", Name: "IRA", Description: "Identification Register A ('H')", Access: "R", Default: "0x48"},
		{Address: "0x0B", Name: "IRB", Description: "Identification Register B ('4')", Access: "R", Default: "0x34"},
		{Address: "0x0C", Name: "IRC", Description: "Identification Register C ('3')", Access: "R", Default: "0x33"},
	}
}
