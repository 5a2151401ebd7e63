// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/compass_computer/internal/hmc5883l"
	"github.com/relabs-tech/compass_computer/internal/sensors"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

// RegisterDebugSession holds WebSocket connection state for register debugging
type RegisterDebugSession struct {
	Conn *websocket.Conn
}

// RegisterResponse is the envelope for every message sent to the browser.
type RegisterResponse struct {
	Type        string                  `json:"type"` // "register_data", "register_map", "error"
	Address     string                  `json:"addr,omitempty"`
	Value       string                  `json:"value,omitempty"`
	Registers   map[string]string       `json:"registers,omitempty"` // for bulk read
	Timestamp   string                  `json:"timestamp,omitempty"`
	Message     string                  `json:"message,omitempty"`
	RegisterMap []hmc5883l.RegisterInfo `json:"register_map,omitempty"`
}

// RegisterConfigFile represents the JSON structure for exported register configuration
type RegisterConfigFile struct {
	Version   int               `json:"version"`
	Device    string            `json:"device"`
	Timestamp string            `json:"timestamp"`
	Registers map[string]string `json:"registers"` // hex address -> hex value
}

// HandleRegisterDebugWS handles the WebSocket connection for register debugging
func HandleRegisterDebugWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("register_debug: websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	session := &RegisterDebugSession{Conn: conn}

	// Send register map on connection
	if err := session.sendRegisterMap(); err != nil {
		log.Printf("register_debug: error sending register map: %v", err)
		return
	}

	// Message loop
	for {
		var rawMsg map[string]interface{}
		err := conn.ReadJSON(&rawMsg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("register_debug: websocket error: %v", err)
			}
			break
		}

		action, ok := rawMsg["action"].(string)
		if !ok {
			session.sendError("missing or invalid action field")
			continue
		}

		// Route based on action
		switch action {
		case "get_map":
			session.sendRegisterMap()
		case "read":
			session.handleRead(rawMsg)
		case "read_all":
			session.handleReadAll()
		case "write":
			session.handleWrite(rawMsg)
		case "export_config":
			session.handleExportConfig()
		default:
			session.sendError(fmt.Sprintf("unknown action: %s", action))
		}
	}
}

func (s *RegisterDebugSession) handleRead(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	if addr == "" {
		s.sendError("missing addr field")
		return
	}

	// Parse hex address
	var addrByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}

	value, err := sensors.GetMagManager().ReadRegister(addrByte)
	if err != nil {
		s.sendError(fmt.Sprintf("read error: %v", err))
		return
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Address:   addr,
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleReadAll() {
	registers, err := sensors.GetMagManager().ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("read all error: %v", err))
		return
	}

	// Convert to hex string map
	regMap := make(map[string]string)
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Registers: regMap,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleWrite(rawMsg map[string]interface{}) {
	addr, _ := rawMsg["addr"].(string)
	valueStr, _ := rawMsg["value"].(string)

	if addr == "" || valueStr == "" {
		s.sendError("missing addr or value field")
		return
	}

	// Parse hex address and value
	var addrByte, valueByte byte
	if _, err := fmt.Sscanf(addr, "0x%X", &addrByte); err != nil {
		s.sendError(fmt.Sprintf("invalid address format: %s", addr))
		return
	}
	if _, err := fmt.Sscanf(valueStr, "0x%X", &valueByte); err != nil {
		s.sendError(fmt.Sprintf("invalid value format: %s", valueStr))
		return
	}

	// Only the three configuration registers are writable on this chip.
	if addrByte > 0x02 {
		s.sendError(fmt.Sprintf("register %s is read-only", addr))
		return
	}

	if err := sensors.GetMagManager().WriteRegister(addrByte, valueByte); err != nil {
		s.sendError(fmt.Sprintf("write error: %v", err))
		return
	}

	// Read back to confirm
	value, err := sensors.GetMagManager().ReadRegister(addrByte)
	if err != nil {
		s.sendError(fmt.Sprintf("read back error: %v", err))
		return
	}

	resp := RegisterResponse{
		Type:      "register_data",
		Address:   addr,
		Value:     fmt.Sprintf("0x%02X", value),
		Timestamp: time.Now().Format(time.RFC3339),
	}
	s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) handleExportConfig() {
	registers, err := sensors.GetMagManager().ReadAllRegisters()
	if err != nil {
		s.sendError(fmt.Sprintf("export error: %v", err))
		return
	}

	// Convert to hex string map
	regMap := make(map[string]string)
	for addr, value := range registers {
		regMap[fmt.Sprintf("0x%02X", addr)] = fmt.Sprintf("0x%02X", value)
	}

	configFile := RegisterConfigFile{
		Version:   1,
		Device:    "hmc5883l",
		Timestamp: time.Now().Format(time.RFC3339),
		Registers: regMap,
	}

	// Send as download
	configJSON, _ := json.Marshal(configFile)
	rawResp := map[string]interface{}{
		"type":     "export_config",
		"message":  "config exported",
		"config":   string(configJSON),
		"filename": fmt.Sprintf("hmc5883l_%s_registers.json", time.Now().Format("20060102_150405")),
	}
	s.Conn.WriteJSON(rawResp)
}

func (s *RegisterDebugSession) sendRegisterMap() error {
	resp := RegisterResponse{
		Type:        "register_map",
		RegisterMap: sensors.GetMagManager().GetRegisterMap(),
	}
	return s.Conn.WriteJSON(resp)
}

func (s *RegisterDebugSession) sendError(message string) {
	resp := RegisterResponse{
		Type:    "error",
		Message: message,
	}
	s.Conn.WriteJSON(resp)
}

// HandleMagData serves a live magnetometer sample via REST API
func HandleMagData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	sample, err := sensors.GetMagManager().Read()
	if err != nil {
		http.Error(w, fmt.Sprintf(`{"error": "%v"}`, err), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(sample)
}
