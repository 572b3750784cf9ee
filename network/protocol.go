package network

import (
	"bytes"
	"encoding/json"
)

// Control message types carried in WebSocket text frames
const (
	ControlResize = "resize"
)

// maxControlSize bounds text frames inspected for control messages
const maxControlSize = 256

// ControlMessage is an out-of-band WebSocket request: {"type":"resize","cols":N,"rows":M}
type ControlMessage struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// ParseControl recognizes a control message; anything else is terminal input
// A frame that looks like JSON but is not a valid resize is still treated as input
func ParseControl(data []byte) (ControlMessage, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || len(trimmed) > maxControlSize || trimmed[0] != '{' {
		return ControlMessage{}, false
	}
	var m ControlMessage
	if err := json.Unmarshal(trimmed, &m); err != nil {
		return ControlMessage{}, false
	}
	if m.Type != ControlResize || m.Cols <= 0 || m.Rows <= 0 {
		return ControlMessage{}, false
	}
	return m, true
}
