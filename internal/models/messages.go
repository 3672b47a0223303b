package models

import "encoding/json"

// WSMessage is the envelope for all WebSocket communication.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LoadFileRequest asks the server to load an export from its own filesystem.
type LoadFileRequest struct {
	Path string `json:"path"`
}

// LoadStats reports the outcome of loading one export.
type LoadStats struct {
	LoadID   string `json:"loadId"`
	Source   string `json:"source"`
	Records  int    `json:"records"`
	Packets  int    `json:"packets"`
	Rejected int    `json:"rejected"`
	Finished bool   `json:"finished"`
}

// ErrorPayload describes an error sent to the client.
type ErrorPayload struct {
	Message string `json:"message"`
}
