// Package protocol defines the WebSocket messages exchanged with control clients.
package protocol

import (
	"encoding/json"
	"fmt"

	"glide/internal/params"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeState is sent by the server whenever the arbiter state or the enabled
	// flag changes
	TypeState MessageType = "state"

	// TypeParams is sent by the server when parameters change, and by clients to
	// update them (partial payloads allowed)
	TypeParams MessageType = "params"

	// TypeEnable is sent by clients to start the motion loop
	TypeEnable MessageType = "enable"

	// TypeDisable is sent by clients to stop the motion loop
	TypeDisable MessageType = "disable"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatePayload is the payload for TypeState
type StatePayload struct {
	State   string `json:"state"`
	From    string `json:"from,omitempty"`
	Enabled bool   `json:"enabled"`
}

// ParamsPayload is the payload for server-sent TypeParams
type ParamsPayload struct {
	Params params.Params `json:"params"`
}

// New builds a message with payload encoded as JSON
func New(t MessageType, payload interface{}) (Message, error) {
	msg := Message{Type: t}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	msg.Payload = data
	return msg, nil
}

// DecodePayload unmarshals the payload into v
func (m Message) DecodePayload(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s message has no payload", m.Type)
	}
	return json.Unmarshal(m.Payload, v)
}
