// Package events contains the message contracts of the BizPulse websocket channel.
package events

import (
	"encoding/json"
	"time"
)

// Protocol version
const (
	ProtocolVersion = "1.0"
	ProtocolName    = "bizpulse-websocket-protocol"
)

// MessageType identifies a websocket message
type MessageType string

// Server to client
const (
	TypeConnected        MessageType = "connected"
	TypeDatasetLoaded    MessageType = "dataset:loaded"
	TypeSimulationResult MessageType = "simulation:result"
	TypeError            MessageType = "error"
	TypePong             MessageType = "pong"
)

// Client to server
const (
	TypeSimulate MessageType = "simulate"
	TypePing     MessageType = "ping"
)

// Message is the frame exchanged in both directions
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	TraceID   string          `json:"trace_id,omitempty"`
}

// NewMessage builds a message with a JSON encoded payload
func NewMessage(t MessageType, payload interface{}) (Message, error) {
	msg := Message{Type: t, Timestamp: time.Now().UTC()}
	if payload == nil {
		return msg, nil
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	msg.Payload = data
	return msg, nil
}

// ProtocolError is the payload of an error message
type ProtocolError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Protocol error codes
const (
	ErrCodeInvalidFrame    = "INVALID_FRAME"
	ErrCodeUnsupportedType = "UNSUPPORTED_TYPE"
	ErrCodeInvalidScenario = "INVALID_SCENARIO"
	ErrCodeNoDataset       = "DATASET_NOT_LOADED"
	ErrCodeServerError     = "SERVER_ERROR"
)

// DatasetLoaded is the payload of a dataset:loaded event
type DatasetLoaded struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Rows   int    `json:"rows"`
}
