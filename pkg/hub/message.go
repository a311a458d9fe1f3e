// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// MessageType indicates the websocket message format
type MessageType int

const (
	// JSONMessage is a JSON-encoded message
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data (e.g., JPEG thumbnails)
	BinaryMessage
)

// Message represents a message to be broadcast to clients
type Message struct {
	Type MessageType
	Data []byte
}

// Envelope tags a JSON payload with its kind so one socket can carry
// several event types.
type Envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// NewJSONMessage creates a JSON message from pre-encoded bytes
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// NewEnvelope encodes v wrapped in an Envelope of the given kind.
func NewEnvelope(kind string, v interface{}) (Message, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	data, err := json.Marshal(Envelope{Kind: kind, Data: payload})
	if err != nil {
		return Message{}, err
	}
	return NewJSONMessage(data), nil
}
