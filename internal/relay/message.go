package relay

import "encoding/json"

// Message is the control-channel envelope exchanged between an endpoint
// and the relay. The payload of a signal message is opaque to the relay
// and forwarded verbatim.
type Message struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Inbound message types (endpoint to relay).
const (
	TypeCreate = "create"
	TypeJoin   = "join"
	TypeSignal = "signal"
)

// Outbound message types (relay to endpoint).
const (
	TypeCreated    = "created"
	TypeJoined     = "joined"
	TypePeerJoined = "peer-joined"
	TypePeerLeft   = "peer-left"
	TypeError      = "error"
)
