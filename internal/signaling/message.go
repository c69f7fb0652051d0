package signaling

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
)

// Message mirrors the relay's control-channel envelope.
type Message struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Message type constants, shared with the relay.
const (
	MessageTypeCreate = "create"
	MessageTypeJoin   = "join"
	MessageTypeSignal = "signal"

	MessageTypeCreated    = "created"
	MessageTypeJoined     = "joined"
	MessageTypePeerJoined = "peer-joined"
	MessageTypePeerLeft   = "peer-left"
	MessageTypeError      = "error"
)

// SignalPayload is the negotiation payload relayed between peers: a
// session description or a single ICE candidate, never both. The field
// names match what browser peers produce, so a CLI endpoint and a web
// endpoint can negotiate with each other.
type SignalPayload struct {
	SDP       *webrtc.SessionDescription `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit   `json:"candidate,omitempty"`
}

// NewSignalMessage wraps a negotiation payload for the relay.
func NewSignalMessage(roomID string, payload SignalPayload) (*Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: MessageTypeSignal, RoomID: roomID, Payload: raw}, nil
}
