package signaling

import "encoding/json"

// Handler routes incoming relay messages to typed channels.
type Handler struct {
	client *Client

	RoomCreated chan string
	Joined      chan string
	PeerJoined  chan struct{}
	PeerLeft    chan struct{}
	Signal      chan *SignalPayload
	Error       chan string

	// Disconnected is closed when the relay connection drops.
	Disconnected chan struct{}

	closed bool
}

// NewHandler creates a message handler for the client.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:      client,
		RoomCreated: make(chan string, 1),
		Joined:      make(chan string, 1),
		PeerJoined:  make(chan struct{}, 1),
		PeerLeft:    make(chan struct{}, 1),
		Signal:      make(chan *SignalPayload, 32),
		Error:       make(chan string, 1),

		Disconnected: make(chan struct{}),
	}
}

// Start consumes the client's incoming stream until it closes. Run it
// in its own goroutine.
func (h *Handler) Start() {
	for msg := range h.client.Incoming() {
		switch msg.Type {
		case MessageTypeCreated:
			h.RoomCreated <- msg.RoomID

		case MessageTypeJoined:
			h.Joined <- msg.RoomID

		case MessageTypePeerJoined:
			h.PeerJoined <- struct{}{}

		case MessageTypePeerLeft:
			h.PeerLeft <- struct{}{}

		case MessageTypeSignal:
			h.handleSignal(msg)

		case MessageTypeError:
			h.handleError(msg)

		default:
			// Unknown push types are dropped; the protocol may grow.
		}
	}
	close(h.Disconnected)
}

func (h *Handler) handleSignal(msg *Message) {
	var payload SignalPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		h.Error <- "failed to parse signal payload"
		return
	}
	h.Signal <- &payload
}

func (h *Handler) handleError(msg *Message) {
	errText := msg.Error
	if errText == "" {
		errText = "unknown error from relay"
	}
	h.Error <- errText
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.RoomCreated)
	close(h.Joined)
	close(h.PeerJoined)
	close(h.PeerLeft)
	close(h.Signal)
	close(h.Error)
}
