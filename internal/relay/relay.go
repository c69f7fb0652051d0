package relay

import "github.com/rs/zerolog"

// Relay interprets control messages from one connection against the
// registry and forwards signaling payloads to the other members of the
// room. It holds no state of its own beyond the registry; dispatch runs
// on each connection's read goroutine.
type Relay struct {
	registry *Registry
	metrics  *Metrics
	log      zerolog.Logger
}

func NewRelay(registry *Registry, metrics *Metrics, log zerolog.Logger) *Relay {
	return &Relay{registry: registry, metrics: metrics, log: log}
}

// HandleMessage dispatches one inbound control message. Unknown types
// are dropped.
func (r *Relay) HandleMessage(c *Client, msg *Message) {
	switch msg.Type {
	case TypeCreate:
		r.handleCreate(c)
	case TypeJoin:
		r.handleJoin(c, msg)
	case TypeSignal:
		r.handleSignal(c, msg)
	default:
		r.log.Debug().Str("type", msg.Type).Msg("unknown message type")
	}
}

func (r *Relay) handleCreate(c *Client) {
	roomID := r.registry.Create(c)
	r.metrics.RoomsCreated.Inc()
	r.metrics.RoomsActive.Set(float64(r.registry.RoomCount()))
	r.log.Info().Str("room", roomID).Msg("room created")

	c.deliver(&Message{Type: TypeCreated, RoomID: roomID})
}

func (r *Relay) handleJoin(c *Client, msg *Message) {
	if msg.RoomID == "" {
		c.deliver(&Message{Type: TypeError, Error: "Missing roomId"})
		return
	}

	// Join-or-create: an unknown room id is not an error, the room is
	// created on the spot. Peers returns the members that were already
	// there, snapshotted under the registry lock.
	r.registry.Join(c, msg.RoomID)
	r.metrics.RoomsActive.Set(float64(r.registry.RoomCount()))
	r.log.Info().Str("room", msg.RoomID).Msg("client joined room")

	for _, peer := range r.registry.Peers(c) {
		peer.deliver(&Message{Type: TypePeerJoined})
	}
	c.deliver(&Message{Type: TypeJoined, RoomID: msg.RoomID})
}

func (r *Relay) handleSignal(c *Client, msg *Message) {
	members, ok := r.registry.Members(msg.RoomID, c)
	if !ok {
		// Stray signal after room teardown; drop without a reply.
		r.log.Debug().Str("room", msg.RoomID).Msg("signal for unknown room dropped")
		return
	}

	out := &Message{Type: TypeSignal, Payload: msg.Payload}
	for _, peer := range members {
		if peer.deliver(out) {
			r.metrics.SignalsRelayed.Inc()
		}
	}
}

// HandleClose removes the connection from its room and notifies the
// remaining members. Safe to call for connections that never joined a
// room, and idempotent on repeated closes.
func (r *Relay) HandleClose(c *Client) {
	roomID, remaining := r.registry.Leave(c)
	if roomID == "" {
		return
	}
	r.metrics.RoomsActive.Set(float64(r.registry.RoomCount()))
	r.log.Info().Str("room", roomID).Int("remaining", len(remaining)).Msg("client left room")

	for _, peer := range remaining {
		peer.deliver(&Message{Type: TypePeerLeft})
	}
}
