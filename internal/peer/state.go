package peer

// Role says which side of the negotiation this endpoint drives.
type Role int

const (
	// RoleInitiator creates the data channel and the offer once the
	// other party joins the room.
	RoleInitiator Role = iota

	// RoleResponder waits for an offer and answers it.
	RoleResponder
)

func (r Role) String() string {
	if r == RoleInitiator {
		return "initiator"
	}
	return "responder"
}

// State is the coordinator's negotiation state.
type State int

const (
	StateIdle State = iota
	StateOffering
	StateAnswering
	StateNegotiating
	StateConnected
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOffering:
		return "offering"
	case StateAnswering:
		return "answering"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}
