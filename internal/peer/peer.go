package peer

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/Mincrypt/P2p-share/internal/config"
	"github.com/Mincrypt/P2p-share/internal/logging"
	"github.com/Mincrypt/P2p-share/internal/signaling"
)

// SignalSender delivers locally generated negotiation payloads to the
// other party, normally through the signaling relay.
type SignalSender interface {
	SendSignal(payload signaling.SignalPayload) error
}

// Coordinator drives one side of the offer/answer/candidate exchange
// and surfaces the outcome. One coordinator per direct channel; it is
// not reused after failure.
type Coordinator struct {
	role Role
	pc   *webrtc.PeerConnection
	out  SignalSender
	log  zerolog.Logger

	mu        sync.Mutex
	state     State
	remoteSet bool
	// Candidates can arrive before the remote description; they are
	// buffered here and applied once it is set.
	pending []webrtc.ICECandidateInit

	// Connected fires once when the transport reaches connected;
	// Failed fires once on failure or disconnection. Terminal states,
	// no auto-retry.
	Connected chan struct{}
	Failed    chan struct{}
}

// New builds a peer connection from the configured ICE servers and wires
// trickle ICE: every locally discovered candidate is relayed immediately
// as its own signal message.
func New(cfg *config.Config, role Role, out SignalSender, log zerolog.Logger) (*Coordinator, error) {
	settings := webrtc.SettingEngine{}
	settings.LoggerFactory = logging.NewPionLogger(log)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(settings))

	iceServers := []webrtc.ICEServer{{URLs: cfg.STUNServers()}}
	if turn := cfg.TURNServers(); turn != nil {
		user, pass := cfg.TURNCredentials()
		iceServers = append(iceServers, webrtc.ICEServer{
			URLs:       turn,
			Username:   user,
			Credential: pass,
		})
	}

	policy := webrtc.ICETransportPolicyAll
	if cfg.ForceRelay {
		policy = webrtc.ICETransportPolicyRelay
	}

	pc, err := api.NewPeerConnection(webrtc.Configuration{
		ICEServers:         iceServers,
		ICETransportPolicy: policy,
	})
	if err != nil {
		return nil, fmt.Errorf("create peer connection: %w", err)
	}

	c := &Coordinator{
		role:      role,
		pc:        pc,
		out:       out,
		log:       log,
		state:     StateIdle,
		Connected: make(chan struct{}, 1),
		Failed:    make(chan struct{}, 1),
	}

	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		init := cand.ToJSON()
		if err := out.SendSignal(signaling.SignalPayload{Candidate: &init}); err != nil {
			c.log.Warn().Err(err).Msg("failed to relay ICE candidate")
		}
	})

	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		c.log.Debug().Str("state", state.String()).Msg("connection state changed")
		switch state {
		case webrtc.PeerConnectionStateConnected:
			c.setState(StateConnected)
			select {
			case c.Connected <- struct{}{}:
			default:
			}
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateDisconnected, webrtc.PeerConnectionStateClosed:
			if c.setFailed() {
				select {
				case c.Failed <- struct{}{}:
				default:
				}
			}
		}
	})

	return c, nil
}

// PeerConnection exposes the underlying connection for data channel
// creation and handling.
func (c *Coordinator) PeerConnection() *webrtc.PeerConnection { return c.pc }

// State returns the current negotiation state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// StartOffer creates and relays the offer. The initiator calls it on
// peer-joined, after it has created its data channel.
func (c *Coordinator) StartOffer() error {
	c.setState(StateOffering)

	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return fmt.Errorf("create offer: %w", err)
	}
	if err := c.pc.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("set local description: %w", err)
	}

	// Trickle ICE: relay the description immediately, candidates
	// follow one by one.
	if err := c.out.SendSignal(signaling.SignalPayload{SDP: c.pc.LocalDescription()}); err != nil {
		return fmt.Errorf("relay offer: %w", err)
	}

	c.setState(StateNegotiating)
	return nil
}

// HandleSignal applies one payload received through the relay.
func (c *Coordinator) HandleSignal(payload *signaling.SignalPayload) error {
	switch {
	case payload.SDP != nil:
		return c.handleDescription(payload.SDP)
	case payload.Candidate != nil:
		c.handleCandidate(*payload.Candidate)
		return nil
	}
	return nil
}

func (c *Coordinator) handleDescription(desc *webrtc.SessionDescription) error {
	switch desc.Type {
	case webrtc.SDPTypeOffer:
		c.setState(StateAnswering)
		if err := c.pc.SetRemoteDescription(*desc); err != nil {
			return fmt.Errorf("set remote description: %w", err)
		}
		c.flushCandidates()

		answer, err := c.pc.CreateAnswer(nil)
		if err != nil {
			return fmt.Errorf("create answer: %w", err)
		}
		if err := c.pc.SetLocalDescription(answer); err != nil {
			return fmt.Errorf("set local description: %w", err)
		}
		if err := c.out.SendSignal(signaling.SignalPayload{SDP: c.pc.LocalDescription()}); err != nil {
			return fmt.Errorf("relay answer: %w", err)
		}
		c.setState(StateNegotiating)
		return nil

	case webrtc.SDPTypeAnswer:
		if err := c.pc.SetRemoteDescription(*desc); err != nil {
			return fmt.Errorf("set remote description: %w", err)
		}
		c.flushCandidates()
		return nil

	default:
		return fmt.Errorf("unexpected description type %q", desc.Type)
	}
}

// handleCandidate applies a remote candidate, buffering it if the
// remote description is not set yet. A candidate that fails to apply is
// skipped; the others may still carry the negotiation.
func (c *Coordinator) handleCandidate(cand webrtc.ICECandidateInit) {
	c.mu.Lock()
	if !c.remoteSet {
		c.pending = append(c.pending, cand)
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if err := c.pc.AddICECandidate(cand); err != nil {
		c.log.Warn().Err(err).Msg("failed to apply ICE candidate")
	}
}

// flushCandidates applies candidates that arrived before the remote
// description.
func (c *Coordinator) flushCandidates() {
	c.mu.Lock()
	c.remoteSet = true
	buffered := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, cand := range buffered {
		if err := c.pc.AddICECandidate(cand); err != nil {
			c.log.Warn().Err(err).Msg("failed to apply buffered ICE candidate")
		}
	}
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFailed {
		return
	}
	c.state = s
}

// setFailed transitions to failed and reports whether this call did the
// transition. Connected is not terminal: a later disconnection still
// fails the session.
func (c *Coordinator) setFailed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFailed {
		return false
	}
	c.state = StateFailed
	return true
}

// Close tears down the peer connection.
func (c *Coordinator) Close() error {
	return c.pc.Close()
}
