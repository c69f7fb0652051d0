package transfer

import (
	"sync"

	"github.com/rs/zerolog"
)

// SessionState tracks the receive side of one transfer.
type SessionState int

const (
	// StateIdle: no meta received yet.
	StateIdle SessionState = iota

	// StateAwaitingUnlock: meta carried a password digest; chunks are
	// gated until a matching password is submitted.
	StateAwaitingUnlock

	// StateStreaming: binary frames are being accumulated.
	StateStreaming

	// StateComplete: done observed, artifact assembled.
	StateComplete

	// StateFailed: channel closed before done with fewer bytes than
	// declared.
	StateFailed
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingUnlock:
		return "awaiting-unlock"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the reassembled artifact handed to the caller on
// completion.
type Result struct {
	Meta Meta
	Data []byte
}

// Receiver accumulates one inbound transfer. The channel owner feeds it
// from the message callback, demultiplexing by frame type:
// HandleControl for text frames, HandleChunk for binary frames.
type Receiver struct {
	ch  Channel
	log zerolog.Logger

	mu       sync.Mutex
	state    SessionState
	meta     Meta
	buffers  [][]byte
	received int64

	// PasswordRequired surfaces the unlock prompt to the UI layer;
	// Done delivers the finished artifact; Failed reports a terminal
	// error (truncation).
	PasswordRequired chan Meta
	Done             chan Result
	Failed           chan error

	progress func(received, total int64)
}

func NewReceiver(ch Channel, log zerolog.Logger) *Receiver {
	return &Receiver{
		ch:               ch,
		log:              log,
		state:            StateIdle,
		PasswordRequired: make(chan Meta, 1),
		Done:             make(chan Result, 1),
		Failed:           make(chan error, 1),
	}
}

// OnProgress registers a callback invoked with the running byte totals
// after every accumulated chunk. Safe to call while frames arrive.
func (r *Receiver) OnProgress(fn func(received, total int64)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = fn
}

// State returns the current session state.
func (r *Receiver) State() SessionState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// BytesReceived returns the running byte total.
func (r *Receiver) BytesReceived() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.received
}

// Meta returns the metadata of the current session. The zero value
// means no meta frame has arrived yet.
func (r *Receiver) Meta() Meta {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.meta
}

// HandleControl processes an inbound text frame. Unparseable frames
// are logged and dropped.
func (r *Receiver) HandleControl(data []byte) {
	msg, err := ParseControl(data)
	if err != nil {
		r.log.Warn().Err(err).Msg("dropping unparseable control message")
		return
	}

	switch m := msg.(type) {
	case *Meta:
		r.handleMeta(*m)
	case *Done:
		r.handleDone()
	default:
		// An unlock echo is meaningless on the receive side.
	}
}

// handleMeta starts a fresh session. Any prior accumulation state is
// discarded, so a stale aborted attempt cannot leak into this one.
func (r *Receiver) handleMeta(meta Meta) {
	r.mu.Lock()
	r.meta = meta
	r.buffers = nil
	r.received = 0

	if meta.PasswordHash != "" {
		r.state = StateAwaitingUnlock
		r.mu.Unlock()
		select {
		case r.PasswordRequired <- meta:
		default:
		}
		return
	}

	r.state = StateStreaming
	r.mu.Unlock()
	r.sendUnlock(true)
}

// SubmitPassword checks an attempt against the sender's digest and
// replies on the channel. A mismatch keeps the session in
// awaiting-unlock so the user can retry.
func (r *Receiver) SubmitPassword(password string) (bool, error) {
	r.mu.Lock()
	if r.state != StateAwaitingUnlock {
		r.mu.Unlock()
		return false, ErrNoSession
	}
	digest := r.meta.PasswordHash
	r.mu.Unlock()

	if !VerifyPassword(password, digest) {
		r.sendUnlock(false)
		return false, nil
	}

	r.mu.Lock()
	r.state = StateStreaming
	r.mu.Unlock()
	r.sendUnlock(true)
	return true, nil
}

func (r *Receiver) sendUnlock(ok bool) {
	frame, err := encodeControl(NewUnlock(ok))
	if err != nil {
		r.log.Error().Err(err).Msg("failed to encode unlock")
		return
	}
	if err := r.ch.SendText(frame); err != nil {
		r.log.Warn().Err(err).Msg("failed to send unlock")
	}
}

// HandleChunk appends one binary frame in arrival order. The direct
// channel preserves ordering, so arrival order is send order.
func (r *Receiver) HandleChunk(data []byte) {
	r.mu.Lock()
	if r.state != StateStreaming {
		r.mu.Unlock()
		r.log.Warn().Int("bytes", len(data)).Msg("dropping chunk outside streaming state")
		return
	}

	chunk := make([]byte, len(data))
	copy(chunk, data)
	r.buffers = append(r.buffers, chunk)
	r.received += int64(len(data))
	received, total := r.received, r.meta.Size
	fn := r.progress
	r.mu.Unlock()

	if fn != nil {
		fn(received, total)
	}
}

// handleDone concatenates the accumulation buffer and delivers the
// artifact.
func (r *Receiver) handleDone() {
	r.mu.Lock()
	if r.state != StateStreaming {
		r.mu.Unlock()
		r.log.Warn().Msg("done outside streaming state ignored")
		return
	}

	data := make([]byte, 0, r.received)
	for _, chunk := range r.buffers {
		data = append(data, chunk...)
	}
	result := Result{Meta: r.meta, Data: data}
	r.state = StateComplete
	r.buffers = nil
	r.mu.Unlock()

	select {
	case r.Done <- result:
	default:
	}
}

// HandleClose marks the session failed when the channel closes mid
// stream with fewer bytes than declared. Closure after completion, or
// before any meta, is a normal teardown.
func (r *Receiver) HandleClose() {
	r.mu.Lock()
	truncated := (r.state == StateStreaming || r.state == StateAwaitingUnlock) && r.received < r.meta.Size
	if truncated {
		r.state = StateFailed
	}
	r.mu.Unlock()

	if truncated {
		select {
		case r.Failed <- ErrTruncated:
		default:
		}
	}
}
