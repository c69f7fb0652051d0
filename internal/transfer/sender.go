package transfer

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Policy holds the tunable transfer parameters. Chunks never exceed
// ChunkSize; the sender pauses while the channel's outbound buffer sits
// at or above HighWaterMark, re-checking every PollInterval.
type Policy struct {
	ChunkSize     int
	HighWaterMark uint64
	PollInterval  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		ChunkSize:     64 * 1024,
		HighWaterMark: 8 * 1024 * 1024,
		PollInterval:  20 * time.Millisecond,
	}
}

// Sender streams one file over the direct channel: meta first, then the
// optional unlock gate, then ordered chunks, then done. One sender per
// channel; Run is called once.
type Sender struct {
	ch     Channel
	policy Policy
	log    zerolog.Logger

	// unlock carries the receiver's gate verdict from the inbound
	// dispatch goroutine, so waiting on it never blocks inbound
	// delivery.
	unlock chan bool

	progress func(sent int64)
}

func NewSender(ch Channel, policy Policy, log zerolog.Logger) *Sender {
	if policy.ChunkSize <= 0 {
		policy.ChunkSize = DefaultPolicy().ChunkSize
	}
	if policy.HighWaterMark == 0 {
		policy.HighWaterMark = DefaultPolicy().HighWaterMark
	}
	if policy.PollInterval <= 0 {
		policy.PollInterval = DefaultPolicy().PollInterval
	}
	return &Sender{
		ch:     ch,
		policy: policy,
		log:    log,
		unlock: make(chan bool, 1),
	}
}

// OnProgress registers a callback invoked with the running byte total
// after every sent chunk. Set it before Run.
func (s *Sender) OnProgress(fn func(sent int64)) {
	s.progress = fn
}

// HandleControl routes an inbound text frame. The channel owner calls
// it from the message callback.
func (s *Sender) HandleControl(data []byte) {
	msg, err := ParseControl(data)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping unparseable control message")
		return
	}
	if u, ok := msg.(*Unlock); ok {
		select {
		case s.unlock <- u.OK:
		default:
		}
	}
}

// Run executes the full send sequence. A wrong password on the far end
// aborts with ErrUnlockRejected and the session is not reused; context
// cancellation covers channel teardown.
func (s *Sender) Run(ctx context.Context, meta Meta, src io.Reader) error {
	frame, err := encodeControl(meta)
	if err != nil {
		return NewError("encode meta", err)
	}
	if err := s.ch.SendText(frame); err != nil {
		return NewError("send meta", err)
	}

	if meta.PasswordHash != "" {
		if err := s.waitForUnlock(ctx); err != nil {
			return err
		}
	}

	if err := s.streamChunks(ctx, src); err != nil {
		return err
	}

	doneFrame, err := encodeControl(NewDone())
	if err != nil {
		return NewError("encode done", err)
	}
	if err := s.ch.SendText(doneFrame); err != nil {
		return NewError("send done", err)
	}
	return nil
}

// waitForUnlock blocks until the receiver accepts the password attempt.
// A rejected attempt is terminal for the sender even though the
// receiver keeps its gate open for retries.
func (s *Sender) waitForUnlock(ctx context.Context) error {
	for {
		select {
		case ok := <-s.unlock:
			if ok {
				return nil
			}
			return ErrUnlockRejected
		case <-ctx.Done():
			return NewError("wait for unlock", ctx.Err())
		}
	}
}

func (s *Sender) streamChunks(ctx context.Context, src io.Reader) error {
	buf := make([]byte, s.policy.ChunkSize)
	var sent int64

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			if err := s.waitForWindow(ctx); err != nil {
				return err
			}
			if err := s.ch.Send(buf[:n]); err != nil {
				return NewError("send chunk", err)
			}
			sent += int64(n)
			if s.progress != nil {
				s.progress(sent)
			}
		}

		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return NewError("read source", readErr)
		}
	}
}

// waitForWindow applies backpressure: while the channel's outstanding
// byte count sits at or above the high-water mark, the sender re-polls
// on a bounded interval instead of queueing more data.
func (s *Sender) waitForWindow(ctx context.Context) error {
	for s.ch.BufferedAmount() >= s.policy.HighWaterMark {
		select {
		case <-ctx.Done():
			return NewError("wait for send window", ctx.Err())
		case <-time.After(s.policy.PollInterval):
		}
	}
	return nil
}
