package transfer

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pair wires a sender and receiver back to back: every frame the
// sender emits lands in the receiver's handlers and the receiver's
// verdicts come back to the sender.
func pair(t *testing.T) (*Sender, *Receiver) {
	t.Helper()
	senderCh := &fakeChannel{}
	receiverCh := &fakeChannel{}

	s := NewSender(senderCh, Policy{}, zerolog.Nop())
	r := NewReceiver(receiverCh, zerolog.Nop())

	senderCh.onText = func(frame string) { r.HandleControl([]byte(frame)) }
	senderCh.onBinary = r.HandleChunk
	receiverCh.onText = func(frame string) { s.HandleControl([]byte(frame)) }

	return s, r
}

func TestTransfer_EndToEnd(t *testing.T) {
	s, r := pair(t)
	payload := testPayload(t, 200000)

	meta := NewMeta("blob.bin", int64(len(payload)), "application/octet-stream", "")
	require.NoError(t, s.Run(context.Background(), meta, bytes.NewReader(payload)))

	select {
	case res := <-r.Done:
		assert.Equal(t, "blob.bin", res.Meta.Name)
		assert.True(t, bytes.Equal(payload, res.Data), "received bytes must match the source exactly")
	default:
		t.Fatal("transfer did not complete")
	}
}

func TestTransfer_EndToEndWithPassword(t *testing.T) {
	s, r := pair(t)
	payload := testPayload(t, 5000)

	result := make(chan error, 1)
	go func() {
		meta := NewMeta("secret.bin", int64(len(payload)), "application/octet-stream", HashPassword("open sesame"))
		result <- s.Run(context.Background(), meta, bytes.NewReader(payload))
	}()

	var meta Meta
	select {
	case meta = <-r.PasswordRequired:
	case <-time.After(time.Second):
		t.Fatal("password prompt never surfaced")
	}
	assert.Equal(t, "secret.bin", meta.Name)

	ok, err := r.SubmitPassword("open sesame")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, <-result)

	select {
	case res := <-r.Done:
		assert.True(t, bytes.Equal(payload, res.Data))
	case <-time.After(time.Second):
		t.Fatal("transfer did not complete")
	}
}

func TestTransfer_WrongPasswordAbortsSenderNotReceiver(t *testing.T) {
	s, r := pair(t)
	payload := testPayload(t, 5000)

	result := make(chan error, 1)
	go func() {
		meta := NewMeta("secret.bin", int64(len(payload)), "application/octet-stream", HashPassword("right"))
		result <- s.Run(context.Background(), meta, bytes.NewReader(payload))
	}()

	select {
	case <-r.PasswordRequired:
	case <-time.After(time.Second):
		t.Fatal("password prompt never surfaced")
	}

	ok, err := r.SubmitPassword("wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	// The sender is done for; the receiver's gate stays open.
	err = <-result
	assert.True(t, errors.Is(err, ErrUnlockRejected))
	assert.Equal(t, StateAwaitingUnlock, r.State())
	assert.Zero(t, r.BytesReceived())
}
