package transfer

import (
	"bytes"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func metaFrame(t *testing.T, meta Meta) []byte {
	t.Helper()
	frame, err := encodeControl(meta)
	require.NoError(t, err)
	return []byte(frame)
}

func doneFrame(t *testing.T) []byte {
	t.Helper()
	frame, err := encodeControl(NewDone())
	require.NoError(t, err)
	return []byte(frame)
}

func lastUnlock(t *testing.T, ch *fakeChannel) *Unlock {
	t.Helper()
	texts := ch.sentTexts()
	require.NotEmpty(t, texts)
	msg, err := ParseControl([]byte(texts[len(texts)-1]))
	require.NoError(t, err)
	u, ok := msg.(*Unlock)
	require.True(t, ok)
	return u
}

func TestReceiver_PlainTransfer(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	payload := testPayload(t, 200000)
	r.HandleControl(metaFrame(t, NewMeta("blob.bin", 200000, "application/octet-stream", "")))

	// An unprotected meta is acknowledged immediately.
	assert.True(t, lastUnlock(t, ch).OK)
	assert.Equal(t, StateStreaming, r.State())

	for off := 0; off < len(payload); off += 64 * 1024 {
		end := min(off+64*1024, len(payload))
		r.HandleChunk(payload[off:end])
	}
	r.HandleControl(doneFrame(t))

	select {
	case res := <-r.Done:
		assert.Equal(t, "blob.bin", res.Meta.Name)
		assert.True(t, bytes.Equal(payload, res.Data), "delivered bytes must match the source")
	default:
		t.Fatal("expected a completed transfer")
	}
	assert.Equal(t, StateComplete, r.State())
}

func TestReceiver_ChunksOutsideStreamingAreDropped(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	r.HandleChunk([]byte("early"))
	assert.Zero(t, r.BytesReceived())

	r.HandleControl(metaFrame(t, NewMeta("x", 5, "text/plain", HashPassword("pw"))))
	r.HandleChunk([]byte("locked"))
	assert.Zero(t, r.BytesReceived(), "chunks must not land behind a closed gate")
}

func TestReceiver_PasswordGate(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	meta := NewMeta("x", 4, "text/plain", HashPassword("secret"))
	r.HandleControl(metaFrame(t, meta))

	select {
	case got := <-r.PasswordRequired:
		assert.Equal(t, "x", got.Name)
	default:
		t.Fatal("protected meta must surface a password prompt")
	}
	assert.Empty(t, ch.sentTexts(), "no verdict before a password attempt")

	// Wrong attempt: rejected on the wire, session stays open.
	ok, err := r.SubmitPassword("wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, lastUnlock(t, ch).OK)
	assert.Equal(t, StateAwaitingUnlock, r.State())

	// Right attempt opens the gate.
	ok, err = r.SubmitPassword("secret")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, lastUnlock(t, ch).OK)
	assert.Equal(t, StateStreaming, r.State())

	r.HandleChunk([]byte("data"))
	r.HandleControl(doneFrame(t))

	select {
	case res := <-r.Done:
		assert.Equal(t, []byte("data"), res.Data)
	default:
		t.Fatal("expected a completed transfer")
	}
}

func TestReceiver_SubmitPasswordWithoutSession(t *testing.T) {
	r := NewReceiver(&fakeChannel{}, zerolog.Nop())
	_, err := r.SubmitPassword("anything")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestReceiver_TruncatedStream(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	r.HandleControl(metaFrame(t, NewMeta("x", 100, "application/octet-stream", "")))
	r.HandleChunk(make([]byte, 40))
	r.HandleClose()

	select {
	case err := <-r.Failed:
		assert.ErrorIs(t, err, ErrTruncated)
	default:
		t.Fatal("early close mid-stream must fail the session")
	}
	assert.Equal(t, StateFailed, r.State())
}

func TestReceiver_CloseAfterCompletionIsQuiet(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	r.HandleControl(metaFrame(t, NewMeta("x", 2, "text/plain", "")))
	r.HandleChunk([]byte("ok"))
	r.HandleControl(doneFrame(t))
	<-r.Done

	r.HandleClose()
	select {
	case err := <-r.Failed:
		t.Fatalf("unexpected failure after completion: %v", err)
	default:
	}
}

func TestReceiver_CloseBeforeMetaIsQuiet(t *testing.T) {
	r := NewReceiver(&fakeChannel{}, zerolog.Nop())
	r.HandleClose()
	select {
	case err := <-r.Failed:
		t.Fatalf("unexpected failure without a session: %v", err)
	default:
	}
}

func TestReceiver_NewMetaResetsStaleSession(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	r.HandleControl(metaFrame(t, NewMeta("stale.bin", 1000, "application/octet-stream", "")))
	r.HandleChunk(make([]byte, 500))

	// The sender starts over; nothing from the aborted attempt may
	// leak into the new artifact.
	r.HandleControl(metaFrame(t, NewMeta("fresh.txt", 5, "text/plain", "")))
	assert.Zero(t, r.BytesReceived())

	r.HandleChunk([]byte("fresh"))
	r.HandleControl(doneFrame(t))

	select {
	case res := <-r.Done:
		assert.Equal(t, "fresh.txt", res.Meta.Name)
		assert.Equal(t, []byte("fresh"), res.Data)
	default:
		t.Fatal("expected a completed transfer")
	}
}

func TestReceiver_ProgressRegistrationDuringChunkArrival(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())
	r.HandleControl(metaFrame(t, NewMeta("x", 1000, "application/octet-stream", "")))

	// An unprotected meta opens the stream immediately, so chunks can
	// land while the owner is still wiring its progress callback. Both
	// sides go through the receiver's lock; run them concurrently.
	var mu sync.Mutex
	var calls int
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			r.HandleChunk(make([]byte, 10))
		}
	}()
	r.OnProgress(func(received, total int64) {
		mu.Lock()
		calls++
		mu.Unlock()
	})
	<-done

	assert.Equal(t, int64(1000), r.BytesReceived())
	// Late registration may miss early chunks but never corrupts the
	// callback.
	mu.Lock()
	assert.LessOrEqual(t, calls, 100)
	mu.Unlock()
}

func TestReceiver_ProgressReportsRunningTotals(t *testing.T) {
	ch := &fakeChannel{}
	r := NewReceiver(ch, zerolog.Nop())

	var got [][2]int64
	r.OnProgress(func(received, total int64) { got = append(got, [2]int64{received, total}) })

	r.HandleControl(metaFrame(t, NewMeta("x", 30, "application/octet-stream", "")))
	r.HandleChunk(make([]byte, 10))
	r.HandleChunk(make([]byte, 20))

	assert.Equal(t, [][2]int64{{10, 30}, {30, 30}}, got)
}
