package transfer

// Channel is the transfer protocol's view of the direct channel:
// text frames carry control messages, binary frames carry file bytes,
// and BufferedAmount exposes the outbound queue depth for the
// backpressure gate. *webrtc.DataChannel satisfies it directly.
type Channel interface {
	SendText(s string) error
	Send(data []byte) error
	BufferedAmount() uint64
}
