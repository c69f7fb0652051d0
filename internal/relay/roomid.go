package relay

import "crypto/rand"

// Room ids are embedded in share links as a query parameter, so the
// alphabet must be URL-safe. 64 symbols keeps the byte-to-symbol
// mapping bias-free.
const (
	roomIDLength   = 10
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
)

// newRoomID returns a random URL-safe room identifier. crypto/rand.Read
// is documented to always succeed.
func newRoomID() string {
	buf := make([]byte, roomIDLength)
	rand.Read(buf)
	id := make([]byte, roomIDLength)
	for i, b := range buf {
		id[i] = roomIDAlphabet[b&63]
	}
	return string(id)
}
