package transfer

import "sync"

// fakeChannel records outbound frames and lets tests pin the buffered
// byte count to exercise backpressure.
type fakeChannel struct {
	mu       sync.Mutex
	texts    []string
	binaries [][]byte
	buffered uint64

	// onText and onBinary, when set, deliver each frame to the other
	// side of a simulated channel pair.
	onText   func(string)
	onBinary func([]byte)
}

func (c *fakeChannel) SendText(s string) error {
	c.mu.Lock()
	c.texts = append(c.texts, s)
	fn := c.onText
	c.mu.Unlock()
	if fn != nil {
		fn(s)
	}
	return nil
}

func (c *fakeChannel) Send(data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	c.mu.Lock()
	c.binaries = append(c.binaries, buf)
	fn := c.onBinary
	c.mu.Unlock()
	if fn != nil {
		fn(buf)
	}
	return nil
}

func (c *fakeChannel) BufferedAmount() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffered
}

func (c *fakeChannel) setBuffered(n uint64) {
	c.mu.Lock()
	c.buffered = n
	c.mu.Unlock()
}

func (c *fakeChannel) sentTexts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.texts...)
}

func (c *fakeChannel) sentBinaries() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.binaries...)
}
