package bridge

// DefaultBufferSize is the capacity of the frame buffer.
const DefaultBufferSize = 1024

// Buffer is a fixed-capacity scratch area holding one frame at a time. Every
// send and receive overwrites it from offset zero. It never grows and is not
// safe for concurrent use.
type Buffer struct {
	b []byte
}

// NewBuffer allocates a buffer. Capacities below HeaderSize+1 are raised so
// that at least a one-byte payload fits.
func NewBuffer(capacity int) *Buffer {
	if capacity <= HeaderSize {
		capacity = HeaderSize + 1
	}
	return &Buffer{b: make([]byte, capacity)}
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.b)
}

// Bytes returns the whole backing array.
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Header returns the header region.
func (b *Buffer) Header() []byte {
	return b.b[:HeaderSize]
}

// Payload returns the n bytes following the header.
func (b *Buffer) Payload(n int) []byte {
	return b.b[HeaderSize : HeaderSize+n]
}

// MaxPayload is the largest payload a frame in this buffer can carry.
func (b *Buffer) MaxPayload() int {
	return len(b.b) - HeaderSize
}
