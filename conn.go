// Package bridge streams tracker events from a driver process to a consumer
// over a single Unix stream socket.
//
// Each message travels as one frame: a 4-byte little-endian header holding
// the total frame length, header included, followed by a protobuf-encoded
// messages.Envelope. The driver side is a Session that accepts exactly one
// consumer and then sends and polls frames from a single goroutine. The
// consumer side is a Peer.
package bridge

import (
	"io"
	"net"
	"sync/atomic"
	"syscall"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Conn is the accepted bridge socket. It separates the non-blocking header
// poll (ReceiveOnce) from the blocking payload read (ReceiveExact); callers
// polling every tick depend on that split.
type Conn struct {
	raw    *net.UnixConn
	rc     syscall.RawConn
	closed atomic.Bool
}

// newConn takes ownership of raw and registers its descriptor for
// non-blocking receives.
func newConn(raw *net.UnixConn) (*Conn, error) {
	rc, err := raw.SyscallConn()
	if err != nil {
		raw.Close()
		return nil, transportError("accept", errors.Wrap(err, "register connection"))
	}
	return &Conn{raw: raw, rc: rc}, nil
}

// IsOpen reports whether the socket is held and not yet closed.
func (c *Conn) IsOpen() bool {
	return c != nil && !c.closed.Load()
}

// ReceiveOnce reads whatever is pending, up to len(p) bytes, without
// blocking. It returns 0 and a nil error when nothing is pending.
func (c *Conn) ReceiveOnce(p []byte) (int, error) {
	if !c.IsOpen() {
		return 0, transportError("recv", ErrConnectionClosed)
	}
	if len(p) == 0 {
		return 0, nil
	}

	var (
		n       int
		recvErr error
	)
	err := c.rc.Read(func(fd uintptr) bool {
		for {
			n, _, recvErr = unix.Recvfrom(int(fd), p, unix.MSG_DONTWAIT)
			if recvErr != unix.EINTR {
				return true
			}
		}
	})
	if err != nil {
		return 0, transportError("recv", err)
	}

	switch {
	case recvErr == unix.EAGAIN || recvErr == unix.EWOULDBLOCK:
		return 0, nil
	case recvErr != nil:
		return 0, transportError("recv", errors.Wrap(recvErr, "recvfrom"))
	case n == 0:
		return 0, transportError("recv", ErrPeerClosed)
	}
	return n, nil
}

// ReceiveExact blocks until p is full. A peer hang-up part way through is
// reported as ErrPeerClosed.
func (c *Conn) ReceiveExact(p []byte) error {
	if !c.IsOpen() {
		return transportError("recv", ErrConnectionClosed)
	}
	if _, err := io.ReadFull(c.raw, p); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return transportError("recv", ErrPeerClosed)
		}
		return transportError("recv", err)
	}
	return nil
}

// SendAll blocks until all of p is written.
func (c *Conn) SendAll(p []byte) error {
	if !c.IsOpen() {
		return transportError("send", ErrConnectionClosed)
	}
	if _, err := c.raw.Write(p); err != nil {
		return transportError("send", err)
	}
	return nil
}

// Close releases the socket. Safe to call multiple times.
func (c *Conn) Close() error {
	if c == nil || c.closed.Swap(true) {
		return nil // already closed
	}
	return c.raw.Close()
}

// Addr returns the local address of the connection.
func (c *Conn) Addr() net.Addr {
	return c.raw.LocalAddr()
}

// peerGone reports whether err means the consumer has hung up.
func peerGone(err error) bool {
	return errors.Is(err, ErrPeerClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
