package bridge

import (
	"github.com/pkg/errors"
)

// ErrorKind classifies a bridge failure.
type ErrorKind int

const (
	// KindUnknown is returned by KindOf for errors not produced by the bridge.
	KindUnknown ErrorKind = iota
	// KindTransport covers socket failures during accept, send or receive.
	KindTransport
	// KindProtocol covers malformed, truncated or oversize frames.
	KindProtocol
	// KindEncoding covers payload serialize and decode failures.
	KindEncoding
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindEncoding:
		return "encoding"
	}
	return "unknown"
}

// Errors returned by bridge operations.
var (
	// ErrNotConnected is returned when sending on a session that has no connection.
	ErrNotConnected = errors.New("not connected")
	// ErrConnectionClosed is returned when operating on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrPeerClosed is returned when the peer hangs up.
	ErrPeerClosed = errors.New("peer closed the connection")
	// ErrShortHeader is returned when fewer than HeaderSize bytes are available.
	ErrShortHeader = errors.New("invalid message header")
	// ErrMalformedHeader is returned when a header encodes a total below HeaderSize.
	ErrMalformedHeader = errors.New("invalid message size")
	// ErrFrameTooLarge is returned when a frame does not fit the buffer.
	ErrFrameTooLarge = errors.New("message too big")
	// ErrEmptyMessage is returned for frames without payload.
	ErrEmptyMessage = errors.New("empty message")
)

// Error is a classified bridge failure. Op is "send", "recv" or "accept".
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return "bridge " + e.Op + " error: " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func transportError(op string, err error) error {
	return &Error{Kind: KindTransport, Op: op, Err: err}
}

func protocolError(op string, err error) error {
	return &Error{Kind: KindProtocol, Op: op, Err: err}
}

func encodingError(op string, err error) error {
	return &Error{Kind: KindEncoding, Op: op, Err: err}
}
