package bridge

import (
	"context"

	"github.com/Zereker/vrbridge/messages"
)

// Status is the result of the startup sequence.
type Status int

const (
	StatusConnected Status = iota
	StatusDisconnected
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// State is the session lifecycle state. A session never goes back from
// StateDisconnected on its own; the caller starts a new accept cycle.
type State int

const (
	StateNotStarted State = iota
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// Session is the driver end of the bridge: one accepted connection and one
// fixed frame buffer. All methods must be called from a single goroutine.
//
// Failures are logged at error level and returned. "Nothing pending" on
// Receive is not a failure and is never logged.
type Session struct {
	opts   options
	logger Logger

	buf   *Buffer
	conn  *Conn
	state State
}

// NewSession creates an unconnected session.
func NewSession(opts ...Option) *Session {
	o := newOptions(opts)
	return &Session{
		opts:   o,
		logger: o.logger,
		buf:    NewBuffer(o.bufferSize),
	}
}

// StartAndWaitForConnection starts the session at DefaultSocketPath.
func (s *Session) StartAndWaitForConnection(ctx context.Context) (Status, error) {
	path, fromEnv := DefaultSocketPath()
	if !fromEnv {
		s.logger.Warn("XDG_RUNTIME_DIR is unset, this may not be expected", "path", path)
	}
	return s.Start(ctx, path)
}

// Start listens at path and blocks until one consumer connects. The
// listening socket is closed once the connection is accepted, so further
// clients are refused. Failures are returned as-is; nothing is retried.
// Cancelling ctx abandons the wait and yields StatusDisconnected.
func (s *Session) Start(ctx context.Context, path string) (Status, error) {
	if s.Connected() {
		return StatusConnected, nil
	}

	ln, err := Listen(path, s.opts.backlog, LoggerOption(s.logger))
	if err != nil {
		s.logger.Error("bridge listen error", "path", path, "error", err)
		return StatusError, err
	}
	defer ln.Close()

	s.logger.Info("waiting to accept a connection", "path", path)
	conn, err := ln.Accept(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return StatusDisconnected, err
		}
		return StatusError, err
	}

	s.conn = conn
	s.state = StateConnected
	s.opts.metrics.setConnected(true)
	return StatusConnected, nil
}

// Receive returns the next pending message. It returns nil and a nil error
// when nothing is pending or the session is not connected, so it can be
// called every tick of a real-time loop.
//
// A partial header is an error; header bytes are never held over to the
// next call.
func (s *Session) Receive() (*messages.Envelope, error) {
	if !s.Connected() {
		return nil, nil
	}

	header := s.buf.Header()
	n, err := s.conn.ReceiveOnce(header)
	if err != nil {
		return nil, s.fail("recv", err)
	}
	if n == 0 {
		return nil, nil // no message waiting
	}

	_, size, err := ReadHeader(header, n)
	if err != nil {
		return nil, s.fail("recv", protocolError("recv", err))
	}
	if err := checkPayloadSize(size, s.buf.MaxPayload(), "recv"); err != nil {
		return nil, s.fail("recv", err)
	}

	payload := s.buf.Payload(size)
	if err := s.conn.ReceiveExact(payload); err != nil {
		return nil, s.fail("recv", err)
	}

	env, err := s.opts.codec.Unmarshal(payload)
	if err != nil {
		return nil, s.fail("recv", encodingError("recv", err))
	}

	s.opts.metrics.received(HeaderSize + size)
	return env, nil
}

// Send frames env into the buffer and writes it. It fails with
// ErrNotConnected, without touching the buffer, when there is no connection.
func (s *Session) Send(env *messages.Envelope) error {
	if !s.Connected() {
		return ErrNotConnected
	}

	buf := s.buf.Bytes()
	total, err := encodeFrame(buf, s.opts.codec, env, "send")
	if err != nil {
		return s.fail("send", err)
	}

	if err := s.conn.SendAll(buf[:total]); err != nil {
		return s.fail("send", err)
	}
	s.opts.metrics.sent(total)
	return nil
}

// Drain discards pending messages until none is left or a receive fails,
// and returns how many were discarded.
func (s *Session) Drain() int {
	drained := 0
	for {
		env, err := s.Receive()
		if err != nil || env == nil {
			return drained
		}
		drained++
	}
}

// Connected reports whether the session holds an open connection.
func (s *Session) Connected() bool {
	return s.state == StateConnected && s.conn.IsOpen()
}

// State returns the lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Close drops the connection. Closing a session that never started is a
// no-op.
func (s *Session) Close() error {
	if s.state != StateConnected {
		return nil
	}
	return s.disconnect()
}

func (s *Session) disconnect() error {
	s.state = StateDisconnected
	s.opts.metrics.setConnected(false)
	return s.conn.Close()
}

// fail logs err, counts it and returns it. A hang-up by the consumer ends
// the session.
func (s *Session) fail(op string, err error) error {
	s.logger.Error("bridge "+op+" error", "kind", KindOf(err).String(), "error", err)
	s.opts.metrics.failed(op, err)
	if peerGone(err) {
		s.logger.Info("consumer disconnected")
		_ = s.disconnect()
	}
	return err
}
