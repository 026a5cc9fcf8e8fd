package bridge

import (
	"context"
	"io"
	"net"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Zereker/vrbridge/messages"
)

// Peer is the consumer end of the bridge. Unlike Session it reads with
// blocking calls, so a caller typically runs it in its own goroutine via Run.
// Read and Write each own a buffer; one reader and one writer may run
// concurrently.
type Peer struct {
	raw    *net.UnixConn
	opts   options
	logger Logger

	rbuf   *Buffer
	wbuf   *Buffer
	closed atomic.Bool
}

// Dial connects to the bridge socket at path.
func Dial(ctx context.Context, path string, opts ...Option) (*Peer, error) {
	o := newOptions(opts)

	var d net.Dialer
	c, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, transportError("dial", err)
	}

	return &Peer{
		raw:    c.(*net.UnixConn),
		opts:   o,
		logger: o.logger,
		rbuf:   NewBuffer(o.bufferSize),
		wbuf:   NewBuffer(o.bufferSize),
	}, nil
}

// Read blocks until one complete frame has arrived and returns its envelope.
func (p *Peer) Read() (*messages.Envelope, error) {
	header := p.rbuf.Header()
	if err := p.readFull(header); err != nil {
		return nil, err
	}

	_, size, err := ReadHeader(header, HeaderSize)
	if err != nil {
		return nil, protocolError("recv", err)
	}
	if err := checkPayloadSize(size, p.rbuf.MaxPayload(), "recv"); err != nil {
		return nil, err
	}

	payload := p.rbuf.Payload(size)
	if err := p.readFull(payload); err != nil {
		return nil, err
	}

	env, err := p.opts.codec.Unmarshal(payload)
	if err != nil {
		return nil, encodingError("recv", err)
	}
	p.opts.metrics.received(HeaderSize + size)
	return env, nil
}

func (p *Peer) readFull(b []byte) error {
	if _, err := io.ReadFull(p.raw, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return transportError("recv", ErrPeerClosed)
		}
		return transportError("recv", err)
	}
	return nil
}

// Write frames env and sends it.
func (p *Peer) Write(env *messages.Envelope) error {
	if p.closed.Load() {
		return transportError("send", ErrConnectionClosed)
	}

	buf := p.wbuf.Bytes()
	total, err := encodeFrame(buf, p.opts.codec, env, "send")
	if err != nil {
		return err
	}
	if _, err := p.raw.Write(buf[:total]); err != nil {
		return transportError("send", err)
	}
	p.opts.metrics.sent(total)
	return nil
}

// Run reads frames and passes each to onMessage until ctx is canceled, the
// bridge hangs up, a frame cannot be decoded, or onMessage returns an error.
// The connection is closed when Run returns.
func (p *Peer) Run(ctx context.Context, onMessage func(*messages.Envelope) error) error {
	p.logger.Info("peer connected", "addr", p.raw.RemoteAddr())

	group, child := errgroup.WithContext(ctx)

	group.Go(func() error {
		return p.readLoop(child, onMessage)
	})

	group.Go(func() error {
		<-child.Done()
		_ = p.Close()
		return child.Err()
	})

	err := group.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		p.logger.Info("peer closed with error", "error", err)
	} else {
		p.logger.Info("peer closed")
	}
	return err
}

// readLoop ends with ctx's error when the connection was closed because ctx
// ended, so that shutdown is not reported as a read failure.
func (p *Peer) readLoop(ctx context.Context, onMessage func(*messages.Envelope) error) error {
	for {
		env, err := p.Read()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Debug("read error", "error", err)
			return err
		}

		if err := onMessage(env); err != nil {
			return err
		}
	}
}

// Close closes the connection. Safe to call multiple times.
func (p *Peer) Close() error {
	if p.closed.Swap(true) {
		return nil // already closed
	}
	return p.raw.Close()
}
