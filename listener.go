package bridge

import (
	"context"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Listener is the bridge's listening Unix socket. It hands out one
// connection per Accept call; the session only ever calls it once.
type Listener struct {
	ln     *net.UnixListener
	path   string
	logger Logger

	mu     sync.Mutex
	closed bool
}

// Listen creates a Unix stream socket bound to path with the given listen
// backlog. A stale socket file left at path by a previous run is removed
// first; any other file there is an error.
func Listen(path string, backlog int, opts ...Option) (*Listener, error) {
	o := newOptions(opts)
	if backlog <= 0 {
		backlog = o.backlog
	}

	ln, err := listenUnix(path, backlog)
	if err != nil {
		return nil, transportError("accept", err)
	}

	o.logger.Debug("listening", "path", path, "backlog", backlog)
	return &Listener{ln: ln, path: path, logger: o.logger}, nil
}

// net.ListenUnix has no way to set the backlog, so the socket is built by
// hand and then handed to the runtime poller.
func listenUnix(path string, backlog int) (*net.UnixListener, error) {
	if err := removeStaleSocket(path); err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, errors.Wrap(err, "socket")
	}
	unix.CloseOnExec(fd)

	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return nil, errors.Wrapf(err, "bind %s", path)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		_ = os.Remove(path)
		return nil, errors.Wrapf(err, "listen %s", path)
	}

	// FileListener dups the descriptor; f owns the original.
	f := os.NewFile(uintptr(fd), path)
	defer f.Close()

	l, err := net.FileListener(f)
	if err != nil {
		_ = os.Remove(path)
		return nil, errors.Wrap(err, "file listener")
	}
	ul, ok := l.(*net.UnixListener)
	if !ok {
		l.Close()
		_ = os.Remove(path)
		return nil, errors.Errorf("unexpected listener type %T", l)
	}
	return ul, nil
}

func removeStaleSocket(path string) error {
	fi, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return errors.Wrapf(err, "stat %s", path)
	}
	if fi.Mode()&os.ModeSocket == 0 {
		return errors.Errorf("%s exists and is not a socket", path)
	}
	return errors.Wrapf(os.Remove(path), "remove stale socket %s", path)
}

// Accept blocks until a client connects or ctx is done. The wait is a
// single blocking accept; cancellation unblocks it through a deadline.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = l.ln.SetDeadline(time.Now())
	})
	defer stop()

	raw, err := l.ln.AcceptUnix()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		l.logger.Error("accept error", "path", l.path, "error", err)
		return nil, transportError("accept", err)
	}

	conn, err := newConn(raw)
	if err != nil {
		return nil, err
	}
	l.logger.Info("connection accepted", "path", l.path)
	return conn, nil
}

// Close stops listening and removes the socket file.
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	err := l.ln.Close()
	if rmErr := os.Remove(l.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

// Path returns the filesystem path of the socket.
func (l *Listener) Path() string {
	return l.path
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}
