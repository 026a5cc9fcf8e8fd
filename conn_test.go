package bridge

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// testSocketPath returns a fresh socket path. Unix socket paths are limited
// to about 100 bytes, which t.TempDir can exceed for long test names.
func testSocketPath(t *testing.T) string {
	t.Helper()

	dir, err := os.MkdirTemp("", "vrb")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "sock")
}

func discardLogger() Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestUnixPair creates a connected pair: the server side wrapped in a
// Conn and the raw client side.
func createTestUnixPair(t *testing.T) (*Conn, *net.UnixConn) {
	t.Helper()

	path := testSocketPath(t)
	listener, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		t.Fatalf("failed to create listener: %v", err)
	}
	defer listener.Close()

	clientChan := make(chan *net.UnixConn, 1)
	errChan := make(chan error, 1)
	go func() {
		conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
		if err != nil {
			errChan <- err
			return
		}
		clientChan <- conn
	}()

	serverConn, err := listener.AcceptUnix()
	if err != nil {
		t.Fatalf("failed to accept: %v", err)
	}

	var clientConn *net.UnixConn
	select {
	case clientConn = <-clientChan:
	case err := <-errChan:
		serverConn.Close()
		t.Fatalf("client dial failed: %v", err)
	case <-time.After(5 * time.Second):
		serverConn.Close()
		t.Fatal("timeout waiting for client connection")
	}

	conn, err := newConn(serverConn)
	if err != nil {
		t.Fatalf("newConn failed: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		clientConn.Close()
	})
	return conn, clientConn
}

func TestConn_IsOpen(t *testing.T) {
	conn, _ := createTestUnixPair(t)

	if !conn.IsOpen() {
		t.Error("new connection should be open")
	}

	if err := conn.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if conn.IsOpen() {
		t.Error("connection should not be open after Close")
	}

	// Second close is a no-op
	if err := conn.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}

	var nilConn *Conn
	if nilConn.IsOpen() {
		t.Error("nil connection should not be open")
	}
}

func TestConn_ReceiveOnce_NothingPending(t *testing.T) {
	conn, _ := createTestUnixPair(t)

	buf := make([]byte, HeaderSize)
	for i := 0; i < 100; i++ {
		n, err := conn.ReceiveOnce(buf)
		if err != nil {
			t.Fatalf("ReceiveOnce failed: %v", err)
		}
		if n != 0 {
			t.Fatalf("ReceiveOnce returned %d bytes, want 0", n)
		}
	}
}

func TestConn_ReceiveOnce_ReturnsAvailable(t *testing.T) {
	conn, client := createTestUnixPair(t)

	if _, err := client.Write([]byte("abc")); err != nil {
		t.Fatalf("client write failed: %v", err)
	}

	buf := make([]byte, 8)
	n, err := conn.ReceiveOnce(buf)
	if err != nil {
		t.Fatalf("ReceiveOnce failed: %v", err)
	}
	if n != 3 || string(buf[:n]) != "abc" {
		t.Errorf("ReceiveOnce = %q, want %q", buf[:n], "abc")
	}
}

func TestConn_ReceiveOnce_AtMostLen(t *testing.T) {
	conn, client := createTestUnixPair(t)

	if _, err := client.Write([]byte("abcdefgh")); err != nil {
		t.Fatalf("client write failed: %v", err)
	}

	buf := make([]byte, HeaderSize)
	n, err := conn.ReceiveOnce(buf)
	if err != nil {
		t.Fatalf("ReceiveOnce failed: %v", err)
	}
	if n != HeaderSize || string(buf) != "abcd" {
		t.Errorf("ReceiveOnce = %q, want %q", buf[:n], "abcd")
	}

	rest := make([]byte, 4)
	if err := conn.ReceiveExact(rest); err != nil {
		t.Fatalf("ReceiveExact failed: %v", err)
	}
	if string(rest) != "efgh" {
		t.Errorf("ReceiveExact = %q, want %q", rest, "efgh")
	}
}

func TestConn_ReceiveOnce_PeerClosed(t *testing.T) {
	conn, client := createTestUnixPair(t)
	client.Close()

	_, err := conn.ReceiveOnce(make([]byte, HeaderSize))
	if !errors.Is(err, ErrPeerClosed) {
		t.Errorf("expected ErrPeerClosed, got %v", err)
	}
	if KindOf(err) != KindTransport {
		t.Errorf("kind = %v, want transport", KindOf(err))
	}
}

func TestConn_ReceiveExact_SplitWrites(t *testing.T) {
	conn, client := createTestUnixPair(t)

	go func() {
		client.Write([]byte("hel"))
		time.Sleep(20 * time.Millisecond)
		client.Write([]byte("lo"))
	}()

	buf := make([]byte, 5)
	if err := conn.ReceiveExact(buf); err != nil {
		t.Fatalf("ReceiveExact failed: %v", err)
	}
	if string(buf) != "hello" {
		t.Errorf("ReceiveExact = %q, want %q", buf, "hello")
	}
}

func TestConn_ReceiveExact_PeerClosedMidRead(t *testing.T) {
	conn, client := createTestUnixPair(t)

	client.Write([]byte("ab"))
	client.Close()

	err := conn.ReceiveExact(make([]byte, 5))
	if !errors.Is(err, ErrPeerClosed) {
		t.Errorf("expected ErrPeerClosed, got %v", err)
	}
}

func TestConn_SendAll(t *testing.T) {
	conn, client := createTestUnixPair(t)

	if err := conn.SendAll([]byte("payload")); err != nil {
		t.Fatalf("SendAll failed: %v", err)
	}

	buf := make([]byte, 7)
	if _, err := io.ReadFull(client, buf); err != nil {
		t.Fatalf("client read failed: %v", err)
	}
	if string(buf) != "payload" {
		t.Errorf("client got %q, want %q", buf, "payload")
	}
}

func TestConn_SendAll_PeerClosed(t *testing.T) {
	conn, client := createTestUnixPair(t)
	client.Close()

	err := conn.SendAll([]byte("payload"))
	if err == nil {
		t.Fatal("expected error writing to closed peer")
	}
	if !peerGone(err) {
		t.Errorf("peerGone(%v) = false, want true", err)
	}
}

func TestConn_OperationsAfterClose(t *testing.T) {
	conn, _ := createTestUnixPair(t)
	conn.Close()

	if _, err := conn.ReceiveOnce(make([]byte, 4)); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("ReceiveOnce: expected ErrConnectionClosed, got %v", err)
	}
	if err := conn.ReceiveExact(make([]byte, 4)); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("ReceiveExact: expected ErrConnectionClosed, got %v", err)
	}
	if err := conn.SendAll([]byte("x")); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("SendAll: expected ErrConnectionClosed, got %v", err)
	}
}

func TestConn_Addr(t *testing.T) {
	conn, _ := createTestUnixPair(t)

	if conn.Addr() == nil {
		t.Error("Addr returned nil")
	}
}
