package bridge

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/Zereker/vrbridge/messages"
)

func TestDial_NoListener(t *testing.T) {
	_, err := Dial(context.Background(), testSocketPath(t))
	if err == nil {
		t.Fatal("expected dial error")
	}
	if KindOf(err) != KindTransport {
		t.Errorf("kind = %v, want transport", KindOf(err))
	}
}

func TestPeer_Run_ReceivesMessages(t *testing.T) {
	sess, peer := startTestSession(t)

	var (
		mu  sync.Mutex
		got []*messages.Envelope
	)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- peer.Run(ctx, func(env *messages.Envelope) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, env)
			if len(got) == 2 {
				cancel()
			}
			return nil
		})
	}()

	if err := sess.AddTracker(1, "human://WAIST", messages.RoleWaist); err != nil {
		t.Fatalf("AddTracker failed: %v", err)
	}
	if err := sess.SendPosition(1, 0, 1, 0, 0, 0, 0, 1); err != nil {
		t.Fatalf("SendPosition failed: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0].Kind() != "tracker_added" || got[1].Kind() != "position" {
		t.Errorf("received %d messages, want tracker_added then position", len(got))
	}
}

func TestPeer_Run_ContextCancel(t *testing.T) {
	_, peer := startTestSession(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- peer.Run(ctx, func(*messages.Envelope) error { return nil })
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}

	if err := peer.Write(messages.Wrap(&messages.UserAction{Name: "reset"})); !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("Write after Run: expected ErrConnectionClosed, got %v", err)
	}
}

func TestPeer_Run_BridgeHangUp(t *testing.T) {
	sess, peer := startTestSession(t)

	done := make(chan error, 1)
	go func() {
		done <- peer.Run(context.Background(), func(*messages.Envelope) error { return nil })
	}()

	sess.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrPeerClosed) {
			t.Errorf("Run = %v, want ErrPeerClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}
}

func TestPeer_Run_HandlerError(t *testing.T) {
	sess, peer := startTestSession(t)
	handlerErr := errors.New("handler error")

	done := make(chan error, 1)
	go func() {
		done <- peer.Run(context.Background(), func(*messages.Envelope) error {
			return handlerErr
		})
	}()

	if err := sess.SendStatus(1, messages.StatusOK, messages.ConfidenceHigh); err != nil {
		t.Fatalf("SendStatus failed: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, handlerErr) {
			t.Errorf("Run = %v, want handler error", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for Run to return")
	}
}

func TestPeer_Read_Oversize(t *testing.T) {
	sess, peer := startTestSession(t)
	peer.rbuf = NewBuffer(8)

	if err := sess.AddTracker(1, "a long serial number", messages.RoleChest); err != nil {
		t.Fatalf("AddTracker failed: %v", err)
	}

	_, err := peer.Read()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("expected ErrFrameTooLarge, got %v", err)
	}
}

func TestPeer_WriteRead(t *testing.T) {
	sess, peer := startTestSession(t)

	want := messages.Wrap(&messages.UserAction{
		Name:      "reset",
		Arguments: map[string]string{"type": "full", "delay": "3"},
	})
	if err := peer.Write(want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := receiveEventually(t, sess)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Receive = %+v, want %+v", got.Payload, want.Payload)
	}
}

func TestPeer_Write_Empty(t *testing.T) {
	_, peer := startTestSession(t)

	if err := peer.Write(&messages.Envelope{}); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestPeer_Close(t *testing.T) {
	_, peer := startTestSession(t)

	if err := peer.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := peer.Close(); err != nil {
		t.Errorf("second Close returned %v", err)
	}
}
