package transmit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// dialPair upgrades a loopback websocket connection and returns both ends.
func dialPair(t *testing.T) (server, client *websocket.Conn, cleanup func()) {
	t.Helper()

	serverCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		serverCh <- conn
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("Dial failed: %v", err)
	}
	server = <-serverCh

	cleanup = func() {
		client.Close()
		server.Close()
		srv.Close()
	}
	return server, client, cleanup
}

func TestBroadcasterSendWithoutSubscriber(t *testing.T) {
	b := NewBroadcaster(time.Second)

	if err := b.Send([]byte{0x01, 0x02}); err != ErrNoSubscriber {
		t.Errorf("Expected ErrNoSubscriber, got %v", err)
	}
	if b.Attached() {
		t.Error("Expected no subscriber attached")
	}
}

func TestBroadcasterSendDeliversFrame(t *testing.T) {
	server, client, cleanup := dialPair(t)
	defer cleanup()

	b := NewBroadcaster(time.Second)
	if err := b.Attach(server); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if !b.Attached() {
		t.Error("Expected subscriber to be attached")
	}

	frame := []byte{0x10, 0x00, 0x20, 0x00, 0x30, 0x00}
	if err := b.Send(frame); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(time.Second))
	msgType, data, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	if msgType != websocket.BinaryMessage {
		t.Errorf("Expected binary message, got type %d", msgType)
	}
	if len(data) != len(frame) {
		t.Fatalf("Expected %d bytes, got %d", len(frame), len(data))
	}
	for i := range frame {
		if data[i] != frame[i] {
			t.Errorf("Byte %d: expected 0x%02x, got 0x%02x", i, frame[i], data[i])
		}
	}
}

func TestBroadcasterRejectsSecondSubscriber(t *testing.T) {
	server1, _, cleanup1 := dialPair(t)
	defer cleanup1()
	server2, _, cleanup2 := dialPair(t)
	defer cleanup2()

	b := NewBroadcaster(time.Second)
	if err := b.Attach(server1); err != nil {
		t.Fatalf("First attach failed: %v", err)
	}
	if err := b.Attach(server2); err != ErrAlreadySubscribed {
		t.Errorf("Expected ErrAlreadySubscribed, got %v", err)
	}
}

func TestBroadcasterDetach(t *testing.T) {
	server1, _, cleanup1 := dialPair(t)
	defer cleanup1()
	server2, _, cleanup2 := dialPair(t)
	defer cleanup2()

	b := NewBroadcaster(time.Second)
	if err := b.Attach(server1); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	// Detaching a connection that is not the subscriber is a no-op.
	b.Detach(server2)
	if !b.Attached() {
		t.Error("Detach of foreign connection should not unbind subscriber")
	}

	b.Detach(server1)
	if b.Attached() {
		t.Error("Expected subscriber to be detached")
	}
	if err := b.Send([]byte{0x00}); err != ErrNoSubscriber {
		t.Errorf("Expected ErrNoSubscriber after detach, got %v", err)
	}
}

func TestBroadcasterSendAfterPeerClosed(t *testing.T) {
	server, client, cleanup := dialPair(t)
	defer cleanup()

	b := NewBroadcaster(time.Second)
	if err := b.Attach(server); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}

	client.Close()
	server.Close()

	if err := b.Send([]byte{0x01}); err == nil {
		t.Error("Expected write error after peer closed")
	}
}
