package transmit

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Broadcaster forwards frames to the currently attached websocket peer. It
// serves a single subscriber at a time, mirroring a notification channel that
// one listener enables and disables.
type Broadcaster struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// NewBroadcaster creates a broadcaster with the given per-frame write
// timeout.
func NewBroadcaster(writeTimeout time.Duration) *Broadcaster {
	if writeTimeout <= 0 {
		writeTimeout = time.Second
	}
	return &Broadcaster{
		writeTimeout: writeTimeout,
	}
}

// Attach binds a peer connection as the frame subscriber. Returns
// ErrAlreadySubscribed if a peer is already attached.
func (b *Broadcaster) Attach(conn *websocket.Conn) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil {
		return ErrAlreadySubscribed
	}
	b.conn = conn
	return nil
}

// Detach unbinds the given connection if it is the current subscriber. The
// connection itself is not closed here; the accept path owns its lifecycle.
func (b *Broadcaster) Detach(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == conn {
		b.conn = nil
	}
}

// Attached reports whether a subscriber is currently bound.
func (b *Broadcaster) Attached() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.conn != nil
}

// Send writes one frame as a binary websocket message to the subscriber.
// Returns ErrNoSubscriber when no peer is attached; write errors are
// transient and left to the caller to count.
func (b *Broadcaster) Send(frame []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn == nil {
		return ErrNoSubscriber
	}

	if err := b.conn.SetWriteDeadline(time.Now().Add(b.writeTimeout)); err != nil {
		return err
	}
	return b.conn.WriteMessage(websocket.BinaryMessage, frame)
}
