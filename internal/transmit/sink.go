package transmit

import "errors"

// ErrNoSubscriber indicates that no peer is currently attached to receive
// frames. Sending is only meaningful while a subscription is active.
var ErrNoSubscriber = errors.New("transmit: no subscriber attached")

// ErrAlreadySubscribed indicates that a peer is already attached; the
// pipeline serves a single subscriber at a time.
var ErrAlreadySubscribed = errors.New("transmit: subscriber already attached")

// Sink accepts one fixed-size encoded PCM frame per call. Failures are
// transient and reported to the caller; the sink never retries internally.
type Sink interface {
	Send(frame []byte) error
}
