// Package transmit delivers encoded PCM frames to the subscribed peer.
// The Sink interface is the pacer-facing contract; Broadcaster implements it
// over a websocket connection, carrying one raw frame per binary message.
// Send failures are treated as transient and never stop the pipeline.
package transmit
