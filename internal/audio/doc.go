// Package audio provides the bounded sample ring shared between the capture
// feeder and the pacer, plus PCM frame encoding and simple level metering.
// The ring never blocks either side: the producer evicts the oldest samples
// on overflow and the consumer receives a partial read on underrun.
package audio
