// Package capture pulls fixed-size blocks of PCM samples from an audio input
// and feeds them into the shared sample ring. Blocks come from a bounded pool
// and must be released immediately after their samples are copied out, or the
// capture source stalls. Two drivers are provided: a portaudio microphone
// source and a synthetic tone source for bring-up without hardware.
package capture
