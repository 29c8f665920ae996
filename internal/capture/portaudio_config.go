package capture

// PortAudioConfig contains parameters for the portaudio microphone driver.
type PortAudioConfig struct {
	SampleRate   int
	Channels     int
	BlockSamples int
}
