package audio

import "time"

// Config specifies audio format parameters.
type Config struct {
	// SampleRate in Hz. The session uses 16000 for capture, 24000 for playback.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// CaptureConfig returns the microphone format the remote session expects.
func CaptureConfig() Config {
	return Config{SampleRate: 16000, Channels: 1, BitsPerSample: 16}
}

// PlaybackConfig returns the model-output format the remote session produces.
func PlaybackConfig() Config {
	return Config{SampleRate: 24000, Channels: 1, BitsPerSample: 16}
}

// BytesPerSecond returns the audio byte rate.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c Config) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c Config) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}

// Duration returns the playback time of the given byte count.
func (c Config) Duration(bytes int) time.Duration {
	bps := c.BytesPerSecond()
	if bps == 0 {
		return 0
	}
	return time.Duration(bytes) * time.Second / time.Duration(bps)
}
