package audio

import "math"

// RMSEnergy computes the root-mean-square energy of s16le PCM audio,
// normalized to [0.0, 1.0].
func RMSEnergy(pcm []byte) float64 {
	samples := BytesToSamples(pcm)
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// PeakAmplitude returns the largest absolute sample in the s16le PCM audio,
// normalized to [0.0, 1.0].
func PeakAmplitude(pcm []byte) float64 {
	var peak float64
	for _, s := range BytesToSamples(pcm) {
		// float64 keeps -32768 from overflowing on negation.
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak / 32768.0
}
