package audio

import (
	"encoding/base64"
	"fmt"

	"github.com/foliokit/voicelive/pkg/core"
)

// Encode converts s16le samples to their base64 wire form.
// The encoding is byte-for-byte; no resampling happens here.
func Encode(samples []int16) string {
	return EncodeBytes(SamplesToBytes(samples))
}

// EncodeBytes converts raw s16le PCM bytes to their base64 wire form.
func EncodeBytes(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// Decode is the inverse of EncodeBytes.
// Malformed base64 yields a decode error; the caller drops the fragment.
func Decode(data string) ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, core.NewDecodeError("malformed base64 audio payload", err)
	}
	return pcm, nil
}

// SamplesToBytes serializes int16 samples as little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	pcm := make([]byte, len(samples)*2)
	for i, s := range samples {
		pcm[i*2] = byte(s)
		pcm[i*2+1] = byte(s >> 8)
	}
	return pcm
}

// BytesToSamples reinterprets little-endian bytes as int16 samples.
// The byte length must be even.
func BytesToSamples(pcm []byte) []int16 {
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(pcm[i*2]) | int16(pcm[i*2+1])<<8
	}
	return samples
}

// PCMBuffer is decoded audio normalized to the [-1.0, 1.0] floating range,
// de-interleaved per channel.
type PCMBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// FrameCount returns the number of sample frames per channel.
func (b *PCMBuffer) FrameCount() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the playback time of the buffer.
func (b *PCMBuffer) Duration() float64 {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return float64(b.FrameCount()) / float64(b.SampleRate)
}

// ToPCMBuffer reinterprets pcm as s16le samples, de-interleaves by channel,
// and normalizes each sample by dividing by 32768.
func ToPCMBuffer(pcm []byte, sampleRate, channels int) (*PCMBuffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, core.NewFormatError(fmt.Sprintf("invalid pcm shape: rate=%d channels=%d", sampleRate, channels))
	}
	frameBytes := channels * 2
	if len(pcm)%frameBytes != 0 {
		return nil, core.NewFormatError(fmt.Sprintf("pcm length %d is not a multiple of %d", len(pcm), frameBytes))
	}

	frames := len(pcm) / frameBytes
	out := &PCMBuffer{
		SampleRate: sampleRate,
		Channels:   make([][]float32, channels),
	}
	for ch := range out.Channels {
		out.Channels[ch] = make([]float32, frames)
	}
	for frame := 0; frame < frames; frame++ {
		for ch := 0; ch < channels; ch++ {
			off := (frame*channels + ch) * 2
			sample := int16(pcm[off]) | int16(pcm[off+1])<<8
			out.Channels[ch][frame] = float32(sample) / 32768.0
		}
	}
	return out, nil
}
