package audio

import (
	"sync"
	"sync/atomic"

	"github.com/foliokit/voicelive/pkg/core"
)

const (
	// FrameSamples is the fixed capture frame size in samples.
	FrameSamples = 4096
	// FrameBytes is the fixed capture frame size in s16le bytes.
	FrameBytes = FrameSamples * 2
)

// Frame is one fixed-size chunk of mono 16 kHz microphone audio.
type Frame struct {
	// PCM is exactly FrameBytes of s16le audio.
	PCM []byte
}

// Encoded returns the frame's base64 wire form.
func (f Frame) Encoded() string {
	return EncodeBytes(f.PCM)
}

// InputDevice is a microphone byte source. Implementations invoke the data
// callback sequentially from the device thread with arbitrary-size buffers;
// the buffer is only valid for the duration of the call.
type InputDevice interface {
	Start(onData func(pcm []byte)) error
	Stop() error
}

// Capture owns an input device and slices live audio into fixed-size frames
// delivered to a sink in strict temporal order.
type Capture struct {
	dev InputDevice

	mu      sync.Mutex
	pending []byte
	started bool

	stopped  atomic.Bool
	stopOnce sync.Once
}

// NewCapture creates a capture stream over the given input device.
func NewCapture(dev InputDevice) *Capture {
	return &Capture{dev: dev}
}

// Start begins capture and delivers frames to sink until Stop.
// Device acquisition failure surfaces as a permission error and leaves the
// stream stopped.
func (c *Capture) Start(sink func(Frame)) error {
	if c == nil || c.dev == nil {
		return core.NewPermissionError("no input device available", nil)
	}
	if sink == nil {
		return core.NewPermissionError("capture sink must not be nil", nil)
	}
	// A stream is single-use: once stopped, frames would be dropped anyway.
	if c.stopped.Load() {
		return core.NewPermissionError("capture stream already stopped", nil)
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return core.NewPermissionError("capture already started", nil)
	}
	c.started = true
	c.pending = c.pending[:0]
	c.mu.Unlock()

	if err := c.dev.Start(func(pcm []byte) {
		c.onData(pcm, sink)
	}); err != nil {
		c.mu.Lock()
		c.started = false
		c.mu.Unlock()
		return core.NewPermissionError("could not acquire microphone", err)
	}
	return nil
}

// Stop halts frame delivery immediately and releases the capture device.
// Calling it when already stopped is a no-op.
func (c *Capture) Stop() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() {
		c.stopped.Store(true)
		c.mu.Lock()
		started := c.started
		c.started = false
		c.pending = nil
		c.mu.Unlock()
		if started {
			_ = c.dev.Stop()
		}
	})
}

func (c *Capture) onData(pcm []byte, sink func(Frame)) {
	if c.stopped.Load() || len(pcm) == 0 {
		return
	}

	var frames []Frame
	c.mu.Lock()
	c.pending = append(c.pending, pcm...)
	for len(c.pending) >= FrameBytes {
		frame := make([]byte, FrameBytes)
		copy(frame, c.pending[:FrameBytes])
		c.pending = c.pending[FrameBytes:]
		frames = append(frames, Frame{PCM: frame})
	}
	c.mu.Unlock()

	for _, frame := range frames {
		if c.stopped.Load() {
			return
		}
		sink(frame)
	}
}
