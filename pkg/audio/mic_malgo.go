package audio

import (
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"
)

// MalgoInput is an InputDevice backed by the system microphone through malgo.
type MalgoInput struct {
	cfg Config

	mu  sync.Mutex
	ctx *malgo.AllocatedContext
	dev *malgo.Device
}

// NewMalgoInput creates a microphone device for the given format.
func NewMalgoInput(cfg Config) *MalgoInput {
	if cfg.SampleRate <= 0 {
		cfg = CaptureConfig()
	}
	return &MalgoInput{cfg: cfg}
}

// Start acquires the default capture device and begins invoking onData with
// raw s16le buffers. The buffers belong to the device and must be copied.
func (m *MalgoInput) Start(onData func(pcm []byte)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev != nil {
		return fmt.Errorf("microphone already started")
	}

	ctxConfig := malgo.ContextConfig{}
	ctxConfig.ThreadPriority = malgo.ThreadPriorityRealtime
	ctx, err := malgo.InitContext(nil, ctxConfig, nil)
	if err != nil {
		return fmt.Errorf("init audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(m.cfg.Channels)
	deviceConfig.SampleRate = uint32(m.cfg.SampleRate)
	deviceConfig.PeriodSizeInMilliseconds = 20

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			onData(input)
		},
	}

	dev, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("init microphone: %w", err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return fmt.Errorf("start microphone: %w", err)
	}

	m.ctx = ctx
	m.dev = dev
	return nil
}

// Stop halts capture and releases the device.
func (m *MalgoInput) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dev == nil {
		return nil
	}
	_ = m.dev.Stop()
	m.dev.Uninit()
	m.dev = nil
	if m.ctx != nil {
		_ = m.ctx.Uninit()
		m.ctx.Free()
		m.ctx = nil
	}
	return nil
}
