package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// OtoOutput is an OutputDevice backed by the system speaker through oto.
// Audio written here is pulled by the player; writes are inherently
// back-to-back behind whatever is already buffered.
type OtoOutput struct {
	otoCtx *oto.Context

	mu      sync.Mutex
	cond    *sync.Cond
	player  *oto.Player
	buf     []byte
	gen     uint64
	playing bool
	closed  bool
}

// NewOtoOutput opens the default speaker for the given format.
func NewOtoOutput(cfg Config) (*OtoOutput, error) {
	if cfg.BytesPerSecond() <= 0 {
		cfg = PlaybackConfig()
	}
	opts := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
		// Small buffer keeps interruption latency low.
		BufferSize: 100 * time.Millisecond,
	}
	otoCtx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, fmt.Errorf("init speaker: %w", err)
	}
	<-ready

	o := &OtoOutput{otoCtx: otoCtx}
	o.cond = sync.NewCond(&o.mu)
	return o, nil
}

// Write appends pcm to the playback buffer, starting the player on first use.
func (o *OtoOutput) Write(pcm []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return fmt.Errorf("speaker is closed")
	}

	o.buf = append(o.buf, pcm...)
	if !o.playing {
		o.playing = true
		o.player = o.otoCtx.NewPlayer(&otoOutputReader{out: o, gen: o.gen})
		o.player.Play()
	}
	o.cond.Signal()
	return nil
}

// otoOutputReader is the pull side handed to one oto player. It carries the
// generation it was created under so a reader parked across a Flush cannot
// steal audio meant for the replacement player.
type otoOutputReader struct {
	out *OtoOutput
	gen uint64
}

func (r *otoOutputReader) Read(p []byte) (int, error) {
	return r.out.read(p, r.gen)
}

func (o *OtoOutput) read(p []byte, gen uint64) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for len(o.buf) == 0 && !o.closed && gen == o.gen {
		o.cond.Wait()
	}
	if gen != o.gen || (o.closed && len(o.buf) == 0) {
		// Stale reader after a flush, or draining after close.
		// Silence lets its player wind down gracefully.
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	n := copy(p, o.buf)
	o.buf = o.buf[n:]
	return n, nil
}

// Flush discards all pending audio and stops the current player so old audio
// cannot overlap whatever is scheduled next.
func (o *OtoOutput) Flush() {
	o.mu.Lock()
	o.gen++
	o.buf = o.buf[:0]
	// Wake any reader parked on the old generation so it drains out.
	o.cond.Broadcast()
	if o.player != nil && o.playing {
		o.playing = false
		player := o.player
		o.player = nil
		o.mu.Unlock()

		player.Pause()
		player.Reset()
		player.Close()
		return
	}
	o.mu.Unlock()
}

// Close releases the speaker.
func (o *OtoOutput) Close() error {
	o.mu.Lock()
	o.closed = true
	o.cond.Broadcast()
	player := o.player
	o.player = nil
	o.mu.Unlock()

	if player != nil {
		player.Close()
	}
	return nil
}
