package audio

import (
	"fmt"
	"sync"
	"time"
)

// OutputDevice is a speaker sink for s16le PCM. Write appends to the device
// buffer behind any already-buffered audio; Flush discards buffered audio
// immediately, even mid-playback.
type OutputDevice interface {
	Write(pcm []byte) error
	Flush()
	Close() error
}

// Clock reads the shared playback timeline. The timeline starts at zero and
// rewinds to zero on Reset (after an interruption).
type Clock interface {
	Now() time.Duration
	Reset()
}

type realClock struct {
	mu    sync.Mutex
	epoch time.Time
}

func newRealClock() *realClock {
	return &realClock{epoch: time.Now()}
}

func (c *realClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.epoch)
}

func (c *realClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch = time.Now()
}

// Segment is one scheduled slice of model audio on the playback timeline.
type Segment struct {
	ID    uint64
	Start time.Duration
	End   time.Duration
}

// Duration returns the segment's playback time.
func (s Segment) Duration() time.Duration {
	return s.End - s.Start
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithClock overrides the playback clock. Used by tests.
func WithClock(clock Clock) SchedulerOption {
	return func(s *Scheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithPlaybackFormat overrides the output audio format.
func WithPlaybackFormat(cfg Config) SchedulerOption {
	return func(s *Scheduler) {
		if cfg.BytesPerSecond() > 0 {
			s.cfg = cfg
		}
	}
}

// Scheduler plays decoded audio segments back-to-back with no audible gaps
// and supports immediate full interruption.
type Scheduler struct {
	cfg   Config
	out   OutputDevice
	clock Clock

	mu     sync.Mutex
	cursor time.Duration
	active map[uint64]Segment
	nextID uint64
	gen    uint64
	closed bool
}

// NewScheduler creates a playback scheduler over the given output device.
func NewScheduler(out OutputDevice, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		cfg:    PlaybackConfig(),
		out:    out,
		clock:  newRealClock(),
		active: make(map[uint64]Segment),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule begins playback of pcm at max(cursor, device clock) and advances
// the cursor to the segment's end. The segment leaves the active set when it
// finishes naturally.
func (s *Scheduler) Schedule(pcm []byte) (Segment, error) {
	if s == nil || s.out == nil {
		return Segment{}, fmt.Errorf("scheduler is not initialized")
	}
	if len(pcm) == 0 {
		return Segment{}, nil
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Segment{}, fmt.Errorf("scheduler is closed")
	}
	now := s.clock.Now()
	start := s.cursor
	if now > start {
		start = now
	}
	seg := Segment{
		ID:    s.nextID,
		Start: start,
		End:   start + s.cfg.Duration(len(pcm)),
	}
	s.nextID++
	s.cursor = seg.End
	s.active[seg.ID] = seg
	gen := s.gen
	s.mu.Unlock()

	if err := s.out.Write(pcm); err != nil {
		s.mu.Lock()
		if s.gen == gen {
			delete(s.active, seg.ID)
		}
		s.mu.Unlock()
		return Segment{}, fmt.Errorf("write playback segment: %w", err)
	}

	time.AfterFunc(seg.End-now, func() {
		s.finish(gen, seg.ID)
	})
	return seg, nil
}

func (s *Scheduler) finish(gen, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// A stale timer from before an interruption must not touch new state.
	if s.gen != gen {
		return
	}
	delete(s.active, id)
}

// Interrupt stops every active segment immediately, clears the active set,
// and resets the cursor to zero. Safe to call with nothing playing.
func (s *Scheduler) Interrupt() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.gen++
	s.active = make(map[uint64]Segment)
	s.cursor = 0
	s.clock.Reset()
	closed := s.closed
	s.mu.Unlock()

	if !closed && s.out != nil {
		s.out.Flush()
	}
}

// Teardown interrupts playback and releases the output device. Idempotent.
func (s *Scheduler) Teardown() {
	if s == nil {
		return
	}
	s.Interrupt()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	if s.out != nil {
		_ = s.out.Close()
	}
}

// ActiveCount returns the number of currently scheduled, unfinished segments.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Cursor returns the playback cursor (the end of the last scheduled segment).
func (s *Scheduler) Cursor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
