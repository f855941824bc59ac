package audio

import (
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced playback timeline.
type fakeClock struct {
	mu  sync.Mutex
	now time.Duration
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = 0
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += d
}

// fakeOutput records writes and flushes.
type fakeOutput struct {
	mu      sync.Mutex
	written [][]byte
	flushes int
	closes  int
}

func (o *fakeOutput) Write(pcm []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.written = append(o.written, append([]byte(nil), pcm...))
	return nil
}

func (o *fakeOutput) Flush() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.flushes++
}

func (o *fakeOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes++
	return nil
}

func pcmOfDuration(cfg Config, d time.Duration) []byte {
	return make([]byte, cfg.BytesForDurationMs(int(d/time.Millisecond)))
}

func TestScheduler_GaplessSequence(t *testing.T) {
	clock := &fakeClock{}
	out := &fakeOutput{}
	s := NewScheduler(out, WithClock(clock))
	cfg := PlaybackConfig()

	// One second of audio arrives at deviceClock=0.
	seg1, err := s.Schedule(pcmOfDuration(cfg, time.Second))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if seg1.Start != 0 {
		t.Errorf("first segment start = %v, want 0", seg1.Start)
	}
	if s.Cursor() != time.Second {
		t.Errorf("cursor = %v, want 1s", s.Cursor())
	}

	// A second 0.5s fragment arrives while the first is still playing.
	clock.advance(300 * time.Millisecond)
	seg2, err := s.Schedule(pcmOfDuration(cfg, 500*time.Millisecond))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if seg2.Start != time.Second {
		t.Errorf("second segment start = %v, want 1s (not device clock)", seg2.Start)
	}
	if seg2.Start != seg1.End {
		t.Errorf("segments not gapless: %v follows %v", seg2.Start, seg1.End)
	}
	if s.Cursor() != 1500*time.Millisecond {
		t.Errorf("cursor = %v, want 1.5s", s.Cursor())
	}
	if s.ActiveCount() != 2 {
		t.Errorf("active = %d, want 2", s.ActiveCount())
	}
}

func TestScheduler_StartsAtDeviceClockAfterDrain(t *testing.T) {
	clock := &fakeClock{}
	s := NewScheduler(&fakeOutput{}, WithClock(clock))
	cfg := PlaybackConfig()

	if _, err := s.Schedule(pcmOfDuration(cfg, 100*time.Millisecond)); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	// Device clock passes the cursor before the next fragment arrives.
	clock.advance(2 * time.Second)
	seg, err := s.Schedule(pcmOfDuration(cfg, 100*time.Millisecond))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if seg.Start != 2*time.Second {
		t.Errorf("segment start = %v, want device clock 2s", seg.Start)
	}
}

func TestScheduler_Interrupt(t *testing.T) {
	clock := &fakeClock{}
	out := &fakeOutput{}
	s := NewScheduler(out, WithClock(clock))
	cfg := PlaybackConfig()

	for i := 0; i < 2; i++ {
		if _, err := s.Schedule(pcmOfDuration(cfg, time.Second)); err != nil {
			t.Fatalf("Schedule() error: %v", err)
		}
	}
	clock.advance(500 * time.Millisecond)

	s.Interrupt()

	if s.ActiveCount() != 0 {
		t.Errorf("active = %d after interrupt, want 0", s.ActiveCount())
	}
	if s.Cursor() != 0 {
		t.Errorf("cursor = %v after interrupt, want 0", s.Cursor())
	}
	if out.flushes != 1 {
		t.Errorf("flushes = %d, want 1", out.flushes)
	}

	// A subsequent fragment schedules at t=0 again.
	seg, err := s.Schedule(pcmOfDuration(cfg, 200*time.Millisecond))
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if seg.Start != 0 {
		t.Errorf("post-interrupt start = %v, want 0", seg.Start)
	}
}

func TestScheduler_InterruptWithNothingPlaying(t *testing.T) {
	s := NewScheduler(&fakeOutput{}, WithClock(&fakeClock{}))
	s.Interrupt() // must not panic or error
	if s.ActiveCount() != 0 || s.Cursor() != 0 {
		t.Error("interrupt on idle scheduler changed state")
	}
}

func TestScheduler_NaturalCompletionRemovesSegment(t *testing.T) {
	s := NewScheduler(&fakeOutput{}, WithClock(&fakeClock{}))
	cfg := PlaybackConfig()

	if _, err := s.Schedule(pcmOfDuration(cfg, 10*time.Millisecond)); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.ActiveCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("segment never left the active set")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestScheduler_StaleTimerAfterInterrupt(t *testing.T) {
	s := NewScheduler(&fakeOutput{}, WithClock(&fakeClock{}))
	cfg := PlaybackConfig()

	if _, err := s.Schedule(pcmOfDuration(cfg, 10*time.Millisecond)); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	s.Interrupt()

	// The long post-interrupt segment must survive the first segment's timer.
	if _, err := s.Schedule(pcmOfDuration(cfg, 5*time.Second)); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if s.ActiveCount() != 1 {
		t.Errorf("active = %d, want 1 (stale timer cleared new segment)", s.ActiveCount())
	}
}

func TestScheduler_Teardown(t *testing.T) {
	out := &fakeOutput{}
	s := NewScheduler(out, WithClock(&fakeClock{}))
	cfg := PlaybackConfig()

	if _, err := s.Schedule(pcmOfDuration(cfg, time.Second)); err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}

	s.Teardown()
	s.Teardown()

	if out.closes != 1 {
		t.Errorf("closes = %d, want 1", out.closes)
	}
	if _, err := s.Schedule(pcmOfDuration(cfg, time.Second)); err == nil {
		t.Error("expected error scheduling after teardown")
	}
}
