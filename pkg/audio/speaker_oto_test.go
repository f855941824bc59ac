package audio

import (
	"sync"
	"testing"
	"time"
)

// newBareOtoOutput builds an OtoOutput without a device context so the
// buffer and generation logic can run against plain readers. playing is
// pre-set so Write never touches the real player machinery.
func newBareOtoOutput() *OtoOutput {
	o := &OtoOutput{playing: true}
	o.cond = sync.NewCond(&o.mu)
	return o
}

func TestOtoOutput_FlushReleasesParkedReader(t *testing.T) {
	o := newBareOtoOutput()

	stale := &otoOutputReader{out: o, gen: 0}
	staleGot := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 4)
		n, _ := stale.Read(buf)
		staleGot <- buf[:n]
	}()

	// Let the reader park on the empty buffer before flushing.
	time.Sleep(20 * time.Millisecond)
	o.Flush()

	select {
	case data := <-staleGot:
		for _, b := range data {
			if b != 0 {
				t.Fatalf("stale reader received audio %v, want silence", data)
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reader still parked after flush")
	}

	// Audio written after the flush belongs to the current generation.
	if err := o.Write([]byte{7, 8}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	o.mu.Lock()
	gen := o.gen
	o.mu.Unlock()

	fresh := &otoOutputReader{out: o, gen: gen}
	buf := make([]byte, 4)
	n, err := fresh.Read(buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if n != 2 || buf[0] != 7 || buf[1] != 8 {
		t.Fatalf("fresh reader got %v, want [7 8]", buf[:n])
	}
}

func TestOtoOutput_StaleReaderNeverTakesNewAudio(t *testing.T) {
	o := newBareOtoOutput()
	o.Flush() // gen moves past the stale reader's

	if err := o.Write([]byte{1, 2, 3, 4}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	stale := &otoOutputReader{out: o, gen: 0}
	buf := make([]byte, 4)
	n, _ := stale.Read(buf)
	for i := 0; i < n; i++ {
		if buf[i] != 0 {
			t.Fatalf("stale reader drained the live buffer: %v", buf[:n])
		}
	}

	// The buffer must still hold the audio for the current generation.
	o.mu.Lock()
	remaining := len(o.buf)
	o.mu.Unlock()
	if remaining != 4 {
		t.Fatalf("buffered bytes = %d, want 4", remaining)
	}
}

func TestOtoOutput_CloseDrainsWithSilence(t *testing.T) {
	o := newBareOtoOutput()
	if err := o.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	r := &otoOutputReader{out: o, gen: 0}
	buf := make([]byte, 8)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("Read() after close error: %v", err)
	}
	if n != len(buf) {
		t.Fatalf("Read() after close = %d bytes, want %d", n, len(buf))
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatal("post-close read must be silence")
		}
	}

	if err := o.Write([]byte{1}); err == nil {
		t.Fatal("expected error writing to a closed speaker")
	}
}
