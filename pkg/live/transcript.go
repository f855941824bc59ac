package live

import (
	"strings"
	"sync"
)

// TranscriptBuffer accumulates the user's recognized speech for the current
// turn. It resets to empty when the turn completes.
type TranscriptBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

// Append adds a transcript fragment.
func (t *TranscriptBuffer) Append(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.WriteString(text)
}

// String returns the accumulated transcript.
func (t *TranscriptBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}

// Reset clears the transcript.
func (t *TranscriptBuffer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
}
