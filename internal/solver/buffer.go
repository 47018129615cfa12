package solver

import (
	"bytes"
	"sync"
)

// maxOutputBytes caps stdout/stderr to prevent memory exhaustion.
const maxOutputBytes = 64 * 1024 // 64 KB

// limitedBuffer is a bytes.Buffer that stops accepting writes after a limit.
// It is written by the exec copy goroutine and read by the waiter.
type limitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newLimitedBuffer(limit int) *limitedBuffer {
	return &limitedBuffer{limit: limit}
}

func (lb *limitedBuffer) Write(p []byte) (n int, err error) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.truncated {
		return len(p), nil // discard silently
	}

	remaining := lb.limit - lb.buf.Len()
	if remaining <= 0 {
		lb.truncated = true
		return len(p), nil
	}

	written := len(p)
	if len(p) > remaining {
		lb.truncated = true
		p = p[:remaining]
	}

	if _, err := lb.buf.Write(p); err != nil {
		return 0, err
	}
	return written, nil
}

// String returns the captured bytes exactly as written, up to the limit.
func (lb *limitedBuffer) String() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.buf.String()
}

// Truncated reports whether any write was cut off.
func (lb *limitedBuffer) Truncated() bool {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return lb.truncated
}
