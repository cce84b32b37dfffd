package runtime

import (
	"io"
	"sync"
)

// tailBuffer is an io.Writer that retains only the last capacity bytes
// written to it. It is used to capture the tail of the daemon's stderr so
// that unexpected exits can be reported with their output.
type tailBuffer struct {
	mu       sync.Mutex
	capacity int
	buf      []byte
}

func newTailBuffer(capacity int) *tailBuffer {
	return &tailBuffer{capacity: capacity}
}

// Write implements io.Writer. It never fails.
func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.capacity {
		t.buf = t.buf[len(t.buf)-t.capacity:]
	}
	return len(p), nil
}

// Read implements io.Reader, draining the retained tail.
func (t *tailBuffer) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.buf) == 0 {
		return 0, io.EOF
	}
	n := copy(p, t.buf)
	t.buf = t.buf[n:]
	return n, nil
}
