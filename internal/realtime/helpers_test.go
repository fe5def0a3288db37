package realtime

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
)

func testLogger() logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Logger:   "zap",
		Level:    "fatal",
		Encoding: "json",
	})
}

// fakeTransport records every envelope written to it. failAfter > 0 makes
// the write with that ordinal fail, simulating a dead connection.
type fakeTransport struct {
	mu        sync.Mutex
	written   []Envelope
	writes    int
	failAfter int
	closed    bool
}

func (t *fakeTransport) WriteJSON(v any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.writes++
	if t.failAfter > 0 && t.writes >= t.failAfter {
		return errors.New("connection reset")
	}

	if env, ok := v.(*Envelope); ok {
		t.written = append(t.written, *env)
	}
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) envelopes() []Envelope {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Envelope, len(t.written))
	copy(out, t.written)
	return out
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// recordingNotifier captures published envelopes without a dispatcher.
type recordingNotifier struct {
	mu        sync.Mutex
	published []Envelope
}

func (n *recordingNotifier) Publish(env *Envelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, *env)
	return nil
}

func (n *recordingNotifier) byTopic(topic Topic) []Envelope {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Envelope
	for _, env := range n.published {
		if env.Topic == topic {
			out = append(out, env)
		}
	}
	return out
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}
