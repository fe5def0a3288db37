package realtime

import (
	"fmt"
	"testing"
	"time"
)

func controlEnvelope(room string, seq uint64) *Envelope {
	return &Envelope{
		ID:       fmt.Sprintf("ctl-%d", seq),
		Topic:    TopicIncidentCreated,
		Room:     room,
		Sequence: seq,
		Payload:  IncidentCreatedPayload{IncidentID: "i1", Type: "smoking", Location: "yard", Reporter: "cam"},
	}
}

func frameEnvelope(room string, seq uint64) *Envelope {
	return &Envelope{
		ID:       fmt.Sprintf("frm-%d", seq),
		Topic:    TopicStreamFrame,
		Room:     room,
		Sequence: seq,
		Payload:  StreamFramePayload{SessionID: "st1", CameraID: "cam-1", Frame: "blob"},
	}
}

func TestSessionDeliversInEnqueueOrder(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession("s1", transport, NewRegistry(), testLogger(), DefaultSessionConfig())
	go s.run()
	defer s.Close()

	for seq := uint64(1); seq <= 5; seq++ {
		s.Enqueue(controlEnvelope("alerts", seq))
	}

	waitFor(t, time.Second, func() bool { return len(transport.envelopes()) == 5 })

	for i, env := range transport.envelopes() {
		if env.Sequence != uint64(i+1) {
			t.Fatalf("delivery out of order: position %d has sequence %d", i, env.Sequence)
		}
	}
}

func TestSessionOverflowShedsOldestFrameFirst(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession("s1", transport, NewRegistry(), testLogger(), SessionConfig{QueueDepth: 3})
	// delivery loop intentionally not started; the queue must fill

	s.Enqueue(controlEnvelope("alerts", 1))
	s.Enqueue(frameEnvelope("stream:cam-1", 2))
	s.Enqueue(frameEnvelope("stream:cam-1", 3))

	// full: the oldest queued frame (seq 2) must make room
	s.Enqueue(controlEnvelope("alerts", 4))

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) != 3 {
		t.Fatalf("expected 3 queued, got %d", len(s.queue))
	}
	got := []uint64{s.queue[0].Sequence, s.queue[1].Sequence, s.queue[2].Sequence}
	want := []uint64{1, 3, 4}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("queue after shed: got %v, want %v", got, want)
		}
	}
}

func TestSessionOverflowRejectsIncomingFrameWhenNoFrameQueued(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession("s1", transport, NewRegistry(), testLogger(), SessionConfig{QueueDepth: 2})

	s.Enqueue(controlEnvelope("alerts", 1))
	s.Enqueue(controlEnvelope("alerts", 2))

	// no queued frame to displace, so the incoming frame is the one rejected
	s.Enqueue(frameEnvelope("stream:cam-1", 3))

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) != 2 {
		t.Fatalf("expected 2 queued, got %d", len(s.queue))
	}
	if s.queue[0].Sequence != 1 || s.queue[1].Sequence != 2 {
		t.Fatalf("control envelopes must survive an incoming frame")
	}
}

func TestSessionOverflowShedsOldestControlAsLastResort(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession("s1", transport, NewRegistry(), testLogger(), SessionConfig{QueueDepth: 2})

	s.Enqueue(controlEnvelope("alerts", 1))
	s.Enqueue(controlEnvelope("alerts", 2))
	s.Enqueue(controlEnvelope("alerts", 3))

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) != 2 {
		t.Fatalf("expected 2 queued, got %d", len(s.queue))
	}
	if s.queue[0].Sequence != 2 || s.queue[1].Sequence != 3 {
		t.Fatalf("expected oldest control shed, queue holds %d and %d", s.queue[0].Sequence, s.queue[1].Sequence)
	}
}

func TestSessionHeartbeatTimeoutCloses(t *testing.T) {
	transport := &fakeTransport{}
	registry := NewRegistry()
	s := NewSession("s1", transport, registry, testLogger(), SessionConfig{
		QueueDepth:        8,
		HeartbeatInterval: 10 * time.Millisecond,
		HeartbeatTimeout:  30 * time.Millisecond,
	})
	s.JoinRoom("alerts")
	go s.run()

	waitFor(t, time.Second, transport.isClosed)

	select {
	case <-s.Done():
	default:
		t.Fatalf("done channel should be closed after heartbeat timeout")
	}
	if registry.IsMember("s1", "alerts") {
		t.Fatalf("membership should be removed on close")
	}
}

func TestSessionTransportFailureContained(t *testing.T) {
	transport := &fakeTransport{failAfter: 1}
	registry := NewRegistry()
	s := NewSession("s1", transport, registry, testLogger(), DefaultSessionConfig())
	s.JoinRoom("alerts")
	go s.run()

	s.Enqueue(controlEnvelope("alerts", 1))

	waitFor(t, time.Second, transport.isClosed)

	if registry.IsMember("s1", "alerts") {
		t.Fatalf("failed session must be deregistered from its rooms")
	}
}

func TestSessionCloseDiscardsQueueAndIsIdempotent(t *testing.T) {
	transport := &fakeTransport{}
	s := NewSession("s1", transport, NewRegistry(), testLogger(), DefaultSessionConfig())

	s.Enqueue(controlEnvelope("alerts", 1))
	s.Close()
	s.Close()

	if !transport.isClosed() {
		t.Fatalf("transport should be closed")
	}
	if len(transport.envelopes()) != 0 {
		t.Fatalf("queued envelopes must be discarded, not delivered after close")
	}

	// enqueue after close is dropped
	s.Enqueue(controlEnvelope("alerts", 2))
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) != 0 {
		t.Fatalf("closed session must not accept envelopes")
	}
}

func TestSessionLeaveRoomKeepsQueuedEnvelopes(t *testing.T) {
	transport := &fakeTransport{}
	registry := NewRegistry()
	s := NewSession("s1", transport, registry, testLogger(), DefaultSessionConfig())
	s.JoinRoom("alerts")

	s.Enqueue(controlEnvelope("alerts", 1))
	s.LeaveRoom("alerts")

	go s.run()
	defer s.Close()

	// a kick to the delivery loop; already queued envelopes still flush
	s.Enqueue(controlEnvelope("admin_room", 2))

	waitFor(t, time.Second, func() bool { return len(transport.envelopes()) == 2 })
}
