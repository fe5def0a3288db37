package realtime

import (
	"sync"
	"testing"
	"time"
)

func newTestStreamManager(idle, poll time.Duration) (*StreamManager, *recordingNotifier, *Registry) {
	notifier := &recordingNotifier{}
	registry := NewRegistry()
	m := NewStreamManager(notifier, registry, testLogger(), idle, poll)
	return m, notifier, registry
}

func TestStreamStartAnnouncesToAdminRoom(t *testing.T) {
	m, notifier, _ := newTestStreamManager(time.Minute, time.Minute)

	s, err := m.Start("st1", "cam-1", "Gate Camera", "north gate")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if s.State != StreamStarting {
		t.Fatalf("new stream should be starting, got %s", s.State)
	}

	started := notifier.byTopic(TopicStreamStarted)
	if len(started) != 1 {
		t.Fatalf("expected 1 stream_started, got %d", len(started))
	}
	if started[0].Room != AdminRoom {
		t.Fatalf("stream_started belongs in the admin room, got %s", started[0].Room)
	}
	payload, ok := started[0].Payload.(StreamStartedPayload)
	if !ok {
		t.Fatalf("expected StreamStartedPayload, got %T", started[0].Payload)
	}
	// viewers join the stream room keyed by this camera id
	if payload.CameraID != "cam-1" {
		t.Fatalf("announcement should carry the camera id, got %q", payload.CameraID)
	}

	// restarting the same session id resumes without a second announcement
	again, err := m.Start("st1", "cam-1", "Gate Camera", "north gate")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if again.ID != "st1" {
		t.Fatalf("expected existing session back")
	}
	if len(notifier.byTopic(TopicStreamStarted)) != 1 {
		t.Fatalf("resume must not re-announce")
	}
}

func TestStreamStartRejectsMissingIDs(t *testing.T) {
	m, notifier, _ := newTestStreamManager(time.Minute, time.Minute)

	if _, err := m.Start("", "cam-1", "Gate Camera", ""); err != ErrInvalidStream {
		t.Fatalf("missing session id: expected ErrInvalidStream, got %v", err)
	}
	if _, err := m.Start("st1", "", "Gate Camera", ""); err != ErrInvalidStream {
		t.Fatalf("missing camera id: expected ErrInvalidStream, got %v", err)
	}
	if len(notifier.byTopic(TopicStreamStarted)) != 0 {
		t.Fatalf("invalid start must not announce")
	}
}

func TestStreamFirstFrameActivates(t *testing.T) {
	m, notifier, _ := newTestStreamManager(time.Minute, time.Minute)

	if _, err := m.Start("st1", "cam-1", "Gate Camera", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := m.Frame("st1", "frame-data"); err != nil {
		t.Fatalf("frame: %v", err)
	}

	s, ok := m.Get("st1")
	if !ok {
		t.Fatalf("session should still exist")
	}
	if s.State != StreamActive {
		t.Fatalf("first frame should activate, got %s", s.State)
	}

	frames := notifier.byTopic(TopicStreamFrame)
	if len(frames) != 1 {
		t.Fatalf("expected 1 stream_frame, got %d", len(frames))
	}
	if frames[0].Room != StreamRoom("cam-1") {
		t.Fatalf("frames belong in the stream room, got %s", frames[0].Room)
	}

	if err := m.Frame("no-such-stream", "frame-data"); err != ErrUnknownStream {
		t.Fatalf("expected ErrUnknownStream, got %v", err)
	}
}

func TestStreamStopPublishesExactlyOnce(t *testing.T) {
	m, notifier, registry := newTestStreamManager(time.Minute, time.Minute)

	if _, err := m.Start("st1", "cam-1", "Gate Camera", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	registry.Join("viewer", StreamRoom("cam-1"))

	// concurrent stops race on the same session
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.StopSession("st1")
		}(i)
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if err != ErrUnknownStream {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("exactly one stop should win, got %d", succeeded)
	}

	stopped := notifier.byTopic(TopicStreamStopped)
	if len(stopped) != 1 {
		t.Fatalf("expected exactly 1 stream_stopped, got %d", len(stopped))
	}
	if stopped[0].Room != StreamRoom("cam-1") {
		t.Fatalf("stream_stopped belongs in the stream room, got %s", stopped[0].Room)
	}

	if registry.MemberCount(StreamRoom("cam-1")) != 0 {
		t.Fatalf("stream room should be dropped after stop")
	}

	if _, ok := m.Get("st1"); ok {
		t.Fatalf("stopped session should be gone")
	}
}

func TestStreamIdleTimeoutStops(t *testing.T) {
	m, notifier, _ := newTestStreamManager(30*time.Millisecond, time.Minute)

	if _, err := m.Start("st1", "cam-1", "Gate Camera", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(40 * time.Millisecond)
	m.sweepIdle()

	if len(notifier.byTopic(TopicStreamStopped)) != 1 {
		t.Fatalf("idle stream should be stopped")
	}

	// a stream kept alive by frames survives the sweep
	if _, err := m.Start("st2", "cam-2", "Yard Camera", ""); err != nil {
		t.Fatalf("start second: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if err := m.Frame("st2", "frame-data"); err != nil {
		t.Fatalf("frame: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	m.sweepIdle()

	if _, ok := m.Get("st2"); !ok {
		t.Fatalf("recently fed stream must survive the idle sweep")
	}
}

func TestStreamViewerCountPublishesDeltasOnly(t *testing.T) {
	m, notifier, registry := newTestStreamManager(time.Minute, time.Minute)

	if _, err := m.Start("st1", "cam-1", "Gate Camera", ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	registry.Join("v1", StreamRoom("cam-1"))
	registry.Join("v2", StreamRoom("cam-1"))

	m.pollViewerCounts()
	counts := notifier.byTopic(TopicViewerCountChanged)
	if len(counts) != 1 {
		t.Fatalf("expected 1 viewer count event, got %d", len(counts))
	}
	if p := counts[0].Payload.(ViewerCountPayload); p.Count != 2 {
		t.Fatalf("expected count 2, got %d", p.Count)
	}

	// unchanged membership publishes nothing
	m.pollViewerCounts()
	if len(notifier.byTopic(TopicViewerCountChanged)) != 1 {
		t.Fatalf("unchanged count must not be republished")
	}

	registry.Leave("v2", StreamRoom("cam-1"))
	m.pollViewerCounts()
	counts = notifier.byTopic(TopicViewerCountChanged)
	if len(counts) != 2 {
		t.Fatalf("expected a second viewer count event")
	}
	if p := counts[1].Payload.(ViewerCountPayload); p.Count != 1 {
		t.Fatalf("expected count 1 after leave, got %d", p.Count)
	}
}

func TestStreamViewerCountExcludesBroadcaster(t *testing.T) {
	m, notifier, registry := newTestStreamManager(time.Minute, time.Minute)

	if _, err := m.Start("st1", "cam-1", "Gate Camera", ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := m.BindBroadcaster("st1", "device-conn"); err != nil {
		t.Fatalf("bind: %v", err)
	}

	registry.Join("device-conn", StreamRoom("cam-1"))
	registry.Join("viewer", StreamRoom("cam-1"))

	m.pollViewerCounts()

	counts := notifier.byTopic(TopicViewerCountChanged)
	if len(counts) != 1 {
		t.Fatalf("expected 1 viewer count event, got %d", len(counts))
	}
	if p := counts[0].Payload.(ViewerCountPayload); p.Count != 1 {
		t.Fatalf("broadcaster must not count as a viewer, got %d", p.Count)
	}
}
