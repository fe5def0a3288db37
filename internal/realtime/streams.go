package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/infrastructure/metrics"
)

var (
	ErrUnknownStream = errors.New("unknown stream session")
	ErrInvalidStream = errors.New("stream session and camera ids are required")
)

type StreamState string

const (
	StreamStarting StreamState = "starting"
	StreamActive   StreamState = "active"
	StreamEnded    StreamState = "stopped"
)

// StreamSession is the lifecycle record of one live broadcast. The viewer
// count is derived from registry membership on a timer, never tracked as
// independent client state.
type StreamSession struct {
	ID         string      `json:"sessionId"`
	CameraID   string      `json:"cameraId"`
	DeviceName string      `json:"deviceName"`
	Location   string      `json:"location,omitempty"`
	State      StreamState `json:"state"`
	StartedAt  time.Time   `json:"startedAt"`
	Viewers    int         `json:"viewers"`

	lastFrame   time.Time
	broadcaster string // connection session id of the publishing device, if bound
}

// StreamManager owns the canonical map of live stream sessions and their
// state machine: starting -> active on the first frame, -> stopped on an
// explicit stop or the idle timeout. Exactly one StreamStopped envelope is
// published per session, however it ends.
type StreamManager struct {
	notifier Notifier
	registry *Registry
	logger   logging.Logger

	idleTimeout  time.Duration
	pollInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*StreamSession

	done     chan struct{}
	stopOnce sync.Once
}

func NewStreamManager(notifier Notifier, registry *Registry, logger logging.Logger, idleTimeout, pollInterval time.Duration) *StreamManager {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Second
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &StreamManager{
		notifier:     notifier,
		registry:     registry,
		logger:       logger,
		idleTimeout:  idleTimeout,
		pollInterval: pollInterval,
		sessions:     make(map[string]*StreamSession),
		done:         make(chan struct{}),
	}
}

// Run starts the idle sweep and the viewer-count poll. Stop terminates both.
func (m *StreamManager) Run() {
	go m.loop()
}

func (m *StreamManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})
}

func (m *StreamManager) loop() {
	idle := time.NewTicker(m.idleTimeout / 4)
	viewers := time.NewTicker(m.pollInterval)
	defer idle.Stop()
	defer viewers.Stop()

	for {
		select {
		case <-idle.C:
			m.sweepIdle()
		case <-viewers.C:
			m.pollViewerCounts()
		case <-m.done:
			return
		}
	}
}

// Start creates the stream session and announces it to the admin room.
// Starting an already known session id returns the existing session without
// a second announcement; receivers are idempotent to replays but the
// canonical map holds one record per id.
func (m *StreamManager) Start(sessionID, cameraID, deviceName, location string) (StreamSession, error) {
	if sessionID == "" || cameraID == "" {
		return StreamSession{}, ErrInvalidStream
	}

	m.mu.Lock()
	if existing, ok := m.sessions[sessionID]; ok {
		out := *existing
		m.mu.Unlock()
		return out, nil
	}

	s := &StreamSession{
		ID:         sessionID,
		CameraID:   cameraID,
		DeviceName: deviceName,
		Location:   location,
		State:      StreamStarting,
		StartedAt:  time.Now(),
	}
	m.sessions[sessionID] = s
	out := *s
	m.mu.Unlock()

	metrics.ActiveStreams.Inc()

	err := m.notifier.Publish(NewStreamStarted(AdminRoom, StreamStartedPayload{
		SessionID:  sessionID,
		CameraID:   cameraID,
		DeviceName: deviceName,
		Location:   location,
	}))
	if err != nil {
		m.logger.Error(logging.Realtime, logging.Streams, "stream started publish failed", map[logging.ExtraKey]any{
			logging.StreamID:     sessionID,
			logging.ErrorMessage: err.Error(),
		})
	}

	m.logger.Info(logging.Realtime, logging.Streams, "stream session started", map[logging.ExtraKey]any{
		logging.StreamID: sessionID,
		logging.CameraID: cameraID,
	})

	return out, nil
}

// Frame records one captured frame: the first frame activates the session,
// every frame refreshes the idle clock, and the blob is fanned out to the
// camera's stream room.
func (m *StreamManager) Frame(sessionID, frame string) error {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return ErrUnknownStream
	}
	s.State = StreamActive
	s.lastFrame = time.Now()
	cameraID := s.CameraID
	m.mu.Unlock()

	return m.notifier.Publish(NewStreamFrame(StreamRoom(cameraID), StreamFramePayload{
		SessionID: sessionID,
		CameraID:  cameraID,
		Frame:     frame,
	}))
}

// StopSession ends the stream on an explicit stop command.
func (m *StreamManager) StopSession(sessionID string) error {
	s, ok := m.take(sessionID)
	if !ok {
		return ErrUnknownStream
	}

	m.finish(s, "requested")
	return nil
}

// BindBroadcaster associates the broadcasting device's own connection with
// the stream so it is not counted among its viewers.
func (m *StreamManager) BindBroadcaster(sessionID, connSessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrUnknownStream
	}
	s.broadcaster = connSessionID
	return nil
}

// Sessions returns a snapshot of the live sessions, current viewer counts
// included.
func (m *StreamManager) Sessions() []StreamSession {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]StreamSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

func (m *StreamManager) Get(sessionID string) (StreamSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return StreamSession{}, false
	}
	return *s, true
}

// take removes the session from the live map; only the caller that removed
// it may finish it, which is what keeps StreamStopped single-shot.
func (m *StreamManager) take(sessionID string) (*StreamSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(m.sessions, sessionID)
	return s, true
}

func (m *StreamManager) finish(s *StreamSession, cause string) {
	s.State = StreamEnded
	metrics.ActiveStreams.Dec()

	room := StreamRoom(s.CameraID)
	err := m.notifier.Publish(NewStreamStopped(room, StreamStoppedPayload{SessionID: s.ID}))
	if err != nil {
		m.logger.Error(logging.Realtime, logging.Streams, "stream stopped publish failed", map[logging.ExtraKey]any{
			logging.StreamID:     s.ID,
			logging.ErrorMessage: err.Error(),
		})
	}

	m.registry.DropRoom(room)

	m.logger.Info(logging.Realtime, logging.Streams, "stream session stopped", map[logging.ExtraKey]any{
		logging.StreamID: s.ID,
		logging.CameraID: s.CameraID,
		"Cause":          cause,
	})
}

func (m *StreamManager) sweepIdle() {
	now := time.Now()

	m.mu.Lock()
	var expired []*StreamSession
	for id, s := range m.sessions {
		ref := s.lastFrame
		if ref.IsZero() {
			ref = s.StartedAt
		}
		if now.Sub(ref) >= m.idleTimeout {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.finish(s, "idle timeout")
	}
}

// pollViewerCounts recomputes each stream's viewer count from registry
// membership and broadcasts only the deltas; the fixed interval bounds the
// event volume regardless of join/leave churn.
func (m *StreamManager) pollViewerCounts() {
	type change struct {
		cameraID string
		count    int
	}

	m.mu.Lock()
	var changes []change
	for _, s := range m.sessions {
		room := StreamRoom(s.CameraID)
		count := m.registry.MemberCount(room)
		if s.broadcaster != "" && m.registry.IsMember(s.broadcaster, room) {
			count--
		}
		if count != s.Viewers {
			s.Viewers = count
			changes = append(changes, change{cameraID: s.CameraID, count: count})
		}
	}
	m.mu.Unlock()

	for _, c := range changes {
		err := m.notifier.Publish(NewViewerCount(StreamRoom(c.cameraID), ViewerCountPayload{
			CameraID: c.cameraID,
			Count:    c.count,
		}))
		if err != nil {
			m.logger.Error(logging.Realtime, logging.Streams, "viewer count publish failed", map[logging.ExtraKey]any{
				logging.CameraID:     c.cameraID,
				logging.ErrorMessage: err.Error(),
			})
		}
	}
}
