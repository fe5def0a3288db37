package realtime

import (
	"sync"
	"time"

	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/infrastructure/metrics"
)

type SessionConfig struct {
	QueueDepth        int
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
}

func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		QueueDepth:        64,
		HeartbeatInterval: 10 * time.Second,
		HeartbeatTimeout:  25 * time.Second,
	}
}

// Session owns one client connection: its room membership, its liveness and
// its ordered outbound queue. All failures on this connection stay inside
// the session; the dispatcher never sees them. The session keeps no
// per-room delivery cursor: envelopes carry their room sequence number, so
// gap detection after a shed is the receiver's job.
type Session struct {
	ID string

	registry  *Registry
	transport Transport
	logger    logging.Logger
	cfg       SessionConfig

	mu       sync.Mutex
	queue    []*Envelope
	rooms    map[string]struct{}
	lastSeen time.Time
	closed   bool

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	onClose   func(*Session)
}

func NewSession(id string, transport Transport, registry *Registry, logger logging.Logger, cfg SessionConfig) *Session {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 64
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = 10 * time.Second
	}
	if cfg.HeartbeatTimeout <= 0 {
		cfg.HeartbeatTimeout = 25 * time.Second
	}

	return &Session{
		ID:        id,
		registry:  registry,
		transport: transport,
		logger:    logger,
		cfg:       cfg,
		rooms:     make(map[string]struct{}),
		lastSeen:  time.Now(),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
}

// JoinRoom subscribes the session to a room. Idempotent.
func (s *Session) JoinRoom(room string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.rooms[room] = struct{}{}
	s.mu.Unlock()

	s.registry.Join(s.ID, room)
}

// LeaveRoom unsubscribes the session. Leaving a room never joined is a
// no-op. Envelopes already queued are still flushed.
func (s *Session) LeaveRoom(room string) {
	s.mu.Lock()
	delete(s.rooms, room)
	s.mu.Unlock()

	s.registry.Leave(s.ID, room)
}

// Touch records inbound activity; it resets the heartbeat clock.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// Done is closed when the session shuts down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Enqueue appends the envelope to the outbound queue. It never blocks; when
// the queue is full the overflow policy decides what is shed.
func (s *Session) Enqueue(env *Envelope) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		metrics.DroppedEnvelopes.WithLabelValues(metrics.ReasonSessionClosed).Inc()
		return
	}

	admit := true
	if len(s.queue) >= s.cfg.QueueDepth {
		admit = s.shedLocked(env)
	}
	if admit {
		s.queue = append(s.queue, env)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// shedLocked frees one slot, or rejects the incoming envelope. Frames are
// stale-tolerant, so the oldest queued frame goes first; an incoming frame
// with no queued frame to displace is itself the most expendable thing in
// sight and is rejected. Control envelopes are only shed as a last resort:
// the room sequence already on each envelope makes the hole visible to the
// receiver.
func (s *Session) shedLocked(incoming *Envelope) bool {
	for i, queued := range s.queue {
		if queued.Topic == TopicStreamFrame {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			metrics.DroppedEnvelopes.WithLabelValues(metrics.ReasonOverflowFrame).Inc()
			return true
		}
	}

	if incoming.Topic == TopicStreamFrame {
		metrics.DroppedEnvelopes.WithLabelValues(metrics.ReasonOverflowFrame).Inc()
		return false
	}

	dropped := s.queue[0]
	s.queue = s.queue[1:]
	metrics.DroppedEnvelopes.WithLabelValues(metrics.ReasonOverflowControl).Inc()
	s.logger.Warn(logging.Realtime, logging.Overflow, "control envelope dropped", map[logging.ExtraKey]any{
		logging.SessionID: s.ID,
		logging.RoomID:    dropped.Room,
		logging.TopicKey:  string(dropped.Topic),
		logging.Sequence:  dropped.Sequence,
	})
	return true
}

// run is the session's single delivery loop: it drains the outbound queue in
// enqueue order and enforces the heartbeat timeout. Started by the
// dispatcher on Register.
func (s *Session) run() {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.wake:
			if !s.flush() {
				return
			}
		case <-ticker.C:
			if s.stale() {
				s.logger.Warn(logging.Realtime, logging.Heartbeat, "heartbeat timeout", map[logging.ExtraKey]any{
					logging.SessionID: s.ID,
				})
				s.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) flush() bool {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return true
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, env := range batch {
			if err := s.transport.WriteJSON(env); err != nil {
				s.logger.Warn(logging.WebSocket, logging.Sessions, "transport write failed", map[logging.ExtraKey]any{
					logging.SessionID:    s.ID,
					logging.ErrorMessage: err.Error(),
				})
				s.Close()
				return false
			}
		}
	}
}

func (s *Session) stale() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastSeen) > s.cfg.HeartbeatTimeout
}

// Close tears the session down exactly once: membership is removed from
// every room, the dispatcher forgets the session and the transport is
// closed. Queued envelopes are discarded, never recalled into other
// sessions.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.queue = nil
		s.rooms = make(map[string]struct{})
		s.mu.Unlock()

		close(s.done)
		s.registry.RemoveSession(s.ID)
		if s.onClose != nil {
			s.onClose(s)
		}
		_ = s.transport.Close()
	})
}
