package realtime

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/infrastructure/metrics"
)

// Notifier accepts committed domain events for fan-out. Producers depend on
// this instead of the concrete dispatcher.
type Notifier interface {
	Publish(env *Envelope) error
}

// Dispatcher assigns per-room sequence numbers and fans envelopes out to the
// sessions currently in the target room. Delivery is at-least-once to
// sessions live at publish time; there is no backlog for late joiners.
type Dispatcher struct {
	registry *Registry
	logger   logging.Logger

	mu   sync.Mutex // serializes stamping + enqueue so room sequences stay gapless and in order
	seqs map[string]uint64

	smu      sync.RWMutex
	sessions map[string]*Session
}

func NewDispatcher(registry *Registry, logger logging.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		logger:   logger,
		seqs:     make(map[string]uint64),
		sessions: make(map[string]*Session),
	}
}

// Register adds a connected session to the fan-out table and starts its
// delivery loop.
func (d *Dispatcher) Register(s *Session) {
	d.smu.Lock()
	d.sessions[s.ID] = s
	d.smu.Unlock()

	s.onClose = func(closed *Session) {
		d.unregister(closed.ID)
	}

	metrics.OpenSessions.Inc()
	go s.run()

	d.logger.Info(logging.Realtime, logging.Sessions, "session registered", map[logging.ExtraKey]any{
		logging.SessionID: s.ID,
	})
}

func (d *Dispatcher) unregister(sessionID string) {
	d.smu.Lock()
	_, ok := d.sessions[sessionID]
	delete(d.sessions, sessionID)
	d.smu.Unlock()

	if ok {
		metrics.OpenSessions.Dec()
		d.logger.Info(logging.Realtime, logging.Sessions, "session removed", map[logging.ExtraKey]any{
			logging.SessionID: sessionID,
		})
	}
}

// Publish validates the envelope, stamps id, timestamp and the room's next
// sequence number, and enqueues it on every member session's outbound queue.
// A malformed envelope is rejected before anything is stamped or enqueued.
// Per-session failures never surface here; they are contained in the session.
func (d *Dispatcher) Publish(env *Envelope) error {
	if err := validate(env); err != nil {
		d.logger.Warn(logging.Validation, logging.Dispatch, "envelope rejected", map[logging.ExtraKey]any{
			logging.ErrorMessage: err.Error(),
		})
		return err
	}

	stamped := *env
	stamped.ID = ulid.Make().String()
	stamped.ProducedAt = time.Now().UTC()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.seqs[stamped.Room]++
	stamped.Sequence = d.seqs[stamped.Room]

	metrics.PublishedEnvelopes.WithLabelValues(string(stamped.Topic)).Inc()

	for _, id := range d.registry.MembersOf(stamped.Room) {
		d.smu.RLock()
		sess := d.sessions[id]
		d.smu.RUnlock()
		if sess == nil {
			continue
		}
		sess.Enqueue(&stamped)
	}

	return nil
}
