package realtime

import (
	"strings"
	"time"
)

// Topic identifies the kind of event carried by an envelope. The set is
// closed; the dispatcher rejects anything else.
type Topic string

const (
	TopicIncidentCreated    Topic = "new_incident"
	TopicIncidentUpdated    Topic = "incident_updated"
	TopicStreamStarted      Topic = "live_stream_started"
	TopicStreamStopped      Topic = "live_stream_stopped"
	TopicStreamFrame        Topic = "stream_frame"
	TopicViewerCountChanged Topic = "stream_viewer_count"
)

// Well-known rooms. AdminRoom is the privileged dashboard scope; AlertsRoom
// is the public scope every connection is subscribed to on connect.
const (
	AdminRoom  = "admin_room"
	AlertsRoom = "alerts"
)

// StreamRoom is the broadcast scope for one camera's live stream.
func StreamRoom(cameraID string) string {
	return "stream:" + cameraID
}

// Envelope is the canonical wrapper for every event crossing the wire.
// Sequence is strictly increasing per room; receivers use it to detect gaps
// and duplicates, and ID to de-duplicate events replayed across instances.
type Envelope struct {
	ID         string    `json:"id"`
	Topic      Topic     `json:"topic"`
	Room       string    `json:"room"`
	Sequence   uint64    `json:"sequence"`
	ProducedAt time.Time `json:"producedAt"`
	Payload    any       `json:"payload"`
}

// Payload structs, one fixed schema per topic.

type IncidentCreatedPayload struct {
	IncidentID string  `json:"incidentId"`
	Type       string  `json:"type"`
	Location   string  `json:"location"`
	Confidence float64 `json:"confidence"`
	Reporter   string  `json:"reporter"`
	CameraID   string  `json:"cameraId,omitempty"`
}

type IncidentUpdatedPayload struct {
	IncidentID string `json:"incidentId"`
	Status     string `json:"status"`
	UpdatedBy  string `json:"updatedBy"`
}

type StreamStartedPayload struct {
	SessionID  string `json:"sessionId"`
	CameraID   string `json:"cameraId"`
	DeviceName string `json:"deviceName"`
	Location   string `json:"location,omitempty"`
}

type StreamStoppedPayload struct {
	SessionID string `json:"sessionId"`
}

type StreamFramePayload struct {
	SessionID string `json:"sessionId"`
	CameraID  string `json:"cameraId"`
	Frame     string `json:"frame"` // opaque, base64-encoded by the producer
}

type ViewerCountPayload struct {
	CameraID string `json:"cameraId"`
	Count    int    `json:"count"`
}

func NewIncidentCreated(room string, p IncidentCreatedPayload) *Envelope {
	return &Envelope{Topic: TopicIncidentCreated, Room: room, Payload: p}
}

func NewIncidentUpdated(room string, p IncidentUpdatedPayload) *Envelope {
	return &Envelope{Topic: TopicIncidentUpdated, Room: room, Payload: p}
}

func NewStreamStarted(room string, p StreamStartedPayload) *Envelope {
	return &Envelope{Topic: TopicStreamStarted, Room: room, Payload: p}
}

func NewStreamStopped(room string, p StreamStoppedPayload) *Envelope {
	return &Envelope{Topic: TopicStreamStopped, Room: room, Payload: p}
}

func NewStreamFrame(room string, p StreamFramePayload) *Envelope {
	return &Envelope{Topic: TopicStreamFrame, Room: room, Payload: p}
}

func NewViewerCount(room string, p ViewerCountPayload) *Envelope {
	return &Envelope{Topic: TopicViewerCountChanged, Room: room, Payload: p}
}

// ValidationError is returned synchronously to a producer whose envelope is
// malformed. Nothing is published when it is returned.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid envelope: " + e.Reason
}

func validate(env *Envelope) error {
	if env == nil {
		return &ValidationError{Reason: "nil envelope"}
	}
	if strings.TrimSpace(env.Room) == "" {
		return &ValidationError{Reason: "room is required"}
	}

	switch env.Topic {
	case TopicIncidentCreated:
		p, ok := env.Payload.(IncidentCreatedPayload)
		if !ok {
			return &ValidationError{Reason: "payload must be IncidentCreatedPayload"}
		}
		if p.IncidentID == "" || p.Type == "" || p.Location == "" || p.Reporter == "" {
			return &ValidationError{Reason: "incident payload missing required field"}
		}
	case TopicIncidentUpdated:
		p, ok := env.Payload.(IncidentUpdatedPayload)
		if !ok {
			return &ValidationError{Reason: "payload must be IncidentUpdatedPayload"}
		}
		if p.IncidentID == "" || p.Status == "" || p.UpdatedBy == "" {
			return &ValidationError{Reason: "incident update payload missing required field"}
		}
	case TopicStreamStarted:
		p, ok := env.Payload.(StreamStartedPayload)
		if !ok {
			return &ValidationError{Reason: "payload must be StreamStartedPayload"}
		}
		if p.SessionID == "" || p.CameraID == "" {
			return &ValidationError{Reason: "stream started payload missing required field"}
		}
	case TopicStreamStopped:
		p, ok := env.Payload.(StreamStoppedPayload)
		if !ok {
			return &ValidationError{Reason: "payload must be StreamStoppedPayload"}
		}
		if p.SessionID == "" {
			return &ValidationError{Reason: "stream stopped payload missing session id"}
		}
	case TopicStreamFrame:
		p, ok := env.Payload.(StreamFramePayload)
		if !ok {
			return &ValidationError{Reason: "payload must be StreamFramePayload"}
		}
		if p.SessionID == "" || p.CameraID == "" || p.Frame == "" {
			return &ValidationError{Reason: "stream frame payload missing required field"}
		}
	case TopicViewerCountChanged:
		p, ok := env.Payload.(ViewerCountPayload)
		if !ok {
			return &ValidationError{Reason: "payload must be ViewerCountPayload"}
		}
		if p.CameraID == "" || p.Count < 0 {
			return &ValidationError{Reason: "viewer count payload invalid"}
		}
	default:
		return &ValidationError{Reason: "unknown topic " + string(env.Topic)}
	}

	return nil
}
