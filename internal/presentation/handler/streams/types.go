package streams

import "github.com/mtorrado/campusguard/internal/realtime"

type startStreamRequest struct {
	DeviceID  string `json:"deviceId"`
	SessionID string `json:"sessionId,omitempty"`
}

type pushFrameRequest struct {
	Frame string `json:"frame"`
}

type streamResponse struct {
	Stream realtime.StreamSession `json:"stream"`
}

type listStreamsResponse struct {
	Streams []realtime.StreamSession `json:"streams"`
	Count   int                      `json:"count"`
}
