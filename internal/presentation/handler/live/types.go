package live

// clientCommand is the typed control frame read off the socket. Fields
// beyond Type are populated per command.
type clientCommand struct {
	Type      string `json:"type"`
	Room      string `json:"room,omitempty"`      // join_room, leave_room
	CameraID  string `json:"cameraId,omitempty"`  // join_stream, leave_stream
	SessionID string `json:"sessionId,omitempty"` // broadcasting
}

type serverFrame struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

func newErrorFrame(msg string) serverFrame {
	return serverFrame{Type: "error", Message: msg}
}

func newPongFrame() serverFrame {
	return serverFrame{Type: "pong"}
}
