package live

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mtorrado/campusguard/internal/infrastructure/logging"
	"github.com/mtorrado/campusguard/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Handler struct {
	dispatcher    *realtime.Dispatcher
	registry      *realtime.Registry
	streamManager *realtime.StreamManager
	logger        logging.Logger
	sessionConfig realtime.SessionConfig
}

func NewHandler(
	dispatcher *realtime.Dispatcher,
	registry *realtime.Registry,
	streamManager *realtime.StreamManager,
	logger logging.Logger,
	sessionConfig realtime.SessionConfig,
) *Handler {
	return &Handler{
		dispatcher:    dispatcher,
		registry:      registry,
		streamManager: streamManager,
		logger:        logger,
		sessionConfig: sessionConfig,
	}
}

// ConnectHandler godoc
// @Summary      Open a realtime subscriber connection
// @Description  Upgrades to WebSocket and delivers notification envelopes for joined rooms
// @Tags         live
// @Success      101 {object} map[string]interface{} "Switching Protocols - WebSocket connection established"
// @Router       /ws [get]
func (h *Handler) ConnectHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	sessionID := uuid.NewString()
	transport := realtime.NewWSTransport(conn)
	session := realtime.NewSession(sessionID, transport, h.registry, h.logger, h.sessionConfig)

	h.dispatcher.Register(session)

	// Every connection listens for public alerts from the moment it opens.
	session.JoinRoom(realtime.AlertsRoom)

	h.logger.Info(logging.WebSocket, logging.Sessions, "subscriber connected", map[logging.ExtraKey]any{
		logging.SessionID: sessionID,
		logging.ClientIp:  r.RemoteAddr,
	})

	go h.pingLoop(session, transport)
	h.readLoop(conn, session, transport)
}

// readLoop drives the session from inbound control frames. It exits when
// the connection drops or the session is closed from the other side.
func (h *Handler) readLoop(conn *websocket.Conn, session *realtime.Session, transport *realtime.WSTransport) {
	defer session.Close()

	_ = conn.SetReadDeadline(time.Now().Add(h.sessionConfig.HeartbeatTimeout))
	conn.SetPongHandler(func(string) error {
		session.Touch()
		return conn.SetReadDeadline(time.Now().Add(h.sessionConfig.HeartbeatTimeout))
	})

	for {
		var cmd clientCommand
		if err := conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn(logging.WebSocket, logging.Sessions, "subscriber read failed", map[logging.ExtraKey]any{
					logging.SessionID:    session.ID,
					logging.ErrorMessage: err.Error(),
				})
			}
			return
		}

		session.Touch()
		_ = conn.SetReadDeadline(time.Now().Add(h.sessionConfig.HeartbeatTimeout))

		switch cmd.Type {
		case "join_room":
			if cmd.Room == "" {
				_ = transport.WriteJSON(newErrorFrame("room is required"))
				continue
			}
			session.JoinRoom(cmd.Room)

		case "leave_room":
			if cmd.Room == "" {
				_ = transport.WriteJSON(newErrorFrame("room is required"))
				continue
			}
			session.LeaveRoom(cmd.Room)

		case "join_stream":
			if cmd.CameraID == "" {
				_ = transport.WriteJSON(newErrorFrame("cameraId is required"))
				continue
			}
			session.JoinRoom(realtime.StreamRoom(cmd.CameraID))

		case "leave_stream":
			if cmd.CameraID == "" {
				_ = transport.WriteJSON(newErrorFrame("cameraId is required"))
				continue
			}
			session.LeaveRoom(realtime.StreamRoom(cmd.CameraID))

		case "broadcasting":
			// The publishing device announces its own connection so the
			// viewer count does not include it.
			if cmd.SessionID == "" {
				_ = transport.WriteJSON(newErrorFrame("sessionId is required"))
				continue
			}
			if err := h.streamManager.BindBroadcaster(cmd.SessionID, session.ID); err != nil {
				_ = transport.WriteJSON(newErrorFrame("unknown stream session"))
			}

		case "ping":
			_ = transport.WriteJSON(newPongFrame())

		default:
			_ = transport.WriteJSON(newErrorFrame("unknown command type"))
		}
	}
}

// pingLoop keeps the protocol-level heartbeat going for clients that rely
// on WebSocket ping/pong instead of the ping command.
func (h *Handler) pingLoop(session *realtime.Session, transport *realtime.WSTransport) {
	ticker := time.NewTicker(h.sessionConfig.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := transport.Ping(10 * time.Second); err != nil {
				session.Close()
				return
			}
		case <-session.Done():
			return
		}
	}
}
