package streams

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/mtorrado/campusguard/internal/domain"
	"github.com/mtorrado/campusguard/internal/infrastructure/json"
	"github.com/mtorrado/campusguard/internal/realtime"
)

type Handler struct {
	cameraRepository domain.CameraRepository
	streamManager    *realtime.StreamManager
}

func NewHandler(cameraRepository domain.CameraRepository, streamManager *realtime.StreamManager) *Handler {
	return &Handler{
		cameraRepository: cameraRepository,
		streamManager:    streamManager,
	}
}

// StartStreamHandler godoc
// @Summary      Start a live stream
// @Description  Opens a stream session for a registered device and announces it to admins
// @Tags         streams
// @Accept       json
// @Produce      json
// @Param        request body startStreamRequest true "Stream parameters"
// @Success      201 {object} streamResponse "Stream session opened"
// @Failure      400 {object} map[string]interface{} "Bad request - validation error"
// @Failure      404 {object} map[string]interface{} "Camera not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /streams [post]
func (h *Handler) StartStreamHandler(w http.ResponseWriter, r *http.Request) {
	var req startStreamRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if req.DeviceID == "" {
		json.WriteValidationError(w, errors.New("deviceId is required"))
		return
	}

	camera, err := h.cameraRepository.GetByDeviceID(r.Context(), req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCameraNotFound):
			json.WriteNotFoundError(w, "Camera not found")
		default:
			log.Printf("Repository error looking up device %s: %v", req.DeviceID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	camera.Touch()
	if err := h.cameraRepository.Update(r.Context(), camera); err != nil {
		log.Printf("Repository error touching camera %s: %v", camera.ID, err)
	}

	// Devices that reconnect mid-broadcast reuse their session id, which
	// resumes the existing session instead of announcing a new one.
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	stream, err := h.streamManager.Start(sessionID, camera.ID, camera.DeviceName, camera.Location)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	json.Write(w, http.StatusCreated, streamResponse{Stream: stream})
}

// PushFrameHandler godoc
// @Summary      Push a stream frame
// @Description  Forwards an encoded frame to everyone watching the stream
// @Tags         streams
// @Accept       json
// @Produce      json
// @Param        sessionId path string true "Stream session ID"
// @Param        request body pushFrameRequest true "Encoded frame"
// @Success      202 "Frame accepted"
// @Failure      400 {object} map[string]interface{} "Bad request - missing frame"
// @Failure      404 {object} map[string]interface{} "Unknown stream session"
// @Router       /streams/{sessionId}/frames [post]
func (h *Handler) PushFrameHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		json.WriteValidationError(w, errors.New("session ID is missing"))
		return
	}

	var req pushFrameRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if req.Frame == "" {
		json.WriteValidationError(w, errors.New("frame is required"))
		return
	}

	if err := h.streamManager.Frame(sessionID, req.Frame); err != nil {
		switch {
		case errors.Is(err, realtime.ErrUnknownStream):
			json.WriteNotFoundError(w, "Unknown stream session")
		default:
			log.Printf("Error forwarding frame for stream %s: %v", sessionID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

// StopStreamHandler godoc
// @Summary      Stop a live stream
// @Tags         streams
// @Produce      json
// @Param        sessionId path string true "Stream session ID"
// @Success      204 "Stream stopped"
// @Failure      400 {object} map[string]interface{} "Bad request - missing session ID"
// @Failure      404 {object} map[string]interface{} "Unknown stream session"
// @Router       /streams/{sessionId} [delete]
func (h *Handler) StopStreamHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		json.WriteValidationError(w, errors.New("session ID is missing"))
		return
	}

	if err := h.streamManager.StopSession(sessionID); err != nil {
		switch {
		case errors.Is(err, realtime.ErrUnknownStream):
			json.WriteNotFoundError(w, "Unknown stream session")
		default:
			log.Printf("Error stopping stream %s: %v", sessionID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListStreamsHandler godoc
// @Summary      List live streams
// @Tags         streams
// @Produce      json
// @Success      200 {object} listStreamsResponse "Active stream sessions"
// @Router       /streams [get]
func (h *Handler) ListStreamsHandler(w http.ResponseWriter, r *http.Request) {
	sessions := h.streamManager.Sessions()

	json.Write(w, http.StatusOK, listStreamsResponse{
		Streams: sessions,
		Count:   len(sessions),
	})
}

// GetStreamHandler godoc
// @Summary      Get stream details
// @Tags         streams
// @Produce      json
// @Param        sessionId path string true "Stream session ID"
// @Success      200 {object} streamResponse "Stream session"
// @Failure      400 {object} map[string]interface{} "Bad request - missing session ID"
// @Failure      404 {object} map[string]interface{} "Unknown stream session"
// @Router       /streams/{sessionId} [get]
func (h *Handler) GetStreamHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		json.WriteValidationError(w, errors.New("session ID is missing"))
		return
	}

	stream, ok := h.streamManager.Get(sessionID)
	if !ok {
		json.WriteNotFoundError(w, "Unknown stream session")
		return
	}

	json.Write(w, http.StatusOK, streamResponse{Stream: stream})
}
