package cameras

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mtorrado/campusguard/internal/domain"
	"github.com/mtorrado/campusguard/internal/infrastructure/json"
)

type Handler struct {
	cameraRepository domain.CameraRepository
}

func NewHandler(cameraRepository domain.CameraRepository) *Handler {
	return &Handler{cameraRepository: cameraRepository}
}

// RegisterCameraHandler godoc
// @Summary      Register a capture device
// @Description  Registers a camera, or refreshes it when the device ID is already known
// @Tags         cameras
// @Accept       json
// @Produce      json
// @Param        request body registerCameraRequest true "Device details"
// @Success      200 {object} cameraResponse "Existing camera refreshed"
// @Success      201 {object} cameraResponse "Camera registered"
// @Failure      400 {object} map[string]interface{} "Bad request - validation error"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /cameras [post]
func (h *Handler) RegisterCameraHandler(w http.ResponseWriter, r *http.Request) {
	var req registerCameraRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()

	// Re-registration from the same device refreshes the record instead of
	// duplicating it. Mobile reporters re-enroll on every app launch.
	existing, err := h.cameraRepository.GetByDeviceID(ctx, req.DeviceID)
	if err == nil {
		existing.DeviceName = req.DeviceName
		if req.Location != "" {
			existing.Location = req.Location
		}
		existing.Status = domain.CameraActive
		existing.IsActive = true
		existing.Touch()

		if err := h.cameraRepository.Update(ctx, existing); err != nil {
			log.Printf("Repository error refreshing camera %s: %v", existing.ID, err)
			json.WriteInternalError(w, err)
			return
		}

		json.Write(w, http.StatusOK, cameraResponse{Camera: *existing})
		return
	}
	if !errors.Is(err, domain.ErrCameraNotFound) {
		log.Printf("Repository error looking up device %s: %v", req.DeviceID, err)
		json.WriteInternalError(w, err)
		return
	}

	camera, err := domain.NewCamera(req.DeviceID, req.DeviceName, req.Location)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.cameraRepository.Create(ctx, camera); err != nil {
		switch {
		case errors.Is(err, domain.ErrCameraAlreadyExists):
			json.WriteError(w, http.StatusConflict, err, "Camera already registered")
		default:
			log.Printf("Repository error creating camera: %v", err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, cameraResponse{Camera: *camera})
}

// ListCamerasHandler godoc
// @Summary      List registered cameras
// @Tags         cameras
// @Produce      json
// @Success      200 {object} listCamerasResponse "Camera list"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /cameras [get]
func (h *Handler) ListCamerasHandler(w http.ResponseWriter, r *http.Request) {
	camerasList, err := h.cameraRepository.List(r.Context())
	if err != nil {
		log.Printf("Repository error listing cameras: %v", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, listCamerasResponse{
		Cameras: camerasList,
		Count:   len(camerasList),
	})
}

// GetCameraHandler godoc
// @Summary      Get camera details
// @Tags         cameras
// @Produce      json
// @Param        cameraId path string true "Camera ID"
// @Success      200 {object} cameraResponse "Camera details"
// @Failure      400 {object} map[string]interface{} "Bad request - missing camera ID"
// @Failure      404 {object} map[string]interface{} "Camera not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /cameras/{cameraId} [get]
func (h *Handler) GetCameraHandler(w http.ResponseWriter, r *http.Request) {
	cameraID := chi.URLParam(r, "cameraId")
	if cameraID == "" {
		json.WriteValidationError(w, errors.New("camera ID is missing"))
		return
	}

	camera, err := h.cameraRepository.GetByID(r.Context(), cameraID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCameraNotFound):
			json.WriteNotFoundError(w, "Camera not found")
		default:
			log.Printf("Repository error loading camera %s: %v", cameraID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, cameraResponse{Camera: *camera})
}

// DeleteCameraHandler godoc
// @Summary      Remove a camera
// @Tags         cameras
// @Produce      json
// @Param        cameraId path string true "Camera ID"
// @Success      204 "Camera removed"
// @Failure      400 {object} map[string]interface{} "Bad request - missing camera ID"
// @Failure      404 {object} map[string]interface{} "Camera not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /cameras/{cameraId} [delete]
func (h *Handler) DeleteCameraHandler(w http.ResponseWriter, r *http.Request) {
	cameraID := chi.URLParam(r, "cameraId")
	if cameraID == "" {
		json.WriteValidationError(w, errors.New("camera ID is missing"))
		return
	}

	if err := h.cameraRepository.Delete(r.Context(), cameraID); err != nil {
		switch {
		case errors.Is(err, domain.ErrCameraNotFound):
			json.WriteNotFoundError(w, "Camera not found")
		default:
			log.Printf("Repository error deleting camera %s: %v", cameraID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
