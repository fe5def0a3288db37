package cameras

import "github.com/mtorrado/campusguard/internal/domain"

type registerCameraRequest struct {
	DeviceID   string `json:"deviceId"`
	DeviceName string `json:"deviceName"`
	Location   string `json:"location"`
}

type cameraResponse struct {
	Camera domain.Camera `json:"camera"`
}

type listCamerasResponse struct {
	Cameras []domain.Camera `json:"cameras"`
	Count   int             `json:"count"`
}
