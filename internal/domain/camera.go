package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type CameraStatus string

const (
	CameraActive      CameraStatus = "active"
	CameraInactive    CameraStatus = "inactive"
	CameraMaintenance CameraStatus = "maintenance"
	CameraError       CameraStatus = "error"
)

// Camera is a registered capture device, either a fixed installation or a
// mobile device enrolled through the reporting app.
type Camera struct {
	ID           string       `json:"id"`
	DeviceID     string       `json:"deviceId"`
	DeviceName   string       `json:"deviceName"`
	Location     string       `json:"location,omitempty"`
	Status       CameraStatus `json:"status"`
	IsActive     bool         `json:"isActive"`
	LastSeen     time.Time    `json:"lastSeen"`
	RegisteredAt time.Time    `json:"registeredAt"`
}

type CameraRepository interface {
	Create(ctx context.Context, camera *Camera) error
	GetByID(ctx context.Context, id string) (*Camera, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*Camera, error)
	List(ctx context.Context) ([]Camera, error)
	Update(ctx context.Context, camera *Camera) error
	Delete(ctx context.Context, id string) error
}

func NewCamera(deviceID, deviceName, location string) (*Camera, error) {
	if strings.TrimSpace(deviceID) == "" || strings.TrimSpace(deviceName) == "" {
		return nil, ErrInvalidInput
	}

	now := time.Now()

	return &Camera{
		ID:           uuid.NewString(),
		DeviceID:     deviceID,
		DeviceName:   deviceName,
		Location:     location,
		Status:       CameraActive,
		IsActive:     true,
		LastSeen:     now,
		RegisteredAt: now,
	}, nil
}

func (c *Camera) Touch() {
	c.LastSeen = time.Now()
}
