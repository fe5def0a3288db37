package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mtorrado/campusguard/internal/domain"
)

type cameraRepository struct {
	cameras       map[string]*domain.Camera // ID -> Camera
	deviceIDIndex map[string]*domain.Camera // DeviceID -> Camera
	lastAccess    map[string]time.Time
	capacity      uint
	idleExpiry    time.Duration
	mu            sync.RWMutex
}

func NewCameraRepository(capacity uint, idleExpiry time.Duration) domain.CameraRepository {
	if capacity == 0 {
		capacity = 200
	}
	if idleExpiry == 0 {
		idleExpiry = 24 * time.Hour
	}

	return &cameraRepository{
		cameras:       make(map[string]*domain.Camera),
		deviceIDIndex: make(map[string]*domain.Camera),
		lastAccess:    make(map[string]time.Time),
		capacity:      capacity,
		idleExpiry:    idleExpiry,
	}
}

func (r *cameraRepository) touch(id string) {
	r.lastAccess[id] = time.Now()
}

func (r *cameraRepository) evictIdle() {
	cutoff := time.Now().Add(-r.idleExpiry)
	for id, last := range r.lastAccess {
		if last.Before(cutoff) {
			if cam, exists := r.cameras[id]; exists {
				delete(r.deviceIDIndex, cam.DeviceID)
			}
			delete(r.cameras, id)
			delete(r.lastAccess, id)
		}
	}
}

// enforceCapacity drops the oldest-accessed cameras once over capacity.
func (r *cameraRepository) enforceCapacity() {
	if uint(len(r.cameras)) <= r.capacity {
		return
	}

	type entry struct {
		id   string
		time time.Time
	}
	entries := make([]entry, 0, len(r.lastAccess))
	for id, t := range r.lastAccess {
		entries = append(entries, entry{id, t})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].time.Before(entries[j].time) })

	for i := 0; i < len(entries)-int(r.capacity); i++ {
		oldest := entries[i]
		if cam, exists := r.cameras[oldest.id]; exists {
			delete(r.deviceIDIndex, cam.DeviceID)
		}
		delete(r.cameras, oldest.id)
		delete(r.lastAccess, oldest.id)
	}
}

func (r *cameraRepository) Create(ctx context.Context, camera *domain.Camera) error {
	if camera == nil || camera.ID == "" || camera.DeviceID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictIdle()

	if _, exists := r.cameras[camera.ID]; exists {
		return domain.ErrCameraAlreadyExists
	}
	if _, exists := r.deviceIDIndex[camera.DeviceID]; exists {
		return domain.ErrCameraAlreadyExists
	}

	r.cameras[camera.ID] = camera
	r.deviceIDIndex[camera.DeviceID] = camera
	r.touch(camera.ID)
	r.enforceCapacity()

	return nil
}

func (r *cameraRepository) GetByID(ctx context.Context, id string) (*domain.Camera, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	camera, exists := r.cameras[id]
	if !exists {
		return nil, domain.ErrCameraNotFound
	}
	r.touch(id)

	return camera, nil
}

func (r *cameraRepository) GetByDeviceID(ctx context.Context, deviceID string) (*domain.Camera, error) {
	if deviceID == "" {
		return nil, domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	camera, exists := r.deviceIDIndex[deviceID]
	if !exists {
		return nil, domain.ErrCameraNotFound
	}
	r.touch(camera.ID)

	return camera, nil
}

func (r *cameraRepository) List(ctx context.Context) ([]domain.Camera, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Camera, 0, len(r.cameras))
	for _, cam := range r.cameras {
		out = append(out, *cam)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RegisteredAt.Before(out[j].RegisteredAt) })

	return out, nil
}

func (r *cameraRepository) Update(ctx context.Context, camera *domain.Camera) error {
	if camera == nil || camera.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.cameras[camera.ID]
	if !exists {
		return domain.ErrCameraNotFound
	}
	if existing.DeviceID != camera.DeviceID {
		return domain.ErrInvalidInput
	}

	r.cameras[camera.ID] = camera
	r.deviceIDIndex[camera.DeviceID] = camera
	r.touch(camera.ID)

	return nil
}

func (r *cameraRepository) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	camera, exists := r.cameras[id]
	if !exists {
		return domain.ErrCameraNotFound
	}

	delete(r.cameras, id)
	delete(r.deviceIDIndex, camera.DeviceID)
	delete(r.lastAccess, id)

	return nil
}
