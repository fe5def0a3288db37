package domain

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type IncidentType string

const (
	IncidentSmoking   IncidentType = "smoking"
	IncidentDressCode IncidentType = "dress_code"
	IncidentOther     IncidentType = "other"
)

type IncidentStatus string

const (
	StatusPending   IncidentStatus = "pending"
	StatusVerified  IncidentStatus = "verified"
	StatusDismissed IncidentStatus = "dismissed"
	StatusResolved  IncidentStatus = "resolved"
)

type Incident struct {
	ID          string         `json:"id"`
	Type        IncidentType   `json:"type"`
	Status      IncidentStatus `json:"status"`
	Location    string         `json:"location"`
	Description string         `json:"description,omitempty"`
	Confidence  float64        `json:"confidence"`
	ReportedBy  string         `json:"reportedBy"`
	CameraID    string         `json:"cameraId,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

type IncidentRepository interface {
	Create(ctx context.Context, incident *Incident) error
	GetByID(ctx context.Context, id string) (*Incident, error)
	List(ctx context.Context) ([]Incident, error)
	Update(ctx context.Context, incident *Incident) error
}

func NewIncident(incidentType IncidentType, location, description string, confidence float64, reportedBy, cameraID string) (*Incident, error) {
	switch incidentType {
	case IncidentSmoking, IncidentDressCode, IncidentOther:
	default:
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(location) == "" || strings.TrimSpace(reportedBy) == "" {
		return nil, ErrInvalidInput
	}
	if confidence < 0 || confidence > 1 {
		return nil, ErrInvalidInput
	}

	now := time.Now()

	status := StatusPending
	if confidence > 0.7 {
		status = StatusVerified
	}

	return &Incident{
		ID:          uuid.NewString(),
		Type:        incidentType,
		Status:      status,
		Location:    location,
		Description: description,
		Confidence:  confidence,
		ReportedBy:  reportedBy,
		CameraID:    cameraID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (i *Incident) SetStatus(status IncidentStatus) error {
	switch status {
	case StatusPending, StatusVerified, StatusDismissed, StatusResolved:
	default:
		return ErrInvalidInput
	}

	i.Status = status
	i.UpdatedAt = time.Now()
	return nil
}
