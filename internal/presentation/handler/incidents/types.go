package incidents

import "github.com/mtorrado/campusguard/internal/domain"

type createIncidentRequest struct {
	Type        string  `json:"type"`
	Location    string  `json:"location"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	ReportedBy  string  `json:"reportedBy"`
	CameraID    string  `json:"cameraId"`
}

type updateStatusRequest struct {
	Status    string `json:"status"`
	UpdatedBy string `json:"updatedBy"`
}

type incidentResponse struct {
	Incident domain.Incident `json:"incident"`
}

type listIncidentsResponse struct {
	Incidents []domain.Incident `json:"incidents"`
	Count     int               `json:"count"`
}
