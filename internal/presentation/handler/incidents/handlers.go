package incidents

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mtorrado/campusguard/internal/domain"
	"github.com/mtorrado/campusguard/internal/infrastructure/events"
	"github.com/mtorrado/campusguard/internal/infrastructure/json"
	"github.com/mtorrado/campusguard/internal/realtime"
)

type Handler struct {
	incidentRepository domain.IncidentRepository
	notifier           realtime.Notifier
	incidentPublisher  *events.IncidentPublisher
}

// NewHandler wires the incident surface. incidentPublisher may be nil when
// no message broker is configured; fan-out then stays local to this instance.
func NewHandler(
	incidentRepository domain.IncidentRepository,
	notifier realtime.Notifier,
	incidentPublisher *events.IncidentPublisher,
) *Handler {
	return &Handler{
		incidentRepository: incidentRepository,
		notifier:           notifier,
		incidentPublisher:  incidentPublisher,
	}
}

// CreateIncidentHandler godoc
// @Summary      Report a new incident
// @Description  Records a detected incident and notifies admin and alert subscribers
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Param        request body createIncidentRequest true "Incident details"
// @Success      201 {object} incidentResponse "Incident recorded"
// @Failure      400 {object} map[string]interface{} "Bad request - validation error"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /incidents [post]
func (h *Handler) CreateIncidentHandler(w http.ResponseWriter, r *http.Request) {
	var req createIncidentRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	incident, err := domain.NewIncident(
		domain.IncidentType(req.Type),
		req.Location,
		req.Description,
		req.Confidence,
		req.ReportedBy,
		req.CameraID,
	)
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()
	if err := h.incidentRepository.Create(ctx, incident); err != nil {
		log.Printf("Repository error creating incident: %v", err)
		json.WriteInternalError(w, err)
		return
	}

	payload := realtime.IncidentCreatedPayload{
		IncidentID: incident.ID,
		Type:       string(incident.Type),
		Location:   incident.Location,
		Confidence: incident.Confidence,
		Reporter:   incident.ReportedBy,
		CameraID:   incident.CameraID,
	}

	if err := h.notifier.Publish(realtime.NewIncidentCreated(realtime.AdminRoom, payload)); err != nil {
		log.Printf("Error notifying admins of incident %s: %v", incident.ID, err)
	}
	if err := h.notifier.Publish(realtime.NewIncidentCreated(realtime.AlertsRoom, payload)); err != nil {
		log.Printf("Error notifying alert subscribers of incident %s: %v", incident.ID, err)
	}

	if h.incidentPublisher != nil {
		if err := h.incidentPublisher.PublishIncidentCreated(ctx, payload); err != nil {
			log.Printf("Error publishing incident created: %v\n", err)
		}
	}

	json.Write(w, http.StatusCreated, incidentResponse{Incident: *incident})
}

// ListIncidentsHandler godoc
// @Summary      List incidents
// @Description  Returns all known incidents, newest first
// @Tags         incidents
// @Produce      json
// @Success      200 {object} listIncidentsResponse "Incident list"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /incidents [get]
func (h *Handler) ListIncidentsHandler(w http.ResponseWriter, r *http.Request) {
	incidents, err := h.incidentRepository.List(r.Context())
	if err != nil {
		log.Printf("Repository error listing incidents: %v", err)
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, listIncidentsResponse{
		Incidents: incidents,
		Count:     len(incidents),
	})
}

// GetIncidentHandler godoc
// @Summary      Get incident details
// @Tags         incidents
// @Produce      json
// @Param        incidentId path string true "Incident ID"
// @Success      200 {object} incidentResponse "Incident details"
// @Failure      400 {object} map[string]interface{} "Bad request - missing incident ID"
// @Failure      404 {object} map[string]interface{} "Incident not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /incidents/{incidentId} [get]
func (h *Handler) GetIncidentHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := chi.URLParam(r, "incidentId")
	if incidentID == "" {
		json.WriteValidationError(w, errors.New("incident ID is missing"))
		return
	}

	incident, err := h.incidentRepository.GetByID(r.Context(), incidentID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIncidentNotFound):
			json.WriteNotFoundError(w, "Incident not found")
		default:
			log.Printf("Repository error loading incident %s: %v", incidentID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, incidentResponse{Incident: *incident})
}

// UpdateIncidentStatusHandler godoc
// @Summary      Update incident status
// @Description  Moves an incident through its review lifecycle and notifies admins
// @Tags         incidents
// @Accept       json
// @Produce      json
// @Param        incidentId path string true "Incident ID"
// @Param        request body updateStatusRequest true "New status"
// @Success      200 {object} incidentResponse "Updated incident"
// @Failure      400 {object} map[string]interface{} "Bad request - invalid status"
// @Failure      404 {object} map[string]interface{} "Incident not found"
// @Failure      500 {object} map[string]interface{} "Internal server error"
// @Router       /incidents/{incidentId}/status [patch]
func (h *Handler) UpdateIncidentStatusHandler(w http.ResponseWriter, r *http.Request) {
	incidentID := chi.URLParam(r, "incidentId")
	if incidentID == "" {
		json.WriteValidationError(w, errors.New("incident ID is missing"))
		return
	}

	var req updateStatusRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	ctx := r.Context()

	incident, err := h.incidentRepository.GetByID(ctx, incidentID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrIncidentNotFound):
			json.WriteNotFoundError(w, "Incident not found")
		default:
			log.Printf("Repository error loading incident %s: %v", incidentID, err)
			json.WriteInternalError(w, err)
		}
		return
	}

	if err := incident.SetStatus(domain.IncidentStatus(req.Status)); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.incidentRepository.Update(ctx, incident); err != nil {
		log.Printf("Repository error updating incident %s: %v", incidentID, err)
		json.WriteInternalError(w, err)
		return
	}

	updatedBy := req.UpdatedBy
	if updatedBy == "" {
		updatedBy = "admin"
	}

	payload := realtime.IncidentUpdatedPayload{
		IncidentID: incident.ID,
		Status:     string(incident.Status),
		UpdatedBy:  updatedBy,
	}

	if err := h.notifier.Publish(realtime.NewIncidentUpdated(realtime.AdminRoom, payload)); err != nil {
		log.Printf("Error notifying admins of incident update %s: %v", incident.ID, err)
	}

	if h.incidentPublisher != nil {
		if err := h.incidentPublisher.PublishIncidentUpdated(ctx, payload); err != nil {
			log.Printf("Error publishing incident updated: %v\n", err)
		}
	}

	json.Write(w, http.StatusOK, incidentResponse{Incident: *incident})
}
