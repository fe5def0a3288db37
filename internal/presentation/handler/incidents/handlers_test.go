package incidents

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mtorrado/campusguard/internal/infrastructure/repository"
	"github.com/mtorrado/campusguard/internal/realtime"
)

type captureNotifier struct {
	mu        sync.Mutex
	published []realtime.Envelope
}

func (n *captureNotifier) Publish(env *realtime.Envelope) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, *env)
	return nil
}

func newTestRouter() (*chi.Mux, *captureNotifier) {
	notifier := &captureNotifier{}
	repo := repository.NewIncidentRepository(100, time.Hour)
	h := NewHandler(repo, notifier, nil)

	r := chi.NewRouter()
	r.Post("/incidents", h.CreateIncidentHandler)
	r.Get("/incidents", h.ListIncidentsHandler)
	r.Get("/incidents/{incidentId}", h.GetIncidentHandler)
	r.Patch("/incidents/{incidentId}/status", h.UpdateIncidentStatusHandler)
	return r, notifier
}

func TestCreateIncidentNotifiesAdminAndAlerts(t *testing.T) {
	router, notifier := newTestRouter()

	body := []byte(`{"type":"smoking","location":"north yard","confidence":0.92,"reportedBy":"camera-detection","cameraId":"cam-1"}`)
	req := httptest.NewRequest(http.MethodPost, "/incidents", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp incidentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Incident.Status != "verified" {
		t.Fatalf("high-confidence incident should be auto-verified, got %s", resp.Incident.Status)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.published) != 2 {
		t.Fatalf("expected fan-out to 2 rooms, got %d", len(notifier.published))
	}
	rooms := map[string]bool{}
	for _, env := range notifier.published {
		if env.Topic != realtime.TopicIncidentCreated {
			t.Fatalf("unexpected topic %s", env.Topic)
		}
		rooms[env.Room] = true
	}
	if !rooms[realtime.AdminRoom] || !rooms[realtime.AlertsRoom] {
		t.Fatalf("expected admin_room and alerts, got %v", rooms)
	}
}

func TestCreateIncidentRejectsBadInput(t *testing.T) {
	router, notifier := newTestRouter()

	body := []byte(`{"type":"loitering","location":"yard","confidence":0.5,"reportedBy":"cam"}`)
	req := httptest.NewRequest(http.MethodPost, "/incidents", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	if len(notifier.published) != 0 {
		t.Fatalf("rejected incident must not be published")
	}
}

func TestUpdateIncidentStatus(t *testing.T) {
	router, notifier := newTestRouter()

	create := []byte(`{"type":"dress_code","location":"main hall","confidence":0.4,"reportedBy":"camera-detection"}`)
	req := httptest.NewRequest(http.MethodPost, "/incidents", bytes.NewReader(create))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d", rec.Code)
	}

	var created incidentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	patch := []byte(`{"status":"dismissed","updatedBy":"supervisor"}`)
	req = httptest.NewRequest(http.MethodPatch, "/incidents/"+created.Incident.ID+"/status", bytes.NewReader(patch))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var updated incidentResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode patch response: %v", err)
	}
	if updated.Incident.Status != "dismissed" {
		t.Fatalf("status not applied: %s", updated.Incident.Status)
	}

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	last := notifier.published[len(notifier.published)-1]
	if last.Topic != realtime.TopicIncidentUpdated || last.Room != realtime.AdminRoom {
		t.Fatalf("expected incident_updated in admin_room, got %s in %s", last.Topic, last.Room)
	}
}

func TestGetIncidentNotFound(t *testing.T) {
	router, _ := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/incidents/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
