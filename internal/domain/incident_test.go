package domain

import (
	"errors"
	"testing"
)

func TestNewIncidentStatusFromConfidence(t *testing.T) {
	low, err := NewIncident(IncidentSmoking, "north yard", "", 0.5, "camera-detection", "cam-1")
	if err != nil {
		t.Fatalf("new incident: %v", err)
	}
	if low.Status != StatusPending {
		t.Fatalf("low confidence should start pending, got %s", low.Status)
	}

	high, err := NewIncident(IncidentDressCode, "main hall", "", 0.9, "camera-detection", "cam-1")
	if err != nil {
		t.Fatalf("new incident: %v", err)
	}
	if high.Status != StatusVerified {
		t.Fatalf("high confidence should auto-verify, got %s", high.Status)
	}

	// 0.7 is not above the threshold
	edge, err := NewIncident(IncidentOther, "gate", "", 0.7, "camera-detection", "")
	if err != nil {
		t.Fatalf("new incident: %v", err)
	}
	if edge.Status != StatusPending {
		t.Fatalf("threshold is exclusive, got %s", edge.Status)
	}
}

func TestNewIncidentValidation(t *testing.T) {
	cases := []struct {
		name       string
		typ        IncidentType
		location   string
		confidence float64
		reporter   string
	}{
		{"unknown type", "loitering", "yard", 0.5, "cam"},
		{"empty location", IncidentSmoking, " ", 0.5, "cam"},
		{"empty reporter", IncidentSmoking, "yard", 0.5, ""},
		{"confidence below range", IncidentSmoking, "yard", -0.1, "cam"},
		{"confidence above range", IncidentSmoking, "yard", 1.1, "cam"},
	}

	for _, tc := range cases {
		if _, err := NewIncident(tc.typ, tc.location, "", tc.confidence, tc.reporter, ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestIncidentSetStatus(t *testing.T) {
	incident, err := NewIncident(IncidentSmoking, "yard", "", 0.5, "cam", "")
	if err != nil {
		t.Fatalf("new incident: %v", err)
	}

	before := incident.UpdatedAt
	if err := incident.SetStatus(StatusResolved); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if incident.Status != StatusResolved {
		t.Fatalf("status not applied")
	}
	if incident.UpdatedAt.Before(before) {
		t.Fatalf("UpdatedAt should advance")
	}

	if err := incident.SetStatus("archived"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown status should be rejected, got %v", err)
	}
}
