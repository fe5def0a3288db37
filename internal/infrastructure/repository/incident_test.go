package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mtorrado/campusguard/internal/domain"
)

func newIncident(t *testing.T, location string) *domain.Incident {
	t.Helper()

	incident, err := domain.NewIncident(domain.IncidentSmoking, location, "", 0.5, "camera-detection", "")
	if err != nil {
		t.Fatalf("new incident: %v", err)
	}
	return incident
}

func TestIncidentRepositoryCreateGetUpdate(t *testing.T) {
	repo := NewIncidentRepository(10, time.Hour)
	ctx := context.Background()

	incident := newIncident(t, "north yard")
	if err := repo.Create(ctx, incident); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Create(ctx, incident); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("duplicate create should fail, got %v", err)
	}

	got, err := repo.GetByID(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Location != "north yard" {
		t.Fatalf("unexpected incident: %+v", got)
	}

	if err := got.SetStatus(domain.StatusDismissed); err != nil {
		t.Fatalf("set status: %v", err)
	}
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}

	updated, err := repo.GetByID(ctx, incident.ID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated.Status != domain.StatusDismissed {
		t.Fatalf("status not persisted: %s", updated.Status)
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, domain.ErrIncidentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIncidentRepositoryListNewestFirst(t *testing.T) {
	repo := NewIncidentRepository(10, time.Hour)
	ctx := context.Background()

	first := newIncident(t, "first")
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("create first: %v", err)
	}

	second := newIncident(t, "second")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("create second: %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 incidents, got %d", len(list))
	}
	if list[0].Location != "second" {
		t.Fatalf("expected newest first, got %s", list[0].Location)
	}
}

func TestIncidentRepositoryCapacityDropsOldest(t *testing.T) {
	repo := NewIncidentRepository(2, time.Hour)
	ctx := context.Background()

	oldest := newIncident(t, "oldest")
	if err := repo.Create(ctx, oldest); err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, loc := range []string{"middle", "newest"} {
		if err := repo.Create(ctx, newIncident(t, loc)); err != nil {
			t.Fatalf("create %s: %v", loc, err)
		}
	}

	if _, err := repo.GetByID(ctx, oldest.ID); !errors.Is(err, domain.ErrIncidentNotFound) {
		t.Fatalf("oldest should be evicted at capacity, got %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected capacity 2, got %d", len(list))
	}
}
