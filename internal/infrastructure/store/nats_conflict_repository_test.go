// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"testing"

	"github.com/churchnet/calendar-service/internal/domain/models"
)

func TestNatsConflictRepository_Create_DedupesByPair(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsConflictRepository(kv)
	ctx := context.Background()

	forward := &models.EventConflict{
		EventUID:            "event-a",
		ConflictingEventUID: "event-b",
		Type:                models.ConflictTypeTimeOverlap,
		Severity:            models.ConflictSeverityMajor,
		Resolution:          models.ConflictUnresolved,
	}
	if err := repo.Create(ctx, forward); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Detection from the other event's side must land on the same record.
	reverse := &models.EventConflict{
		EventUID:            "event-b",
		ConflictingEventUID: "event-a",
		Type:                models.ConflictTypeTimeOverlap,
		Severity:            models.ConflictSeverityMajor,
		Resolution:          models.ConflictUnresolved,
	}
	if err := repo.Create(ctx, reverse); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if forward.UID != reverse.UID {
		t.Errorf("expected symmetric detections to share a UID, got %s and %s", forward.UID, reverse.UID)
	}
	if len(kv.data) != 1 {
		t.Fatalf("expected 1 stored conflict, got %d", len(kv.data))
	}
}

func TestNatsConflictRepository_ListByEvent_BothSides(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsConflictRepository(kv)
	ctx := context.Background()

	conflicts := []*models.EventConflict{
		{EventUID: "event-a", ConflictingEventUID: "event-b", Type: models.ConflictTypeTimeOverlap, Severity: models.ConflictSeverityMinor, Resolution: models.ConflictUnresolved},
		{EventUID: "event-c", ConflictingEventUID: "event-a", Type: models.ConflictTypeLocation, Severity: models.ConflictSeverityCritical, Resolution: models.ConflictUnresolved},
		{EventUID: "event-b", ConflictingEventUID: "event-c", Type: models.ConflictTypeTimeOverlap, Severity: models.ConflictSeverityMinor, Resolution: models.ConflictUnresolved},
	}
	for _, conflict := range conflicts {
		if err := repo.Create(ctx, conflict); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	matched, err := repo.ListByEvent(ctx, "event-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 2 {
		t.Fatalf("expected 2 conflicts involving event-a, got %d", len(matched))
	}
}

func TestNatsConflictRepository_ListOpenByEvent(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsConflictRepository(kv)
	ctx := context.Background()

	open := &models.EventConflict{
		EventUID:            "event-a",
		ConflictingEventUID: "event-b",
		Type:                models.ConflictTypeTimeOverlap,
		Severity:            models.ConflictSeverityCritical,
		Resolution:          models.ConflictAcknowledged,
	}
	resolved := &models.EventConflict{
		EventUID:            "event-a",
		ConflictingEventUID: "event-c",
		Type:                models.ConflictTypeLocation,
		Severity:            models.ConflictSeverityMajor,
		Resolution:          models.ConflictResolved,
	}
	for _, conflict := range []*models.EventConflict{open, resolved} {
		if err := repo.Create(ctx, conflict); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	matched, err := repo.ListOpenByEvent(ctx, "event-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matched) != 1 {
		t.Fatalf("expected 1 open conflict, got %d", len(matched))
	}
	if matched[0].UID != open.UID {
		t.Errorf("expected the acknowledged conflict, got %s", matched[0].UID)
	}
}
