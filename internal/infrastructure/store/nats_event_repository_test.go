// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
)

func TestNatsEventRepository_CreateAndGet(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsEventRepository(kv)

	now := time.Now()
	event := &models.CalendarEvent{
		UID:         "event-123",
		CalendarUID: "calendar-1",
		Title:       "Sunday Service",
		EventDate:   time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC),
		Category:    models.EventCategoryService,
		Status:      models.EventStatusDraft,
		CreatedAt:   &now,
	}

	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	storedData, exists := kv.data["event.event-123"]
	if !exists {
		t.Fatal("expected event to be stored under its entity key")
	}
	var stored models.CalendarEvent
	if err := json.Unmarshal(storedData, &stored); err != nil {
		t.Fatalf("failed to unmarshal stored event: %v", err)
	}
	if stored.Title != event.Title {
		t.Errorf("expected Title %s, got %s", event.Title, stored.Title)
	}

	got, err := repo.Get(context.Background(), "event-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.CalendarUID != "calendar-1" {
		t.Errorf("expected CalendarUID calendar-1, got %s", got.CalendarUID)
	}
}

func TestNatsEventRepository_Create_GeneratesUID(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsEventRepository(kv)

	event := &models.CalendarEvent{CalendarUID: "calendar-1", Title: "Rehearsal"}
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.UID == "" {
		t.Error("expected a UID to be generated")
	}
}

func TestNatsEventRepository_Get_NotFound(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsEventRepository(kv)

	_, err := repo.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if domain.GetErrorType(err) != domain.ErrorTypeNotFound {
		t.Errorf("expected not-found error, got %v", err)
	}
}

func TestNatsEventRepository_Update_RevisionMismatch(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsEventRepository(kv)

	event := &models.CalendarEvent{UID: "event-123", CalendarUID: "calendar-1", Title: "Original"}
	if err := repo.Create(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, revision, err := repo.GetWithRevision(context.Background(), "event-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event.Title = "Updated"
	if err := repo.Update(context.Background(), event, revision); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Write with the stale revision; must be rejected as concurrent modification.
	event.Title = "Stale write"
	err = repo.Update(context.Background(), event, revision)
	if err == nil {
		t.Fatal("expected error but got nil")
	}
	if !errors.Is(err, domain.ErrConcurrentModification) {
		t.Errorf("expected ErrConcurrentModification, got %v", err)
	}
}

func TestNatsEventRepository_ListByDateRange(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsEventRepository(kv)
	ctx := context.Background()

	from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)

	inRange := &models.CalendarEvent{UID: "in-range", CalendarUID: "cal-a", EventDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)}
	outOfRange := &models.CalendarEvent{UID: "out-of-range", CalendarUID: "cal-a", EventDate: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)}
	otherCalendar := &models.CalendarEvent{UID: "other-cal", CalendarUID: "cal-b", EventDate: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)}
	recurring := &models.CalendarEvent{
		UID:         "recurring",
		CalendarUID: "cal-a",
		EventDate:   time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC),
		Recurrence:  &models.Recurrence{Frequency: models.RecurrenceWeekly, Interval: 1},
	}
	for _, event := range []*models.CalendarEvent{inRange, outOfRange, otherCalendar, recurring} {
		if err := repo.Create(ctx, event); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	events, err := repo.ListByDateRange(ctx, []string{"cal-a"}, from, to)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := make(map[string]bool, len(events))
	for _, event := range events {
		got[event.UID] = true
	}
	if !got["in-range"] {
		t.Error("expected event within the range to be returned")
	}
	if !got["recurring"] {
		t.Error("expected recurring parent starting before the range to be returned")
	}
	if got["out-of-range"] {
		t.Error("did not expect event after the range")
	}
	if got["other-cal"] {
		t.Error("did not expect event from a filtered-out calendar")
	}
}

func TestNatsApprovalRepository_ListByEvent_SortsByTimestamp(t *testing.T) {
	kv := newMockNatsKeyValue()
	repo := NewNatsApprovalRepository(kv)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	second := &models.EventApproval{UID: "a2", EventUID: "event-1", Action: models.ApprovalActionFinalApprove, ActorUID: "pastor", Timestamp: base.Add(time.Hour)}
	first := &models.EventApproval{UID: "a1", EventUID: "event-1", Action: models.ApprovalActionFirstApprove, ActorUID: "admin", Timestamp: base}
	unrelated := &models.EventApproval{UID: "a3", EventUID: "event-2", Action: models.ApprovalActionReject, ActorUID: "admin", Timestamp: base}
	for _, approval := range []*models.EventApproval{second, first, unrelated} {
		if err := repo.Create(ctx, approval); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	approvals, err := repo.ListByEvent(ctx, "event-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(approvals) != 2 {
		t.Fatalf("expected 2 approvals, got %d", len(approvals))
	}
	if approvals[0].UID != "a1" || approvals[1].UID != "a2" {
		t.Errorf("expected approvals sorted oldest first, got %s then %s", approvals[0].UID, approvals[1].UID)
	}
}
