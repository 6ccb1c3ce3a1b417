// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"slices"
	"time"

	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/google/uuid"
)

// NatsEventRepository is the NATS KV store repository for calendar events.
type NatsEventRepository struct {
	*NatsBaseRepository[models.CalendarEvent]
	keyBuilder *KeyBuilder
}

// NewNatsEventRepository creates a new NATS KV store repository for calendar events.
func NewNatsEventRepository(kvStore INatsKeyValue) *NatsEventRepository {
	return &NatsEventRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CalendarEvent](kvStore, "event"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsEventRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// Create stores a new event.
func (r *NatsEventRepository) Create(ctx context.Context, event *models.CalendarEvent) error {
	if event.UID == "" {
		event.UID = uuid.New().String()
	}

	key := r.keyBuilder.EntityKey(KeyPrefixEvent, event.UID)
	return r.NatsBaseRepository.Create(ctx, key, event)
}

// Exists checks if an event exists.
func (r *NatsEventRepository) Exists(ctx context.Context, eventUID string) (bool, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixEvent, eventUID)
	return r.NatsBaseRepository.Exists(ctx, key)
}

// Get retrieves an event by UID.
func (r *NatsEventRepository) Get(ctx context.Context, eventUID string) (*models.CalendarEvent, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixEvent, eventUID)
	return r.NatsBaseRepository.Get(ctx, key)
}

// GetWithRevision retrieves an event with its revision by UID.
func (r *NatsEventRepository) GetWithRevision(ctx context.Context, eventUID string) (*models.CalendarEvent, uint64, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixEvent, eventUID)
	return r.NatsBaseRepository.GetWithRevision(ctx, key)
}

// Update updates an existing event.
func (r *NatsEventRepository) Update(ctx context.Context, event *models.CalendarEvent, revision uint64) error {
	key := r.keyBuilder.EntityKey(KeyPrefixEvent, event.UID)
	return r.NatsBaseRepository.Update(ctx, key, event, revision)
}

// ListByCalendar retrieves all events belonging to a calendar.
func (r *NatsEventRepository) ListByCalendar(ctx context.Context, calendarUID string) ([]*models.CalendarEvent, error) {
	events, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.CalendarEvent
	for _, event := range events {
		if event.CalendarUID == calendarUID {
			matched = append(matched, event)
		}
	}
	return matched, nil
}

// ListByDateRange retrieves events on the given calendars whose date falls
// within [from, to]. Recurring parents are included when their recurrence
// window intersects the range so callers can expand occurrences.
func (r *NatsEventRepository) ListByDateRange(ctx context.Context, calendarUIDs []string, from, to time.Time) ([]*models.CalendarEvent, error) {
	events, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var matched []*models.CalendarEvent
	for _, event := range events {
		if len(calendarUIDs) > 0 && !slices.Contains(calendarUIDs, event.CalendarUID) {
			continue
		}
		if event.Recurrence != nil {
			// A recurring parent intersects the range unless it starts after
			// the range ends or its until-bound falls before the range starts.
			if event.EventDate.After(to) {
				continue
			}
			if event.Recurrence.Until != nil && event.Recurrence.Until.Before(from) {
				continue
			}
			matched = append(matched, event)
			continue
		}
		if event.EventDate.Before(from) || event.EventDate.After(to) {
			continue
		}
		matched = append(matched, event)
	}
	return matched, nil
}

// ListAll retrieves every event.
func (r *NatsEventRepository) ListAll(ctx context.Context) ([]*models.CalendarEvent, error) {
	return r.ListEntities(ctx, KeyPrefixEvent+".")
}

// NatsApprovalRepository is the NATS KV store repository for the approval
// audit trail. Rows are append-only.
type NatsApprovalRepository struct {
	*NatsBaseRepository[models.EventApproval]
	keyBuilder *KeyBuilder
}

// NewNatsApprovalRepository creates a new NATS KV store repository for approval records.
func NewNatsApprovalRepository(kvStore INatsKeyValue) *NatsApprovalRepository {
	return &NatsApprovalRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.EventApproval](kvStore, "approval"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// Create stores a new approval audit record under its event.
func (r *NatsApprovalRepository) Create(ctx context.Context, approval *models.EventApproval) error {
	if approval.UID == "" {
		approval.UID = uuid.New().String()
	}

	key := r.keyBuilder.ScopedKey(KeyPrefixApproval, approval.EventUID, approval.UID)
	return r.NatsBaseRepository.Create(ctx, key, approval)
}

// ListByEvent retrieves the approval history for an event, oldest first.
func (r *NatsApprovalRepository) ListByEvent(ctx context.Context, eventUID string) ([]*models.EventApproval, error) {
	approvals, err := r.ListEntities(ctx, r.keyBuilder.ScopePrefix(KeyPrefixApproval, eventUID))
	if err != nil {
		return nil, err
	}

	slices.SortFunc(approvals, func(a, b *models.EventApproval) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return approvals, nil
}
