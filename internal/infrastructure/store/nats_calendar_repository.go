// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/google/uuid"
)

// NatsCalendarTypeRepository is the NATS KV store repository for the calendar
// type taxonomy. Types are seeded once and read afterwards, so there is no
// update path.
type NatsCalendarTypeRepository struct {
	*NatsBaseRepository[models.CalendarType]
	keyBuilder *KeyBuilder
}

// NewNatsCalendarTypeRepository creates a new NATS KV store repository for calendar types.
func NewNatsCalendarTypeRepository(kvStore INatsKeyValue) *NatsCalendarTypeRepository {
	return &NatsCalendarTypeRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CalendarType](kvStore, "calendar type"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// Create stores a new calendar type.
func (r *NatsCalendarTypeRepository) Create(ctx context.Context, calendarType *models.CalendarType) error {
	if calendarType.UID == "" {
		calendarType.UID = uuid.New().String()
	}

	key := r.keyBuilder.EntityKey(KeyPrefixCalendarType, calendarType.UID)
	return r.NatsBaseRepository.Create(ctx, key, calendarType)
}

// Get retrieves a calendar type by UID.
func (r *NatsCalendarTypeRepository) Get(ctx context.Context, uid string) (*models.CalendarType, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixCalendarType, uid)
	return r.NatsBaseRepository.Get(ctx, key)
}

// ListAll retrieves every calendar type.
func (r *NatsCalendarTypeRepository) ListAll(ctx context.Context) ([]*models.CalendarType, error) {
	return r.ListEntities(ctx, KeyPrefixCalendarType+".")
}

// NatsCalendarRepository is the NATS KV store repository for calendars.
type NatsCalendarRepository struct {
	*NatsBaseRepository[models.Calendar]
	keyBuilder *KeyBuilder
}

// NewNatsCalendarRepository creates a new NATS KV store repository for calendars.
func NewNatsCalendarRepository(kvStore INatsKeyValue) *NatsCalendarRepository {
	return &NatsCalendarRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Calendar](kvStore, "calendar"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsCalendarRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// Create stores a new calendar.
func (r *NatsCalendarRepository) Create(ctx context.Context, calendar *models.Calendar) error {
	if calendar.UID == "" {
		calendar.UID = uuid.New().String()
	}

	key := r.keyBuilder.EntityKey(KeyPrefixCalendar, calendar.UID)
	return r.NatsBaseRepository.Create(ctx, key, calendar)
}

// Exists checks if a calendar exists.
func (r *NatsCalendarRepository) Exists(ctx context.Context, calendarUID string) (bool, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixCalendar, calendarUID)
	return r.NatsBaseRepository.Exists(ctx, key)
}

// Get retrieves a calendar by UID.
func (r *NatsCalendarRepository) Get(ctx context.Context, calendarUID string) (*models.Calendar, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixCalendar, calendarUID)
	return r.NatsBaseRepository.Get(ctx, key)
}

// GetWithRevision retrieves a calendar with its revision by UID.
func (r *NatsCalendarRepository) GetWithRevision(ctx context.Context, calendarUID string) (*models.Calendar, uint64, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixCalendar, calendarUID)
	return r.NatsBaseRepository.GetWithRevision(ctx, key)
}

// Update updates an existing calendar.
func (r *NatsCalendarRepository) Update(ctx context.Context, calendar *models.Calendar, revision uint64) error {
	key := r.keyBuilder.EntityKey(KeyPrefixCalendar, calendar.UID)
	return r.NatsBaseRepository.Update(ctx, key, calendar, revision)
}

// ListAll retrieves every calendar, active or not.
func (r *NatsCalendarRepository) ListAll(ctx context.Context) ([]*models.Calendar, error) {
	return r.ListEntities(ctx, KeyPrefixCalendar+".")
}
