// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/google/uuid"
)

// NatsAttendeeRepository is the NATS KV store repository for event attendees.
type NatsAttendeeRepository struct {
	*NatsBaseRepository[models.EventAttendee]
	keyBuilder *KeyBuilder
}

// NewNatsAttendeeRepository creates a new NATS KV store repository for attendees.
func NewNatsAttendeeRepository(kvStore INatsKeyValue) *NatsAttendeeRepository {
	return &NatsAttendeeRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.EventAttendee](kvStore, "attendee"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsAttendeeRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// Create stores a new attendee record.
func (r *NatsAttendeeRepository) Create(ctx context.Context, attendee *models.EventAttendee) error {
	if attendee.UID == "" {
		attendee.UID = uuid.New().String()
	}

	key := r.keyBuilder.EntityKey(KeyPrefixAttendee, attendee.UID)
	return r.NatsBaseRepository.Create(ctx, key, attendee)
}

// Get retrieves an attendee record by UID.
func (r *NatsAttendeeRepository) Get(ctx context.Context, attendeeUID string) (*models.EventAttendee, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixAttendee, attendeeUID)
	return r.NatsBaseRepository.Get(ctx, key)
}

// GetWithRevision retrieves an attendee record with its revision by UID.
func (r *NatsAttendeeRepository) GetWithRevision(ctx context.Context, attendeeUID string) (*models.EventAttendee, uint64, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixAttendee, attendeeUID)
	return r.NatsBaseRepository.GetWithRevision(ctx, key)
}

// Update updates an existing attendee record.
func (r *NatsAttendeeRepository) Update(ctx context.Context, attendee *models.EventAttendee, revision uint64) error {
	key := r.keyBuilder.EntityKey(KeyPrefixAttendee, attendee.UID)
	return r.NatsBaseRepository.Update(ctx, key, attendee, revision)
}

// ListByEvent retrieves all attendees of an event.
func (r *NatsAttendeeRepository) ListByEvent(ctx context.Context, eventUID string) ([]*models.EventAttendee, error) {
	attendees, err := r.ListEntities(ctx, KeyPrefixAttendee+".")
	if err != nil {
		return nil, err
	}

	var matched []*models.EventAttendee
	for _, attendee := range attendees {
		if attendee.EventUID == eventUID {
			matched = append(matched, attendee)
		}
	}
	return matched, nil
}

// ListByUser retrieves every attendee record for a user across events.
func (r *NatsAttendeeRepository) ListByUser(ctx context.Context, userUID string) ([]*models.EventAttendee, error) {
	attendees, err := r.ListEntities(ctx, KeyPrefixAttendee+".")
	if err != nil {
		return nil, err
	}

	var matched []*models.EventAttendee
	for _, attendee := range attendees {
		if attendee.UserUID == userUID {
			matched = append(matched, attendee)
		}
	}
	return matched, nil
}
