// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/google/uuid"
)

// NatsSyncRepository is the NATS KV store repository for personal calendar
// sync connections.
type NatsSyncRepository struct {
	*NatsBaseRepository[models.PersonalCalendarSync]
	keyBuilder *KeyBuilder
}

// NewNatsSyncRepository creates a new NATS KV store repository for sync connections.
func NewNatsSyncRepository(kvStore INatsKeyValue) *NatsSyncRepository {
	return &NatsSyncRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.PersonalCalendarSync](kvStore, "sync connection"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsSyncRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// Create stores a new sync connection.
func (r *NatsSyncRepository) Create(ctx context.Context, sync *models.PersonalCalendarSync) error {
	if sync.UID == "" {
		sync.UID = uuid.New().String()
	}

	key := r.keyBuilder.EntityKey(KeyPrefixSync, sync.UID)
	return r.NatsBaseRepository.Create(ctx, key, sync)
}

// Get retrieves a sync connection by UID.
func (r *NatsSyncRepository) Get(ctx context.Context, syncUID string) (*models.PersonalCalendarSync, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixSync, syncUID)
	return r.NatsBaseRepository.Get(ctx, key)
}

// GetWithRevision retrieves a sync connection with its revision by UID.
func (r *NatsSyncRepository) GetWithRevision(ctx context.Context, syncUID string) (*models.PersonalCalendarSync, uint64, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixSync, syncUID)
	return r.NatsBaseRepository.GetWithRevision(ctx, key)
}

// Update updates an existing sync connection.
func (r *NatsSyncRepository) Update(ctx context.Context, sync *models.PersonalCalendarSync, revision uint64) error {
	key := r.keyBuilder.EntityKey(KeyPrefixSync, sync.UID)
	return r.NatsBaseRepository.Update(ctx, key, sync, revision)
}

// ListByUser retrieves every sync connection for a user, whatever its status.
func (r *NatsSyncRepository) ListByUser(ctx context.Context, userUID string) ([]*models.PersonalCalendarSync, error) {
	syncs, err := r.ListEntities(ctx, KeyPrefixSync+".")
	if err != nil {
		return nil, err
	}

	var matched []*models.PersonalCalendarSync
	for _, sync := range syncs {
		if sync.UserUID == userUID {
			matched = append(matched, sync)
		}
	}
	return matched, nil
}

// ListActive retrieves the sync connections the scheduler should run.
// Errored connections are included so they get retried; paused and
// disconnected ones are not.
func (r *NatsSyncRepository) ListActive(ctx context.Context) ([]*models.PersonalCalendarSync, error) {
	syncs, err := r.ListEntities(ctx, KeyPrefixSync+".")
	if err != nil {
		return nil, err
	}

	var matched []*models.PersonalCalendarSync
	for _, sync := range syncs {
		if sync.Status == models.SyncStatusActive || sync.Status == models.SyncStatusError {
			matched = append(matched, sync)
		}
	}
	return matched, nil
}
