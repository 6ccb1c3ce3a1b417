// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/google/uuid"
)

// NatsPermissionRepository is the NATS KV store repository for calendar
// permission grants.
type NatsPermissionRepository struct {
	*NatsBaseRepository[models.CalendarPermission]
	keyBuilder *KeyBuilder
}

// NewNatsPermissionRepository creates a new NATS KV store repository for permissions.
func NewNatsPermissionRepository(kvStore INatsKeyValue) *NatsPermissionRepository {
	return &NatsPermissionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.CalendarPermission](kvStore, "permission"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsPermissionRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// Create stores a new permission grant.
func (r *NatsPermissionRepository) Create(ctx context.Context, permission *models.CalendarPermission) error {
	if permission.UID == "" {
		permission.UID = uuid.New().String()
	}

	key := r.keyBuilder.EntityKey(KeyPrefixPermission, permission.UID)
	return r.NatsBaseRepository.Create(ctx, key, permission)
}

// Get retrieves a permission grant by UID.
func (r *NatsPermissionRepository) Get(ctx context.Context, permissionUID string) (*models.CalendarPermission, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixPermission, permissionUID)
	return r.NatsBaseRepository.Get(ctx, key)
}

// GetWithRevision retrieves a permission grant with its revision by UID.
func (r *NatsPermissionRepository) GetWithRevision(ctx context.Context, permissionUID string) (*models.CalendarPermission, uint64, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixPermission, permissionUID)
	return r.NatsBaseRepository.GetWithRevision(ctx, key)
}

// Update updates an existing permission grant.
func (r *NatsPermissionRepository) Update(ctx context.Context, permission *models.CalendarPermission, revision uint64) error {
	key := r.keyBuilder.EntityKey(KeyPrefixPermission, permission.UID)
	return r.NatsBaseRepository.Update(ctx, key, permission, revision)
}

// ListByCalendar retrieves every grant on a calendar, including inactive and
// expired ones; effectiveness filtering is the service layer's concern.
func (r *NatsPermissionRepository) ListByCalendar(ctx context.Context, calendarUID string) ([]*models.CalendarPermission, error) {
	permissions, err := r.ListEntities(ctx, KeyPrefixPermission+".")
	if err != nil {
		return nil, err
	}

	var matched []*models.CalendarPermission
	for _, permission := range permissions {
		if permission.CalendarUID == calendarUID {
			matched = append(matched, permission)
		}
	}
	return matched, nil
}
