// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/google/uuid"
)

// conflictNamespace seeds deterministic conflict UIDs derived from the
// order-independent pair key, so detection from either event maps to the
// same record.
var conflictNamespace = uuid.MustParse("4f7d2c81-6e3b-4b5a-8c90-1a2e7f6d4b33")

// NatsConflictRepository is the NATS KV store repository for detected
// scheduling conflicts.
type NatsConflictRepository struct {
	*NatsBaseRepository[models.EventConflict]
	keyBuilder *KeyBuilder
}

// NewNatsConflictRepository creates a new NATS KV store repository for conflicts.
func NewNatsConflictRepository(kvStore INatsKeyValue) *NatsConflictRepository {
	return &NatsConflictRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.EventConflict](kvStore, "conflict"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsConflictRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// Create stores a conflict. The UID derives from the pair key, so repeated
// detection of the same collision overwrites one record instead of piling up
// duplicates.
func (r *NatsConflictRepository) Create(ctx context.Context, conflict *models.EventConflict) error {
	if conflict.UID == "" {
		conflict.UID = uuid.NewSHA1(conflictNamespace, []byte(conflict.PairKey())).String()
	}

	// Re-detection must not resurrect a conflict someone already resolved
	// or ignored, and must not move its creation time.
	if existing, err := r.Get(ctx, conflict.UID); err == nil {
		if !existing.Resolution.IsOpen() {
			conflict.Resolution = existing.Resolution
		}
		if existing.CreatedAt != nil {
			conflict.CreatedAt = existing.CreatedAt
		}
	}

	key := r.keyBuilder.EntityKey(KeyPrefixConflict, conflict.UID)
	return r.NatsBaseRepository.Create(ctx, key, conflict)
}

// Get retrieves a conflict by UID.
func (r *NatsConflictRepository) Get(ctx context.Context, conflictUID string) (*models.EventConflict, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixConflict, conflictUID)
	return r.NatsBaseRepository.Get(ctx, key)
}

// GetWithRevision retrieves a conflict with its revision by UID.
func (r *NatsConflictRepository) GetWithRevision(ctx context.Context, conflictUID string) (*models.EventConflict, uint64, error) {
	key := r.keyBuilder.EntityKey(KeyPrefixConflict, conflictUID)
	return r.NatsBaseRepository.GetWithRevision(ctx, key)
}

// Update updates an existing conflict, typically its resolution status.
func (r *NatsConflictRepository) Update(ctx context.Context, conflict *models.EventConflict, revision uint64) error {
	key := r.keyBuilder.EntityKey(KeyPrefixConflict, conflict.UID)
	return r.NatsBaseRepository.Update(ctx, key, conflict, revision)
}

// ListByEvent retrieves every conflict involving an event, from either side.
func (r *NatsConflictRepository) ListByEvent(ctx context.Context, eventUID string) ([]*models.EventConflict, error) {
	conflicts, err := r.ListEntities(ctx, KeyPrefixConflict+".")
	if err != nil {
		return nil, err
	}

	var matched []*models.EventConflict
	for _, conflict := range conflicts {
		if conflict.EventUID == eventUID || conflict.ConflictingEventUID == eventUID {
			matched = append(matched, conflict)
		}
	}
	return matched, nil
}

// ListOpenByEvent retrieves the conflicts involving an event that still need
// attention.
func (r *NatsConflictRepository) ListOpenByEvent(ctx context.Context, eventUID string) ([]*models.EventConflict, error) {
	conflicts, err := r.ListByEvent(ctx, eventUID)
	if err != nil {
		return nil, err
	}

	var open []*models.EventConflict
	for _, conflict := range conflicts {
		if conflict.Resolution.IsOpen() {
			open = append(open, conflict)
		}
	}
	return open, nil
}
