// Copyright ChurchNet contributors.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/churchnet/calendar-service/internal/domain"
	"github.com/churchnet/calendar-service/internal/domain/models"
	"github.com/churchnet/calendar-service/internal/logging"
	"github.com/google/uuid"
)

// availabilityNamespace seeds deterministic block UIDs so that re-deriving
// the same block always lands on the same key.
var availabilityNamespace = uuid.MustParse("b9a5f3e2-1c4d-4a8e-9f27-3d6c5b8a0e14")

// NatsAvailabilityRepository is the NATS KV store repository for derived
// availability blocks. Blocks are grouped under a (user, source) key prefix
// and only ever written through whole-source replacement.
type NatsAvailabilityRepository struct {
	*NatsBaseRepository[models.PersonalAvailability]
	keyBuilder *KeyBuilder
}

// NewNatsAvailabilityRepository creates a new NATS KV store repository for availability blocks.
func NewNatsAvailabilityRepository(kvStore INatsKeyValue) *NatsAvailabilityRepository {
	return &NatsAvailabilityRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.PersonalAvailability](kvStore, "availability block"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

// IsReady checks if the repository is ready.
func (r *NatsAvailabilityRepository) IsReady(ctx context.Context) bool {
	return r.NatsBaseRepository.IsReady()
}

// BlockUID derives a deterministic UID for an availability block from its
// content. Replaying the same block overwrites the same key, which is what
// makes whole-source replacement idempotent.
func BlockUID(block *models.PersonalAvailability) string {
	name := fmt.Sprintf("%s|%s|%s|%s|%s|%s",
		block.UserUID,
		block.Source,
		block.Date.UTC().Format("2006-01-02"),
		timeOfDayLabel(block.StartTime),
		timeOfDayLabel(block.EndTime),
		block.Type,
	)
	return uuid.NewSHA1(availabilityNamespace, []byte(name)).String()
}

func timeOfDayLabel(t *models.TimeOfDay) string {
	if t == nil {
		return "all-day"
	}
	return t.String()
}

// ReplaceForSource swaps every block for (user, source) with the given set.
// Stale keys are deleted first, then the new set is written; block UIDs are
// deterministic so replays converge on the same state.
func (r *NatsAvailabilityRepository) ReplaceForSource(ctx context.Context, userUID, source string, blocks []*models.PersonalAvailability) error {
	keys, err := r.ListKeys(ctx)
	if err != nil {
		return err
	}

	wanted := make(map[string]*models.PersonalAvailability, len(blocks))
	for _, block := range blocks {
		if block.UserUID == "" {
			block.UserUID = userUID
		}
		if block.Source == "" {
			block.Source = source
		}
		if block.UID == "" {
			block.UID = BlockUID(block)
		}
		key := r.keyBuilder.SourceScopedKey(KeyPrefixAvailability, userUID, source, block.UID)
		wanted[key] = block
	}

	prefix := r.keyBuilder.SourcePrefix(KeyPrefixAvailability, userUID, source)
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, keep := wanted[key]; keep {
			continue
		}
		if err := r.DeleteWithoutRevision(ctx, key); err != nil {
			if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
				continue
			}
			slog.ErrorContext(ctx, "error deleting stale availability block",
				logging.ErrKey, err, "key", key, "user_uid", userUID, "source", source)
			return err
		}
	}

	for key, block := range wanted {
		if err := r.NatsBaseRepository.Create(ctx, key, block); err != nil {
			return err
		}
	}

	return nil
}

// ListByUser retrieves every availability block for a user across sources.
func (r *NatsAvailabilityRepository) ListByUser(ctx context.Context, userUID string) ([]*models.PersonalAvailability, error) {
	return r.ListEntities(ctx, r.keyBuilder.ScopePrefix(KeyPrefixAvailability, userUID))
}

// ListByUserAndSource retrieves the blocks for one (user, source) pair.
func (r *NatsAvailabilityRepository) ListByUserAndSource(ctx context.Context, userUID, source string) ([]*models.PersonalAvailability, error) {
	return r.ListEntities(ctx, r.keyBuilder.SourcePrefix(KeyPrefixAvailability, userUID, source))
}
